package profile

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/chrissnell/deepcut/internal/synthetic"
)

// gliderParams matches a short synthetic record: no smoothing and constraints scaled
// down to dives of a few dozen samples.
func gliderParams() Params {
	p := DefaultParams()
	p.Smoothing = false
	p.Peaks = Constraints{
		Height:     Float(100),
		Distance:   5,
		Width:      Float(5),
		Prominence: Float(100),
	}
	return p
}

func TestFindProfilesSyntheticGlider(t *testing.T) {
	pressure, err := synthetic.GlidePressure(synthetic.Options{
		NPoints:       200,
		MaxP:          500,
		IntermediateP: 200,
		Cycles:        5,
	})
	if err != nil {
		t.Fatalf("failed to generate record: %v", err)
	}

	res, err := Detect(pressure, gliderParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []Segment{
		{Start: 0, Peak: 16, End: 33},
		{Start: 33, Peak: 50, End: 66},
		{Start: 66, Peak: 83, End: 99},
		{Start: 100, Peak: 116, End: 133},
		{Start: 133, Peak: 149, End: 166},
		{Start: 166, Peak: 182, End: 199},
	}
	if !reflect.DeepEqual(res.Segments, expected) {
		t.Errorf("expected segments %v, got %v", expected, res.Segments)
	}
	if troughs := Indices(res.Troughs); !reflect.DeepEqual(troughs, []int{33, 66, 100, 133, 166}) {
		t.Errorf("unexpected troughs %v", troughs)
	}

	checkSegments(t, res.Segments, len(pressure))
}

func gliderRecord(t *testing.T, noise float64) []float64 {
	t.Helper()
	pressure, err := synthetic.GlidePressure(synthetic.Options{
		NPoints:       200,
		MaxP:          500,
		IntermediateP: 200,
		Cycles:        5,
		NoiseStd:      noise,
		Seed:          7,
	})
	if err != nil {
		t.Fatalf("failed to generate record: %v", err)
	}
	return pressure
}

func TestFindProfilesSmoothingOffIgnoresWindow(t *testing.T) {
	pressure := gliderRecord(t, 0)

	want, err := FindProfiles(pressure, gliderParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Geometry that SavGolFilter would reject is never looked at
	for _, geom := range []struct{ window, order int }{{0, 99}, {-3, 2}, {1000, 0}, {5, 5}} {
		params := gliderParams()
		params.WindowLength = geom.window
		params.PolyOrder = geom.order

		got, err := FindProfiles(pressure, params)
		if err != nil {
			t.Errorf("window=%d order=%d: unexpected error: %v", geom.window, geom.order, err)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("window=%d order=%d: expected %v, got %v", geom.window, geom.order, want, got)
		}
	}
}

func TestFindProfilesDeterministic(t *testing.T) {
	pressure := gliderRecord(t, 3)
	input := append([]float64(nil), pressure...)

	params := gliderParams()
	params.Smoothing = true
	params.WindowLength = 9
	params.PolyOrder = 3

	first, err := Detect(pressure, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Detect(pressure, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Segments) == 0 {
		t.Fatal("expected segments in the noisy record")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated detection differs:\n%v\n%v", first, second)
	}
	if !reflect.DeepEqual(pressure, input) {
		t.Error("detection modified its input")
	}
}

func TestFindProfilesFlatRecord(t *testing.T) {
	segments, err := FindProfiles(make([]float64, 100), DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected no segments, got %v", segments)
	}
}

func TestFindProfilesSeparateTroughConstraints(t *testing.T) {
	pressure, err := synthetic.GlidePressure(synthetic.Options{
		NPoints:       200,
		MaxP:          500,
		IntermediateP: 200,
		Cycles:        5,
	})
	if err != nil {
		t.Fatalf("failed to generate record: %v", err)
	}

	// Trough constraints that nothing satisfies leave every peak bracketed by the record
	// edges, and the record starts and ends mid-dive so refinement keeps them.
	params := gliderParams()
	params.Troughs = &Constraints{Height: Float(1e9)}

	res, err := Detect(pressure, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Troughs) != 0 {
		t.Fatalf("expected no troughs, got %v", Indices(res.Troughs))
	}
	for i, seg := range res.Segments {
		if seg.Start != 0 || seg.End != len(pressure)-1 {
			t.Errorf("segment %d: expected to span the record, got %v", i, seg)
		}
	}
	if len(res.Segments) != 6 {
		t.Errorf("expected 6 segments, got %d", len(res.Segments))
	}
}

func TestFindProfilesInvalid(t *testing.T) {
	valid := make([]float64, 100)
	withNaN := make([]float64, 100)
	withNaN[40] = math.NaN()
	withInf := make([]float64, 100)
	withInf[0] = math.Inf(1)

	mutate := func(f func(*Params)) Params {
		p := DefaultParams()
		f(&p)
		return p
	}

	tests := []struct {
		name     string
		pressure []float64
		params   Params
		wantErr  error
	}{
		{"empty series", nil, DefaultParams(), ErrInvalidInput},
		{"NaN sample", withNaN, DefaultParams(), ErrInvalidInput},
		{"infinite sample", withInf, DefaultParams(), ErrInvalidInput},
		{"zero run length", valid, mutate(func(p *Params) { p.RunLength = 0 }), ErrInvalidParameter},
		{"non-positive increase", valid, mutate(func(p *Params) { p.MinIncrease = 0 }), ErrInvalidParameter},
		{"non-negative decrease", valid, mutate(func(p *Params) { p.MinDecrease = 0.01 }), ErrInvalidParameter},
		{"window longer than series", make([]float64, 20), DefaultParams(), ErrInvalidParameter},
		{"order not below window", valid, mutate(func(p *Params) { p.PolyOrder = 32 }), ErrInvalidParameter},
		{"negative peak width", valid, mutate(func(p *Params) { p.Peaks.Width = Float(-1) }), ErrInvalidParameter},
		{"negative trough prominence", valid, mutate(func(p *Params) { p.Troughs = &Constraints{Prominence: Float(-1)} }), ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindProfiles(tt.pressure, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFindProfilesShortSeriesWithoutSmoothing(t *testing.T) {
	params := DefaultParams()
	params.Smoothing = false

	segments, err := FindProfiles([]float64{1}, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("expected no segments, got %v", segments)
	}
}

func TestSegmentOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Segment
		expected bool
	}{
		{"shared boundary", Segment{0, 5, 10}, Segment{10, 15, 20}, false},
		{"disjoint", Segment{0, 5, 10}, Segment{12, 15, 20}, false},
		{"overlapping", Segment{0, 5, 12}, Segment{10, 15, 20}, true},
		{"nested", Segment{0, 10, 20}, Segment{5, 8, 9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("reversed: expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// checkSegments asserts the ordering and range invariants every result must hold
func checkSegments(t *testing.T, segments []Segment, n int) {
	t.Helper()
	for i, seg := range segments {
		if seg.Start < 0 || seg.End > n-1 {
			t.Errorf("segment %d %v out of range [0, %d]", i, seg, n-1)
		}
		if seg.Start > seg.Peak || seg.Peak > seg.End {
			t.Errorf("segment %d %v is not ordered", i, seg)
		}
		if i > 0 && segments[i-1].Peak >= seg.Peak {
			t.Errorf("segment %d peak %d does not follow %d", i, seg.Peak, segments[i-1].Peak)
		}
	}
}
