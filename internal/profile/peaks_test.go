package profile

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name     string
		x        []float64
		expected []int
	}{
		{"empty", nil, nil},
		{"single peaks", []float64{0, 1, 0, 2, 0, 3, 0}, []int{1, 3, 5}},
		{"odd plateau", []float64{0, 1, 1, 1, 0}, []int{2}},
		{"even plateau rounds down", []float64{0, 1, 1, 0}, []int{1}},
		{"plateau at left edge", []float64{1, 1, 0}, nil},
		{"plateau at right edge", []float64{0, 1, 1}, nil},
		{"shoulder is not a peak", []float64{0, 1, 1, 2, 0}, []int{3}},
		{"monotonic", []float64{0, 1, 2, 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := localMaxima(tt.x)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFindPeaks(t *testing.T) {
	tests := []struct {
		name        string
		x           []float64
		constraints Constraints
		expected    []int
	}{
		{
			name:     "unconstrained",
			x:        []float64{0, 1, 0, 2, 0, 3, 0},
			expected: []int{1, 3, 5},
		},
		{
			name:        "height",
			x:           []float64{0, 1, 0, 2, 0, 3, 0},
			constraints: Constraints{Height: Float(2)},
			expected:    []int{3, 5},
		},
		{
			name:        "distance keeps the highest",
			x:           []float64{0, 1, 0, 2, 0, 3, 0},
			constraints: Constraints{Distance: 3},
			expected:    []int{1, 5},
		},
		{
			name:        "distance tie keeps the later",
			x:           []float64{0, 2, 0, 2, 0},
			constraints: Constraints{Distance: 3},
			expected:    []int{3},
		},
		{
			name:        "distance tie chain",
			x:           []float64{0, 1, 0, 1, 0, 1, 0},
			constraints: Constraints{Distance: 3},
			expected:    []int{1, 5},
		},
		{
			name:        "distance of one is no constraint",
			x:           []float64{0, 2, 0, 2, 0},
			constraints: Constraints{Distance: 1},
			expected:    []int{1, 3},
		},
		{
			name:        "prominence",
			x:           []float64{0, 3, 1, 2, 0},
			constraints: Constraints{Prominence: Float(2)},
			expected:    []int{1},
		},
		{
			name:        "width passes",
			x:           []float64{0, 1, 2, 3, 2, 1, 0},
			constraints: Constraints{Width: Float(3)},
			expected:    []int{3},
		},
		{
			name:        "width rejects",
			x:           []float64{0, 1, 2, 3, 2, 1, 0},
			constraints: Constraints{Width: Float(3.5)},
			expected:    []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peaks, err := FindPeaks(tt.x, tt.constraints)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			result := Indices(peaks)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFindPeaksProperties(t *testing.T) {
	peaks, err := FindPeaks([]float64{0, 3, 1, 2, 0}, Constraints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("expected 2 peaks, got %d", len(peaks))
	}

	expected := []Peak{
		{Index: 1, Height: 3, Prominence: 3, LeftBase: 0, RightBase: 4, Width: 1.25, LeftIP: 0.5, RightIP: 1.75},
		{Index: 3, Height: 2, Prominence: 1, LeftBase: 2, RightBase: 4, Width: 0.75, LeftIP: 2.5, RightIP: 3.25},
	}
	for i, want := range expected {
		got := peaks[i]
		if got.Index != want.Index || got.LeftBase != want.LeftBase || got.RightBase != want.RightBase {
			t.Errorf("peak %d: expected %+v, got %+v", i, want, got)
		}
		for _, pair := range [][2]float64{
			{got.Height, want.Height},
			{got.Prominence, want.Prominence},
			{got.Width, want.Width},
			{got.LeftIP, want.LeftIP},
			{got.RightIP, want.RightIP},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-12 {
				t.Errorf("peak %d: expected %+v, got %+v", i, want, got)
				break
			}
		}
	}
}

func TestFindTroughs(t *testing.T) {
	troughs, err := FindTroughs([]float64{3, 1, 3, 0, 3}, Constraints{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result := Indices(troughs); !reflect.DeepEqual(result, []int{1, 3}) {
		t.Errorf("expected [1 3], got %v", result)
	}
}

func TestFindPeaksInvalidConstraints(t *testing.T) {
	tests := []struct {
		name        string
		constraints Constraints
	}{
		{"negative distance", Constraints{Distance: -1}},
		{"negative width", Constraints{Width: Float(-1)}},
		{"negative prominence", Constraints{Prominence: Float(-0.5)}},
		{"NaN height", Constraints{Height: Float(math.NaN())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FindPeaks([]float64{0, 1, 0}, tt.constraints)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestDefaultConstraintsAreIndependent(t *testing.T) {
	a := DefaultConstraints()
	*a.Height = 1

	b := DefaultConstraints()
	if *b.Height != 25 {
		t.Errorf("expected default height 25, got %v", *b.Height)
	}

	c := b.Clone()
	*c.Width = 1
	if *b.Width != 500 {
		t.Errorf("clone shares width with original")
	}
}
