// Package profile finds descent/peak/ascent cycles in the pressure record of a vertically
// profiling instrument such as a glider or a moored profiler.
//
// The pipeline smooths the record with a Savitzky-Golay filter, detects peaks (profile
// apices) and troughs (surface visits) with a scipy-compatible peak finder, and trims
// every trough-to-trough span to the sustained descent before the apex and the
// sustained ascent after it. All parameters are in samples. The package does no I/O
// and keeps no state, so concurrent calls are safe.
package profile

import (
	"fmt"
	"math"
)

// Params controls smoothing, detection and boundary refinement
type Params struct {
	// WindowLength is the Savitzky-Golay window, in samples
	WindowLength int `yaml:"window_length" json:"window_length" msgpack:"window_length"`
	// PolyOrder is the order of the Savitzky-Golay polynomial
	PolyOrder int `yaml:"polyorder" json:"polyorder" msgpack:"polyorder"`
	// Smoothing enables the Savitzky-Golay stage. When false the raw record is used.
	Smoothing bool `yaml:"smoothing" json:"smoothing" msgpack:"smoothing"`

	RunLength   int     `yaml:"run_length" json:"run_length" msgpack:"run_length"`
	MinIncrease float64 `yaml:"min_increase" json:"min_increase" msgpack:"min_increase"`
	MinDecrease float64 `yaml:"min_decrease" json:"min_decrease" msgpack:"min_decrease"`

	Peaks Constraints `yaml:"peaks" json:"peaks" msgpack:"peaks"`
	// Troughs falls back to Peaks when nil
	Troughs *Constraints `yaml:"troughs,omitempty" json:"troughs,omitempty" msgpack:"troughs,omitempty"`
}

// DefaultParams returns the default detection parameters
func DefaultParams() Params {
	return Params{
		WindowLength: 32,
		PolyOrder:    2,
		Smoothing:    true,
		RunLength:    10,
		MinIncrease:  0.01,
		MinDecrease:  -0.01,
		Peaks:        DefaultConstraints(),
	}
}

// TroughConstraints returns the constraints used for trough detection
func (p Params) TroughConstraints() Constraints {
	if p.Troughs != nil {
		return *p.Troughs
	}
	return p.Peaks
}

// Validate checks the refinement and detection parameters. Smoothing geometry depends
// on the series length and is checked by SavGolFilter.
func (p Params) Validate() error {
	if p.RunLength < 1 {
		return fmt.Errorf("%w: run length must be at least 1, got %d", ErrInvalidParameter, p.RunLength)
	}
	if !(p.MinIncrease > 0) {
		return fmt.Errorf("%w: min increase must be positive, got %v", ErrInvalidParameter, p.MinIncrease)
	}
	if !(p.MinDecrease < 0) {
		return fmt.Errorf("%w: min decrease must be negative, got %v", ErrInvalidParameter, p.MinDecrease)
	}
	if err := p.Peaks.validate(); err != nil {
		return fmt.Errorf("peaks: %w", err)
	}
	if err := p.TroughConstraints().validate(); err != nil {
		return fmt.Errorf("troughs: %w", err)
	}
	return nil
}

// Result holds the segments found in one record along with the extrema they came from
type Result struct {
	Segments []Segment
	Peaks    []Peak
	// Troughs describe the mirrored series; only Index refers to the original record
	Troughs []Peak
}

// FindProfiles returns one Segment per detected profile in pressure, ordered by peak
func FindProfiles(pressure []float64, params Params) ([]Segment, error) {
	res, err := Detect(pressure, params)
	if err != nil {
		return nil, err
	}
	return res.Segments, nil
}

// Detect runs the full pipeline and keeps the intermediate extrema
func Detect(pressure []float64, params Params) (Result, error) {
	if err := CheckFinite(pressure); err != nil {
		return Result{}, err
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}

	smoothed := pressure
	if params.Smoothing {
		var err error
		smoothed, err = SavGolFilter(pressure, params.WindowLength, params.PolyOrder)
		if err != nil {
			return Result{}, err
		}
	}
	diffs := Differences(smoothed)

	peaks, err := FindPeaks(smoothed, params.Peaks)
	if err != nil {
		return Result{}, fmt.Errorf("peaks: %w", err)
	}
	troughs, err := FindTroughs(smoothed, params.TroughConstraints())
	if err != nil {
		return Result{}, fmt.Errorf("troughs: %w", err)
	}

	refiner := Refiner{
		RunLength:   params.RunLength,
		MinIncrease: params.MinIncrease,
		MinDecrease: params.MinDecrease,
	}
	troughIdx := Indices(troughs)

	segments := make([]Segment, 0, len(peaks))
	for _, pk := range peaks {
		start, end := Bounds(pk.Index, troughIdx, len(pressure))
		segments = append(segments, Segment{
			Start: refiner.Start(diffs, start, pk.Index),
			Peak:  pk.Index,
			End:   refiner.End(diffs, end, pk.Index),
		})
	}

	return Result{Segments: segments, Peaks: peaks, Troughs: troughs}, nil
}

// CheckFinite rejects an empty series or one holding NaN or infinite values
func CheckFinite(pressure []float64) error {
	if len(pressure) == 0 {
		return fmt.Errorf("%w: pressure series is empty", ErrInvalidInput)
	}
	for i, v := range pressure {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite pressure %v at sample %d", ErrInvalidInput, v, i)
		}
	}
	return nil
}
