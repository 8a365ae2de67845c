package profile

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// relHeight is the fraction of the prominence below the peak at which widths are measured
const relHeight = 0.5

// Constraints restricts which local maxima FindPeaks reports. A nil threshold or a zero
// Distance leaves that property unconstrained.
type Constraints struct {
	// Height is the minimum sample value of a peak
	Height *float64 `yaml:"height,omitempty" json:"height,omitempty" msgpack:"height,omitempty"`

	// Distance is the minimum spacing, in samples, between neighbouring peaks.
	// Lower peaks inside the exclusion window of a higher one are dropped.
	Distance int `yaml:"distance,omitempty" json:"distance,omitempty" msgpack:"distance,omitempty"`

	// Width is the minimum peak width, in samples, measured at half prominence
	Width *float64 `yaml:"width,omitempty" json:"width,omitempty" msgpack:"width,omitempty"`

	// Prominence is the minimum vertical drop from a peak to its higher base
	Prominence *float64 `yaml:"prominence,omitempty" json:"prominence,omitempty" msgpack:"prominence,omitempty"`
}

// DefaultConstraints returns the detection constraints tuned for full-depth profiles
// sampled at several hertz. A fresh value is returned on every call.
func DefaultConstraints() Constraints {
	return Constraints{
		Height:     Float(25),
		Distance:   500,
		Width:      Float(500),
		Prominence: Float(25),
	}
}

// Float returns a pointer to v, for filling optional Constraints fields
func Float(v float64) *float64 {
	return &v
}

// Clone returns a deep copy of c
func (c Constraints) Clone() Constraints {
	out := Constraints{Distance: c.Distance}
	if c.Height != nil {
		out.Height = Float(*c.Height)
	}
	if c.Width != nil {
		out.Width = Float(*c.Width)
	}
	if c.Prominence != nil {
		out.Prominence = Float(*c.Prominence)
	}
	return out
}

func (c Constraints) validate() error {
	if c.Distance < 0 {
		return fmt.Errorf("%w: distance must be non-negative, got %d", ErrInvalidParameter, c.Distance)
	}
	if c.Height != nil && math.IsNaN(*c.Height) {
		return fmt.Errorf("%w: height must not be NaN", ErrInvalidParameter)
	}
	if c.Width != nil && (math.IsNaN(*c.Width) || *c.Width < 0) {
		return fmt.Errorf("%w: width must be non-negative", ErrInvalidParameter)
	}
	if c.Prominence != nil && (math.IsNaN(*c.Prominence) || *c.Prominence < 0) {
		return fmt.Errorf("%w: prominence must be non-negative", ErrInvalidParameter)
	}
	return nil
}

// Peak describes one local maximum reported by FindPeaks
type Peak struct {
	Index      int     `json:"index" msgpack:"index"`
	Height     float64 `json:"height" msgpack:"height"`
	Prominence float64 `json:"prominence" msgpack:"prominence"`
	LeftBase   int     `json:"left_base" msgpack:"left_base"`
	RightBase  int     `json:"right_base" msgpack:"right_base"`
	Width      float64 `json:"width" msgpack:"width"`
	// LeftIP and RightIP are the interpolated positions where the peak crosses the
	// width reference height.
	LeftIP  float64 `json:"left_ip" msgpack:"left_ip"`
	RightIP float64 `json:"right_ip" msgpack:"right_ip"`
}

// FindPeaks returns the local maxima of x that satisfy every constraint in c, in
// increasing index order. It follows scipy.signal.find_peaks: constraints are applied
// in the order height, distance, prominence, width, and flat maxima are reported at
// their midpoint.
func FindPeaks(x []float64, c Constraints) ([]Peak, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	idx := localMaxima(x)

	if c.Height != nil {
		kept := idx[:0]
		for _, p := range idx {
			if x[p] >= *c.Height {
				kept = append(kept, p)
			}
		}
		idx = kept
	}

	if c.Distance > 1 {
		idx = selectByDistance(x, idx, c.Distance)
	}

	peaks := make([]Peak, 0, len(idx))
	for _, p := range idx {
		pk := Peak{Index: p, Height: x[p]}
		measureProminence(x, &pk)
		if c.Prominence != nil && pk.Prominence < *c.Prominence {
			continue
		}
		measureWidth(x, &pk)
		if c.Width != nil && pk.Width < *c.Width {
			continue
		}
		peaks = append(peaks, pk)
	}

	return peaks, nil
}

// FindTroughs returns the local minima of x that satisfy c. The series is mirrored as
// max(x)-x so minima become maxima, and Peak values describe the mirrored series.
func FindTroughs(x []float64, c Constraints) ([]Peak, error) {
	return FindPeaks(Mirror(x), c)
}

// Mirror returns max(x)-x
func Mirror(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	top := floats.Max(x)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = top - v
	}
	return out
}

// Indices extracts the sample index of each peak
func Indices(peaks []Peak) []int {
	out := make([]int, len(peaks))
	for i, p := range peaks {
		out[i] = p.Index
	}
	return out
}

// localMaxima finds every sample that is higher than both neighbours. A run of equal
// samples bounded by lower ones on both sides counts as one maximum at its midpoint.
func localMaxima(x []float64) []int {
	var maxima []int
	last := len(x) - 1

	for i := 1; i < last; i++ {
		if x[i-1] >= x[i] {
			continue
		}
		ahead := i + 1
		for ahead < last && x[ahead] == x[i] {
			ahead++
		}
		if x[ahead] < x[i] {
			maxima = append(maxima, (i+ahead-1)/2)
			i = ahead
		}
	}

	return maxima
}

// selectByDistance keeps the highest peaks first and drops any lower peak closer than
// distance samples to one already kept. Equal heights favour the later peak, matching
// scipy's walk from the end of a stable ascending sort.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if len(peaks) == 0 {
		return peaks
	}

	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ha, hb := x[peaks[order[a]]], x[peaks[order[b]]]
		if ha != hb {
			return ha > hb
		}
		return order[a] > order[b]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}

	for _, j := range order {
		if !keep[j] {
			continue
		}
		for k := j - 1; k >= 0 && peaks[j]-peaks[k] < distance; k-- {
			keep[k] = false
		}
		for k := j + 1; k < len(peaks) && peaks[k]-peaks[j] < distance; k++ {
			keep[k] = false
		}
	}

	kept := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			kept = append(kept, p)
		}
	}
	return kept
}

// measureProminence walks away from the peak on each side until a higher sample or the
// series edge, recording the lowest point passed as that side's base.
func measureProminence(x []float64, pk *Peak) {
	p := pk.Index
	top := x[p]

	leftMin := top
	pk.LeftBase = p
	for i := p; i >= 0 && x[i] <= top; i-- {
		if x[i] < leftMin {
			leftMin = x[i]
			pk.LeftBase = i
		}
	}

	rightMin := top
	pk.RightBase = p
	for i := p; i < len(x) && x[i] <= top; i++ {
		if x[i] < rightMin {
			rightMin = x[i]
			pk.RightBase = i
		}
	}

	pk.Prominence = top - math.Max(leftMin, rightMin)
}

// measureWidth finds where the peak crosses the reference height top-prominence*relHeight
// between its bases, interpolating linearly between samples.
func measureWidth(x []float64, pk *Peak) {
	p := pk.Index
	height := x[p] - pk.Prominence*relHeight

	i := p
	for pk.LeftBase < i && height < x[i] {
		i--
	}
	pk.LeftIP = float64(i)
	if x[i] < height {
		pk.LeftIP += (height - x[i]) / (x[i+1] - x[i])
	}

	i = p
	for i < pk.RightBase && height < x[i] {
		i++
	}
	pk.RightIP = float64(i)
	if x[i] < height {
		pk.RightIP -= (height - x[i]) / (x[i-1] - x[i])
	}

	pk.Width = pk.RightIP - pk.LeftIP
}
