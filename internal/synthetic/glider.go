// Package synthetic generates idealised pressure records of a profiling glider for
// demos and tests.
package synthetic

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"
)

var errInvalidOptions = errors.New("invalid synthetic record options")

// Options shapes a synthetic glider record
type Options struct {
	// NPoints is the length of the generated record
	NPoints int
	// MaxP is the pressure reached at the bottom of every full dive
	MaxP float64
	// IntermediateP is the depth of the flat-bottomed test dive that opens the record
	IntermediateP float64
	// Cycles is the number of full dives after the test dive
	Cycles int
	// NoiseStd adds Gaussian noise with this standard deviation when positive
	NoiseStd float64
	// Seed makes the noise reproducible
	Seed uint64
}

// DefaultOptions returns a five-dive record of 1000 samples without noise
func DefaultOptions() Options {
	return Options{
		NPoints:       1000,
		MaxP:          500,
		IntermediateP: 200,
		Cycles:        5,
	}
}

// Each dive spans one unit of phase. The test dive descends over its first 0.3, holds
// IntermediateP until 0.7 and surfaces at 1.0. Full dives bottom out at mid-unit.
const (
	testDiveDescentEnd = 0.3
	testDivePlateauEnd = 0.7
	fullDiveBottom     = 0.5
)

// GlidePressure returns a record of exactly NPoints samples: a shallow test dive with a
// flat bottom at IntermediateP followed by Cycles V-shaped dives to MaxP, each starting
// and ending at the surface (zero pressure).
func GlidePressure(opts Options) ([]float64, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	xs := []float64{0, testDiveDescentEnd, testDivePlateauEnd, 1}
	ys := []float64{0, opts.IntermediateP, opts.IntermediateP, 0}
	for c := 1; c <= opts.Cycles; c++ {
		xs = append(xs, float64(c)+fullDiveBottom, float64(c+1))
		ys = append(ys, opts.MaxP, 0)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("failed to fit dive waveform: %w", err)
	}

	phase := floats.Span(make([]float64, opts.NPoints), 0, xs[len(xs)-1])
	pressure := make([]float64, opts.NPoints)
	for i, x := range phase {
		pressure[i] = pl.Predict(x)
	}

	if opts.NoiseStd > 0 {
		noise := distuv.Normal{
			Mu:    0,
			Sigma: opts.NoiseStd,
			Src:   rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15),
		}
		for i := range pressure {
			pressure[i] += noise.Rand()
		}
	}

	return pressure, nil
}

func (o Options) validate() error {
	switch {
	case o.NPoints < 2:
		return fmt.Errorf("%w: need at least 2 points, got %d", errInvalidOptions, o.NPoints)
	case o.Cycles < 0:
		return fmt.Errorf("%w: cycles must be non-negative, got %d", errInvalidOptions, o.Cycles)
	case !(o.MaxP > 0):
		return fmt.Errorf("%w: max pressure must be positive, got %v", errInvalidOptions, o.MaxP)
	case o.IntermediateP < 0 || o.IntermediateP > o.MaxP:
		return fmt.Errorf("%w: intermediate pressure %v must lie within [0, %v]", errInvalidOptions, o.IntermediateP, o.MaxP)
	case o.NoiseStd < 0:
		return fmt.Errorf("%w: noise must be non-negative, got %v", errInvalidOptions, o.NoiseStd)
	}
	return nil
}
