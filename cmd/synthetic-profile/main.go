// Package main writes a synthetic glider pressure record in the RBR export layout.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/deepcut/internal/dataset"
	"github.com/chrissnell/deepcut/internal/synthetic"
)

func main() {
	defaults := synthetic.DefaultOptions()

	output := flag.String("output", "", "File to write (default stdout)")
	points := flag.Int("points", defaults.NPoints, "Number of samples")
	maxP := flag.Float64("max-pressure", defaults.MaxP, "Pressure at the bottom of each full dive, in dbar")
	intermediateP := flag.Float64("intermediate-pressure", defaults.IntermediateP, "Plateau pressure of the opening test dive, in dbar")
	cycles := flag.Int("cycles", defaults.Cycles, "Number of full dives")
	noise := flag.Float64("noise", defaults.NoiseStd, "Standard deviation of Gaussian noise, in dbar")
	seed := flag.Uint64("seed", defaults.Seed, "Noise seed")
	flag.Parse()

	pressure, err := synthetic.GlidePressure(synthetic.Options{
		NPoints:       *points,
		MaxP:          *maxP,
		IntermediateP: *intermediateP,
		Cycles:        *cycles,
		NoiseStd:      *noise,
		Seed:          *seed,
	})
	if err != nil {
		fail(err)
	}

	header := [][]string{{"synthetic glider record"}, {"Pressure"}}
	if *output == "" {
		if err := dataset.WriteCSV(os.Stdout, header, pressure); err != nil {
			fail(err)
		}
		return
	}

	if err := writeFile(*output, header, pressure); err != nil {
		fail(err)
	}
}

// writeFile writes the record to path. A failed close is reported since it can lose the
// final buffered rows.
func writeFile(path string, header [][]string, pressure []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, header, pressure); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
