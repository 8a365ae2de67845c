package profile

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the segments found in one record
type Summary struct {
	Samples  int `json:"samples" msgpack:"samples"`
	Profiles int `json:"profiles" msgpack:"profiles"`
	Overlaps int `json:"overlaps" msgpack:"overlaps"`

	MeanDescent float64 `json:"mean_descent_samples" msgpack:"mean_descent_samples"`
	MinDescent  int     `json:"min_descent_samples" msgpack:"min_descent_samples"`
	MaxDescent  int     `json:"max_descent_samples" msgpack:"max_descent_samples"`
	MeanAscent  float64 `json:"mean_ascent_samples" msgpack:"mean_ascent_samples"`
	MinAscent   int     `json:"min_ascent_samples" msgpack:"min_ascent_samples"`
	MaxAscent   int     `json:"max_ascent_samples" msgpack:"max_ascent_samples"`

	// Coverage is the fraction of the record that falls inside at least one segment
	Coverage float64 `json:"coverage" msgpack:"coverage"`
}

// Summarize computes descent/ascent length statistics for segments found in a record
// of n samples
func Summarize(segments []Segment, n int) Summary {
	s := Summary{Samples: n, Profiles: len(segments)}
	if len(segments) == 0 || n == 0 {
		return s
	}

	descents := make([]float64, len(segments))
	ascents := make([]float64, len(segments))
	for i, seg := range segments {
		descents[i] = float64(seg.DescentSamples())
		ascents[i] = float64(seg.AscentSamples())
		if i > 0 && segments[i-1].Overlaps(seg) {
			s.Overlaps++
		}
	}

	s.MeanDescent = stat.Mean(descents, nil)
	s.MinDescent = int(floats.Min(descents))
	s.MaxDescent = int(floats.Max(descents))
	s.MeanAscent = stat.Mean(ascents, nil)
	s.MinAscent = int(floats.Min(ascents))
	s.MaxAscent = int(floats.Max(ascents))

	byStart := append([]Segment(nil), segments...)
	sort.Slice(byStart, func(i, j int) bool { return byStart[i].Start < byStart[j].Start })

	covered := 0
	next := 0
	for _, seg := range byStart {
		from := seg.Start
		if from < next {
			from = next
		}
		if seg.End >= from {
			covered += seg.End - from + 1
			next = seg.End + 1
		}
	}
	s.Coverage = float64(covered) / float64(n)

	return s
}
