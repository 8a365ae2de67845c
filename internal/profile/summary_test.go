package profile

import (
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		n        int
		expected Summary
	}{
		{
			name:     "no segments",
			n:        30,
			expected: Summary{Samples: 30},
		},
		{
			name:     "adjacent segments",
			segments: []Segment{{0, 5, 10}, {10, 15, 20}},
			n:        30,
			expected: Summary{
				Samples: 30, Profiles: 2,
				MeanDescent: 5, MinDescent: 5, MaxDescent: 5,
				MeanAscent: 5, MinAscent: 5, MaxAscent: 5,
				Coverage: 0.7,
			},
		},
		{
			name:     "overlapping segments",
			segments: []Segment{{0, 5, 12}, {10, 18, 20}},
			n:        30,
			expected: Summary{
				Samples: 30, Profiles: 2, Overlaps: 1,
				MeanDescent: 6.5, MinDescent: 5, MaxDescent: 8,
				MeanAscent: 4.5, MinAscent: 2, MaxAscent: 7,
				Coverage: 0.7,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.segments, tt.n)
			coverage := got.Coverage
			got.Coverage, tt.expected.Coverage = 0, 0
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
			want := 0.0
			if len(tt.segments) > 0 {
				want = 0.7
			}
			if math.Abs(coverage-want) > 1e-12 {
				t.Errorf("expected coverage %v, got %v", want, coverage)
			}
		})
	}
}
