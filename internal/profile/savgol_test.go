package profile

import (
	"errors"
	"math"
	"testing"
)

func TestSavGolFilter(t *testing.T) {
	data := []float64{2, 2, 5, 2, 1, 0, 1, 4, 9}

	tests := []struct {
		name         string
		windowLength int
		polyOrder    int
		expected     []float64
	}{
		{
			name:         "odd window",
			windowLength: 5,
			polyOrder:    2,
			expected:     []float64{1.65714286, 3.17142857, 3.54285714, 2.85714286, 0.65714286, 0.17142857, 1.0, 4.0, 9.0},
		},
		{
			name:         "even window",
			windowLength: 4,
			polyOrder:    2,
			expected:     []float64{1.55, 3.35, 3.75, 1.375, 0.375, 0.25, 2.25, 4.0, 9.0},
		},
		{
			name:         "window of one is identity",
			windowLength: 1,
			polyOrder:    0,
			expected:     data,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := SavGolFilter(data, tt.windowLength, tt.polyOrder)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result) != len(data) {
				t.Fatalf("expected %d values, got %d", len(data), len(result))
			}
			for i, want := range tt.expected {
				if math.Abs(result[i]-want) > 1e-6 {
					t.Errorf("index %d: expected %.8f, got %.8f", i, want, result[i])
				}
			}
		})
	}
}

func TestSavGolFilterPreservesPolynomials(t *testing.T) {
	quadratic := make([]float64, 40)
	for i := range quadratic {
		x := float64(i)
		quadratic[i] = 3 - 0.5*x + 0.25*x*x
	}

	result, err := SavGolFilter(quadratic, 9, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range quadratic {
		if math.Abs(result[i]-quadratic[i]) > 1e-7 {
			t.Errorf("index %d: expected %v, got %v", i, quadratic[i], result[i])
		}
	}
}

func TestSavGolFilterEvenWindowRamp(t *testing.T) {
	// An even window reports the fit at the half-sample position, so a ramp is shifted by
	// half a step in the interior and reproduced exactly at the edges.
	ramp := make([]float64, 30)
	for i := range ramp {
		ramp[i] = 2 * float64(i)
	}

	result, err := SavGolFilter(ramp, 6, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range ramp {
		want := ramp[i]
		if i >= 3 && i < len(ramp)-3 {
			want = 2 * (float64(i) + 0.5)
		}
		if math.Abs(result[i]-want) > 1e-8 {
			t.Errorf("index %d: expected %v, got %v", i, want, result[i])
		}
	}
}

func TestSavGolFilterInvalid(t *testing.T) {
	data := make([]float64, 10)

	tests := []struct {
		name         string
		windowLength int
		polyOrder    int
	}{
		{"zero window", 0, 0},
		{"negative order", 5, -1},
		{"order equals window", 5, 5},
		{"window longer than data", 11, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SavGolFilter(data, tt.windowLength, tt.polyOrder)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}
