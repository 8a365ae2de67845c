package profile

import "sort"

// Differences returns the first difference of x: d[i] = x[i+1]-x[i]
func Differences(x []float64) []float64 {
	if len(x) < 2 {
		return []float64{}
	}
	d := make([]float64, len(x)-1)
	for i := range d {
		d[i] = x[i+1] - x[i]
	}
	return d
}

// Refiner trims the trough-to-trough bounds of a peak down to the sustained descent
// and ascent around it.
type Refiner struct {
	// RunLength is how many consecutive differences must pass a threshold
	RunLength int
	// MinIncrease is the per-sample pressure increase every descent difference must exceed
	MinIncrease float64
	// MinDecrease is the per-sample pressure change every ascent difference must stay below
	MinDecrease float64
}

// Bounds returns the provisional start and end of the profile around peak: the nearest
// troughs on either side, or the first and last sample when no trough brackets the peak.
// troughs must be sorted in increasing order.
func Bounds(peak int, troughs []int, n int) (start, end int) {
	start, end = 0, n-1

	if lo := sort.SearchInts(troughs, peak); lo > 0 {
		start = troughs[lo-1]
	}
	if hi := sort.SearchInts(troughs, peak+1); hi < len(troughs) {
		end = troughs[hi]
	}
	return start, end
}

// Start scans forward from the provisional start and returns the first index that opens
// a run of RunLength differences above MinIncrease ending before the peak. When no such
// run exists the provisional start is returned.
func (r Refiner) Start(diffs []float64, start, peak int) int {
	for i := start; i < peak-r.RunLength; i++ {
		if allAbove(diffs[i:i+r.RunLength], r.MinIncrease) {
			return i
		}
	}
	return start
}

// End scans backward from the provisional end and returns the first index that closes a
// run of RunLength differences below MinDecrease starting after the peak. When no such
// run exists the provisional end is returned.
func (r Refiner) End(diffs []float64, end, peak int) int {
	for i := end; i > peak+r.RunLength; i-- {
		if allBelow(diffs[i-r.RunLength:i], r.MinDecrease) {
			return i
		}
	}
	return end
}

func allAbove(d []float64, threshold float64) bool {
	for _, v := range d {
		if !(v > threshold) {
			return false
		}
	}
	return true
}

func allBelow(d []float64, threshold float64) bool {
	for _, v := range d {
		if !(v < threshold) {
			return false
		}
	}
	return true
}
