package profile

// Segment is one descent/peak/ascent cycle expressed as sample indices.
// Start <= Peak <= End always holds.
type Segment struct {
	Start int `json:"start" msgpack:"start"`
	Peak  int `json:"peak" msgpack:"peak"`
	End   int `json:"end" msgpack:"end"`
}

// DescentSamples returns the number of samples between the start and the peak
func (s Segment) DescentSamples() int {
	return s.Peak - s.Start
}

// AscentSamples returns the number of samples between the peak and the end
func (s Segment) AscentSamples() int {
	return s.End - s.Peak
}

// Overlaps reports whether two segments share more than a boundary sample
func (s Segment) Overlaps(o Segment) bool {
	return s.Start < o.End && o.Start < s.End
}
