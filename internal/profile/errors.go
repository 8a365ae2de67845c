package profile

import "errors"

var (
	// ErrInvalidInput is returned when the pressure series is empty or holds a
	// non-finite value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidParameter is returned when a smoothing, refinement or detection
	// parameter is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)
