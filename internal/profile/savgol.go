package profile

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SavGolFilter applies a Savitzky-Golay filter to data (scipy.signal.savgol_filter
// compatible, mode="interp").
//
// Each interior sample is replaced by the value at the window centre of a least-squares
// polynomial of order polyOrder fitted over windowLength samples. Even window lengths
// are centred on the half-sample position, so the window for sample i runs from
// i-(windowLength-1)/2 to i+windowLength/2. The first and last windowLength/2 samples
// are taken from a polynomial fitted to the first and last windowLength samples.
func SavGolFilter(data []float64, windowLength, polyOrder int) ([]float64, error) {
	if err := validateSavGol(len(data), windowLength, polyOrder); err != nil {
		return nil, err
	}

	n := len(data)
	half := windowLength / 2
	offset := (windowLength - 1) / 2
	smoothed := make([]float64, n)

	coeffs, err := savGolCoeffs(windowLength, polyOrder)
	if err != nil {
		return nil, err
	}

	for i := half; i < n-half; i++ {
		window := data[i-offset : i-offset+windowLength]
		sum := 0.0
		for j, c := range coeffs {
			sum += c * window[j]
		}
		smoothed[i] = sum
	}

	left := make([]int, half)
	right := make([]int, half)
	for k := 0; k < half; k++ {
		left[k] = k
		right[k] = windowLength - half + k
	}

	if err := fitEdge(data[:windowLength], polyOrder, left, smoothed[:half]); err != nil {
		return nil, err
	}
	if err := fitEdge(data[n-windowLength:], polyOrder, right, smoothed[n-half:]); err != nil {
		return nil, err
	}

	return smoothed, nil
}

func validateSavGol(n, windowLength, polyOrder int) error {
	if windowLength < 1 {
		return fmt.Errorf("%w: window length must be positive, got %d", ErrInvalidParameter, windowLength)
	}
	if polyOrder < 0 {
		return fmt.Errorf("%w: polynomial order must be non-negative, got %d", ErrInvalidParameter, polyOrder)
	}
	if polyOrder >= windowLength {
		return fmt.Errorf("%w: polynomial order %d must be less than window length %d",
			ErrInvalidParameter, polyOrder, windowLength)
	}
	if windowLength > n {
		return fmt.Errorf("%w: window length %d exceeds series length %d", ErrInvalidParameter, windowLength, n)
	}
	return nil
}

// savGolCoeffs returns the weights w such that dot(w, window) is the fitted polynomial
// evaluated at the window centre (windowLength-1)/2.
func savGolCoeffs(windowLength, polyOrder int) ([]float64, error) {
	qr := windowQR(windowLength, polyOrder)

	// Row 0 of the pseudo-inverse maps a window onto the constant term, which is the
	// fitted value at the centre because the design is centred there.
	ident := make([]float64, windowLength)
	for i := range ident {
		ident[i] = 1
	}
	var pinv mat.Dense
	if err := qr.SolveTo(&pinv, false, mat.NewDiagDense(windowLength, ident)); err != nil {
		return nil, fmt.Errorf("failed to solve savgol coefficients: %w", err)
	}

	return mat.Row(nil, 0, &pinv), nil
}

// fitEdge fits a polynomial over window and writes its value at each of the given
// window positions into dst.
func fitEdge(window []float64, polyOrder int, positions []int, dst []float64) error {
	if len(positions) == 0 {
		return nil
	}

	qr := windowQR(len(window), polyOrder)

	beta := mat.NewVecDense(polyOrder+1, nil)
	if err := qr.SolveVecTo(beta, false, mat.NewVecDense(len(window), append([]float64(nil), window...))); err != nil {
		return fmt.Errorf("failed to fit edge polynomial: %w", err)
	}

	centre, scale := windowScale(len(window))
	for k, pos := range positions {
		t := (float64(pos) - centre) / scale
		// Horner evaluation
		v := 0.0
		for j := polyOrder; j >= 0; j-- {
			v = v*t + beta.AtVec(j)
		}
		dst[k] = v
	}
	return nil
}

// windowQR factorizes the Vandermonde design of a window whose abscissae are centred
// on the window midpoint and scaled to roughly [-1, 1].
func windowQR(windowLength, polyOrder int) *mat.QR {
	centre, scale := windowScale(windowLength)

	design := mat.NewDense(windowLength, polyOrder+1, nil)
	for i := 0; i < windowLength; i++ {
		t := (float64(i) - centre) / scale
		p := 1.0
		for j := 0; j <= polyOrder; j++ {
			design.Set(i, j, p)
			p *= t
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	return &qr
}

func windowScale(windowLength int) (centre, scale float64) {
	centre = float64(windowLength-1) / 2
	scale = centre
	if scale < 1 {
		scale = 1
	}
	return centre, scale
}
