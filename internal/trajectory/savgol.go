package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SavitzkyGolay smooths data with a fixed-window polynomial least-squares
// filter. Interior points are the polynomial fit over the centred window
// evaluated at the centre. The two half-window ends use polynomial
// extrapolation: a single least-squares fit over the first (respectively
// last) full window, evaluated at the edge indices. This is the only edge
// policy used anywhere smoothing runs.
//
// The input must be at least window long.
func SavitzkyGolay(data []float64, window, polyorder int) ([]float64, error) {
	cfg := SmoothingConfig{Enabled: true, Window: window, PolyOrder: polyorder}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(data) < window {
		return nil, fmt.Errorf("savitzky-golay: series length %d shorter than window %d", len(data), window)
	}

	half := window / 2
	coeffs, err := savgolCoeffs(window, polyorder)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(data))
	for i := half; i < len(data)-half; i++ {
		var acc float64
		for k := 0; k < window; k++ {
			acc += coeffs[k] * data[i-half+k]
		}
		out[i] = acc
	}

	// Left edge: fit the first window, evaluate at offsets [0, half).
	left, err := polyFit(data[:window], polyorder)
	if err != nil {
		return nil, err
	}
	for i := 0; i < half; i++ {
		out[i] = polyEval(left, float64(i))
	}

	// Right edge: fit the last window, evaluate at its trailing offsets.
	right, err := polyFit(data[len(data)-window:], polyorder)
	if err != nil {
		return nil, err
	}
	for i := len(data) - half; i < len(data); i++ {
		x := float64(i - (len(data) - window))
		out[i] = polyEval(right, x)
	}

	return out, nil
}

// savgolCoeffs computes the convolution coefficients that evaluate the
// least-squares polynomial fit at the window centre: row zero of the
// pseudo-inverse of the Vandermonde design matrix over offsets
// [-half, half].
func savgolCoeffs(window, polyorder int) ([]float64, error) {
	half := window / 2

	a := mat.NewDense(window, polyorder+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		pow := 1.0
		for j := 0; j <= polyorder; j++ {
			a.Set(i, j, pow)
			pow *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("savitzky-golay: singular design matrix for window=%d order=%d: %w", window, polyorder, err)
	}
	var pinv mat.Dense
	pinv.Mul(&inv, a.T())

	coeffs := make([]float64, window)
	for i := range coeffs {
		coeffs[i] = pinv.At(0, i)
	}
	return coeffs, nil
}

// polyFit solves the least-squares polynomial fit of the given order over y
// at x = 0..len(y)-1 and returns the coefficients, constant term first.
func polyFit(y []float64, order int) ([]float64, error) {
	a := mat.NewDense(len(y), order+1, nil)
	for i := range y {
		pow := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, pow)
			pow *= float64(i)
		}
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, mat.NewVecDense(len(y), y)); err != nil {
		return nil, fmt.Errorf("savitzky-golay: edge fit failed: %w", err)
	}

	coeffs := make([]float64, order+1)
	for j := range coeffs {
		coeffs[j] = sol.AtVec(j)
	}
	return coeffs, nil
}

func polyEval(coeffs []float64, x float64) float64 {
	acc := 0.0
	for j := len(coeffs) - 1; j >= 0; j-- {
		acc = acc*x + coeffs[j]
	}
	return acc
}
