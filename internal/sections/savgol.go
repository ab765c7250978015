package sections

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/paddock/internal/telemetry"
)

// SavitzkyGolay smooths y by fitting a polynomial of the given degree to
// every window of samples and evaluating it at the window centre. The
// first and last window/2 samples take their values from a single fit of
// the first and last window respectively, so the output has len(y)
// samples and no padding is invented.
//
// For an even window the window of output i spans
// [i-window/2+1, i+window/2] and the fit is evaluated half a sample
// after i.
func SavitzkyGolay(y []float64, window, degree int) ([]float64, error) {
	if window < 1 || degree < 0 || degree >= window {
		return nil, fmt.Errorf("savgol: window %d degree %d: %w", window, degree, telemetry.ErrConfiguration)
	}
	if window > len(y) {
		return nil, fmt.Errorf("savgol: window %d longer than %d samples: %w", window, len(y), telemetry.ErrConfiguration)
	}

	design := vandermonde(window, degree)

	// Row 0 of the least squares solution operator holds the weights that
	// produce the constant term, the fitted value at the window centre.
	identity := mat.NewDense(window, window, nil)
	for i := 0; i < window; i++ {
		identity.Set(i, i, 1)
	}
	var op mat.Dense
	if err := op.Solve(design, identity); err != nil {
		return nil, fmt.Errorf("savgol: %w", err)
	}
	weights := mat.Row(nil, 0, &op)

	n := len(y)
	half := window / 2
	lead := (window - 1) / 2
	out := make([]float64, n)
	for i := half; i < n-half; i++ {
		v := 0.0
		for j, w := range weights {
			v += w * y[i-lead+j]
		}
		out[i] = v
	}

	if err := fitEdge(design, y, 0, 0, half, out); err != nil {
		return nil, err
	}
	if err := fitEdge(design, y, n-window, n-half, n, out); err != nil {
		return nil, err
	}
	return out, nil
}

// vandermonde returns the window x (degree+1) design matrix with offsets
// measured from the window centre.
func vandermonde(window, degree int) *mat.Dense {
	centre := float64(window-1) / 2
	a := mat.NewDense(window, degree+1, nil)
	for r := 0; r < window; r++ {
		u := float64(r) - centre
		v := 1.0
		for c := 0; c <= degree; c++ {
			a.Set(r, c, v)
			v *= u
		}
	}
	return a
}

// fitEdge fits the window of y starting at windowStart and writes the
// fitted values for indices [from, to) into out.
func fitEdge(design *mat.Dense, y []float64, windowStart, from, to int, out []float64) error {
	window, cols := design.Dims()
	b := mat.NewDense(window, 1, append([]float64(nil), y[windowStart:windowStart+window]...))
	var coef mat.Dense
	if err := coef.Solve(design, b); err != nil {
		return fmt.Errorf("savgol edge: %w", err)
	}
	centre := float64(window-1) / 2
	for i := from; i < to; i++ {
		u := float64(i-windowStart) - centre
		v, p := 0.0, 1.0
		for c := 0; c < cols; c++ {
			v += coef.At(c, 0) * p
			p *= u
		}
		out[i] = v
	}
	return nil
}
