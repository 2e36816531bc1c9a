package timeseries

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"

	"parcelsurf/pkg/errors"
)

// BandPass filters every row of ts in the frequency domain, keeping the
// components whose frequency lies in [low, high] Hz. tr is the repetition
// time (sampling interval) in seconds. A high cut-off of zero keeps every
// frequency above low.
//
// Resting-state analyses typically use 0.01-0.1 Hz.
func BandPass(ts mat.Matrix, tr, low, high float64) (*mat.Dense, error) {
	r, c := ts.Dims()
	if r == 0 || c == 0 {
		return nil, errors.Shape("empty time-series matrix %dx%d", r, c)
	}
	if !(tr > 0) {
		return nil, errors.Config("repetition time must be positive, got %v", tr)
	}
	if low < 0 || (high != 0 && high <= low) {
		return nil, errors.Config("invalid pass band [%v, %v] Hz", low, high)
	}

	fft := fourier.NewFFT(c)
	coeffs := make([]complex128, c/2+1)
	row := make([]float64, c)
	out := mat.NewDense(r, c, nil)

	for i := 0; i < r; i++ {
		mat.Row(row, i, ts)
		fft.Coefficients(coeffs, row)

		for k := range coeffs {
			// Freq returns cycles per sample
			f := fft.Freq(k) / tr
			if f < low || (high != 0 && f > high) {
				coeffs[k] = 0
			}
		}

		fft.Sequence(row, coeffs)
		// gonum's inverse transform is unnormalized
		for j := range row {
			row[j] /= float64(c)
		}
		out.SetRow(i, row)
	}

	return out, nil
}
