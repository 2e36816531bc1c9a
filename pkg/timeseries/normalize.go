// Package timeseries prepares per-vertex fMRI time series for parcellation
// evaluation. A time-series matrix holds one vertex per row and one time
// point per column.
package timeseries

import (
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"parcelsurf/pkg/errors"
)

// Normalize z-scores every row of raw to zero mean and unit population
// variance. Rows with zero or undefined variance, and any entry that is not
// finite after scaling, are set to zero. The indices of degenerate rows are
// returned so callers can report them. If every row is degenerate the
// normalization is undefined and a configuration error is returned.
func Normalize(raw mat.Matrix) (*mat.Dense, []int, error) {
	r, c := raw.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.Shape("empty time-series matrix %dx%d", r, c)
	}

	out := mat.NewDense(r, c, nil)
	var degenerate []int
	row := make([]float64, c)

	for i := 0; i < r; i++ {
		mat.Row(row, i, raw)
		mean, std := stat.PopMeanStdDev(row, nil)
		if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
			degenerate = append(degenerate, i)
			continue
		}
		vek.SubNumber_Inplace(row, mean)
		vek.DivNumber_Inplace(row, std)
		sanitize(row)
		out.SetRow(i, row)
	}

	if len(degenerate) == r {
		return nil, degenerate, errors.Config("all %d rows have zero variance, normalization is undefined", r)
	}
	return out, degenerate, nil
}

// sanitize replaces NaN and Inf entries with zero
func sanitize(x []float64) int {
	n := 0
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			x[i] = 0
			n++
		}
	}
	return n
}

// Diagnostics converts degenerate row indices into numeric-degeneracy
// diagnostics
func Diagnostics(degenerate []int) []error {
	out := make([]error, len(degenerate))
	for i, r := range degenerate {
		out[i] = errors.Degenerate("row %d has zero variance and was zeroed", r)
	}
	return out
}

// Rows extracts the listed rows of ts as a new matrix
func Rows(ts mat.Matrix, rows []int) *mat.Dense {
	_, c := ts.Dims()
	out := mat.NewDense(len(rows), c, nil)
	buf := make([]float64, c)
	for i, r := range rows {
		mat.Row(buf, r, ts)
		out.SetRow(i, buf)
	}
	return out
}
