package evaluation

import (
	"math"

	"github.com/viterin/vek"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"parcelsurf/pkg/errors"
)

// ParcelCorrelation is the Pearson correlation between parcel-mean time series
type ParcelCorrelation struct {
	// Parcels lists the parcel id of each matrix row, in increasing order
	Parcels []int

	// Matrix is the K x K correlation matrix
	Matrix *mat.SymDense

	// Diagnostics reports parcels whose mean series or correlations were
	// not finite. Affected entries are zero in Matrix.
	Diagnostics []error
}

// ParcelCorrelation averages the rows of every non-negative parcel and
// correlates the resulting mean series.
func (e *Evaluator) ParcelCorrelation(labels []int, ts mat.Matrix) (*ParcelCorrelation, error) {
	t, err := checkShape(labels, ts)
	if err != nil {
		return nil, err
	}

	ids, members := parcelMembers(labels, 0)
	if len(ids) == 0 {
		return nil, errors.Config("labels contain no parcel")
	}

	res := &ParcelCorrelation{Parcels: ids}
	means := mat.NewDense(t, len(ids), nil)
	row := make([]float64, t)
	mean := make([]float64, t)

	for k, id := range ids {
		for i := range mean {
			mean[i] = 0
		}
		for _, r := range members[id] {
			mat.Row(row, r, ts)
			vek.Add_Inplace(mean, row)
		}
		vek.MulNumber_Inplace(mean, 1/float64(len(members[id])))

		if hasNaN(mean) {
			d := errors.Degenerate("parcel %d has NaN values in its mean time series", id)
			res.Diagnostics = append(res.Diagnostics, d)
			e.logger.Warn("parcel mean series has NaN values", "parcel", id)
		}
		means.SetCol(k, mean)
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, means, nil)

	for i := range ids {
		mat.Col(row, i, means)
		if v := stat.Variance(row, nil); v == 0 || math.IsNaN(v) {
			d := errors.Degenerate("parcel %d has a degenerate mean time series, correlations set to 0", ids[i])
			res.Diagnostics = append(res.Diagnostics, d)
			e.logger.Warn("degenerate parcel correlation", "parcel", ids[i])
			corr.SetSym(i, i, 0)
		}
		for j := i; j < len(ids); j++ {
			if v := corr.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				corr.SetSym(i, j, 0)
			}
		}
	}

	res.Matrix = &corr
	return res, nil
}

func hasNaN(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
