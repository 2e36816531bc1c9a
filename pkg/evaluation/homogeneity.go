package evaluation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"parcelsurf/pkg/errors"
	"parcelsurf/pkg/timeseries"
)

// CraddockHomogeneity returns the mean within-parcel correlation averaged
// over parcels and then over subjects. Every subject matrix must have one row
// per label. Parcels are the non-negative labels.
func (e *Evaluator) CraddockHomogeneity(labels []int, subjects []mat.Matrix) (float64, error) {
	if len(subjects) == 0 {
		return 0, errors.Shape("no subject time series given")
	}

	var total float64
	for s, ts := range subjects {
		scores, err := e.CraddockScores(labels, ts)
		if err != nil {
			return 0, err
		}
		if len(scores) == 0 {
			return 0, errors.Config("subject %d: no parcel could be scored", s)
		}
		subj := meanScore(scores)
		e.logger.Debug("craddock homogeneity", "subject", s, "parcels", len(scores), "score", subj)
		total += subj
	}
	return total / float64(len(subjects)), nil
}

// CraddockScores returns the Craddock homogeneity of every parcel of one
// subject: the mean of the Pearson correlation matrix among the parcel's
// member rows, NaN entries counted as zero. By default the whole matrix is
// averaged, diagonal included.
func (e *Evaluator) CraddockScores(labels []int, ts mat.Matrix) ([]ParcelScore, error) {
	t, err := checkShape(labels, ts)
	if err != nil {
		return nil, err
	}

	ids, members := parcelMembers(labels, 0)
	scores := make([]ParcelScore, 0, len(ids))
	nanParcels := 0

	for _, id := range ids {
		rows := members[id]
		n := len(rows)
		if e.offDiagonal && n < 2 {
			continue
		}

		// one column per member vertex
		obs := mat.NewDense(t, n, nil)
		flat := make([]bool, n)
		buf := make([]float64, t)
		for j, r := range rows {
			mat.Row(buf, r, ts)
			obs.SetCol(j, buf)
			v := stat.Variance(buf, nil)
			flat[j] = v == 0 || math.IsNaN(v)
		}
		var corr mat.SymDense
		stat.CorrelationMatrix(&corr, obs, nil)

		var sum float64
		hadNaN := false
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if e.offDiagonal && i == j {
					continue
				}
				// gonum pins the diagonal to 1; a flat row correlates with nothing
				v := corr.At(i, j)
				if math.IsNaN(v) || (i == j && flat[i]) {
					hadNaN = true
					continue
				}
				sum += v
			}
		}
		if hadNaN {
			nanParcels++
		}

		count := n * n
		if e.offDiagonal {
			count = n * (n - 1)
		}
		scores = append(scores, ParcelScore{Parcel: id, Score: sum / float64(count)})
	}

	if nanParcels > 0 {
		e.logger.Warn("zero-variance vertices counted as uncorrelated", "parcels", nanParcels)
	}
	return scores, nil
}

// PCAHomogeneity returns the mean over parcels of the fraction of variance
// explained by the first principal component of the parcel's rows. Only
// strictly positive labels are parcels; label 0 is background.
func (e *Evaluator) PCAHomogeneity(labels []int, ts mat.Matrix) (float64, error) {
	scores, err := e.PCAScores(labels, ts)
	if err != nil {
		return 0, err
	}
	if len(scores) == 0 {
		return 0, errors.Config("labels contain no positive parcel")
	}
	return meanScore(scores), nil
}

// PCAScores returns the first-component explained-variance ratio of every
// positive parcel. A parcel whose rows carry no variance around their mean,
// including a single-vertex parcel, is perfectly homogeneous and scores 1.
func (e *Evaluator) PCAScores(labels []int, ts mat.Matrix) ([]ParcelScore, error) {
	if _, err := checkShape(labels, ts); err != nil {
		return nil, err
	}

	ids, members := parcelMembers(labels, 1)
	scores := make([]ParcelScore, 0, len(ids))

	for _, id := range ids {
		rows := members[id]
		if len(rows) < 2 {
			scores = append(scores, ParcelScore{Parcel: id, Score: 1})
			continue
		}

		data := timeseries.Rows(ts, rows)
		var pc stat.PC
		if ok := pc.PrincipalComponents(data, nil); !ok {
			e.logger.Warn("principal component analysis failed", "parcel", id)
			scores = append(scores, ParcelScore{Parcel: id, Score: 0})
			continue
		}
		vars := pc.VarsTo(nil)

		var total float64
		for _, v := range vars {
			total += v
		}
		score := 1.0
		if total > 0 {
			score = vars[0] / total
		}
		scores = append(scores, ParcelScore{Parcel: id, Score: score})
	}

	return scores, nil
}
