// Package evaluation scores cortical parcellations.
//
// Labels are plain integer arrays, one entry per vertex. Non-negative values
// identify parcels; negative values mark boundary or unassigned vertices.
// Time-series matrices hold one vertex per row and are expected to be
// row-normalized (see package timeseries).
//
// Metrics:
//   - Dice overlap of two binary masks
//   - Craddock homogeneity: mean pairwise correlation inside each parcel
//   - PCA homogeneity: variance explained by each parcel's first component
//   - parcel correlation: Pearson matrix of parcel-mean time series
//   - hierarchical reordering of a correlation matrix by Ward clustering
//
// Numeric degeneracy inside valid data never fails a metric. It is sanitized
// in place, logged at warn level and returned as diagnostics where the
// result type has room for them.
package evaluation

import (
	"sort"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/mat"

	"parcelsurf/pkg/errors"
)

// Evaluator computes parcellation quality metrics
type Evaluator struct {
	logger      *log.Logger
	offDiagonal bool
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithLogger sets the logger used for diagnostics
func WithLogger(l *log.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithOffDiagonalCraddock makes Craddock homogeneity average only distinct
// vertex pairs instead of the whole correlation matrix. Single-vertex
// parcels have no pairs and are skipped in this mode.
func WithOffDiagonalCraddock() Option {
	return func(e *Evaluator) { e.offDiagonal = true }
}

// New creates an Evaluator
func New(opts ...Option) *Evaluator {
	e := &Evaluator{logger: log.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParcelScore is a metric value for one parcel
type ParcelScore struct {
	Parcel int
	Score  float64
}

// meanScore averages parcel scores
func meanScore(scores []ParcelScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}

// parcelMembers groups vertex indices by label, keeping labels >= minLabel.
// Parcel ids are returned in increasing order.
func parcelMembers(labels []int, minLabel int) ([]int, map[int][]int) {
	members := make(map[int][]int)
	for v, l := range labels {
		if l >= minLabel {
			members[l] = append(members[l], v)
		}
	}
	ids := make([]int, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, members
}

// checkShape verifies that labels and time series describe the same vertices
func checkShape(labels []int, ts mat.Matrix) (int, error) {
	if ts == nil {
		return 0, errors.Shape("nil time-series matrix")
	}
	r, c := ts.Dims()
	if r != len(labels) {
		return 0, errors.Shape("time series has %d rows for %d labels", r, len(labels))
	}
	if c < 2 {
		return 0, errors.Shape("time series needs at least 2 time points, got %d", c)
	}
	return c, nil
}

// BoundaryMask returns 1 where a label is negative (boundary or unassigned)
// and 0 inside parcels
func BoundaryMask(labels []int) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		if l < 0 {
			out[i] = 1
		}
	}
	return out
}
