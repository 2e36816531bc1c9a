// Package pipeline chains graph construction, region growing, inflation and
// evaluation into a single parcellation run over one hemisphere.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/internal/models"
	"parcelsurf/pkg/errors"
	"parcelsurf/pkg/evaluation"
	"parcelsurf/pkg/growth"
	"parcelsurf/pkg/inflation"
	"parcelsurf/pkg/meshgraph"
	"parcelsurf/pkg/timeseries"
)

// Metrics summarises the quality of a parcellation run.
type Metrics struct {
	// Regions is the number of non-empty parcels
	Regions int

	// Boundary and Unassigned count vertices outside every parcel
	Boundary   int
	Unassigned int

	// Craddock is the within-parcel correlation averaged over parcels and
	// subjects. Higher values indicate more homogeneous parcels.
	Craddock float64

	// PCA is the mean variance fraction explained by each parcel's first
	// principal component, on the first subject.
	PCA float64

	// BoundaryDice is the Dice overlap of the boundary masks of the result
	// and the reference labelling. NaN when no reference was given.
	BoundaryDice float64

	// MeanRadius and InflatedRadius are the mean vertex distances from the
	// centroid before and after inflation
	MeanRadius     float64
	InflatedRadius float64
}

// Params holds the parcellation parameters.
type Params struct {
	// Hemisphere is reported in logs only
	Hemisphere models.Hemisphere

	// Growth configures region growing. Rand makes seeding reproducible.
	Growth growth.Options

	// SeedPoints optionally places seeds at the vertices nearest to these
	// coordinates. It overrides Growth.Seeds and Growth.Regions.
	SeedPoints []r3.Vec

	// Inflation configures the balloon deformation
	Inflation inflation.Params

	// OffDiagonalCraddock excludes self-correlations from Craddock homogeneity
	OffDiagonalCraddock bool

	// Reorder clusters the parcel correlation matrix into diagonal blocks
	Reorder bool

	// RepetitionTime, LowCut and HighCut configure band-pass filtering of the
	// subject time series. Filtering is skipped when both cut-offs are zero.
	RepetitionTime float64
	LowCut         float64
	HighCut        float64

	// Modes is the number of spatial modes extracted from the first subject;
	// zero skips the decomposition
	Modes int

	// MinVariance drops near-constant rows before mode extraction
	MinVariance float64

	// NumCores bounds how many subjects are preprocessed concurrently
	NumCores int
}

// Report holds everything a run produced
type Report struct {
	Labels      growth.Labels
	Inflated    []r3.Vec
	Correlation *evaluation.ParcelCorrelation

	// Reordered is the block-ordered parcel correlation matrix and Order the
	// row permutation that produced it; both nil unless Params.Reorder is set
	Reordered *mat.Dense
	Order     []int

	Modes       *timeseries.Modes
	Metrics     Metrics
	Diagnostics []error
}

// Parcellator runs the parcellation pipeline.
//
// The run consists of:
// 1. Validating the mesh and building its adjacency graph
// 2. Band-pass filtering and normalizing subject time series in parallel
// 3. Growing regions from seeds
// 4. Inflating the surface
// 5. Scoring the parcellation
// 6. Extracting spatial modes
type Parcellator struct {
	params *Params
	logger *log.Logger
	report *Report
}

// NewParcellator creates a parcellator. A nil logger uses log.Default().
func NewParcellator(params *Params, logger *log.Logger) *Parcellator {
	if logger == nil {
		logger = log.Default()
	}
	return &Parcellator{params: params, logger: logger}
}

// Process runs the complete pipeline. subjects holds one vertex-by-time
// matrix per subject; reference is an optional labelling to compare
// boundaries against.
func (p *Parcellator) Process(ctx context.Context, mesh *models.Mesh, subjects []mat.Matrix, reference []int) error {
	rep := &Report{}
	p.report = nil

	// Step 1: Build the mesh graph
	p.logger.Info("Step 1: Building mesh graph", "hemisphere", p.params.Hemisphere, "vertices", mesh.NumVertices(), "faces", len(mesh.Faces))
	g, err := meshgraph.FromMesh(mesh)
	if err != nil {
		return fmt.Errorf("failed to build mesh graph: %w", err)
	}
	p.logger.Debug("mesh graph ready", "graph", g, "components", len(g.Components()), "isolated", len(g.Isolated()))

	if len(subjects) == 0 {
		return errors.Shape("no subject time series given")
	}
	if reference != nil && len(reference) != g.Len() {
		return errors.Shape("reference has %d labels for %d vertices", len(reference), g.Len())
	}

	// Step 2: Preprocess time series
	p.logger.Info("Step 2: Preprocessing time series", "subjects", len(subjects))
	prepared, diags, err := p.prepareSubjects(ctx, g.Len(), subjects)
	if err != nil {
		return fmt.Errorf("failed to preprocess time series: %w", err)
	}
	rep.Diagnostics = append(rep.Diagnostics, diags...)

	// Step 3: Grow regions
	p.logger.Info("Step 3: Growing regions")
	opts, err := p.growthOptions(mesh)
	if err != nil {
		return fmt.Errorf("failed to place seeds: %w", err)
	}
	rep.Labels, err = growth.Grow(g, opts)
	if err != nil {
		return fmt.Errorf("failed to grow regions: %w", err)
	}
	summary := rep.Labels.Summarize()
	rep.Metrics.Regions = summary.Regions()
	rep.Metrics.Boundary = summary.Boundary
	rep.Metrics.Unassigned = summary.Unassigned
	p.logger.Debug("growth finished", "regions", rep.Metrics.Regions, "boundary", summary.Boundary, "unassigned", summary.Unassigned)

	// Step 4: Inflate the surface
	p.logger.Info("Step 4: Inflating surface", "iterations", p.params.Inflation.Iterations)
	rep.Inflated, err = inflation.Inflate(mesh, g, p.params.Inflation)
	if err != nil {
		return fmt.Errorf("failed to inflate surface: %w", err)
	}
	rep.Metrics.MeanRadius = meanRadius(mesh.Vertices)
	rep.Metrics.InflatedRadius = meanRadius(rep.Inflated)

	// Step 5: Score the parcellation
	p.logger.Info("Step 5: Evaluating parcellation")
	if err := p.evaluate(rep, prepared, reference); err != nil {
		return fmt.Errorf("failed to evaluate parcellation: %w", err)
	}

	// Step 6: Spatial modes
	if p.params.Modes > 0 {
		p.logger.Info("Step 6: Extracting spatial modes", "modes", p.params.Modes)
		rep.Modes, err = timeseries.SpatialModes(prepared[0], p.params.Modes, p.params.MinVariance)
		if err != nil {
			return fmt.Errorf("failed to extract spatial modes: %w", err)
		}
	}

	for _, d := range rep.Diagnostics {
		p.logger.Warn("numeric degeneracy", "err", d)
	}
	p.report = rep
	return nil
}

// prepareSubjects filters and normalizes every subject, NumCores at a time
func (p *Parcellator) prepareSubjects(ctx context.Context, vertices int, subjects []mat.Matrix) ([]mat.Matrix, []error, error) {
	for s, ts := range subjects {
		if r, _ := ts.Dims(); r != vertices {
			return nil, nil, errors.Shape("subject %d has %d rows for %d vertices", s, r, vertices)
		}
	}

	cores := p.params.NumCores
	if cores < 1 {
		cores = runtime.NumCPU()
	}

	prepared := make([]mat.Matrix, len(subjects))
	degenerate := make([][]int, len(subjects))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(cores)
	for s, ts := range subjects {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var src mat.Matrix = ts
			if p.params.LowCut > 0 || p.params.HighCut > 0 {
				filtered, err := timeseries.BandPass(ts, p.params.RepetitionTime, p.params.LowCut, p.params.HighCut)
				if err != nil {
					return fmt.Errorf("subject %d: %w", s, err)
				}
				src = filtered
			}
			norm, bad, err := timeseries.Normalize(src)
			if err != nil {
				return fmt.Errorf("subject %d: %w", s, err)
			}
			prepared[s] = norm
			degenerate[s] = bad
			p.logger.Debug("subject prepared", "subject", s, "degenerate", len(bad))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var diags []error
	for s, bad := range degenerate {
		for _, d := range timeseries.Diagnostics(bad) {
			diags = append(diags, fmt.Errorf("subject %d: %w", s, d))
		}
	}
	return prepared, diags, nil
}

// growthOptions resolves seed points to vertices when they are given
func (p *Parcellator) growthOptions(mesh *models.Mesh) (growth.Options, error) {
	opts := p.params.Growth
	if len(p.params.SeedPoints) == 0 {
		return opts, nil
	}
	loc, err := meshgraph.NewLocator(mesh.Vertices)
	if err != nil {
		return opts, err
	}
	seeds, err := growth.SeedsNear(loc, p.params.SeedPoints)
	if err != nil {
		return opts, err
	}
	opts.Seeds = seeds
	opts.Regions = len(seeds)
	return opts, nil
}

func (p *Parcellator) evaluate(rep *Report, subjects []mat.Matrix, reference []int) error {
	evalOpts := []evaluation.Option{evaluation.WithLogger(p.logger)}
	if p.params.OffDiagonalCraddock {
		evalOpts = append(evalOpts, evaluation.WithOffDiagonalCraddock())
	}
	ev := evaluation.New(evalOpts...)
	labels := rep.Labels.Ints()

	var err error
	rep.Metrics.Craddock, err = ev.CraddockHomogeneity(labels, subjects)
	if err != nil {
		return err
	}
	rep.Metrics.PCA, err = ev.PCAHomogeneity(oneBased(labels), subjects[0])
	if err != nil {
		return err
	}

	rep.Correlation, err = ev.ParcelCorrelation(labels, subjects[0])
	if err != nil {
		return err
	}
	rep.Diagnostics = append(rep.Diagnostics, rep.Correlation.Diagnostics...)

	if p.params.Reorder {
		rep.Reordered, rep.Order, err = evaluation.HierarchicalReorder(rep.Correlation.Matrix)
		if err != nil {
			return err
		}
	}

	rep.Metrics.BoundaryDice = math.NaN()
	if reference != nil {
		rep.Metrics.BoundaryDice, err = evaluation.BoundaryDice(labels, reference)
		if err != nil {
			return err
		}
	}
	return nil
}

// oneBased shifts region ids up by one so that region 0 is not mistaken
// for background
func oneBased(labels []int) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		if l >= 0 {
			l++
		}
		out[i] = l
	}
	return out
}

// meanRadius is the mean distance of the points from their centroid
func meanRadius(points []r3.Vec) float64 {
	if len(points) == 0 {
		return 0
	}
	var c r3.Vec
	for _, v := range points {
		c = r3.Add(c, v)
	}
	c = r3.Scale(1/float64(len(points)), c)

	var sum float64
	for _, v := range points {
		sum += r3.Norm(r3.Sub(v, c))
	}
	return sum / float64(len(points))
}

// Report returns the results of the last successful Process call, or nil
func (p *Parcellator) Report() *Report {
	return p.report
}

// GetMetrics returns the metrics of the last successful run
func (p *Parcellator) GetMetrics() Metrics {
	if p.report == nil {
		return Metrics{BoundaryDice: math.NaN()}
	}
	return p.report.Metrics
}
