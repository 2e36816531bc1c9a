package synthetic

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/internal/models"
	"parcelsurf/pkg/errors"
	"parcelsurf/pkg/growth"
	"parcelsurf/pkg/meshgraph"
)

// Params controls synthetic dataset generation
type Params struct {
	// Subdivisions is the icosphere refinement level
	Subdivisions int

	// Radius of the sphere in mm
	Radius float64

	// Subjects is the number of time-series matrices to draw
	Subjects int

	// TimePoints is the number of samples per vertex
	TimePoints int

	// Sources is the number of latent signals; each owns the vertices
	// closest to its center
	Sources int

	// Noise is the standard deviation of the per-vertex noise before smoothing
	Noise float64

	// Smoothing is the number of graph smoothing passes applied to the noise
	// of each time point
	Smoothing int

	// Seed makes generation reproducible
	Seed uint64
}

// Dataset is a generated surface with subject time series and the true
// source assignment of every vertex
type Dataset struct {
	Mesh     *models.Mesh
	Graph    *meshgraph.Graph
	Centers  []int
	Truth    []int
	Subjects []*mat.Dense
}

// Generate builds a dataset. Vertex time series are the time course of the
// nearest source plus spatially smooth Gaussian noise.
func Generate(p Params) (*Dataset, error) {
	if p.Subjects < 1 {
		return nil, errors.Config("subject count must be at least 1, got %d", p.Subjects)
	}
	if p.TimePoints < 2 {
		return nil, errors.Config("need at least 2 time points, got %d", p.TimePoints)
	}
	if p.Noise < 0 {
		return nil, errors.Config("noise level must be non-negative, got %v", p.Noise)
	}

	mesh, err := Icosphere(p.Subdivisions, p.Radius)
	if err != nil {
		return nil, err
	}
	g, err := meshgraph.FromMesh(mesh)
	if err != nil {
		return nil, err
	}

	n := mesh.NumVertices()
	if p.Sources < 1 || p.Sources > n {
		return nil, errors.Config("source count %d outside [1, %d]", p.Sources, n)
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	centers := growth.ChooseSeeds(n, p.Sources, rng)

	truth, err := nearestCenter(mesh.Vertices, centers)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Mesh: mesh, Graph: g, Centers: centers, Truth: truth}
	for s := 0; s < p.Subjects; s++ {
		ts, err := subjectSeries(g, truth, p, rng)
		if err != nil {
			return nil, err
		}
		ds.Subjects = append(ds.Subjects, ts)
	}
	return ds, nil
}

// nearestCenter assigns every vertex to the index of its closest center
func nearestCenter(vertices []r3.Vec, centers []int) ([]int, error) {
	pts := make([]r3.Vec, len(centers))
	for i, c := range centers {
		pts[i] = vertices[c]
	}
	loc, err := meshgraph.NewLocator(pts)
	if err != nil {
		return nil, err
	}
	truth := make([]int, len(vertices))
	for v, x := range vertices {
		truth[v], _ = loc.Nearest(x)
	}
	return truth, nil
}

func subjectSeries(g *meshgraph.Graph, truth []int, p Params, rng *rand.Rand) (*mat.Dense, error) {
	n := g.Len()
	courses := mat.NewDense(p.Sources, p.TimePoints, nil)
	for s := 0; s < p.Sources; s++ {
		for t := 0; t < p.TimePoints; t++ {
			courses.Set(s, t, rng.NormFloat64())
		}
	}

	ts := mat.NewDense(n, p.TimePoints, nil)
	noise := make([]float64, n)
	for t := 0; t < p.TimePoints; t++ {
		for v := range noise {
			noise[v] = p.Noise * rng.NormFloat64()
		}
		smooth, err := g.SmoothScalar(noise, p.Smoothing)
		if err != nil {
			return nil, err
		}
		for v, x := range smooth {
			ts.Set(v, t, courses.At(truth[v], t)+x)
		}
	}
	return ts, nil
}

// Reference returns the true labelling with every vertex that touches
// another source's territory marked as boundary (-2)
func (d *Dataset) Reference() []int {
	ref := make([]int, len(d.Truth))
	for v, l := range d.Truth {
		ref[v] = l
		for _, u := range d.Graph.Neighbors(v) {
			if d.Truth[u] != l {
				ref[v] = growth.BoundaryValue
				break
			}
		}
	}
	return ref
}
