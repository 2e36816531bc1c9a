// Package inflation deforms a surface mesh like a balloon: vertices are
// pushed outward along their normals and relaxed toward their neighbors,
// iteration after iteration, while the mesh topology stays fixed.
package inflation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/internal/models"
	"parcelsurf/pkg/errors"
	"parcelsurf/pkg/meshgraph"
)

// normalEpsilon is added to the accumulated normal length before division so
// that vertices whose face normals cancel out keep a zero normal
const normalEpsilon = 1e-9

// NormalWeighting selects how face normals are accumulated into vertex normals
type NormalWeighting int

const (
	// RawFaceNormals sums the raw edge cross products, so larger triangles
	// contribute proportionally more. This is the historical behaviour.
	RawFaceNormals NormalWeighting = iota

	// UnitFaceNormals normalises each face normal before summing, giving
	// every incident triangle the same weight.
	UnitFaceNormals
)

// String returns the configuration name of the weighting
func (w NormalWeighting) String() string {
	if w == UnitFaceNormals {
		return "unit"
	}
	return "raw"
}

// ParseNormalWeighting converts a configuration name to a NormalWeighting
func ParseNormalWeighting(s string) (NormalWeighting, error) {
	switch s {
	case "", "raw":
		return RawFaceNormals, nil
	case "unit":
		return UnitFaceNormals, nil
	default:
		return 0, errors.Config("unknown normal weighting %q (want raw or unit)", s)
	}
}

// Params holds the inflation parameters
type Params struct {
	// Iterations is the number of displacement + relaxation passes
	Iterations int

	// StepNormal is the distance each vertex moves along its unit normal per iteration
	StepNormal float64

	// StepSmooth in [0,1] weights the neighbor mean during relaxation
	StepSmooth float64

	// Normals selects the face-normal accumulation
	Normals NormalWeighting
}

// DefaultParams returns the customary balloon settings
func DefaultParams() Params {
	return Params{
		Iterations: 100,
		StepNormal: 0.1,
		StepSmooth: 0.1,
		Normals:    RawFaceNormals,
	}
}

// Validate checks the parameters
func (p Params) Validate() error {
	if p.Iterations < 0 {
		return errors.Config("negative iteration count %d", p.Iterations)
	}
	if math.IsNaN(p.StepNormal) || math.IsInf(p.StepNormal, 0) {
		return errors.Config("step normal must be finite, got %v", p.StepNormal)
	}
	if !(p.StepSmooth >= 0 && p.StepSmooth <= 1) {
		return errors.Config("step smooth must lie in [0,1], got %v", p.StepSmooth)
	}
	if p.Normals != RawFaceNormals && p.Normals != UnitFaceNormals {
		return errors.Config("unknown normal weighting %d", p.Normals)
	}
	return nil
}

// Inflate returns the mesh coordinates after p.Iterations balloon steps.
// The mesh is not modified. g must be the adjacency graph of m.
//
// Relaxation averages neighbor positions that were already displaced in the
// same iteration.
func Inflate(m *models.Mesh, g *meshgraph.Graph, p Params) ([]r3.Vec, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if g.Len() != m.NumVertices() {
		return nil, errors.Shape("graph has %d vertices, mesh has %d", g.Len(), m.NumVertices())
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	coords := m.CopyVertices()
	relaxed := make([]r3.Vec, len(coords))
	normals := make([]r3.Vec, len(coords))

	for iter := 0; iter < p.Iterations; iter++ {
		accumulateNormals(normals, coords, m.Faces, p.Normals)

		for v := range coords {
			coords[v] = r3.Add(coords[v], r3.Scale(p.StepNormal, normals[v]))
		}

		relax(relaxed, coords, g, p.StepSmooth)
		coords, relaxed = relaxed, coords
	}

	return coords, nil
}

// relax writes into dst the Laplacian relaxation of src
func relax(dst, src []r3.Vec, g *meshgraph.Graph, s float64) {
	for v := range src {
		ns := g.Neighbors(v)
		if len(ns) == 0 {
			dst[v] = src[v]
			continue
		}
		var sum r3.Vec
		for _, n := range ns {
			sum = r3.Add(sum, src[n])
		}
		mean := r3.Scale(1/float64(len(ns)), sum)
		dst[v] = r3.Add(r3.Scale(1-s, src[v]), r3.Scale(s, mean))
	}
}

// VertexNormals returns the unit vertex normals of a mesh
func VertexNormals(vertices []r3.Vec, faces []models.Face, w NormalWeighting) []r3.Vec {
	normals := make([]r3.Vec, len(vertices))
	accumulateNormals(normals, vertices, faces, w)
	return normals
}

// accumulateNormals fills dst with the normalised sum of incident face normals
func accumulateNormals(dst, coords []r3.Vec, faces []models.Face, w NormalWeighting) {
	for i := range dst {
		dst[i] = r3.Vec{}
	}
	for _, f := range faces {
		n := FaceNormal(coords[f[0]], coords[f[1]], coords[f[2]])
		if w == UnitFaceNormals {
			if l := r3.Norm(n); l > 0 {
				n = r3.Scale(1/l, n)
			}
		}
		dst[f[0]] = r3.Add(dst[f[0]], n)
		dst[f[1]] = r3.Add(dst[f[1]], n)
		dst[f[2]] = r3.Add(dst[f[2]], n)
	}
	for i, n := range dst {
		dst[i] = r3.Scale(1/(r3.Norm(n)+normalEpsilon), n)
	}
}

// FaceNormal returns the un-normalised normal (b-a)x(c-a) of a triangle.
// Its length is twice the triangle area.
func FaceNormal(a, b, c r3.Vec) r3.Vec {
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}
