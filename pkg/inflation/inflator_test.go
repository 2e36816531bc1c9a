package inflation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/internal/models"
	"parcelsurf/pkg/errors"
	"parcelsurf/pkg/meshgraph"
)

// octahedron returns a unit octahedron with outward-facing triangles
func octahedron() *models.Mesh {
	return &models.Mesh{
		Vertices: []r3.Vec{
			{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {Z: 1}, {Z: -1},
		},
		Faces: []models.Face{
			{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
			{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
		},
	}
}

func build(t *testing.T, m *models.Mesh) *meshgraph.Graph {
	t.Helper()
	g, err := meshgraph.FromMesh(m)
	require.NoError(t, err)
	return g
}

func assertVec(t *testing.T, want, got r3.Vec, tol float64, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, tol, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, tol, msgAndArgs...)
}

func TestVertexNormalsPointOutward(t *testing.T) {
	m := octahedron()
	normals := VertexNormals(m.Vertices, m.Faces, RawFaceNormals)
	for v, p := range m.Vertices {
		assertVec(t, p, normals[v], 1e-8, "vertex %d", v)
	}
}

func TestZeroStepNormalIsPureSmoothing(t *testing.T) {
	m := octahedron()
	g := build(t, m)

	out, err := Inflate(m, g, Params{Iterations: 1, StepNormal: 0, StepSmooth: 0.5})
	require.NoError(t, err)

	// the four neighbors of every vertex average to the origin
	for v, p := range m.Vertices {
		assertVec(t, r3.Scale(0.5, p), out[v], 1e-12, "vertex %d", v)
	}
}

func TestRelaxationAveragesDisplacedNeighbors(t *testing.T) {
	m := octahedron()
	m.Vertices[4] = r3.Vec{X: 0.2, Y: 0.1, Z: 1.3}
	g := build(t, m)

	const h, s = 0.2, 0.3
	normals := VertexNormals(m.Vertices, m.Faces, RawFaceNormals)
	displaced := make([]r3.Vec, len(m.Vertices))
	for v, p := range m.Vertices {
		displaced[v] = r3.Add(p, r3.Scale(h, normals[v]))
	}

	out, err := Inflate(m, g, Params{Iterations: 1, StepNormal: h, StepSmooth: s})
	require.NoError(t, err)

	var staleGap float64
	for v := range m.Vertices {
		var moved, still r3.Vec
		ns := g.Neighbors(v)
		for _, u := range ns {
			moved = r3.Add(moved, displaced[u])
			still = r3.Add(still, m.Vertices[u])
		}
		k := 1 / float64(len(ns))
		want := r3.Add(r3.Scale(1-s, displaced[v]), r3.Scale(s*k, moved))
		assertVec(t, want, out[v], 1e-12, "vertex %d", v)

		stale := r3.Add(r3.Scale(1-s, displaced[v]), r3.Scale(s*k, still))
		staleGap = math.Max(staleGap, r3.Norm(r3.Sub(stale, out[v])))
	}
	// averaging the undisplaced neighbors would land elsewhere
	assert.Greater(t, staleGap, 1e-6)
}

func TestZeroStepSmoothIsPureDisplacement(t *testing.T) {
	m := octahedron()
	// perturb so the normals are not trivially radial
	m.Vertices[4] = r3.Vec{X: 0.2, Y: 0.1, Z: 1.3}
	g := build(t, m)

	normals := VertexNormals(m.Vertices, m.Faces, RawFaceNormals)
	out, err := Inflate(m, g, Params{Iterations: 1, StepNormal: 0.25, StepSmooth: 0})
	require.NoError(t, err)

	for v, p := range m.Vertices {
		moved := r3.Sub(out[v], p)
		assert.InDelta(t, 0.25, r3.Norm(moved), 1e-8, "vertex %d", v)
		assertVec(t, r3.Scale(0.25, normals[v]), moved, 1e-12, "vertex %d", v)
	}
}

func TestInflationGrowsRadius(t *testing.T) {
	m := octahedron()
	g := build(t, m)

	out, err := Inflate(m, g, Params{Iterations: 10, StepNormal: 0.1, StepSmooth: 0.05})
	require.NoError(t, err)

	for v := range out {
		assert.Greater(t, r3.Norm(out[v]), 1.0, "vertex %d", v)
	}
}

func TestInflateDoesNotMutateInput(t *testing.T) {
	m := octahedron()
	orig := m.CopyVertices()
	g := build(t, m)

	_, err := Inflate(m, g, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, orig, m.Vertices)
}

func TestIsolatedVertexStaysPut(t *testing.T) {
	m := octahedron()
	m.Vertices = append(m.Vertices, r3.Vec{X: 5, Y: 5, Z: 5})
	g := build(t, m)

	out, err := Inflate(m, g, Params{Iterations: 5, StepNormal: 0.3, StepSmooth: 0.4})
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 5, Y: 5, Z: 5}, out[6], 0)
}

func TestZeroIterationsReturnsCopy(t *testing.T) {
	m := octahedron()
	g := build(t, m)
	out, err := Inflate(m, g, Params{Iterations: 0, StepNormal: 1, StepSmooth: 1})
	require.NoError(t, err)
	assert.Equal(t, m.Vertices, out)
	out[0].X = 99
	assert.Equal(t, 1.0, m.Vertices[0].X)
}

func TestUnitFaceNormalsWeighting(t *testing.T) {
	// one large and one small triangle meeting at vertex 0 at right angles
	verts := []r3.Vec{
		{}, {X: 10}, {Y: 10}, {X: 1}, {Z: 1},
	}
	faces := []models.Face{{0, 1, 2}, {0, 3, 4}}

	raw := VertexNormals(verts, faces, RawFaceNormals)
	unit := VertexNormals(verts, faces, UnitFaceNormals)

	// raw is dominated by the big triangle's +z normal
	assert.Greater(t, raw[0].Z, 0.99)
	// unit weights both triangles equally: (0,-1,0) + (0,0,1)
	assertVec(t, r3.Vec{Y: -1 / math.Sqrt2, Z: 1 / math.Sqrt2}, unit[0], 1e-8)
}

func TestInflateValidation(t *testing.T) {
	m := octahedron()
	g := build(t, m)

	tests := []struct {
		name string
		p    Params
		code errors.Code
	}{
		{"negative iterations", Params{Iterations: -1}, errors.ErrCodeInvalidConfig},
		{"smooth above one", Params{Iterations: 1, StepSmooth: 1.5}, errors.ErrCodeInvalidConfig},
		{"smooth NaN", Params{Iterations: 1, StepSmooth: math.NaN()}, errors.ErrCodeInvalidConfig},
		{"normal Inf", Params{Iterations: 1, StepNormal: math.Inf(1)}, errors.ErrCodeInvalidConfig},
		{"bad weighting", Params{Iterations: 1, Normals: NormalWeighting(7)}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inflate(m, g, tt.p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code))
		})
	}

	other := build(t, &models.Mesh{Vertices: make([]r3.Vec, 3), Faces: []models.Face{{0, 1, 2}}})
	_, err := Inflate(m, other, DefaultParams())
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidShape))
}

func TestParseNormalWeighting(t *testing.T) {
	w, err := ParseNormalWeighting("unit")
	require.NoError(t, err)
	assert.Equal(t, UnitFaceNormals, w)
	assert.Equal(t, "unit", w.String())

	w, err = ParseNormalWeighting("")
	require.NoError(t, err)
	assert.Equal(t, RawFaceNormals, w)

	_, err = ParseNormalWeighting("area")
	assert.Error(t, err)
}
