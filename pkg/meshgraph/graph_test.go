package meshgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/internal/models"
	"parcelsurf/pkg/errors"
)

// octahedron returns the 6-vertex, 8-face closed surface
func octahedron() []models.Face {
	return []models.Face{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
	}
}

func TestAdjacencySymmetry(t *testing.T) {
	g, err := New(octahedron(), 6)
	require.NoError(t, err)

	for v := 0; v < g.Len(); v++ {
		for _, n := range g.Neighbors(v) {
			assert.NotEqual(t, v, n, "self reference at %d", v)
			assert.Contains(t, g.Neighbors(n), v, "edge %d-%d is not symmetric", v, n)
		}
	}
	// each octahedron vertex touches four others, never its antipode
	for v := 0; v < 6; v++ {
		assert.Equal(t, 4, g.Degree(v))
	}
	assert.False(t, g.HasEdge(0, 1))
	assert.Equal(t, 12, g.NumEdges())
}

func TestDuplicateAndDegenerateFaces(t *testing.T) {
	faces := []models.Face{{0, 1, 2}, {0, 1, 2}, {2, 1, 0}, {1, 1, 3}}
	g, err := New(faces, 4)
	require.NoError(t, err)

	if diff := cmp.Diff([]int{1, 2}, g.Neighbors(0)); diff != "" {
		t.Errorf("neighbors(0) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2, 3}, g.Neighbors(1)); diff != "" {
		t.Errorf("neighbors(1) mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1}, g.Neighbors(3))
}

func TestIsolatedVerticesAndComponents(t *testing.T) {
	faces := []models.Face{{0, 1, 2}, {3, 4, 5}}
	g, err := New(faces, 7)
	require.NoError(t, err)

	assert.Empty(t, g.Neighbors(6))
	assert.Equal(t, []int{6}, g.Isolated())

	want := [][]int{{0, 1, 2}, {3, 4, 5}, {6}}
	if diff := cmp.Diff(want, g.Components()); diff != "" {
		t.Errorf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsBadIndices(t *testing.T) {
	_, err := New([]models.Face{{0, 1, 5}}, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidShape))

	_, err = New([]models.Face{{0, -1, 2}}, 3)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidShape))
}

func TestFromMesh(t *testing.T) {
	m := &models.Mesh{
		Vertices: make([]r3.Vec, 6),
		Faces:    octahedron(),
	}
	g, err := FromMesh(m)
	require.NoError(t, err)
	assert.Equal(t, 6, g.Len())
	assert.Contains(t, g.String(), "12 edges")
}

func TestSmoothScalar(t *testing.T) {
	// one triangle plus an isolated vertex
	g, err := New([]models.Face{{0, 1, 2}}, 4)
	require.NoError(t, err)

	out, err := g.SmoothScalar([]float64{3, 0, 0, 9}, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 9}, out, 1e-12)

	same, err := g.SmoothScalar([]float64{3, 0, 0, 9}, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 0, 0, 9}, same)

	_, err = g.SmoothScalar([]float64{1}, 1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidShape))
	_, err = g.SmoothScalar(make([]float64, 4), -1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestLocatorNearest(t *testing.T) {
	verts := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 10, Y: 0, Z: 0},
		{X: 0, Y: 10, Z: 0},
		{X: 0, Y: 0, Z: 10},
	}
	l, err := NewLocator(verts)
	require.NoError(t, err)

	id, d := l.Nearest(r3.Vec{X: 9, Y: 1, Z: 0})
	assert.Equal(t, 1, id)
	assert.InDelta(t, 1.4142135, d, 1e-6)

	id, _ = l.Nearest(r3.Vec{Z: 7})
	assert.Equal(t, 3, id)

	_, err = NewLocator(nil)
	assert.Error(t, err)
}
