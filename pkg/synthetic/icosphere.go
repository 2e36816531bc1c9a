// Package synthetic generates test surfaces and time series with a known
// parcel structure, for exercising the pipeline without neuroimaging files.
package synthetic

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/internal/models"
	"parcelsurf/pkg/errors"
)

// MaxSubdivisions bounds icosphere refinement; level 7 already has 163842
// vertices, the size of a standard cortical surface.
const MaxSubdivisions = 7

// Icosphere builds a sphere of the given radius by repeatedly splitting each
// face of an icosahedron into four. Level s has 10*4^s+2 vertices.
func Icosphere(subdivisions int, radius float64) (*models.Mesh, error) {
	if subdivisions < 0 || subdivisions > MaxSubdivisions {
		return nil, errors.Config("subdivision level %d outside [0, %d]", subdivisions, MaxSubdivisions)
	}
	if !(radius > 0) {
		return nil, errors.Config("sphere radius must be positive, got %v", radius)
	}

	phi := (1 + math.Sqrt(5)) / 2
	verts := []r3.Vec{
		{X: -1, Y: phi}, {X: 1, Y: phi}, {X: -1, Y: -phi}, {X: 1, Y: -phi},
		{Y: -1, Z: phi}, {Y: 1, Z: phi}, {Y: -1, Z: -phi}, {Y: 1, Z: -phi},
		{X: phi, Z: -1}, {X: phi, Z: 1}, {X: -phi, Z: -1}, {X: -phi, Z: 1},
	}
	for i := range verts {
		verts[i] = r3.Unit(verts[i])
	}
	faces := []models.Face{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdivisions; s++ {
		verts, faces = subdivide(verts, faces)
	}

	for i := range verts {
		verts[i] = r3.Scale(radius, verts[i])
	}
	return &models.Mesh{Vertices: verts, Faces: faces}, nil
}

// subdivide splits every face into four, projecting new edge midpoints onto
// the unit sphere. Shared edges share their midpoint.
func subdivide(verts []r3.Vec, faces []models.Face) ([]r3.Vec, []models.Face) {
	type edge struct{ a, b int }
	mid := make(map[edge]int, len(faces)*3/2)

	midpoint := func(a, b int) int {
		if a > b {
			a, b = b, a
		}
		key := edge{a, b}
		if id, ok := mid[key]; ok {
			return id
		}
		id := len(verts)
		verts = append(verts, r3.Unit(r3.Add(verts[a], verts[b])))
		mid[key] = id
		return id
	}

	out := make([]models.Face, 0, len(faces)*4)
	for _, f := range faces {
		ab := midpoint(f[0], f[1])
		bc := midpoint(f[1], f[2])
		ca := midpoint(f[2], f[0])
		out = append(out,
			models.Face{f[0], ab, ca},
			models.Face{f[1], bc, ab},
			models.Face{f[2], ca, bc},
			models.Face{ab, bc, ca},
		)
	}
	return verts, out
}
