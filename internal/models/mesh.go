package models

import (
	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/pkg/errors"
)

// Face is a single triangle of the surface mesh, stored as three vertex indices
type Face [3]int

// Mesh represents a triangulated cortical surface
type Mesh struct {
	// Vertices holds the 3D coordinate of every vertex in mm
	Vertices []r3.Vec

	// Faces lists the triangles as indices into Vertices
	Faces []Face
}

// NumVertices returns the number of vertices in the mesh
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// Validate checks that every face references an existing vertex.
// A mesh without faces is valid; all of its vertices are isolated.
func (m *Mesh) Validate() error {
	return ValidateFaces(m.Faces, len(m.Vertices))
}

// ValidateFaces checks face indices against a vertex count
func ValidateFaces(faces []Face, numVertices int) error {
	if numVertices < 0 {
		return errors.Shape("negative vertex count %d", numVertices)
	}
	for i, f := range faces {
		for _, v := range f {
			if v < 0 || v >= numVertices {
				return errors.Shape("face %d references vertex %d outside [0, %d)", i, v, numVertices)
			}
		}
	}
	return nil
}

// CopyVertices returns a fresh copy of the vertex coordinates
func (m *Mesh) CopyVertices() []r3.Vec {
	out := make([]r3.Vec, len(m.Vertices))
	copy(out, m.Vertices)
	return out
}

// Hemisphere identifies which cortical hemisphere a surface belongs to
type Hemisphere int

const (
	Left Hemisphere = iota
	Right
)

// String returns the FreeSurfer-style hemisphere prefix
func (h Hemisphere) String() string {
	if h == Right {
		return "rh"
	}
	return "lh"
}
