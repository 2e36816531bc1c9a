package meshgraph

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/pkg/errors"
)

// vertexPoint is a mesh vertex position tagged with its id
type vertexPoint struct {
	r3.Vec
	id int
}

// axis returns the coordinate of v along a k-d tree dimension
func axis(v r3.Vec, d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	}
	panic("meshgraph: dimension out of range")
}

func (p vertexPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return axis(p.Vec, d) - axis(c.(vertexPoint).Vec, d)
}

func (p vertexPoint) Dims() int { return 3 }

// Distance is squared, as kdtree expects
func (p vertexPoint) Distance(c kdtree.Comparable) float64 {
	d := r3.Sub(p.Vec, c.(vertexPoint).Vec)
	return r3.Dot(d, d)
}

type vertexSet []vertexPoint

func (s vertexSet) Index(i int) kdtree.Comparable         { return s[i] }
func (s vertexSet) Len() int                              { return len(s) }
func (s vertexSet) Slice(start, end int) kdtree.Interface { return s[start:end] }

func (s vertexSet) Pivot(d kdtree.Dim) int {
	byAxis := axisOrder{set: s, dim: d}
	return kdtree.Partition(byAxis, kdtree.MedianOfRandoms(byAxis, 100))
}

// axisOrder sorts a vertexSet along one dimension
type axisOrder struct {
	set vertexSet
	dim kdtree.Dim
}

func (o axisOrder) Len() int { return len(o.set) }

func (o axisOrder) Less(i, j int) bool {
	return axis(o.set[i].Vec, o.dim) < axis(o.set[j].Vec, o.dim)
}

func (o axisOrder) Swap(i, j int) { o.set[i], o.set[j] = o.set[j], o.set[i] }

func (o axisOrder) Slice(start, end int) kdtree.SortSlicer {
	return axisOrder{set: o.set[start:end], dim: o.dim}
}

// Locator answers nearest-vertex queries over mesh coordinates
type Locator struct {
	tree *kdtree.Tree
}

// NewLocator indexes the given vertex coordinates
func NewLocator(vertices []r3.Vec) (*Locator, error) {
	if len(vertices) == 0 {
		return nil, errors.Shape("cannot index an empty vertex set")
	}
	pts := make(vertexSet, len(vertices))
	for i, v := range vertices {
		pts[i] = vertexPoint{Vec: v, id: i}
	}
	return &Locator{tree: kdtree.New(pts, false)}, nil
}

// Nearest returns the id of the vertex closest to p and its Euclidean distance
func (l *Locator) Nearest(p r3.Vec) (int, float64) {
	c, d := l.tree.Nearest(vertexPoint{Vec: p})
	return c.(vertexPoint).id, math.Sqrt(d)
}
