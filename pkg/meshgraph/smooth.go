package meshgraph

import (
	"fmt"

	"parcelsurf/pkg/errors"
)

// SmoothScalar smooths a per-vertex scalar map over the graph. Each iteration
// replaces a vertex value with the mean of itself and its neighbors, all read
// from the previous iteration. Isolated vertices keep their value.
func (g *Graph) SmoothScalar(values []float64, iterations int) ([]float64, error) {
	if len(values) != g.Len() {
		return nil, errors.Shape("scalar map has %d values for %d vertices", len(values), g.Len())
	}
	if iterations < 0 {
		return nil, errors.Config("negative smoothing iterations %d", iterations)
	}

	cur := make([]float64, len(values))
	copy(cur, values)
	next := make([]float64, len(values))

	for iter := 0; iter < iterations; iter++ {
		for v, ns := range g.adj {
			sum := cur[v]
			for _, n := range ns {
				sum += cur[n]
			}
			next[v] = sum / float64(len(ns)+1)
		}
		cur, next = next, cur
	}

	return cur, nil
}

// String summarises the graph for log output
func (g *Graph) String() string {
	return fmt.Sprintf("meshgraph(%d vertices, %d edges)", g.Len(), g.NumEdges())
}
