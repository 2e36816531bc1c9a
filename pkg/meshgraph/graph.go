// Package meshgraph builds the vertex adjacency of a triangulated surface.
//
// Adjacency is held in a gonum simple undirected graph, whose edge set is
// map-backed: a pair of vertices can only be connected once and self edges are
// never inserted, so the no-duplicate and no-self-reference invariants hold by
// construction. Sorted neighbor lists are materialised once for deterministic
// iteration by the growth and inflation code.
package meshgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"parcelsurf/internal/models"
)

// Graph is the immutable vertex adjacency of a mesh
type Graph struct {
	g   *simple.UndirectedGraph
	adj [][]int
}

// New builds the adjacency graph of numVertices vertices from a face list.
// Every vertex gets a node, so vertices absent from all faces are present
// with an empty neighbor set.
func New(faces []models.Face, numVertices int) (*Graph, error) {
	if err := models.ValidateFaces(faces, numVertices); err != nil {
		return nil, err
	}

	g := simple.NewUndirectedGraph()
	for v := 0; v < numVertices; v++ {
		g.AddNode(simple.Node(v))
	}

	for _, f := range faces {
		connect(g, f[0], f[1])
		connect(g, f[1], f[2])
		connect(g, f[2], f[0])
	}

	adj := make([][]int, numVertices)
	for v := 0; v < numVertices; v++ {
		nodes := graph.NodesOf(g.From(int64(v)))
		ns := make([]int, len(nodes))
		for i, n := range nodes {
			ns[i] = int(n.ID())
		}
		sort.Ints(ns)
		adj[v] = ns
	}

	return &Graph{g: g, adj: adj}, nil
}

// FromMesh builds the adjacency graph of a mesh
func FromMesh(m *models.Mesh) (*Graph, error) {
	return New(m.Faces, m.NumVertices())
}

// connect inserts the undirected edge a-b. Degenerate triangles repeat an
// index; their self pair is skipped.
func connect(g *simple.UndirectedGraph, a, b int) {
	if a == b {
		return
	}
	g.SetEdge(g.NewEdge(simple.Node(a), simple.Node(b)))
}

// Len returns the number of vertices
func (g *Graph) Len() int {
	return len(g.adj)
}

// Neighbors returns the sorted neighbor ids of v. The returned slice is
// shared and must not be modified.
func (g *Graph) Neighbors(v int) []int {
	return g.adj[v]
}

// Degree returns the number of distinct neighbors of v
func (g *Graph) Degree(v int) int {
	return len(g.adj[v])
}

// HasEdge reports whether a and b share a triangle
func (g *Graph) HasEdge(a, b int) bool {
	return g.g.HasEdgeBetween(int64(a), int64(b))
}

// NumEdges returns the number of distinct undirected edges
func (g *Graph) NumEdges() int {
	return g.g.Edges().Len()
}

// Components returns the connected components, each sorted, ordered by their
// smallest vertex id. Isolated vertices form singleton components.
func (g *Graph) Components() [][]int {
	cc := topo.ConnectedComponents(g.g)
	out := make([][]int, len(cc))
	for i, comp := range cc {
		ids := make([]int, len(comp))
		for j, n := range comp {
			ids[j] = int(n.ID())
		}
		sort.Ints(ids)
		out[i] = ids
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Isolated returns the vertices that belong to no triangle
func (g *Graph) Isolated() []int {
	var out []int
	for v, ns := range g.adj {
		if len(ns) == 0 {
			out = append(out, v)
		}
	}
	return out
}
