// Package growth partitions a mesh graph into regions by synchronized
// multi-source breadth-first growth.
//
// Each region owns a FIFO frontier seeded with one vertex. Growth advances in
// rounds; in every round each non-empty frontier pops exactly one vertex, and
// all pops of the round are evaluated against the labels committed when the
// round began. Fronts that meet leave Boundary vertices between them. The
// result depends on seed placement and on this round structure, so fronts
// must never be advanced independently.
package growth

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"parcelsurf/pkg/errors"
	"parcelsurf/pkg/meshgraph"
)

// Options controls region growth
type Options struct {
	// Regions is the number of regions K, 1 <= K <= V
	Regions int

	// Seeds optionally fixes the seed vertex of each region. Seeds[k] seeds
	// region k. When empty, K distinct vertices are drawn uniformly at random.
	Seeds []int

	// Rand is the source for random seed selection. Nil uses the
	// automatically seeded global source.
	Rand *rand.Rand
}

const (
	noClaim   = -1
	contested = -2
)

// fifo is a frontier queue
type fifo struct {
	items []int
	head  int
}

func (q *fifo) push(v int) { q.items = append(q.items, v) }

func (q *fifo) empty() bool { return q.head == len(q.items) }

func (q *fifo) pop() int {
	v := q.items[q.head]
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v
}

// Grow runs synchronized multi-source growth over g.
//
// Per round, a popped vertex that touches a vertex of another region becomes
// Boundary together with that vertex and claims nothing. Otherwise it claims
// its Unassigned neighbors for its region. A vertex claimed by more than one
// region in the same round becomes Boundary. Seeds anchor their regions and
// are never turned into Boundary. Vertices cut off from every front behind
// Boundary vertices are Boundary as well; vertices in components without a
// seed stay Unassigned.
func Grow(g *meshgraph.Graph, opts Options) (Labels, error) {
	seeds, err := resolveSeeds(g.Len(), opts)
	if err != nil {
		return nil, err
	}

	n := g.Len()
	labels := make(Labels, n)
	isSeed := make([]bool, n)
	queues := make([]fifo, len(seeds))
	for r, s := range seeds {
		labels[s] = RegionLabel(r)
		isSeed[s] = true
		queues[r].push(s)
	}

	claims := make([]int, n)
	for i := range claims {
		claims[i] = noClaim
	}
	var claimed, demoted []int

	for {
		active := false
		claimed = claimed[:0]
		demoted = demoted[:0]

		for r := range queues {
			if queues[r].empty() {
				continue
			}
			active = true
			v := queues[r].pop()
			if labels[v].kind == Boundary {
				continue
			}

			contact := false
			for _, nb := range g.Neighbors(v) {
				if l := labels[nb]; l.kind == Region && l.region != r {
					contact = true
					demoted = append(demoted, nb)
				}
			}
			if contact && !isSeed[v] {
				demoted = append(demoted, v)
				continue
			}

			for _, nb := range g.Neighbors(v) {
				if labels[nb].kind != Unassigned {
					continue
				}
				switch claims[nb] {
				case noClaim:
					claims[nb] = r
					claimed = append(claimed, nb)
				case r, contested:
				default:
					claims[nb] = contested
				}
			}
		}

		if !active {
			break
		}

		for _, v := range demoted {
			if !isSeed[v] {
				labels[v] = BoundaryLabel()
			}
		}
		for _, v := range claimed {
			c := claims[v]
			claims[v] = noClaim
			if c == contested {
				labels[v] = BoundaryLabel()
				continue
			}
			labels[v] = RegionLabel(c)
			queues[c].push(v)
		}
	}

	sealPockets(g, labels)
	return labels, nil
}

// sealPockets marks as Boundary the Unassigned vertices that share a
// component with a labelled vertex. Such vertices are only reachable through
// Boundary vertices, which never expand.
func sealPockets(g *meshgraph.Graph, labels Labels) {
	for _, comp := range g.Components() {
		seeded := false
		for _, v := range comp {
			if labels[v].kind != Unassigned {
				seeded = true
				break
			}
		}
		if !seeded {
			continue
		}
		for _, v := range comp {
			if labels[v].kind == Unassigned {
				labels[v] = BoundaryLabel()
			}
		}
	}
}

// resolveSeeds validates the options and returns one seed per region
func resolveSeeds(n int, opts Options) ([]int, error) {
	k := opts.Regions
	if k < 1 {
		return nil, errors.Config("region count must be at least 1, got %d", k)
	}
	if k > n {
		return nil, errors.Config("region count %d exceeds vertex count %d", k, n)
	}

	if len(opts.Seeds) == 0 {
		return ChooseSeeds(n, k, opts.Rand), nil
	}

	if len(opts.Seeds) != k {
		return nil, errors.Config("got %d seeds for %d regions", len(opts.Seeds), k)
	}
	seen := make(map[int]int, k)
	for r, s := range opts.Seeds {
		if s < 0 || s >= n {
			return nil, errors.Config("seed %d of region %d outside [0, %d)", s, r, n)
		}
		if prev, ok := seen[s]; ok {
			return nil, errors.Config("regions %d and %d share seed vertex %d", prev, r, s)
		}
		seen[s] = r
	}
	seeds := make([]int, k)
	copy(seeds, opts.Seeds)
	return seeds, nil
}

// ChooseSeeds draws k distinct vertices of n uniformly at random
func ChooseSeeds(n, k int, rng *rand.Rand) []int {
	var perm []int
	if rng != nil {
		perm = rng.Perm(n)
	} else {
		perm = rand.Perm(n)
	}
	return perm[:k]
}

// SeedsNear maps seed coordinates to their nearest mesh vertices. Two points
// resolving to the same vertex is a configuration error.
func SeedsNear(l *meshgraph.Locator, points []r3.Vec) ([]int, error) {
	seeds := make([]int, len(points))
	seen := make(map[int]int, len(points))
	for i, p := range points {
		v, _ := l.Nearest(p)
		if prev, ok := seen[v]; ok {
			return nil, errors.Config("seed points %d and %d both map to vertex %d", prev, i, v)
		}
		seen[v] = i
		seeds[i] = v
	}
	return seeds, nil
}
