package evaluation

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"parcelsurf/pkg/errors"
)

// Merge is one step of an agglomerative clustering. Cluster ids below n are
// the input rows; the cluster formed by step i has id n+i.
type Merge struct {
	Left, Right int
	Distance    float64
	Size        int
}

// WardLinkage clusters the rows of x with Ward's minimum-variance criterion
// over Euclidean distances. Merges are returned in the order they happen,
// which for Ward is non-decreasing in distance. Within a merge Left is the
// smaller cluster id.
func WardLinkage(x mat.Matrix) []Merge {
	n, c := x.Dims()
	if n < 2 {
		return nil
	}

	// pairwise Euclidean distances between rows
	dist := make([][]float64, n)
	ri := make([]float64, c)
	rj := make([]float64, c)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		mat.Row(ri, i, x)
		for j := i + 1; j < n; j++ {
			mat.Row(rj, j, x)
			var s float64
			for k := range ri {
				d := ri[k] - rj[k]
				s += d * d
			}
			dist[i][j] = math.Sqrt(s)
			dist[j][i] = dist[i][j]
		}
	}

	id := make([]int, n)
	size := make([]int, n)
	active := make([]bool, n)
	for i := range id {
		id[i] = i
		size[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		a, b := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					best = dist[i][j]
					a, b = i, j
				}
			}
		}

		if a < 0 {
			// only non-finite distances remain; merge in slot order
			a, b = firstActivePair(active)
			best = math.NaN()
		}

		left, right := id[a], id[b]
		if left > right {
			left, right = right, left
		}
		merged := size[a] + size[b]
		merges = append(merges, Merge{Left: left, Right: right, Distance: best, Size: merged})

		// Lance-Williams update for Ward linkage; slot a holds the new cluster
		for k := 0; k < n; k++ {
			if !active[k] || k == a || k == b {
				continue
			}
			nk := float64(size[k])
			total := nk + float64(merged)
			d2 := ((nk+float64(size[a]))*dist[k][a]*dist[k][a] +
				(nk+float64(size[b]))*dist[k][b]*dist[k][b] -
				nk*best*best) / total
			d := math.Sqrt(math.Max(d2, 0))
			dist[k][a] = d
			dist[a][k] = d
		}
		active[b] = false
		id[a] = n + step
		size[a] = merged
	}

	return merges
}

// firstActivePair returns the two lowest active slots
func firstActivePair(active []bool) (int, int) {
	a, b := -1, -1
	for i, ok := range active {
		if !ok {
			continue
		}
		if a < 0 {
			a = i
		} else {
			b = i
			break
		}
	}
	return a, b
}

// LeafOrder returns the left-to-right leaf order of the dendrogram described
// by merges over n observations
func LeafOrder(merges []Merge, n int) []int {
	if n == 0 {
		return nil
	}
	if len(merges) == 0 {
		return []int{0}
	}

	order := make([]int, 0, n)
	stack := []int{n + len(merges) - 1}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node < n {
			order = append(order, node)
			continue
		}
		m := merges[node-n]
		stack = append(stack, m.Right, m.Left)
	}
	return order
}

// HierarchicalReorder clusters the rows of a square matrix with Ward
// linkage and permutes rows and columns into dendrogram leaf order, so that
// correlated parcels form diagonal blocks. The input is not modified. The
// permutation is returned alongside the reordered copy.
// Non-finite entries are a numeric-degeneracy error; sanitize them first.
func HierarchicalReorder(m mat.Matrix) (*mat.Dense, []int, error) {
	r, c := m.Dims()
	if r != c {
		return nil, nil, errors.Shape("matrix must be square, got %dx%d", r, c)
	}
	if r == 0 {
		return nil, nil, errors.Shape("empty matrix")
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, errors.Degenerate("matrix entry (%d,%d) is %v", i, j, v)
			}
		}
	}

	order := LeafOrder(WardLinkage(m), r)
	return Permute(m, order), order, nil
}

// Permute returns out with out(i,j) = m(order[i], order[j])
func Permute(m mat.Matrix, order []int) *mat.Dense {
	n := len(order)
	out := mat.NewDense(n, n, nil)
	for i, oi := range order {
		for j, oj := range order {
			out.Set(i, j, m.At(oi, oj))
		}
	}
	return out
}
