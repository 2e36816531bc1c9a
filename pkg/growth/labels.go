package growth

import (
	"fmt"

	"parcelsurf/pkg/errors"
)

// Sentinel values used when labels cross the package boundary as plain ints.
// Regions are numbered 0..K-1.
const (
	UnassignedValue = -1
	BoundaryValue   = -2
)

// Kind discriminates the label variants
type Kind uint8

const (
	Unassigned Kind = iota
	Boundary
	Region
)

// String returns a readable kind name
func (k Kind) String() string {
	switch k {
	case Unassigned:
		return "unassigned"
	case Boundary:
		return "boundary"
	case Region:
		return "region"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Label is the state of one vertex: Unassigned, Boundary or Region(id).
// The zero value is Unassigned.
type Label struct {
	kind   Kind
	region int
}

// RegionLabel returns the label of region id
func RegionLabel(id int) Label {
	return Label{kind: Region, region: id}
}

// BoundaryLabel returns the contested-territory label
func BoundaryLabel() Label {
	return Label{kind: Boundary}
}

// Kind returns the variant of l
func (l Label) Kind() Kind { return l.kind }

// Region returns the region id and whether l is a region label
func (l Label) Region() (int, bool) {
	return l.region, l.kind == Region
}

// Int converts l to its external integer encoding
func (l Label) Int() int {
	switch l.kind {
	case Boundary:
		return BoundaryValue
	case Region:
		return l.region
	default:
		return UnassignedValue
	}
}

func (l Label) String() string {
	if l.kind == Region {
		return fmt.Sprintf("region(%d)", l.region)
	}
	return l.kind.String()
}

// Labels is a per-vertex label array. It is produced once by Grow and not
// modified afterwards.
type Labels []Label

// FromInts decodes an external label array. Values below BoundaryValue are
// rejected.
func FromInts(values []int) (Labels, error) {
	out := make(Labels, len(values))
	for i, v := range values {
		switch {
		case v >= 0:
			out[i] = RegionLabel(v)
		case v == BoundaryValue:
			out[i] = BoundaryLabel()
		case v == UnassignedValue:
		default:
			return nil, errors.Shape("vertex %d has invalid label %d", i, v)
		}
	}
	return out, nil
}

// Ints encodes the labels as plain integers with the fixed sentinels
func (ls Labels) Ints() []int {
	out := make([]int, len(ls))
	for i, l := range ls {
		out[i] = l.Int()
	}
	return out
}

// BoundaryMask returns 1 for Boundary vertices and 0 otherwise, suitable
// for Dice comparison of boundary maps
func (ls Labels) BoundaryMask() []int {
	out := make([]int, len(ls))
	for i, l := range ls {
		if l.kind == Boundary {
			out[i] = 1
		}
	}
	return out
}

// Summary counts vertices per label variant
type Summary struct {
	// Sizes holds the vertex count of each region, indexed by region id
	Sizes      []int
	Boundary   int
	Unassigned int
}

// Regions returns the number of regions with at least one vertex
func (s Summary) Regions() int {
	n := 0
	for _, c := range s.Sizes {
		if c > 0 {
			n++
		}
	}
	return n
}

// Summarize counts the labels
func (ls Labels) Summarize() Summary {
	var s Summary
	for _, l := range ls {
		switch l.kind {
		case Boundary:
			s.Boundary++
		case Region:
			for len(s.Sizes) <= l.region {
				s.Sizes = append(s.Sizes, 0)
			}
			s.Sizes[l.region]++
		default:
			s.Unassigned++
		}
	}
	return s
}
