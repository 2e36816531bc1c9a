package evaluation

import "parcelsurf/pkg/errors"

// Dice returns the Dice coefficient 2|A∩B| / (|A|+|B|) of two binary masks.
// Two all-zero masks agree perfectly and score 1. Masks of different length
// or with values other than 0 and 1 are rejected.
func Dice(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Shape("mask lengths differ: %d != %d", len(a), len(b))
	}

	var inter, sizeA, sizeB int
	for i := range a {
		if a[i] != 0 && a[i] != 1 {
			return 0, errors.Shape("first mask is not binary: value %d at %d", a[i], i)
		}
		if b[i] != 0 && b[i] != 1 {
			return 0, errors.Shape("second mask is not binary: value %d at %d", b[i], i)
		}
		sizeA += a[i]
		sizeB += b[i]
		inter += a[i] * b[i]
	}

	if sizeA+sizeB == 0 {
		return 1, nil
	}
	return 2 * float64(inter) / float64(sizeA+sizeB), nil
}

// BoundaryDice compares the boundaries of two label arrays
func BoundaryDice(a, b []int) (float64, error) {
	return Dice(BoundaryMask(a), BoundaryMask(b))
}
