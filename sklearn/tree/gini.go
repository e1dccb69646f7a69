package tree

import (
	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// Split is a partition rule. Records whose Feature value is <= Threshold
// go left, the rest go right.
type Split struct {
	Feature   dataset.FeatureID
	Threshold float64
}

// GoesLeft reports whether r falls on the left side of s.
func (s Split) GoesLeft(r *dataset.Record) bool {
	return s.Feature.Value(r) <= s.Threshold
}

// Gini returns the weighted Gini impurity of partitioning ds by split.
// A side with no records contributes nothing. The result lies in [0, 0.5].
func Gini(ds dataset.Dataset, split Split) (float64, error) {
	if len(ds) == 0 {
		return 0, errors.NewEmptyDatasetError("Gini")
	}
	if !split.Feature.Valid() {
		return 0, errors.NewValidationError("feature", "unknown feature", int(split.Feature))
	}
	return giniIndices(ds, allIndices(len(ds)), split), nil
}

// giniIndices is Gini over the records of ds selected by idx. idx must be
// non-empty.
func giniIndices(ds dataset.Dataset, idx []int, split Split) float64 {
	var nL, posL, nR, posR int
	for _, i := range idx {
		r := &ds[i]
		if split.GoesLeft(r) {
			nL++
			posL += r.Survived
		} else {
			nR++
			posR += r.Survived
		}
	}
	n := float64(nL + nR)
	return (float64(nL)*sideGini(nL, posL) + float64(nR)*sideGini(nR, posR)) / n
}

// sideGini is 1 - (p² + (1-p)²) for p = pos/n, and 0 for an empty side.
func sideGini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 1 - (p*p + (1-p)*(1-p))
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func countPositives(ds dataset.Dataset, idx []int) int {
	pos := 0
	for _, i := range idx {
		pos += ds[i].Survived
	}
	return pos
}

// partition splits idx by split, preserving record order on both sides.
func partition(ds dataset.Dataset, idx []int, split Split) (left, right []int) {
	left = make([]int, 0, len(idx))
	right = make([]int, 0, len(idx))
	for _, i := range idx {
		if split.GoesLeft(&ds[i]) {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}
