package tree

import (
	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/core/parallel"
	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// predictParallelThreshold is the batch size above which predictions are
// spread over CPU cores.
const predictParallelThreshold = 1000

// Predict returns the label that root assigns to r. A nil root yields a
// NotFittedError.
func Predict(root *Node, r dataset.Record) (int, error) {
	return root.Predict(&r)
}

// PredictAll labels every record of ds, in order. Large batches are
// labeled concurrently; the tree is only read.
func PredictAll(root *Node, ds dataset.Dataset) ([]int, error) {
	if root == nil {
		return nil, errors.NewNotFittedError("Tree", "PredictAll")
	}
	out := make([]int, len(ds))
	errs := make([]error, len(ds))
	parallel.ParallelizeWithThreshold(len(ds), predictParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i], errs[i] = root.Predict(&ds[i])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
