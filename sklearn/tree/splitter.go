package tree

import (
	"context"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/pkg/log"
)

// Splitter searches for the split with the lowest weighted Gini impurity.
//
// Candidate thresholds are the observed values of each feature. Features
// are scanned in order and records in dataset order; a candidate replaces
// the current best only when strictly lower, so the first minimum wins.
type Splitter struct {
	features []dataset.FeatureID
	logger   log.Logger
}

// NewSplitter creates a Splitter over features. A nil logger uses the
// package default.
func NewSplitter(features []dataset.FeatureID, logger log.Logger) *Splitter {
	if logger == nil {
		logger = log.GetLoggerWithName("tree.splitter")
	}
	return &Splitter{features: features, logger: logger}
}

// FindBestSplit returns the best split of ds over features. ok is false
// when ds is empty.
func FindBestSplit(ds dataset.Dataset, features []dataset.FeatureID) (Split, bool, error) {
	if err := dataset.ValidateFeatures(features); err != nil {
		return Split{}, false, err
	}
	if len(ds) == 0 {
		return Split{}, false, nil
	}
	split, _, ok := NewSplitter(features, nil).Best(ds, allIndices(len(ds)))
	return split, ok, nil
}

// Best searches the records of ds selected by idx. It returns the winning
// split and its impurity. ok is false when idx is empty or no candidate
// scores below 1.
func (s *Splitter) Best(ds dataset.Dataset, idx []int) (best Split, impurity float64, ok bool) {
	impurity = 1.0
	if len(idx) == 0 {
		return Split{}, impurity, false
	}

	for _, f := range s.features {
		// a repeated threshold yields the same impurity and can never win
		tried := make(map[float64]struct{}, len(idx))
		for _, i := range idx {
			threshold := f.Value(&ds[i])
			if _, seen := tried[threshold]; seen {
				continue
			}
			tried[threshold] = struct{}{}

			candidate := Split{Feature: f, Threshold: threshold}
			if g := giniIndices(ds, idx, candidate); g < impurity {
				impurity = g
				best = candidate
				ok = true
			}
		}
	}

	if ok && s.logger.Enabled(context.Background(), log.LevelDebug) {
		s.logger.Debug("best split",
			log.SplitFeatureKey, best.Feature.String(),
			log.SplitThresholdKey, best.Threshold,
			log.SplitImpurityKey, impurity,
			log.SamplesKey, len(idx),
		)
	}
	return best, impurity, ok
}
