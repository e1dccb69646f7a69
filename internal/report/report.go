// Package report formats the outcome of a training run: the rendered tree,
// per-passenger predictions, evaluation metrics, and a scatter plot of the
// training set with the learned splits.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/metrics"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/sklearn/tree"
)

// Training is the banner printed before a tree is fitted.
const Training = "Training decision tree..."

// Report is everything printed for one run.
type Report struct {
	Tree        *tree.Node
	Validation  dataset.Dataset
	Predictions []int

	// Metrics and Scores are nil when the validation records carry no
	// labels.
	Metrics *metrics.Report
	Scores  *Scores
}

// Scores rate the leaf probabilities rather than the hard labels.
type Scores struct {
	AUC     float64
	LogLoss float64
	Brier   float64
}

// ScoreProbabilities computes Scores for the positive-class probabilities
// probas against labels.
func ScoreProbabilities(labels []int, probas []float64) (Scores, error) {
	if len(labels) != len(probas) {
		return Scores{}, errors.NewDimensionError("ScoreProbabilities", len(labels), len(probas), 0)
	}
	if len(labels) == 0 {
		return Scores{}, errors.NewEmptyDatasetError("ScoreProbabilities")
	}
	yTrue := metrics.LabelsToVec(labels)
	yProb := mat.NewVecDense(len(probas), append([]float64(nil), probas...))

	var s Scores
	var err error
	if s.AUC, err = metrics.AUC(yTrue, yProb); err != nil {
		return Scores{}, err
	}
	if s.LogLoss, err = metrics.BinaryLogLoss(yTrue, yProb); err != nil {
		return Scores{}, err
	}
	if s.Brier, err = metrics.BrierScore(yTrue, yProb); err != nil {
		return Scores{}, err
	}
	return s, nil
}

// Write prints the tree, one prediction line per validation record and,
// when present, the metrics table.
func Write(w io.Writer, r Report) error {
	if _, err := io.WriteString(w, tree.Render(r.Tree)); err != nil {
		return errors.Wrap(err, "failed to write tree")
	}
	if err := WritePredictions(w, r.Validation, r.Predictions); err != nil {
		return err
	}
	if r.Metrics != nil {
		if err := WriteMetrics(w, *r.Metrics); err != nil {
			return err
		}
	}
	if r.Scores != nil {
		return WriteScores(w, *r.Scores)
	}
	return nil
}

// WritePredictions prints "Passenger <id> -> prediction: <label>" for each
// record, in record order.
func WritePredictions(w io.Writer, ds dataset.Dataset, preds []int) error {
	if len(ds) != len(preds) {
		return errors.NewDimensionError("WritePredictions", len(ds), len(preds), 0)
	}
	for i := range ds {
		if _, err := fmt.Fprintf(w, "Passenger %d -> prediction: %d\n", ds[i].PassengerID, preds[i]); err != nil {
			return errors.Wrap(err, "failed to write prediction")
		}
	}
	return nil
}

// WriteMetrics prints accuracy, precision, recall and F1 followed by the
// confusion matrix.
func WriteMetrics(w io.Writer, m metrics.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nmetric\tvalue")
	fmt.Fprintf(tw, "accuracy\t%.4f\n", m.Accuracy)
	fmt.Fprintf(tw, "precision\t%.4f\n", m.Precision)
	fmt.Fprintf(tw, "recall\t%.4f\n", m.Recall)
	fmt.Fprintf(tw, "f1\t%.4f\n", m.F1)

	c := m.Confusion
	fmt.Fprintln(tw, "\n\tpred 0\tpred 1")
	fmt.Fprintf(tw, "true 0\t%d\t%d\n", c.TN, c.FP)
	fmt.Fprintf(tw, "true 1\t%d\t%d\n", c.FN, c.TP)
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write metrics")
	}
	return nil
}

// WriteScores prints the probability scores.
func WriteScores(w io.Writer, s Scores) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nscore\tvalue")
	fmt.Fprintf(tw, "auc\t%.4f\n", s.AUC)
	fmt.Fprintf(tw, "log loss\t%.4f\n", s.LogLoss)
	fmt.Fprintf(tw, "brier\t%.4f\n", s.Brier)
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write scores")
	}
	return nil
}

// WriteSummary prints descriptive statistics of the feature columns.
func WriteSummary(w io.Writer, summaries []dataset.FeatureSummary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "feature\tmean\tstd\tmin\tmax")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Feature,
			stat(s.Mean), stat(s.StdDev), stat(s.Min), stat(s.Max))
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "failed to write summary")
	}
	return nil
}

func stat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
