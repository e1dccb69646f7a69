package dataset

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/survtree/pkg/errors"
)

// Matrix returns the feature matrix of d, one row per record and one
// column per entry of features, in the given order.
func (d Dataset) Matrix(features []FeatureID) (*mat.Dense, error) {
	if len(d) == 0 {
		return nil, errors.NewEmptyDatasetError("Dataset.Matrix")
	}
	if err := ValidateFeatures(features); err != nil {
		return nil, err
	}
	data := make([]float64, 0, len(d)*len(features))
	for i := range d {
		for _, f := range features {
			data = append(data, f.Value(&d[i]))
		}
	}
	return mat.NewDense(len(d), len(features), data), nil
}

// LabelVector returns the labels of d as a column vector.
func (d Dataset) LabelVector() (*mat.VecDense, error) {
	if len(d) == 0 {
		return nil, errors.NewEmptyDatasetError("Dataset.LabelVector")
	}
	y := make([]float64, len(d))
	for i := range d {
		y[i] = float64(d[i].Survived)
	}
	return mat.NewVecDense(len(d), y), nil
}

// FromMatrix builds a Dataset from a feature matrix whose columns follow
// features. y may be nil, in which case records are marked Unlabeled.
// y must otherwise be a single column (or row) of 0/1 values.
func FromMatrix(X, y mat.Matrix, features []FeatureID) (Dataset, error) {
	if err := ValidateFeatures(features); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewEmptyDatasetError("FromMatrix")
	}
	if cols != len(features) {
		return nil, errors.NewDimensionError("FromMatrix", len(features), cols, 1)
	}
	if err := errors.CheckMatrix("FromMatrix", X, rows, cols); err != nil {
		return nil, err
	}

	var labels []float64
	if y != nil {
		var err error
		labels, err = labelColumn(y, rows)
		if err != nil {
			return nil, err
		}
	}

	ds := make(Dataset, rows)
	for i := 0; i < rows; i++ {
		r := &ds[i]
		r.PassengerID = i + 1
		for j, f := range features {
			f.SetValue(r, X.At(i, j))
		}
		if labels == nil {
			r.Unlabeled = true
			continue
		}
		r.Survived = int(labels[i])
	}
	return ds, nil
}

func labelColumn(y mat.Matrix, rows int) ([]float64, error) {
	yr, yc := y.Dims()
	var labels []float64
	switch {
	case yc == 1:
		if yr != rows {
			return nil, errors.NewDimensionError("FromMatrix", rows, yr, 0)
		}
		labels = make([]float64, yr)
		for i := range labels {
			labels[i] = y.At(i, 0)
		}
	case yr == 1:
		if yc != rows {
			return nil, errors.NewDimensionError("FromMatrix", rows, yc, 0)
		}
		labels = make([]float64, yc)
		for i := range labels {
			labels[i] = y.At(0, i)
		}
	default:
		return nil, errors.NewValueError("FromMatrix", "y must be a single column of labels")
	}
	for i, v := range labels {
		if v != 0 && v != 1 {
			return nil, errors.NewValueError("FromMatrix",
				"labels must be 0 or 1, got "+formatFloat(v)+" at row "+strconv.Itoa(i))
		}
	}
	return labels, nil
}

// FeatureSummary holds descriptive statistics of one feature column.
type FeatureSummary struct {
	Feature FeatureID
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
}

// Summary computes per-feature statistics over d. Records whose age is
// unknown are left out of the Age column.
func (d Dataset) Summary(features []FeatureID) ([]FeatureSummary, error) {
	if len(d) == 0 {
		return nil, errors.NewEmptyDatasetError("Dataset.Summary")
	}
	if err := ValidateFeatures(features); err != nil {
		return nil, err
	}
	out := make([]FeatureSummary, 0, len(features))
	col := make([]float64, 0, len(d))
	for _, f := range features {
		col = col[:0]
		for i := range d {
			if f == FeatureAge && !d[i].AgeKnown {
				continue
			}
			col = append(col, f.Value(&d[i]))
		}
		s := FeatureSummary{Feature: f}
		if len(col) > 0 {
			s.Mean, s.StdDev = stat.MeanStdDev(col, nil)
			if len(col) == 1 {
				s.StdDev = 0
			}
			s.Min = floats.Min(col)
			s.Max = floats.Max(col)
		} else {
			s.Mean, s.StdDev, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		}
		out = append(out, s)
	}
	return out, nil
}
