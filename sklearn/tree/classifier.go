package tree

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/core/model"
	"github.com/YuminosukeSato/survtree/metrics"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/pkg/log"
)

const modelName = "DecisionTreeClassifier"

// snapshotVersion is bumped whenever the persisted layout changes.
const snapshotVersion = 1

// DecisionTreeClassifier is a binary decision tree classifier with a
// scikit-learn style API over gonum matrices.
//
// Column j of X holds the j-th configured feature (Age and Fare by
// default). Labels must be 0 or 1.
type DecisionTreeClassifier struct {
	state *model.StateManager // State management (composition)

	cfg config
	id  string

	// Fitted state
	root *Node
}

// NewDecisionTreeClassifier creates a new, unfitted classifier.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &DecisionTreeClassifier{
		state: model.NewStateManager(),
		cfg:   cfg,
		id:    uuid.NewString(),
	}
}

func (dt *DecisionTreeClassifier) logger() log.Logger {
	l := dt.cfg.logger
	if l == nil {
		l = log.GetLoggerWithName("tree")
	}
	return l.With(log.ModelNameKey, modelName, log.EstimatorIDKey, dt.id)
}

// ID returns the estimator's unique identifier, used in log records.
func (dt *DecisionTreeClassifier) ID() string {
	return dt.id
}

// Features returns the configured features in column order.
func (dt *DecisionTreeClassifier) Features() []dataset.FeatureID {
	return append([]dataset.FeatureID(nil), dt.cfg.features...)
}

// Fit builds the tree from X and y.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if X == nil || y == nil {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "X and y are required")
	}
	if err := dt.cfg.validate(); err != nil {
		return err
	}
	if r, _ := X.Dims(); r == 0 {
		return errors.NewEmptyDatasetError("DecisionTreeClassifier.Fit")
	}
	ds, err := dataset.FromMatrix(X, y, dt.cfg.features)
	if err != nil {
		return errors.Wrap(err, "DecisionTreeClassifier.Fit")
	}
	return dt.FitDataset(ds)
}

// FitDataset builds the tree directly from passenger records.
func (dt *DecisionTreeClassifier) FitDataset(ds dataset.Dataset) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	if err := dt.cfg.validate(); err != nil {
		return err
	}
	if len(ds) == 0 {
		return errors.NewEmptyDatasetError("DecisionTreeClassifier.Fit")
	}
	if !ds.Labeled() {
		return errors.NewValueError("DecisionTreeClassifier.Fit", "training records must carry a Survived label")
	}
	row := make([]float64, len(dt.cfg.features))
	for i := range ds {
		if s := ds[i].Survived; s != 0 && s != 1 {
			return errors.NewValueError("DecisionTreeClassifier.Fit",
				fmt.Sprintf("labels must be 0 or 1, got %d at row %d", s, i))
		}
		for j, f := range dt.cfg.features {
			row[j] = f.Value(&ds[i])
		}
		if err := errors.CheckValues("DecisionTreeClassifier.Fit", row, i); err != nil {
			return err
		}
	}

	logger := dt.logger()
	logger.Info("fit started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(ds),
		log.PositivesKey, ds.Positives(),
		log.FeaturesKey, dataset.FeatureNames(dt.cfg.features),
		log.MaxDepthKey, dt.cfg.maxDepth,
	)

	start := time.Now()
	cfg := dt.cfg
	cfg.logger = logger
	root, err := newBuilder(cfg).Build(ds)
	if err != nil {
		return err
	}

	dt.root = root
	dt.state.SetDimensions(len(dt.cfg.features), len(ds))
	dt.state.SetFitted()

	logger.Info("fit completed",
		log.OperationKey, log.OperationFit,
		log.TreeDepthKey, root.Depth(),
		log.TreeLeavesKey, root.Leaves(),
		log.TreeNodesKey, root.Nodes(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// toDataset converts X into unlabeled records for prediction.
func (dt *DecisionTreeClassifier) toDataset(op string, X mat.Matrix) (dataset.Dataset, error) {
	if err := dt.state.RequireFitted(modelName, op); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, errors.NewValueError("DecisionTreeClassifier."+op, "X is required")
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewEmptyDatasetError("DecisionTreeClassifier." + op)
	}
	nFeatures, _ := dt.state.GetDimensions()
	if cols != nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeClassifier."+op, nFeatures, cols, 1)
	}
	return dataset.FromMatrix(X, nil, dt.cfg.features)
}

// Predict returns an n×1 matrix of predicted labels.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	ds, err := dt.toDataset("Predict", X)
	if err != nil {
		return nil, err
	}
	labels, err := PredictAll(dt.root, ds)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(labels), 1, nil)
	for i, l := range labels {
		out.Set(i, 0, float64(l))
	}
	return out, nil
}

// PredictDataset labels each record of ds, in order.
func (dt *DecisionTreeClassifier) PredictDataset(ds dataset.Dataset) ([]int, error) {
	if err := dt.state.RequireFitted(modelName, "PredictDataset"); err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, errors.NewEmptyDatasetError("DecisionTreeClassifier.PredictDataset")
	}
	preds, err := PredictAll(dt.root, ds)
	if err != nil {
		return nil, err
	}
	dt.logger().Debug("predicted",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, len(preds),
	)
	return preds, nil
}

// PredictProba returns an n×2 matrix whose columns are the probabilities
// of label 0 and label 1, taken from the training counts of each leaf.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	ds, err := dt.toDataset("PredictProba", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(ds), 2, nil)
	for i := range ds {
		p, err := dt.root.Proba(&ds[i])
		if err != nil {
			return nil, err
		}
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

// Score returns the accuracy of the predictions for X against y. It
// returns 0 when prediction fails.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	acc, err := metrics.AccuracyMatrix(y, pred)
	if err != nil {
		return 0
	}
	dt.logger().Debug("scored",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseValidation,
		log.AccuracyKey, acc,
	)
	return acc
}

// Classes returns the labels the classifier can emit.
func (dt *DecisionTreeClassifier) Classes() []int {
	return []int{0, 1}
}

// IsFitted reports whether Fit has completed successfully.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Root returns the fitted tree, or nil before Fit.
func (dt *DecisionTreeClassifier) Root() *Node {
	return dt.root
}

// GetDepth returns the depth of the fitted tree, 0 when unfitted.
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.root == nil {
		return 0
	}
	return dt.root.Depth()
}

// GetNLeaves returns the number of leaves of the fitted tree, 0 when unfitted.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.root == nil {
		return 0
	}
	return dt.root.Leaves()
}

// String returns the estimator with its parameters, e.g.
// "DecisionTreeClassifier(max_depth=10, features=[Age Fare])".
func (dt *DecisionTreeClassifier) String() string {
	return fmt.Sprintf("%s(max_depth=%d, features=%v)", modelName, dt.cfg.maxDepth, dataset.FeatureNames(dt.cfg.features))
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":            "gini",
		"max_depth":            dt.cfg.maxDepth,
		"features":             dataset.FeatureNames(dt.cfg.features),
		"parallel_build":       dt.cfg.parallel,
		"parallel_min_samples": dt.cfg.parallelMinSamples,
	}
}

// SetParams sets hyperparameters. Changes take effect at the next Fit.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	cfg := dt.cfg
	for key, value := range params {
		switch key {
		case "criterion":
			if s, ok := value.(string); !ok || s != "gini" {
				return errors.NewValidationError(key, "only gini is supported", value)
			}
		case "max_depth":
			v, ok := asInt(value)
			if !ok {
				return errors.NewValidationError(key, "must be an integer", value)
			}
			cfg.maxDepth = v
		case "parallel_min_samples":
			v, ok := asInt(value)
			if !ok {
				return errors.NewValidationError(key, "must be an integer", value)
			}
			cfg.parallelMinSamples = v
		case "parallel_build":
			v, ok := value.(bool)
			if !ok {
				return errors.NewValidationError(key, "must be a bool", value)
			}
			cfg.parallel = v
		case "features":
			features, err := asFeatures(value)
			if err != nil {
				return err
			}
			cfg.features = features
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	dt.cfg = cfg
	return nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asFeatures(v interface{}) ([]dataset.FeatureID, error) {
	switch f := v.(type) {
	case []dataset.FeatureID:
		return append([]dataset.FeatureID(nil), f...), nil
	case []string:
		return dataset.ParseFeatures(f)
	case string:
		return dataset.ParseFeatures(strings.Split(f, ","))
	}
	return nil, errors.NewValidationError("features", "must be a list of feature names", v)
}

// Snapshot is the persisted form of a fitted classifier.
type Snapshot struct {
	Version     int
	EstimatorID string
	MaxDepth    int
	Features    []dataset.FeatureID
	State       model.ModelState
	Root        *Node
}

// Snapshot returns the persisted form of the classifier.
func (dt *DecisionTreeClassifier) Snapshot() (Snapshot, error) {
	if err := dt.state.RequireFitted(modelName, "Snapshot"); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Version:     snapshotVersion,
		EstimatorID: dt.id,
		MaxDepth:    dt.cfg.maxDepth,
		Features:    dt.Features(),
		State:       dt.state.GetState(),
		Root:        dt.root,
	}, nil
}

// Restore replaces the classifier's state with s.
func (dt *DecisionTreeClassifier) Restore(s Snapshot) error {
	if s.Version != snapshotVersion {
		return errors.NewModelError("Restore", "unsupported model version", errors.Newf("got %d, want %d", s.Version, snapshotVersion))
	}
	cfg := dt.cfg
	cfg.maxDepth = s.MaxDepth
	cfg.features = append([]dataset.FeatureID(nil), s.Features...)
	if err := cfg.validate(); err != nil {
		return errors.NewModelError("Restore", "invalid parameters", err)
	}
	if err := s.Root.Validate(); err != nil {
		return err
	}
	dt.cfg = cfg
	if s.EstimatorID != "" {
		dt.id = s.EstimatorID
	}
	dt.root = s.Root
	dt.state.SetState(s.State)
	dt.state.SetDimensions(len(s.Features), s.State.NSamples)
	dt.state.SetFitted()
	return nil
}

// Save writes the fitted classifier to path in gob format.
func (dt *DecisionTreeClassifier) Save(path string) error {
	s, err := dt.Snapshot()
	if err != nil {
		return err
	}
	if err := model.SaveModel(s, path); err != nil {
		return err
	}
	dt.logger().Info("model saved", log.OperationKey, log.OperationSave, log.PathKey, path)
	return nil
}

// Load reads a classifier written by Save.
func (dt *DecisionTreeClassifier) Load(path string) error {
	var s Snapshot
	if err := model.LoadModel(&s, path); err != nil {
		return err
	}
	if err := dt.Restore(s); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	dt.logger().Info("model loaded", log.OperationKey, log.OperationLoad, log.PathKey, path)
	return nil
}

// SaveToWriter writes the fitted classifier to w in gob format.
func (dt *DecisionTreeClassifier) SaveToWriter(w io.Writer) error {
	s, err := dt.Snapshot()
	if err != nil {
		return err
	}
	return model.SaveModelToWriter(s, w)
}

// LoadFromReader reads a classifier written by SaveToWriter.
func (dt *DecisionTreeClassifier) LoadFromReader(r io.Reader) error {
	var s Snapshot
	if err := model.LoadModelFromReader(&s, r); err != nil {
		return err
	}
	return dt.Restore(s)
}

// LoadDecisionTreeClassifier reads a classifier saved at path.
func LoadDecisionTreeClassifier(path string, opts ...Option) (*DecisionTreeClassifier, error) {
	dt := NewDecisionTreeClassifier(opts...)
	if err := dt.Load(path); err != nil {
		return nil, err
	}
	return dt, nil
}

var (
	_ model.Classifier      = (*DecisionTreeClassifier)(nil)
	_ model.ParameterGetter = (*DecisionTreeClassifier)(nil)
	_ model.ParameterSetter = (*DecisionTreeClassifier)(nil)
	_ model.Persistable     = (*DecisionTreeClassifier)(nil)
)
