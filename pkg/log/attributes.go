// Package log defines standard attribute keys for survtree operations.
//
// Using these keys everywhere keeps training and prediction logs filterable.
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples", "split.feature").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator.
	// Examples: "DecisionTreeClassifier"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "load", "save"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	// Examples: "tree.builder", "dataset.csv", "cli"
	ComponentKey = "component"

	// PhaseKey indicates the phase of the model lifecycle.
	PhaseKey = "ml.phase"

	// RunIDKey identifies one CLI run (one train/validate cycle).
	RunIDKey = "run.id"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of records in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features used for splitting.
	FeaturesKey = "data.features"

	// PositivesKey indicates the number of records labeled 1.
	PositivesKey = "data.positives"

	// PathKey records the file a dataset or model was read from or written to.
	PathKey = "data.path"
)

// Tree Construction
const (
	// TreeDepthKey records the depth of a built tree or of the current node.
	TreeDepthKey = "tree.depth"

	// TreeLeavesKey records the number of leaves of a built tree.
	TreeLeavesKey = "tree.leaves"

	// TreeNodesKey records the total number of nodes of a built tree.
	TreeNodesKey = "tree.nodes"

	// MaxDepthKey records the configured depth cap.
	MaxDepthKey = "tree.max_depth"

	// SplitFeatureKey records the feature chosen for a split.
	SplitFeatureKey = "split.feature"

	// SplitThresholdKey records the threshold chosen for a split.
	SplitThresholdKey = "split.threshold"

	// SplitImpurityKey records the weighted Gini impurity of the chosen split.
	SplitImpurityKey = "split.impurity"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy for evaluation operations.
	AccuracyKey = "metrics.accuracy"

	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
	OperationLoad    = "load"
	OperationSave    = "save"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"

	ErrorNotFitted    = "NOT_FITTED"
	ErrorEmptyData    = "EMPTY_DATA"
	ErrorInvalidInput = "INVALID_INPUT"
)
