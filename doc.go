// Package survtree trains binary decision trees that predict passenger
// survival from the Titanic passenger records.
//
// The tree is grown greedily: every node picks the (feature, threshold)
// pair with the lowest weighted Gini impurity, records with a value less
// than or equal to the threshold go left, and growth stops at pure nodes,
// at the depth limit (10 by default) or when no split separates the
// records.
//
// # Packages
//
//   - core/dataset: passenger records, the feature table and CSV ingestion
//   - sklearn/tree: Gini split search, TreeBuilder, prediction, text and
//     Graphviz rendering, and a scikit-learn style DecisionTreeClassifier
//   - metrics: accuracy, confusion matrix, precision, recall, F1, AUC
//   - internal/cli: the survtree command (train, predict, render, runs)
//   - pkg/errors, pkg/log: structured errors and logging
//
// # Quick Start
//
//	train, err := dataset.LoadCSV("train.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	root, err := tree.Build(train, tree.WithMaxDepth(10))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(tree.Render(root))
//
//	validation, _ := dataset.LoadCSV("validation.csv")
//	for _, r := range validation {
//	    label, _ := tree.Predict(root, r)
//	    fmt.Printf("Passenger %d -> prediction: %d\n", r.PassengerID, label)
//	}
//
// The same flow is available from the command line:
//
//	survtree train --train train.csv --validation validation.csv
//
// # Error Handling
//
// Errors carry stack traces from github.com/cockroachdb/errors and typed
// causes from pkg/errors (EmptyDatasetError, MalformedRecordError,
// NotFittedError, ValidationError) that can be matched with errors.As.
package survtree
