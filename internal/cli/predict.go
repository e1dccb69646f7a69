package cli

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/internal/config"
	"github.com/YuminosukeSato/survtree/internal/report"
	"github.com/YuminosukeSato/survtree/metrics"
	"github.com/YuminosukeSato/survtree/pkg/log"
	"github.com/YuminosukeSato/survtree/sklearn/tree"
)

func predictCmd(app *App) *cobra.Command {
	var modelPath, inputPath string
	var flags *config.Flags

	c := &cobra.Command{
		Use:   "predict",
		Short: "Label a passenger file with a saved tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := app.resolveLogOnly(flags)
			if err != nil {
				return err
			}
			clf, err := tree.LoadDecisionTreeClassifier(modelPath)
			if err != nil {
				return err
			}
			ds, err := dataset.LoadCSV(inputPath)
			if err != nil {
				return err
			}
			if len(ds) == 0 {
				logger.Warn("input is empty", log.PathKey, inputPath)
				return nil
			}
			preds, err := clf.PredictDataset(ds)
			if err != nil {
				return err
			}
			if err := report.WritePredictions(app.Out, ds, preds); err != nil {
				return err
			}
			if !ds.Labeled() {
				return nil
			}
			m, err := metrics.EvaluateLabels(ds.Labels(), preds)
			if err != nil {
				return err
			}
			return report.WriteMetrics(app.Out, m)
		},
	}

	c.Flags().StringVarP(&modelPath, "model", "m", "", "model file written by train --save-model (required)")
	c.Flags().StringVarP(&inputPath, "input", "i", "", "passenger CSV file (required)")
	flags = config.NewLogFlags(c.Flags())
	_ = c.MarkFlagRequired("model")
	_ = c.MarkFlagRequired("input")
	return c
}
