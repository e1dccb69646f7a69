package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/survtree/core/dataset"
	"github.com/YuminosukeSato/survtree/internal/config"
	"github.com/YuminosukeSato/survtree/internal/report"
	"github.com/YuminosukeSato/survtree/internal/runstore"
	"github.com/YuminosukeSato/survtree/metrics"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/pkg/log"
	"github.com/YuminosukeSato/survtree/sklearn/tree"
)

func trainCmd(app *App) *cobra.Command {
	var configPath string
	var flags *config.Flags

	c := &cobra.Command{
		Use:   "train",
		Short: "Fit a tree on the training file and label the validation file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.Resolve(configPath, app.LookupEnv)
			if err != nil {
				return err
			}
			logger, err := app.setupLogging(cfg)
			if err != nil {
				return err
			}
			return runTrain(cmd, app, cfg, logger)
		},
	}

	c.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file (optional)")
	flags = config.RegisterFlags(c.Flags())
	return c
}

func runTrain(cmd *cobra.Command, app *App, cfg config.Config, logger log.Logger) error {
	out := app.Out
	fmt.Fprintln(out, report.Training)

	train, err := dataset.LoadCSV(cfg.Train)
	if err != nil {
		return err
	}
	if !train.Labeled() {
		return errors.NewValueError("train", fmt.Sprintf("%s has no %s column", cfg.Train, dataset.ColSurvived))
	}
	logger.Info("training set loaded", log.PathKey, cfg.Train, log.SamplesKey, len(train), log.PositivesKey, train.Positives())

	opts, err := cfg.TreeOptions(nil)
	if err != nil {
		return err
	}
	clf := tree.NewDecisionTreeClassifier(opts...)
	if err := clf.FitDataset(train); err != nil {
		return err
	}

	validation, err := dataset.LoadCSV(cfg.Validation)
	if err != nil {
		return err
	}

	rep := report.Report{Tree: clf.Root(), Validation: validation}
	var probas []float64
	if len(validation) == 0 {
		logger.Warn("validation set is empty", log.PathKey, cfg.Validation)
	} else {
		if rep.Predictions, err = clf.PredictDataset(validation); err != nil {
			return err
		}
		if probas, err = leafProbas(clf.Root(), validation); err != nil {
			return err
		}
		if validation.Labeled() {
			if err := scoreValidation(&rep, probas); err != nil {
				return err
			}
			logger.Info("validation scored",
				log.AccuracyKey, rep.Metrics.Accuracy,
				log.SamplesKey, len(validation),
			)
		}
	}
	if err := report.Write(out, rep); err != nil {
		return err
	}

	if err := writeArtifacts(cfg, clf, train); err != nil {
		return err
	}
	if cfg.DB != "" {
		return recordRun(cmd, cfg, clf, train, rep, probas, logger)
	}
	return nil
}

func leafProbas(root *tree.Node, ds dataset.Dataset) ([]float64, error) {
	probas := make([]float64, len(ds))
	for i := range ds {
		p, err := root.Proba(&ds[i])
		if err != nil {
			return nil, err
		}
		probas[i] = p
	}
	return probas, nil
}

func scoreValidation(rep *report.Report, probas []float64) error {
	labels := rep.Validation.Labels()
	m, err := metrics.EvaluateLabels(labels, rep.Predictions)
	if err != nil {
		return err
	}
	s, err := report.ScoreProbabilities(labels, probas)
	if err != nil {
		return err
	}
	rep.Metrics, rep.Scores = &m, &s
	return nil
}

func writeArtifacts(cfg config.Config, clf *tree.DecisionTreeClassifier, train dataset.Dataset) error {
	if cfg.SaveModel != "" {
		if err := clf.Save(cfg.SaveModel); err != nil {
			return err
		}
	}
	if cfg.DOT != "" {
		if err := writeDOTFile(clf.Root(), cfg.DOT); err != nil {
			return err
		}
	}
	if cfg.Plot != "" {
		if err := report.PlotSplits(train, clf.Root(), cfg.Plot); err != nil {
			return err
		}
	}
	return nil
}

func writeDOTFile(root *tree.Node, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()
	if err := tree.WriteDOT(root, f); err != nil {
		return err
	}
	return f.Close()
}

func recordRun(cmd *cobra.Command, cfg config.Config, clf *tree.DecisionTreeClassifier,
	train dataset.Dataset, rep report.Report, probas []float64, logger log.Logger) error {
	store, err := runstore.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	root := clf.Root()
	run := &runstore.Run{
		TrainPath:      cfg.Train,
		ValidationPath: cfg.Validation,
		MaxDepth:       cfg.MaxDepth,
		Features:       dataset.FeatureNames(clf.Features()),
		TrainSamples:   len(train),
		Depth:          root.Depth(),
		Leaves:         root.Leaves(),
		Nodes:          root.Nodes(),
		Tree:           tree.Render(root),
		CreatedAt:      time.Now().UTC(),
	}
	if rep.Metrics != nil {
		acc := rep.Metrics.Accuracy
		run.Accuracy = &acc
	}
	for i, label := range rep.Predictions {
		run.Predictions = append(run.Predictions, runstore.Prediction{
			PassengerID: rep.Validation[i].PassengerID,
			Label:       label,
			Proba:       probas[i],
		})
	}
	if err := store.SaveRun(cmd.Context(), run); err != nil {
		return err
	}
	logger.Info("run recorded", log.RunIDKey, run.ID, log.PathKey, cfg.DB)
	return nil
}
