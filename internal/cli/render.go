package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/survtree/internal/config"
	"github.com/YuminosukeSato/survtree/pkg/errors"
	"github.com/YuminosukeSato/survtree/sklearn/tree"
)

func renderCmd(app *App) *cobra.Command {
	var modelPath, dotPath, graphPath string
	var flags *config.Flags

	c := &cobra.Command{
		Use:   "render",
		Short: "Print a saved tree, optionally exporting it as a Graphviz graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.resolveLogOnly(flags); err != nil {
				return err
			}
			clf, err := tree.LoadDecisionTreeClassifier(modelPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Out, clf)
			fmt.Fprint(app.Out, tree.Render(clf.Root()))

			if dotPath != "" {
				if err := writeDOTFile(clf.Root(), dotPath); err != nil {
					return err
				}
			}
			if graphPath != "" {
				return writeGraphFile(clf.Root(), graphPath)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&modelPath, "model", "m", "", "model file written by train --save-model (required)")
	c.Flags().StringVar(&dotPath, "dot", "", "write the tree as Graphviz DOT to this file")
	c.Flags().StringVar(&graphPath, "graph", "", "render the tree to this .svg, .png or .jpg file")
	flags = config.NewLogFlags(c.Flags())
	_ = c.MarkFlagRequired("model")
	return c
}

func writeGraphFile(root *tree.Node, path string) error {
	format, err := tree.GraphFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()
	if err := tree.RenderGraph(root, format, f); err != nil {
		return err
	}
	return f.Close()
}
