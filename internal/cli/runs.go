package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/survtree/internal/config"
	"github.com/YuminosukeSato/survtree/internal/runstore"
	"github.com/YuminosukeSato/survtree/pkg/errors"
)

func runsCmd(app *App) *cobra.Command {
	var dbPath string
	var flags *config.Flags

	c := &cobra.Command{
		Use:   "runs",
		Short: "List training runs recorded with train --db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.resolveLogOnly(flags); err != nil {
				return err
			}
			if v, ok := app.LookupEnv(config.EnvPrefix + "DB"); ok && !cmd.Flags().Changed("db") {
				dbPath = v
			}
			if dbPath == "" {
				return errors.NewValidationError("db", "a database path is required", dbPath)
			}
			store, err := runstore.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tFEATURES\tDEPTH\tLEAVES\tACCURACY")
			for _, r := range runs {
				acc := "-"
				if r.Accuracy != nil {
					acc = fmt.Sprintf("%.4f", *r.Accuracy)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), strings.Join(r.Features, ","),
					r.Depth, r.Leaves, acc)
			}
			return tw.Flush()
		},
	}

	c.Flags().StringVar(&dbPath, "db", "", "SQLite database written by train --db")
	flags = config.NewLogFlags(c.Flags())
	return c
}
