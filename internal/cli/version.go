package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(app.Out, "survtree %s\n", app.Version)
			return err
		},
	}
}
