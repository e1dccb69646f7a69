// Package cli wires the survtree commands: train, predict, render, runs
// and version.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/survtree/internal/config"
	"github.com/YuminosukeSato/survtree/pkg/log"
)

// App carries the process dependencies of the commands.
type App struct {
	Version string
	Out     io.Writer
	Err     io.Writer

	// LookupEnv reads SURVTREE_* overrides; os.LookupEnv in production.
	LookupEnv func(string) (string, bool)
}

// NewApp returns an App bound to the process streams and environment.
func NewApp(version string) *App {
	return &App{
		Version:   version,
		Out:       os.Stdout,
		Err:       os.Stderr,
		LookupEnv: os.LookupEnv,
	}
}

// Execute runs the root command with the process arguments.
func Execute(ctx context.Context, version string) error {
	return NewRootCmd(NewApp(version)).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "survtree",
		Short:        "Train and apply a Titanic survival decision tree",
		SilenceUsage: true,
	}
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	cmd.AddCommand(
		trainCmd(app),
		predictCmd(app),
		renderCmd(app),
		runsCmd(app),
		versionCmd(app),
	)
	return cmd
}

// setupLogging installs the process-wide logger for cfg and returns the
// logger used by the command itself.
func (a *App) setupLogging(cfg config.Config) (log.Logger, error) {
	if err := log.Setup(cfg.LogSetup(a.Err)); err != nil {
		return nil, err
	}
	return log.GetLoggerWithName("cli"), nil
}

// resolveLogOnly applies env and log flags for commands that do not train.
func (a *App) resolveLogOnly(flags *config.Flags) (log.Logger, error) {
	cfg := config.Default()
	if err := cfg.ApplyEnv(a.LookupEnv); err != nil {
		return nil, err
	}
	flags.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return a.setupLogging(cfg)
}
