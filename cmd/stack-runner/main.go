package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/savaki/stack-runner/cmd/stack-runner/commands"
	"github.com/savaki/stack-runner/internal/di"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "stack-runner",
		Usage: "Provisioning and functional-test pipeline runner",
		Description: `Runs the provisioning pipelines CI shell scripts used to spell out by hand.

This tool provides commands for:
  - Running pipelines defined in a YAML file
  - Running the built-in fixture functional-test pipeline (ftest)
  - Building and pushing container images with registry login
  - Rendering a pipeline's step graph

Steps execute strictly in sequence with fail-fast semantics; cleanup steps
run on every exit path, so a failed run never leaks a fixture stack.`,
		Commands: []*cli.Command{
			commands.RunCommand(&logger),
			commands.FtestCommand(&logger),
			commands.BuildCommand(&logger),
			commands.GraphCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")

		// A failed pipeline exits with its first failing step's code.
		var runErr *commands.RunError
		if errors.As(err, &runErr) {
			os.Exit(runErr.Report.ExitCode())
		}
		os.Exit(1)
	}
}
