package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/savaki/stack-runner/internal/config"
	"github.com/savaki/stack-runner/internal/fixture"
)

// FtestCommand returns the ftest command for running a fixture stack's
// functional tests
func FtestCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "ftest",
		Usage:     "Run the functional-test pipeline for a fixture stack",
		ArgsUsage: "NAME",
		Description: `Runs the built-in functional-test pipeline for the named fixture stack:
install, run-stack, load-data, ftest, stop-stack.

run-stack completes only after the stack's readiness probe reports ready,
so load-data never races a service that is still starting. stop-stack is a
cleanup step and runs even when an earlier step fails, unless --keep-stack
is given.

Examples:
  # Run the MySQL functional tests with the default data size
  stack-runner ftest mysql

  # Run with a small data set and leave the stack up for debugging
  stack-runner ftest postgresql --data-size small --keep-stack`,
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "data-size",
				Usage:   "Fixture data volume (small, medium, or large)",
				EnvVars: []string{"DATA_SIZE"},
			},
			&cli.BoolFlag{
				Name:    "keep-stack",
				Usage:   "Leave the fixture stack running after the tests",
				EnvVars: []string{"KEEP_STACK"},
			},
		),
		Action: func(c *cli.Context) error {
			return ftestAction(c, logger)
		},
	}
}

func ftestAction(c *cli.Context, logger *zerolog.Logger) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("fixture stack name is required, e.g. stack-runner ftest mysql")
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}

	opts := fixture.Options{
		DataSize:  c.String("data-size"),
		KeepStack: c.Bool("keep-stack"),
	}
	err = container.Invoke(func(settings *config.Settings) {
		if opts.DataSize == "" {
			opts.DataSize = settings.DataSize
		}
		opts.ReadinessAttempts = settings.ReadinessAttempts
		opts.ReadinessInterval = settings.ReadinessInterval
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("stack", name).
		Str("data_size", opts.DataSize).
		Bool("keep_stack", opts.KeepStack).
		Msg("Running functional tests")
	return executePipeline(c, container, fixture.Ftest(name, opts))
}
