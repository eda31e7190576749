package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/savaki/stack-runner/internal/config"
)

// RunCommand returns the run command for executing a pipeline from a YAML file
func RunCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a pipeline defined in a YAML file",
		ArgsUsage: " ",
		Description: `Loads a pipeline file, expands ${VAR} references from the environment, and
executes the selected pipeline's steps strictly in sequence.

The first failing step aborts the remaining steps and becomes the process
exit code. Steps marked always_run execute on every exit path, including
cancellation, so a failed run still tears down what it started.

Examples:
  # Run the only pipeline in the default file
  stack-runner run

  # Run a named pipeline with a variable override
  stack-runner run --file ci/pipelines.yaml --pipeline mysql-ftest --set DATA_SIZE=small

  # Show the execution order without running anything
  stack-runner run --pipeline mysql-ftest --dry-run`,
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to the pipeline file",
				Value:   "pipelines.yaml",
				EnvVars: []string{"PIPELINE_FILE"},
			},
			&cli.StringFlag{
				Name:    "pipeline",
				Aliases: []string{"p"},
				Usage:   "Pipeline to run (optional when the file defines exactly one)",
			},
			&cli.StringSliceFlag{
				Name:    "set",
				Aliases: []string{"s"},
				Usage:   "Set a KEY=VALUE variable for ${VAR} interpolation (can be specified multiple times)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the execution plan without running any step",
			},
		),
		Action: func(c *cli.Context) error {
			return runAction(c, logger)
		},
	}
}

func runAction(c *cli.Context, logger *zerolog.Logger) error {
	for _, kv := range c.StringSlice("set") {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --set value %q, expected KEY=VALUE", kv)
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	file, err := config.Load(c.String("file"))
	if err != nil {
		return err
	}
	p, err := file.Pipeline(c.String("pipeline"))
	if err != nil {
		if len(file.Names()) > 0 {
			return fmt.Errorf("%w (file defines: %s)", err, strings.Join(file.Names(), ", "))
		}
		return err
	}
	logger.Info().
		Str("file", c.String("file")).
		Str("pipeline", p.Name).
		Int("steps", len(p.Steps)).
		Msg("Loaded pipeline")

	if c.Bool("dry-run") {
		return printPlan(c, p)
	}

	container, err := newContainer(c)
	if err != nil {
		return err
	}
	return executePipeline(c, container, p)
}
