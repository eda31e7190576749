package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/savaki/stack-runner/internal/di"
	"github.com/savaki/stack-runner/internal/pipeline"
)

// RunError reports a pipeline run that completed with failures. It carries
// the report so main can exit with the first failing step's code.
type RunError struct {
	Report *pipeline.RunReport
}

func (e *RunError) Error() string {
	failure := e.Report.FirstFailure()
	if failure == nil {
		return fmt.Sprintf("pipeline %s failed", e.Report.Pipeline)
	}
	return fmt.Sprintf("pipeline %s failed at step %s (exit %d)",
		e.Report.Pipeline, failure.Name, e.Report.ExitCode())
}

// commonFlags are shared by every command that executes a pipeline.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Runner environment (dev, stg, or prd) - selects the Parameter Store path",
			Value:   "dev",
			EnvVars: []string{"ENV"},
		},
		&cli.BoolFlag{
			Name:    "no-aws",
			Usage:   "Disable AWS-backed settings and secrets (use environment variables)",
			EnvVars: []string{"DISABLE_AWS"},
		},
	}
}

// newContainer builds the DI container from the common flags.
func newContainer(c *cli.Context) (di.Container, error) {
	return di.New(c.String("env"), di.WithDisableAWS(c.Bool("no-aws")))
}

// executePipeline runs a pipeline through the container's runner and logs
// the summary. A failed run returns a RunError wrapping the report.
func executePipeline(c *cli.Context, container di.Container, p pipeline.Pipeline) error {
	logger := zerolog.Ctx(c.Context)

	var report *pipeline.RunReport
	err := container.Invoke(func(runner *pipeline.Runner) error {
		var runErr error
		report, runErr = runner.Run(c.Context, p)
		return runErr
	})
	if err != nil {
		return err
	}

	for _, result := range report.Results {
		logger.Info().
			Str("step", result.Name).
			Str("status", string(result.Status)).
			Dur("duration", result.Duration.Round(time.Millisecond)).
			Msg("Step result")
	}

	if !report.Ok() {
		return &RunError{Report: report}
	}

	logger.Info().
		Str("run_id", report.RunID).
		Strs("steps", report.StepNames()).
		Msg("✓ Pipeline succeeded")
	return nil
}

// printPlan logs the execution order without running anything.
func printPlan(c *cli.Context, p pipeline.Pipeline) error {
	plan, err := p.Plan()
	if err != nil {
		return err
	}

	logger := zerolog.Ctx(c.Context)

	var names []string
	for _, step := range plan {
		names = append(names, step.Name)
	}
	for _, step := range p.CleanupSteps() {
		names = append(names, step.Name+" (cleanup)")
	}
	logger.Info().Msgf("Plan for %s: %s", p.Name, strings.Join(names, " -> "))
	return nil
}
