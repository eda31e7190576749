package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"github.com/savaki/stack-runner/internal/executor"
	"github.com/savaki/stack-runner/internal/readiness"
	"github.com/savaki/stack-runner/internal/secrets"
)

// Runner executes pipelines sequentially with fail-fast semantics and
// guaranteed cleanup.
type Runner struct {
	exec     *executor.Executor
	provider secrets.Provider
	redactor *secrets.Redactor

	// CleanupTimeout bounds the cleanup phase after a failed or cancelled
	// run. Zero means 5 minutes.
	CleanupTimeout time.Duration

	// DefaultWaiter supplies probe polling defaults for wait_for specs that
	// leave attempts or interval unset.
	DefaultWaiter readiness.Waiter
}

// NewRunner creates a runner. Resolved secret values flow through redactor,
// which must be the same instance the executor masks with.
func NewRunner(exec *executor.Executor, provider secrets.Provider, redactor *secrets.Redactor) *Runner {
	return &Runner{
		exec:     exec,
		provider: provider,
		redactor: redactor,
	}
}

// Run executes the pipeline and returns its report. An error is returned
// only when the pipeline itself is invalid; step failures are reported in
// the RunReport, and the report's ExitCode carries the first failing step's
// exit code.
//
// Cleanup steps run on every exit path once execution has started, with a
// context detached from the run's cancellation, so an aborted run still
// stops the stack it started.
func (r *Runner) Run(ctx context.Context, p Pipeline) (*RunReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	plan, err := p.Plan()
	if err != nil {
		return nil, err
	}

	report := &RunReport{
		RunID:    ksuid.New().String(),
		Pipeline: p.Name,
	}

	logger := zerolog.Ctx(ctx).With().
		Str("run_id", report.RunID).
		Str("pipeline", p.Name).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Int("steps", len(plan)).Msg("Starting pipeline")

	defer r.runCleanup(ctx, p, report)

	failed := false
	for _, step := range plan {
		if failed || ctx.Err() != nil {
			report.Results = append(report.Results, StepResult{
				Name:   step.Name,
				Status: StatusAborted,
			})
			continue
		}

		result := r.runStep(ctx, step)
		report.Results = append(report.Results, result)

		switch result.Status {
		case StatusFailed:
			failed = true
			logger.Error().
				Str("step", step.Name).
				Int("exit_code", result.ExitCode).
				Err(result.Err).
				Msg("Step failed, aborting remaining steps")
		case StatusSkipped:
			logger.Info().Msgf("- %s (already satisfied)", step.Name)
		default:
			logger.Info().Msgf("✓ %s (%s)", step.Name, result.Duration.Round(time.Millisecond))
		}
	}

	return report, nil
}

// runCleanup executes the always-run steps with a context that survives the
// run's own cancellation.
func (r *Runner) runCleanup(ctx context.Context, p Pipeline, report *RunReport) {
	cleanup := p.CleanupSteps()
	if len(cleanup) == 0 {
		return
	}

	timeout := r.CleanupTimeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	logger := zerolog.Ctx(ctx)
	for _, step := range cleanup {
		result := r.runStep(cleanupCtx, step)
		report.Results = append(report.Results, result)

		if result.Status == StatusFailed {
			logger.Error().
				Str("step", step.Name).
				Int("exit_code", result.ExitCode).
				Err(result.Err).
				Msg("Cleanup step failed")
			continue
		}
		logger.Info().Msgf("✓ %s (cleanup)", step.Name)
	}
}

// runStep resolves the step's secrets, applies its idempotence guard, runs
// the command and waits for its readiness probes.
func (r *Runner) runStep(ctx context.Context, step Step) StepResult {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msgf("Running %s...", step.Name)

	start := time.Now()
	fail := func(exitCode int, err error) StepResult {
		return StepResult{
			Name:     step.Name,
			Status:   StatusFailed,
			ExitCode: exitCode,
			Duration: time.Since(start),
			Err:      err,
		}
	}

	overlay, err := r.resolveOverlay(ctx, step)
	if err != nil {
		return fail(0, err)
	}

	if step.Check != "" {
		satisfied, err := r.checkSatisfied(ctx, step, overlay)
		if err != nil {
			return fail(0, err)
		}
		if satisfied {
			return StepResult{
				Name:     step.Name,
				Status:   StatusSkipped,
				Duration: time.Since(start),
			}
		}
	}

	result, err := r.exec.Run(ctx, executor.Command{
		Name: "sh",
		Args: []string{"-c", step.Run},
		Env:  overlay,
	})
	if err != nil {
		return fail(0, fmt.Errorf("step %s: %w", step.Name, err))
	}
	if !result.Ok() {
		return fail(result.ExitCode, fmt.Errorf("step %s exited %d: %s",
			step.Name, result.ExitCode, lastLines(result.Stderr, 5)))
	}

	if err := r.waitReady(ctx, step); err != nil {
		return fail(0, err)
	}

	return StepResult{
		Name:     step.Name,
		Status:   StatusSucceeded,
		Duration: time.Since(start),
	}
}

// resolveOverlay builds the step's environment overlay, injecting resolved
// secrets. Values are registered with the redactor before any process can
// print them.
func (r *Runner) resolveOverlay(ctx context.Context, step Step) (map[string]string, error) {
	overlay := make(map[string]string, len(step.Env)+len(step.Secrets))
	for k, v := range step.Env {
		overlay[k] = v
	}

	names := make([]string, 0, len(step.Secrets))
	for name := range step.Secrets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref, err := secrets.ParseRef(step.Secrets[name])
		if err != nil {
			return nil, fmt.Errorf("step %s secret %s: %w", step.Name, name, err)
		}
		value, err := r.provider.Resolve(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("step %s secret %s: %w", step.Name, name, err)
		}
		r.redactor.Add(value)
		overlay[name] = value
	}
	return overlay, nil
}

// checkSatisfied runs the step's guard command. Exit zero means the desired
// state already holds.
func (r *Runner) checkSatisfied(ctx context.Context, step Step, overlay map[string]string) (bool, error) {
	result, err := r.exec.Run(ctx, executor.Command{
		Name: "sh",
		Args: []string{"-c", step.Check},
		Env:  overlay,
	})
	if err != nil {
		return false, fmt.Errorf("step %s check: %w", step.Name, err)
	}
	return result.Ok(), nil
}

// waitReady polls the step's probes concurrently until all report ready or
// the first one exhausts its attempt budget.
func (r *Runner) waitReady(ctx context.Context, step Step) error {
	if len(step.WaitFor) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, spec := range step.WaitFor {
		probe, err := spec.Build(r.exec)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		waiter, err := readiness.WaiterFromSpec(spec)
		if err != nil {
			return fmt.Errorf("step %s: %w", step.Name, err)
		}
		if waiter.Attempts == 0 {
			waiter.Attempts = r.DefaultWaiter.Attempts
		}
		if waiter.Interval == 0 {
			waiter.Interval = r.DefaultWaiter.Interval
		}

		group.Go(func() error {
			return waiter.Wait(groupCtx, probe)
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("step %s: %w", step.Name, err)
	}
	return nil
}

// lastLines returns the trailing n lines of captured output, for error
// messages that should show the tool's diagnostic without dumping the
// whole log.
func lastLines(b []byte, n int) string {
	b = bytes.TrimRight(b, "\n")
	if len(b) == 0 {
		return "(no stderr)"
	}

	lines := bytes.Split(b, []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte("; ")))
}
