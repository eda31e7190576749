package pipeline

import (
	"time"

	"github.com/savaki/gox/slicex"
)

// StepStatus is the terminal state of one step within a run.
type StepStatus string

const (
	StatusSucceeded StepStatus = "SUCCEEDED"
	StatusFailed    StepStatus = "FAILED"
	StatusSkipped   StepStatus = "SKIPPED"
	StatusAborted   StepStatus = "ABORTED"
)

// StepResult records the outcome of one step.
type StepResult struct {
	Name     string
	Status   StepStatus
	ExitCode int
	Duration time.Duration
	Err      error
}

// RunReport is the full outcome of one pipeline run.
type RunReport struct {
	// RunID is the KSUID assigned to this run.
	RunID string

	// Pipeline is the pipeline name.
	Pipeline string

	// Results holds one entry per step, in execution order. Aborted steps
	// (never started because an earlier step failed) are included.
	Results []StepResult
}

// FirstFailure returns the first failed step, or nil when the run succeeded.
func (r *RunReport) FirstFailure() *StepResult {
	for i := range r.Results {
		if r.Results[i].Status == StatusFailed {
			return &r.Results[i]
		}
	}
	return nil
}

// ExitCode is the process exit code for the whole run: the first failing
// step's exit code, or 0 when every step succeeded or was skipped. Failures
// without a process exit code (readiness timeouts, secret resolution) map
// to 1.
func (r *RunReport) ExitCode() int {
	failure := r.FirstFailure()
	if failure == nil {
		return 0
	}
	if failure.ExitCode != 0 {
		return failure.ExitCode
	}
	return 1
}

// Ok reports whether the run succeeded.
func (r *RunReport) Ok() bool { return r.FirstFailure() == nil }

// StepNames lists the recorded step names in execution order.
func (r *RunReport) StepNames() []string {
	return slicex.Map(r.Results, func(result StepResult) string { return result.Name })
}
