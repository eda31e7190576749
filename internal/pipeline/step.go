// Package pipeline models and runs sequential provisioning pipelines.
//
// A pipeline is an ordered list of steps, each one external command. Steps
// run strictly one at a time: fail-fast for normal steps, with cleanup steps
// guaranteed to run on every exit path so a failed run never leaks a fixture
// stack.
package pipeline

import (
	"github.com/savaki/stack-runner/internal/readiness"
)

// Step is one unit of work in a pipeline.
type Step struct {
	// Name identifies the step in logs, reports and Needs references.
	Name string `yaml:"name"`

	// Run is the shell command the step executes.
	Run string `yaml:"run"`

	// Env is the environment overlay applied only to this step.
	Env map[string]string `yaml:"env,omitempty"`

	// Needs lists step names that must complete before this step runs.
	// Declared order breaks ties between independent steps.
	Needs []string `yaml:"needs,omitempty"`

	// Check is an optional guard command. When it exits zero the desired
	// state already holds and the step is skipped instead of re-applied.
	Check string `yaml:"check,omitempty"`

	// AlwaysRun marks a cleanup step. Cleanup steps run after the normal
	// steps on every exit path, including failure and cancellation.
	AlwaysRun bool `yaml:"always_run,omitempty"`

	// WaitFor lists readiness probes polled after the command succeeds. The
	// step only counts as done once every probe reports ready.
	WaitFor []readiness.Spec `yaml:"wait_for,omitempty"`

	// Secrets maps environment variable names to secret references
	// ("path#field"). Resolved values are injected into this step's overlay
	// only and registered with the redactor before the process starts.
	Secrets map[string]string `yaml:"secrets,omitempty"`
}

// Pipeline is a named sequence of steps.
type Pipeline struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// CleanupSteps returns the always-run steps in declared order.
func (p Pipeline) CleanupSteps() []Step {
	var cleanup []Step
	for _, step := range p.Steps {
		if step.AlwaysRun {
			cleanup = append(cleanup, step)
		}
	}
	return cleanup
}

// NormalSteps returns the non-cleanup steps in declared order.
func (p Pipeline) NormalSteps() []Step {
	var normal []Step
	for _, step := range p.Steps {
		if !step.AlwaysRun {
			normal = append(normal, step)
		}
	}
	return normal
}
