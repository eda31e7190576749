// Package fixture builds the canonical pipelines the CI scripts used to
// spell out by hand: provision a named fixture stack, load data, run the
// functional tests, and always stop the stack; plus the image build/push
// pipeline.
package fixture

import (
	"fmt"
	"time"

	"github.com/savaki/stack-runner/internal/pipeline"
	"github.com/savaki/stack-runner/internal/readiness"
)

// Options tune the generated ftest pipeline.
type Options struct {
	// DataSize selects the fixture data volume (small, medium, large).
	DataSize string

	// KeepStack leaves the stack running after the tests, for debugging.
	KeepStack bool

	// ReadinessAttempts and ReadinessInterval configure the run-stack probe.
	ReadinessAttempts int
	ReadinessInterval time.Duration
}

// readinessProbes maps known fixture stacks to their readiness signal.
// Anything not listed falls back to polling compose for a running service.
var readinessProbes = map[string]readiness.Spec{
	"mysql":         {Type: "tcp", Target: "127.0.0.1:3306"},
	"postgresql":    {Type: "tcp", Target: "127.0.0.1:5432"},
	"mssql":         {Type: "tcp", Target: "127.0.0.1:1433"},
	"mongodb":       {Type: "tcp", Target: "127.0.0.1:27017"},
	"elasticsearch": {Type: "http", Target: "http://127.0.0.1:9200/_cluster/health"},
}

// probeFor returns the readiness spec for a fixture stack.
func probeFor(name string, opts Options) readiness.Spec {
	spec, ok := readinessProbes[name]
	if !ok {
		spec = readiness.Spec{
			Type:   "command",
			Target: fmt.Sprintf("docker compose ps --services --filter status=running | grep -q %s", name),
		}
	}
	spec.Attempts = opts.ReadinessAttempts
	spec.Interval = opts.ReadinessInterval
	spec.Strategy = string(readiness.WaitConstant)
	return spec
}

// Ftest builds the functional-test pipeline for a named fixture stack:
// install, run-stack (with readiness probe), load-data, ftest, and a
// stop-stack cleanup step unless the stack is kept.
func Ftest(name string, opts Options) pipeline.Pipeline {
	if opts.DataSize == "" {
		opts.DataSize = "medium"
	}

	steps := []pipeline.Step{
		{
			Name:  "install",
			Run:   "make install",
			Check: "make --question install 2>/dev/null",
		},
		{
			Name:    "run-stack",
			Run:     fmt.Sprintf("make run-stack NAME=%s", name),
			Needs:   []string{"install"},
			WaitFor: []readiness.Spec{probeFor(name, opts)},
		},
		{
			Name:  "load-data",
			Run:   fmt.Sprintf("make load-data NAME=%s", name),
			Needs: []string{"run-stack"},
			Env:   map[string]string{"DATA_SIZE": opts.DataSize},
		},
		{
			Name:  "ftest",
			Run:   fmt.Sprintf("make ftest NAME=%s", name),
			Needs: []string{"load-data"},
			Env:   map[string]string{"DATA_SIZE": opts.DataSize},
		},
	}

	if !opts.KeepStack {
		steps = append(steps, pipeline.Step{
			Name:      "stop-stack",
			Run:       fmt.Sprintf("make stop-stack NAME=%s", name),
			AlwaysRun: true,
		})
	}

	return pipeline.Pipeline{
		Name:  name + "-ftest",
		Steps: steps,
	}
}

// ImageOptions tune the generated image pipeline.
type ImageOptions struct {
	// Push enables the docker-push step.
	Push bool

	// SkipAarch64 drops the arm64 build.
	SkipAarch64 bool

	// Registry is the registry host pushed to. Required when Push is set.
	Registry string
}

// Image builds the container image pipeline: docker-build for each enabled
// architecture, then docker-push when pushing is requested. Registry login
// happens before the pipeline runs, not inside it.
func Image(opts ImageOptions) pipeline.Pipeline {
	steps := []pipeline.Step{
		{
			Name: "docker-build",
			Run:  "make docker-build",
		},
	}
	pushNeeds := []string{"docker-build"}

	if !opts.SkipAarch64 {
		steps = append(steps, pipeline.Step{
			Name: "docker-build-aarch64",
			Run:  "make docker-build PLATFORM=linux/arm64",
		})
		pushNeeds = append(pushNeeds, "docker-build-aarch64")
	}

	if opts.Push {
		steps = append(steps, pipeline.Step{
			Name:  "docker-push",
			Run:   "make docker-push",
			Needs: pushNeeds,
			Env:   map[string]string{"REGISTRY": opts.Registry},
		})
	}

	return pipeline.Pipeline{
		Name:  "image",
		Steps: steps,
	}
}
