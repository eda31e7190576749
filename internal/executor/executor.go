// Package executor runs external tools on behalf of the pipeline runner.
//
// Every provisioning step ultimately becomes one Command here: a process
// spawned with the parent environment plus the step's overlay, its output
// captured and redacted, its exit code surfaced rather than swallowed.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/savaki/stack-runner/internal/secrets"
)

// Command describes one external process invocation.
type Command struct {
	// Name is the program to run, resolved via PATH.
	Name string

	// Args are the program arguments, excluding the program name.
	Args []string

	// Env is the environment overlay applied on top of the parent
	// environment. Values here are visible only to this command.
	Env map[string]string

	// Dir is the working directory; empty means inherit.
	Dir string

	// Stdin, when set, is fed to the process. Used for credentials that must
	// not appear in argv or the environment (docker login --password-stdin).
	Stdin io.Reader
}

// String renders the command line. Callers mask it through the redactor
// before display; the method itself does no redaction.
func (c Command) String() string {
	s := c.Name
	for _, arg := range c.Args {
		s += " " + arg
	}
	return s
}

// Result holds the outcome of a completed process.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Ok reports whether the process exited zero.
func (r *Result) Ok() bool { return r.ExitCode == 0 }

// Executor spawns external processes with captured, redacted output.
type Executor struct {
	redactor *secrets.Redactor

	// Output, when set, receives the live combined output of every command,
	// masked line by line. Nil disables streaming.
	Output io.Writer
}

// New creates an executor that masks output through the given redactor.
func New(redactor *secrets.Redactor) *Executor {
	return &Executor{redactor: redactor}
}

// Run executes the command and waits for it to finish. A non-zero exit is not
// an error; it is reported in the Result so the caller decides the failure
// policy. Errors are reserved for processes that could not be run at all or
// were cancelled.
func (e *Executor) Run(ctx context.Context, command Command) (*Result, error) {
	if command.Name == "" {
		return nil, fmt.Errorf("command has no program name")
	}

	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = mergeEnv(os.Environ(), command.Env)
	cmd.Stdin = command.Stdin

	// Own process group so cancellation kills the whole tree, not just the
	// direct child (compose and make both fork).
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	var live *secrets.MaskingWriter
	if e.Output != nil {
		live = secrets.NewMaskingWriter(e.Output, e.redactor)
		cmd.Stdout = io.MultiWriter(&stdout, live)
		cmd.Stderr = io.MultiWriter(&stderr, live)
	}

	zerolog.Ctx(ctx).Debug().
		Str("command", e.redactor.Mask(command.String())).
		Msg("Spawning process")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", command.Name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		if live != nil {
			_ = live.Close()
		}
		return nil, fmt.Errorf("%s cancelled: %w", command.Name, ctx.Err())
	case waitErr = <-done:
	}

	if live != nil {
		_ = live.Close()
	}

	exitCode := 0
	if waitErr != nil {
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to run %s: %w", command.Name, waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   e.redactor.MaskBytes(stdout.Bytes()),
		Stderr:   e.redactor.MaskBytes(stderr.Bytes()),
		Duration: time.Since(start),
	}, nil
}

// mergeEnv overlays the given variables on top of the base KEY=VALUE list.
// Overlay keys are applied in sorted order so repeated runs build identical
// environments.
func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	merged := make([]string, 0, len(base)+len(overlay))
	merged = append(merged, base...)
	for _, k := range keys {
		merged = append(merged, k+"="+overlay[k])
	}
	return merged
}
