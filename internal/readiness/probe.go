// Package readiness replaces fixed sleeps with real health checks.
//
// Starting a fixture stack does not make it usable; a database accepts
// connections some time after its container reports running. Probes poll an
// explicit signal (a TCP port, an HTTP endpoint, a command's exit code) with
// a bounded attempt budget, so a stack that never comes up fails loudly with
// the probe's name instead of surfacing as an opaque test error later.
package readiness

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/savaki/stack-runner/internal/errors"
	"github.com/savaki/stack-runner/internal/executor"
)

// Probe is a single readiness signal.
type Probe interface {
	// Name identifies the probe in logs and errors.
	Name() string

	// Check returns nil once the target is ready.
	Check(ctx context.Context) error
}

// TCPProbe succeeds when a TCP connection to Addr can be established.
type TCPProbe struct {
	Addr string

	// DialTimeout bounds one connection attempt. Zero means 5s.
	DialTimeout time.Duration
}

func (p *TCPProbe) Name() string { return "tcp " + p.Addr }

func (p *TCPProbe) Check(ctx context.Context) error {
	timeout := p.DialTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.Addr, err)
	}
	return conn.Close()
}

// HTTPProbe succeeds when a GET to URL returns a 2xx status.
type HTTPProbe struct {
	URL string

	// Client defaults to a client with a 5s timeout.
	Client *http.Client
}

func (p *HTTPProbe) Name() string { return "http " + p.URL }

func (p *HTTPProbe) Check(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", p.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", p.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: status %d", p.URL, resp.StatusCode)
	}
	return nil
}

// CommandProbe succeeds when the command exits zero. Used for checks the
// runner cannot express natively (mysqladmin ping, docker compose ps).
type CommandProbe struct {
	Exec    *executor.Executor
	Command executor.Command
}

func (p *CommandProbe) Name() string { return "command " + p.Command.Name }

func (p *CommandProbe) Check(ctx context.Context) error {
	result, err := p.Exec.Run(ctx, p.Command)
	if err != nil {
		return err
	}
	if !result.Ok() {
		return fmt.Errorf("%s exited %d", p.Command.Name, result.ExitCode)
	}
	return nil
}

// Spec is the declarative form of a probe as it appears in pipeline files.
type Spec struct {
	Type     string        `yaml:"type"`
	Target   string        `yaml:"target"`
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
	Strategy string        `yaml:"strategy"`
}

// Build turns a spec into a probe. Command targets run through sh so compose
// one-liners work unquoted.
func (s Spec) Build(exec *executor.Executor) (Probe, error) {
	switch s.Type {
	case "tcp":
		return &TCPProbe{Addr: s.Target}, nil
	case "http":
		return &HTTPProbe{URL: s.Target}, nil
	case "command":
		return &CommandProbe{
			Exec:    exec,
			Command: executor.Command{Name: "sh", Args: []string{"-c", s.Target}},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownProbeType, s.Type)
	}
}
