package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/savaki/stack-runner/internal/errors"
)

// Waiter polls probes until they succeed or the attempt budget runs out.
type Waiter struct {
	// Attempts is the total attempt budget per probe. Zero means 10.
	Attempts int

	// Interval is the base delay between attempts. Zero means 2s.
	Interval time.Duration

	// Strategy shapes delay growth. Empty means linear.
	Strategy WaitStrategy
}

func (w Waiter) attempts() int {
	if w.Attempts <= 0 {
		return 10
	}
	return w.Attempts
}

func (w Waiter) interval() time.Duration {
	if w.Interval <= 0 {
		return 2 * time.Second
	}
	return w.Interval
}

func (w Waiter) strategy() WaitStrategy {
	if w.Strategy == "" {
		return WaitLinear
	}
	return w.Strategy
}

// Wait polls the probe until it succeeds. On exhaustion it returns
// ErrReadinessTimeout wrapped with the probe name and the last probe error.
func (w Waiter) Wait(ctx context.Context, probe Probe) error {
	logger := zerolog.Ctx(ctx)

	attempts := w.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = probe.Check(ctx)
		if lastErr == nil {
			logger.Debug().
				Str("probe", probe.Name()).
				Int("attempt", attempt).
				Msg("Probe ready")
			return nil
		}

		if attempt == attempts {
			break
		}

		delay, err := Delay(w.strategy(), w.interval(), attempt)
		if err != nil {
			return err
		}

		logger.Debug().
			Str("probe", probe.Name()).
			Int("attempt", attempt).
			Int("attempts", attempts).
			Dur("delay", delay).
			Err(lastErr).
			Msg("Probe not ready, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", probe.Name(), ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%w: %s after %d attempts: %v",
		errors.ErrReadinessTimeout, probe.Name(), attempts, lastErr)
}

// WaitAll polls every probe concurrently and returns the first failure.
func (w Waiter) WaitAll(ctx context.Context, probes ...Probe) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, probe := range probes {
		group.Go(func() error {
			return w.Wait(ctx, probe)
		})
	}
	return group.Wait()
}

// WaiterFromSpec builds the waiter settings a spec declares, falling back to
// the zero-value defaults for anything unset.
func WaiterFromSpec(spec Spec) (Waiter, error) {
	strategy, err := ParseStrategy(spec.Strategy)
	if err != nil {
		return Waiter{}, err
	}
	return Waiter{
		Attempts: spec.Attempts,
		Interval: spec.Interval,
		Strategy: strategy,
	}, nil
}
