package readiness

import (
	"fmt"
	"time"

	"github.com/savaki/stack-runner/internal/errors"
)

// WaitStrategy controls how the delay between probe attempts grows.
type WaitStrategy string

const (
	// WaitConstant sleeps the same interval between every attempt.
	WaitConstant WaitStrategy = "constant"

	// WaitLinear sleeps interval * attempt.
	WaitLinear WaitStrategy = "linear"

	// WaitExponential doubles the interval after each attempt.
	WaitExponential WaitStrategy = "exponential"
)

// maxDelay caps backoff growth so a large attempt budget cannot push a single
// sleep past the point of usefulness.
const maxDelay = 2 * time.Minute

// ParseStrategy maps a config string to a WaitStrategy. Empty selects linear,
// matching the runner's defaults.
func ParseStrategy(s string) (WaitStrategy, error) {
	switch s {
	case "":
		return WaitLinear, nil
	case string(WaitConstant):
		return WaitConstant, nil
	case string(WaitLinear):
		return WaitLinear, nil
	case string(WaitExponential):
		return WaitExponential, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownWaitStrategy, s)
	}
}

// Delay returns the sleep before the given 1-based attempt number retries.
func Delay(strategy WaitStrategy, interval time.Duration, attempt int) (time.Duration, error) {
	if attempt < 1 {
		attempt = 1
	}

	var d time.Duration
	switch strategy {
	case WaitConstant:
		d = interval
	case WaitLinear:
		d = interval * time.Duration(attempt)
	case WaitExponential:
		d = interval
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= maxDelay {
				break
			}
		}
	default:
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownWaitStrategy, strategy)
	}

	if d > maxDelay {
		d = maxDelay
	}
	return d, nil
}
