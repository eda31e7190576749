package errors

import "errors"

// Re-exports so call sites need a single errors import.
func New(text string) error         { return errors.New(text) }
func Is(err, target error) bool     { return errors.Is(err, target) }
func As(err error, target any) bool { return errors.As(err, target) }
func Join(errs ...error) error      { return errors.Join(errs...) }

var (
	ErrPipelineNotFound    = errors.New("pipeline not found")
	ErrNoSteps             = errors.New("pipeline has no steps")
	ErrDuplicateStep       = errors.New("duplicate step name")
	ErrUnknownDependency   = errors.New("step depends on an undeclared step")
	ErrCycleDetected       = errors.New("step dependencies contain a cycle")
	ErrReadinessTimeout    = errors.New("readiness probe did not succeed within the attempt budget")
	ErrUnknownProbeType    = errors.New("unknown readiness probe type")
	ErrUnknownWaitStrategy = errors.New("unknown wait strategy")
	ErrSecretNotFound      = errors.New("secret not found")
	ErrSecretFieldNotFound = errors.New("secret field not found")
	ErrRegistryAuthFailed  = errors.New("registry authorization token could not be decoded")
)
