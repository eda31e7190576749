package di

// DisableAWS turns off every AWS-backed dependency: settings come from the
// environment and secrets resolve from environment variables. Used for local
// development and tests.
type DisableAWS bool

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithDisableAWS disables AWS-backed settings and secrets resolution.
func WithDisableAWS(disable bool) Option {
	return func(opts *options) {
		opts.disableAWS = disable
	}
}

// WithProviders adds constructor functions to the dependency injection
// container. Each provider should be a constructor function that returns one
// or more values. Providers can declare dependencies as function parameters,
// which will be automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() *secrets.Redactor { return secrets.NewRedactor() },
//	    func(r *secrets.Redactor) *executor.Executor { return executor.New(r) },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	providers  []any
	disableAWS bool
}
