package di

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime
// environment. Under a CI agent (BUILDKITE or CI set) it uses JSON format so
// the agent can parse it; in a terminal it uses console format with pretty
// printing.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("BUILDKITE") != "" || os.Getenv("CI") != "" {
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

// ProvideContext returns a background context carrying the logger, so
// constructors that take a context can log during wiring.
func ProvideContext(logger zerolog.Logger) context.Context {
	return logger.WithContext(context.Background())
}
