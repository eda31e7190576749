package di

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"github.com/savaki/stack-runner/internal/config"
	"github.com/savaki/stack-runner/internal/executor"
	"github.com/savaki/stack-runner/internal/pipeline"
	"github.com/savaki/stack-runner/internal/readiness"
	"github.com/savaki/stack-runner/internal/secrets"
)

// ProvideSettingsSource provides a settings Source implementation. Uses SSM
// Parameter Store when available, falls back to environment variables.
func ProvideSettingsSource(ctx context.Context, ssmClient *ssm.Client, env string) config.Source {
	logger := zerolog.Ctx(ctx)

	if ssmClient == nil {
		logger.Info().Msg("Using environment variables for settings (SSM disabled)")
		return config.NewEnvSource()
	}

	logger.Info().Msg("Using AWS Systems Manager Parameter Store for settings")
	return config.NewSSMSource(ssmClient, env)
}

// ProvideSettings loads runner settings from the settings source.
func ProvideSettings(ctx context.Context, source config.Source) (*config.Settings, error) {
	logger := zerolog.Ctx(ctx)

	settings, err := source.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("data_size", settings.DataSize).
		Bool("has_registry", settings.Registry != "").
		Int("readiness_attempts", settings.ReadinessAttempts).
		Msg("Settings loaded successfully")

	return settings, nil
}

// ProvideSecretsProvider provides the secrets backend: Secrets Manager when
// AWS is available, environment variables otherwise.
func ProvideSecretsProvider(ctx context.Context, client *secretsmanager.Client) secrets.Provider {
	logger := zerolog.Ctx(ctx)

	if client == nil {
		logger.Info().Msg("Resolving secrets from environment variables (AWS disabled)")
		return secrets.NewEnvProvider()
	}

	logger.Info().Msg("Resolving secrets from AWS Secrets Manager")
	return secrets.NewSecretsManagerProvider(client)
}

// ProvideRedactor provides the shared redactor every resolved secret is
// registered with.
func ProvideRedactor() *secrets.Redactor {
	return secrets.NewRedactor()
}

// ProvideExecutor provides the process executor, streaming masked tool
// output to stderr.
func ProvideExecutor(redactor *secrets.Redactor) *executor.Executor {
	exec := executor.New(redactor)
	exec.Output = os.Stderr
	return exec
}

// ProvideRunner provides the pipeline runner with readiness defaults from
// the settings source.
func ProvideRunner(exec *executor.Executor, provider secrets.Provider, redactor *secrets.Redactor, settings *config.Settings) *pipeline.Runner {
	runner := pipeline.NewRunner(exec, provider, redactor)
	runner.DefaultWaiter = readiness.Waiter{
		Attempts: settings.ReadinessAttempts,
		Interval: settings.ReadinessInterval,
	}
	return runner
}
