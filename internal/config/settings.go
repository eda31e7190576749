package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Settings are the CI-level defaults shared by every pipeline run: fixture
// data size, the container registry for push steps and readiness polling
// budgets. Per-invocation flags override them.
type Settings struct {
	DataSize          string
	Registry          string
	ReadinessAttempts int
	ReadinessInterval time.Duration
}

// Source is the interface for settings storage.
type Source interface {
	// GetParameter retrieves a single parameter by name.
	GetParameter(ctx context.Context, name string) (string, error)

	// GetSettings loads all runner settings.
	GetSettings(ctx context.Context) (*Settings, error)
}

// SSMSource implements Source using AWS Systems Manager Parameter Store,
// with parameters under /{env}/stack-runner/.
type SSMSource struct {
	client *ssm.Client
	env    string
	mu     sync.RWMutex
	cache  map[string]string
}

// NewSSMSource creates an SSM-backed settings source.
func NewSSMSource(client *ssm.Client, env string) *SSMSource {
	return &SSMSource{
		client: client,
		env:    env,
		cache:  make(map[string]string),
	}
}

// GetParameter retrieves a single parameter from Parameter Store.
func (s *SSMSource) GetParameter(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if value, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: boolPtr(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s not found", name)
	}
	value := *result.Parameter.Value

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()

	return value, nil
}

// GetSettings loads runner settings from Parameter Store in one batch.
func (s *SSMSource) GetSettings(ctx context.Context) (*Settings, error) {
	path := fmt.Sprintf("/%s/stack-runner", s.env)

	result, err := s.client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           &path,
		Recursive:      boolPtr(true),
		WithDecryption: boolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get parameters by path %s: %w", path, err)
	}

	params := make(map[string]string)
	for _, param := range result.Parameters {
		if param.Name != nil && param.Value != nil {
			params[*param.Name] = *param.Value
		}
	}

	s.mu.Lock()
	for k, v := range params {
		s.cache[k] = v
	}
	s.mu.Unlock()

	settings := &Settings{
		DataSize: params[path+"/data-size"],
		Registry: params[path+"/registry"],
	}
	applySettingsDefaults(settings)

	if v := params[path+"/readiness-attempts"]; v != "" {
		settings.ReadinessAttempts, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid readiness-attempts parameter %q: %w", v, err)
		}
	}
	if v := params[path+"/readiness-interval"]; v != "" {
		settings.ReadinessInterval, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid readiness-interval parameter %q: %w", v, err)
		}
	}

	return settings, nil
}

// EnvSource implements Source using environment variables, for local runs
// without AWS access.
type EnvSource struct{}

// NewEnvSource creates an environment-backed settings source.
func NewEnvSource() *EnvSource {
	return &EnvSource{}
}

// GetParameter returns the value of the named environment variable.
func (e *EnvSource) GetParameter(_ context.Context, name string) (string, error) {
	return os.Getenv(name), nil
}

// GetSettings loads runner settings from environment variables.
func (e *EnvSource) GetSettings(_ context.Context) (*Settings, error) {
	settings := &Settings{
		DataSize: os.Getenv("DATA_SIZE"),
		Registry: os.Getenv("REGISTRY"),
	}
	applySettingsDefaults(settings)

	if v := os.Getenv("READINESS_ATTEMPTS"); v != "" {
		attempts, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid READINESS_ATTEMPTS %q: %w", v, err)
		}
		settings.ReadinessAttempts = attempts
	}
	if v := os.Getenv("READINESS_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid READINESS_INTERVAL %q: %w", v, err)
		}
		settings.ReadinessInterval = interval
	}

	return settings, nil
}

func applySettingsDefaults(s *Settings) {
	if s.DataSize == "" {
		s.DataSize = "medium"
	}
	if s.ReadinessAttempts == 0 {
		s.ReadinessAttempts = 30
	}
	if s.ReadinessInterval == 0 {
		s.ReadinessInterval = 2 * time.Second
	}
}

func boolPtr(b bool) *bool {
	return &b
}
