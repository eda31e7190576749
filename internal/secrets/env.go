package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/savaki/stack-runner/internal/errors"
)

// EnvProvider resolves references from environment variables for local
// development without access to the secrets store. The ref "ci/mysql#password"
// maps to the variable CI_MYSQL_PASSWORD.
type EnvProvider struct{}

// NewEnvProvider creates an environment-backed provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Resolve reads the environment variable derived from ref.
func (p *EnvProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	name := EnvName(ref)
	value, ok := os.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("%w: environment variable %s is not set", errors.ErrSecretNotFound, name)
	}
	return value, nil
}

// EnvName returns the environment variable name a ref maps to: path and field
// joined, uppercased, with every non-alphanumeric run collapsed to one underscore.
func EnvName(ref Ref) string {
	s := ref.Path
	if ref.Field != "" {
		s += "_" + ref.Field
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToUpper(s) {
		switch {
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// StaticProvider serves a fixed set of values, keyed by canonical ref string.
// It exists for tests and for wiring resolved values forward.
type StaticProvider struct {
	values map[string]string
}

// NewStaticProvider creates a provider from the given ref string to value map.
func NewStaticProvider(values map[string]string) *StaticProvider {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &StaticProvider{values: copied}
}

// Resolve looks up the canonical ref string.
func (p *StaticProvider) Resolve(_ context.Context, ref Ref) (string, error) {
	value, ok := p.values[ref.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrSecretNotFound, ref)
	}
	return value, nil
}
