// Package secrets resolves credential references for pipeline steps and keeps
// resolved values out of captured output.
//
// A reference names a secret path plus an optional field within it, in the
// form "path#field" (for example "ci/mysql#password"). Resolution backends are
// pluggable: AWS Secrets Manager in CI, environment variables for local
// development, and a static map in tests.
package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Ref identifies a single secret value.
type Ref struct {
	Path  string
	Field string
}

// ParseRef parses a "path#field" reference. The field part is optional; a ref
// without a field addresses the whole secret string.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, fmt.Errorf("empty secret reference")
	}

	path, field, found := strings.Cut(s, "#")
	if path == "" {
		return Ref{}, fmt.Errorf("secret reference %q has no path", s)
	}
	if found && field == "" {
		return Ref{}, fmt.Errorf("secret reference %q has an empty field", s)
	}

	return Ref{Path: path, Field: field}, nil
}

// String returns the canonical "path#field" form.
func (r Ref) String() string {
	if r.Field == "" {
		return r.Path
	}
	return r.Path + "#" + r.Field
}

// Provider resolves secret references to their values.
type Provider interface {
	// Resolve returns the value for ref. Implementations return
	// errors.ErrSecretNotFound (wrapped) when the path does not exist and
	// errors.ErrSecretFieldNotFound when the path exists but the field does not.
	Resolve(ctx context.Context, ref Ref) (string, error)
}
