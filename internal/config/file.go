// Package config loads pipeline definitions and runner settings.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/savaki/stack-runner/internal/errors"
	"github.com/savaki/stack-runner/internal/pipeline"
)

// File is a pipeline definition file.
type File struct {
	Pipelines []pipeline.Pipeline `yaml:"pipelines"`
}

// Load reads and parses a pipeline file. ${VAR} and ${VAR:-default}
// references are expanded from the ambient environment before parsing; $$
// escapes a literal dollar for step commands that need runtime shell
// expansion.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses pipeline file contents.
func Parse(data []byte) (*File, error) {
	expanded, err := Interpolate(string(data), os.LookupEnv)
	if err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file: %w", err)
	}

	for _, p := range file.Pipelines {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &file, nil
}

// Pipeline returns the named pipeline, or the only one when name is empty
// and the file defines exactly one.
func (f *File) Pipeline(name string) (pipeline.Pipeline, error) {
	if name == "" && len(f.Pipelines) == 1 {
		return f.Pipelines[0], nil
	}

	for _, p := range f.Pipelines {
		if p.Name == name {
			return p, nil
		}
	}
	return pipeline.Pipeline{}, fmt.Errorf("%w: %q", errors.ErrPipelineNotFound, name)
}

// Names lists the pipelines defined in the file.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Pipelines))
	for _, p := range f.Pipelines {
		names = append(names, p.Name)
	}
	return names
}

var interpolationPattern = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// Interpolate expands ${VAR} and ${VAR:-default} using lookup. A reference
// to an unset variable without a default is an error rather than an empty
// string, so a missing DATA_SIZE fails at load time instead of surfacing as
// a malformed command later.
func Interpolate(s string, lookup func(string) (string, bool)) (string, error) {
	var missing []string

	expanded := interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		if match == "$$" {
			return "$"
		}

		groups := interpolationPattern.FindStringSubmatch(match)
		name, hasDefault, fallback := groups[1], groups[2] != "", groups[3]

		if value, ok := lookup(name); ok {
			return value
		}
		if hasDefault {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("undefined variables in pipeline file: %s", strings.Join(missing, ", "))
	}
	return expanded, nil
}
