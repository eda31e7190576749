package di

import (
	"testing"

	"github.com/savaki/stack-runner/internal/config"
	"github.com/savaki/stack-runner/internal/executor"
	"github.com/savaki/stack-runner/internal/pipeline"
	"github.com/savaki/stack-runner/internal/secrets"
)

type widget struct {
	Name string
}

type gadget struct {
	Widget *widget
	Env    string
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		opts    []Option
		wantErr bool
	}{
		{
			name: "creates container with no extra providers",
			env:  "dev",
			opts: []Option{WithDisableAWS(true)},
		},
		{
			name: "creates container with providers",
			env:  "stg",
			opts: []Option{
				WithDisableAWS(true),
				WithProviders(
					func() *widget { return &widget{Name: "w"} },
					func(w *widget, env string) *gadget { return &gadget{Widget: w, Env: env} },
				),
			},
		},
		{
			name: "rejects invalid provider",
			env:  "dev",
			opts: []Option{
				WithDisableAWS(true),
				WithProviders("not a constructor"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.env, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMustGet(t *testing.T) {
	container, err := New("dev",
		WithDisableAWS(true),
		WithProviders(func(env string) *gadget { return &gadget{Env: env} }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := MustGet[*gadget](container)
	if got.Env != "dev" {
		t.Errorf("Env = %q, want %q", got.Env, "dev")
	}
}

func TestMustGetPanicsOnMissingDependency(t *testing.T) {
	container, err := New("dev", WithDisableAWS(true))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGet did not panic for an unregistered type")
		}
	}()
	MustGet[*widget](container)
}

// The full runner graph must be constructible without AWS access.
func TestCoreGraphResolvesOffline(t *testing.T) {
	container, err := New("dev", WithDisableAWS(true))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	runner := MustGet[*pipeline.Runner](container)
	if runner == nil {
		t.Fatal("runner is nil")
	}

	if MustGet[*executor.Executor](container) == nil {
		t.Error("executor is nil")
	}
	if MustGet[*secrets.Redactor](container) == nil {
		t.Error("redactor is nil")
	}

	settings := MustGet[*config.Settings](container)
	if settings.ReadinessAttempts == 0 {
		t.Error("settings missing readiness defaults")
	}

	if _, ok := MustGet[secrets.Provider](container).(*secrets.EnvProvider); !ok {
		t.Error("secrets provider is not the env backend with AWS disabled")
	}
}
