package pipeline

import (
	"testing"

	"github.com/savaki/stack-runner/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		pipeline Pipeline
		wantErr  error
	}{
		{
			name: "valid linear pipeline",
			pipeline: Pipeline{
				Name: "ftest",
				Steps: []Step{
					{Name: "run-stack", Run: "make run-stack"},
					{Name: "load-data", Run: "make load-data", Needs: []string{"run-stack"}},
					{Name: "stop-stack", Run: "make stop-stack", AlwaysRun: true},
				},
			},
		},
		{
			name:     "no steps",
			pipeline: Pipeline{Name: "empty"},
			wantErr:  errors.ErrNoSteps,
		},
		{
			name: "duplicate step name",
			pipeline: Pipeline{
				Name: "dup",
				Steps: []Step{
					{Name: "install", Run: "make install"},
					{Name: "install", Run: "make install"},
				},
			},
			wantErr: errors.ErrDuplicateStep,
		},
		{
			name: "unknown dependency",
			pipeline: Pipeline{
				Name: "dangling",
				Steps: []Step{
					{Name: "ftest", Run: "make ftest", Needs: []string{"missing"}},
				},
			},
			wantErr: errors.ErrUnknownDependency,
		},
		{
			name: "dependency cycle",
			pipeline: Pipeline{
				Name: "cycle",
				Steps: []Step{
					{Name: "a", Run: "true", Needs: []string{"b"}},
					{Name: "b", Run: "true", Needs: []string{"a"}},
				},
			},
			wantErr: errors.ErrCycleDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pipeline.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCleanupDependencies(t *testing.T) {
	p := Pipeline{
		Name: "bad-cleanup",
		Steps: []Step{
			{Name: "run-stack", Run: "make run-stack"},
			{Name: "stop-stack", Run: "make stop-stack", AlwaysRun: true},
			{Name: "report", Run: "make report", Needs: []string{"stop-stack"}},
		},
	}
	if err := p.Validate(); err == nil {
		t.Error("Validate accepted a dependency on a cleanup step")
	}

	p = Pipeline{
		Name: "cleanup-with-needs",
		Steps: []Step{
			{Name: "run-stack", Run: "make run-stack"},
			{Name: "stop-stack", Run: "make stop-stack", AlwaysRun: true, Needs: []string{"run-stack"}},
		},
	}
	if err := p.Validate(); err == nil {
		t.Error("Validate accepted a cleanup step with dependencies")
	}
}

func TestPlanOrder(t *testing.T) {
	tests := []struct {
		name     string
		pipeline Pipeline
		want     []string
	}{
		{
			name: "declared order without dependencies",
			pipeline: Pipeline{
				Name: "linear",
				Steps: []Step{
					{Name: "install", Run: "true"},
					{Name: "run-stack", Run: "true"},
					{Name: "ftest", Run: "true"},
				},
			},
			want: []string{"install", "run-stack", "ftest"},
		},
		{
			name: "dependencies override declared order",
			pipeline: Pipeline{
				Name: "reordered",
				Steps: []Step{
					{Name: "ftest", Run: "true", Needs: []string{"load-data"}},
					{Name: "load-data", Run: "true", Needs: []string{"run-stack"}},
					{Name: "run-stack", Run: "true"},
				},
			},
			want: []string{"run-stack", "load-data", "ftest"},
		},
		{
			name: "cleanup steps excluded from plan",
			pipeline: Pipeline{
				Name: "with-cleanup",
				Steps: []Step{
					{Name: "run-stack", Run: "true"},
					{Name: "stop-stack", Run: "true", AlwaysRun: true},
					{Name: "ftest", Run: "true"},
				},
			},
			want: []string{"run-stack", "ftest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := tt.pipeline.Plan()
			if err != nil {
				t.Fatalf("Plan failed: %v", err)
			}
			if len(plan) != len(tt.want) {
				t.Fatalf("Plan returned %d steps, want %d", len(plan), len(tt.want))
			}
			for i, step := range plan {
				if step.Name != tt.want[i] {
					t.Errorf("plan[%d] = %s, want %s", i, step.Name, tt.want[i])
				}
			}
		})
	}
}
