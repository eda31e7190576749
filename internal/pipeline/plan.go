package pipeline

import (
	"fmt"

	"github.com/dominikbraun/graph"

	"github.com/savaki/stack-runner/internal/errors"
)

// Validate checks the pipeline's static shape: it has steps, names are
// unique, every dependency names a declared step, and cleanup steps are not
// depended on (they run outside the normal order, so nothing may sequence
// after them).
func (p Pipeline) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: %s", errors.ErrNoSteps, p.Name)
	}

	byName := make(map[string]Step, len(p.Steps))
	for _, step := range p.Steps {
		if step.Name == "" {
			return fmt.Errorf("pipeline %s has an unnamed step", p.Name)
		}
		if _, exists := byName[step.Name]; exists {
			return fmt.Errorf("%w: %s", errors.ErrDuplicateStep, step.Name)
		}
		byName[step.Name] = step
	}

	for _, step := range p.Steps {
		for _, need := range step.Needs {
			dep, ok := byName[need]
			if !ok {
				return fmt.Errorf("%w: %s needs %s", errors.ErrUnknownDependency, step.Name, need)
			}
			if dep.AlwaysRun {
				return fmt.Errorf("step %s depends on cleanup step %s", step.Name, need)
			}
			if step.AlwaysRun {
				return fmt.Errorf("cleanup step %s may not declare dependencies", step.Name)
			}
		}
	}

	_, err := p.Plan()
	return err
}

// Plan returns the normal steps in execution order: a stable topological
// sort of the dependency graph with declared order as the tiebreak. Cleanup
// steps are excluded; they always run last.
func (p Pipeline) Plan() ([]Step, error) {
	normal := p.NormalSteps()

	index := make(map[string]int, len(normal))
	byName := make(map[string]Step, len(normal))
	for i, step := range normal {
		index[step.Name] = i
		byName[step.Name] = step
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, step := range normal {
		if err := g.AddVertex(step.Name); err != nil {
			return nil, fmt.Errorf("add step %s: %w", step.Name, err)
		}
	}
	for _, step := range normal {
		for _, need := range step.Needs {
			if err := g.AddEdge(need, step.Name); err != nil {
				return nil, fmt.Errorf("add dependency %s -> %s: %w", need, step.Name, err)
			}
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return index[a] < index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrCycleDetected, p.Name)
	}

	planned := make([]Step, 0, len(order))
	for _, name := range order {
		planned = append(planned, byName[name])
	}
	return planned, nil
}

// Edges returns every dependency edge (from, to) of the pipeline, including
// the implicit ordering of cleanup steps after the last normal step. Used by
// the graph renderer.
func (p Pipeline) Edges() [][2]string {
	var edges [][2]string
	for _, step := range p.Steps {
		for _, need := range step.Needs {
			edges = append(edges, [2]string{need, step.Name})
		}
	}
	return edges
}
