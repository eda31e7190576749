// Package drawer renders a pipeline's step graph in Graphviz DOT format,
// for inspecting what a pipeline will do before running it.
package drawer

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"gopkg.in/go-playground/colors.v1"

	"github.com/savaki/stack-runner/internal/pipeline"
)

// Node fill colors by step kind.
var (
	normalFill  = mustHex(176, 196, 222) // plain provisioning step
	probedFill  = mustHex(144, 198, 149) // step with readiness probes
	cleanupFill = mustHex(222, 165, 164) // always-run cleanup step
)

func mustHex(r, g, b uint8) string {
	c, err := colors.RGB(r, g, b)
	if err != nil {
		panic(err)
	}
	return c.ToHEX().String()
}

func fillFor(step pipeline.Step) string {
	switch {
	case step.AlwaysRun:
		return cleanupFill
	case len(step.WaitFor) > 0:
		return probedFill
	default:
		return normalFill
	}
}

// DOT writes the pipeline's execution graph. Explicit dependencies are solid
// edges; the implicit declared-order sequencing and the run-cleanup ordering
// are dashed.
func DOT(p pipeline.Pipeline, w io.Writer) error {
	if err := p.Validate(); err != nil {
		return err
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for _, step := range p.Steps {
		err := g.AddVertex(step.Name,
			graph.VertexAttribute("style", "filled"),
			graph.VertexAttribute("fillcolor", fillFor(step)),
			graph.VertexAttribute("shape", "box"),
		)
		if err != nil {
			return fmt.Errorf("unable to add vertex %s: %w", step.Name, err)
		}
	}

	for _, edge := range p.Edges() {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("unable to add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}

	// Dashed edges for the orderings the dependency graph leaves implicit.
	plan, err := p.Plan()
	if err != nil {
		return err
	}
	for i := 1; i < len(plan); i++ {
		addImplicitEdge(g, plan[i-1].Name, plan[i].Name)
	}
	if len(plan) > 0 {
		last := plan[len(plan)-1].Name
		for _, step := range p.CleanupSteps() {
			addImplicitEdge(g, last, step.Name)
			last = step.Name
		}
	}

	if err := draw.DOT(g, w); err != nil {
		return fmt.Errorf("unable to render graph: %w", err)
	}
	return nil
}

func addImplicitEdge(g graph.Graph[string, string], from, to string) {
	// Ignore duplicates: an explicit dependency edge already covers the pair.
	_ = g.AddEdge(from, to,
		graph.EdgeAttribute("style", "dashed"),
		graph.EdgeAttribute("color", "gray"),
	)
}
