package commands

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/savaki/stack-runner/internal/config"
	"github.com/savaki/stack-runner/internal/drawer"
	"github.com/savaki/stack-runner/internal/executor"
	"github.com/savaki/stack-runner/internal/fixture"
	"github.com/savaki/stack-runner/internal/pipeline"
	"github.com/savaki/stack-runner/internal/secrets"
)

// GraphCommand returns the graph command for rendering a pipeline's step graph
func GraphCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "graph",
		Usage:     "Render a pipeline's step graph in Graphviz DOT format",
		ArgsUsage: " ",
		Description: `Renders the selected pipeline as a directed graph: explicit dependencies are
solid edges, the implicit declared-order sequencing is dashed. Steps with
readiness probes and cleanup steps are colored differently.

An --output path ending in .svg is rendered through the local dot binary.

Examples:
  # Print DOT for the only pipeline in the default file
  stack-runner graph

  # Render the built-in ftest pipeline to an SVG
  stack-runner graph --ftest mysql --output mysql.svg`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Path to the pipeline file",
				Value:   "pipelines.yaml",
				EnvVars: []string{"PIPELINE_FILE"},
			},
			&cli.StringFlag{
				Name:    "pipeline",
				Aliases: []string{"p"},
				Usage:   "Pipeline to render (optional when the file defines exactly one)",
			},
			&cli.StringFlag{
				Name:  "ftest",
				Usage: "Render the built-in ftest pipeline for the named fixture stack instead of reading a file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path, - for stdout",
				Value:   "-",
			},
		},
		Action: func(c *cli.Context) error {
			return graphAction(c, logger)
		},
	}
}

func graphAction(c *cli.Context, logger *zerolog.Logger) error {
	var p pipeline.Pipeline
	if name := c.String("ftest"); name != "" {
		p = fixture.Ftest(name, fixture.Options{})
	} else {
		file, err := config.Load(c.String("file"))
		if err != nil {
			return err
		}
		p, err = file.Pipeline(c.String("pipeline"))
		if err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := drawer.DOT(p, &buf); err != nil {
		return err
	}

	output := c.String("output")
	if output == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}

	content := buf.Bytes()
	if strings.HasSuffix(output, ".svg") {
		exec := executor.New(secrets.NewRedactor())
		result, err := exec.Run(c.Context, executor.Command{
			Name:  "dot",
			Args:  []string{"-Tsvg"},
			Stdin: bytes.NewReader(content),
		})
		if err != nil {
			return fmt.Errorf("dot: %w", err)
		}
		if !result.Ok() {
			return fmt.Errorf("dot exited %d: %s", result.ExitCode, strings.TrimSpace(string(result.Stderr)))
		}
		content = result.Stdout
	}

	if err := os.WriteFile(output, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	logger.Info().Str("pipeline", p.Name).Str("output", output).Msg("✓ Graph written")
	return nil
}
