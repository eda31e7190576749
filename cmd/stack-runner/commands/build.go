package commands

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/savaki/stack-runner/internal/config"
	"github.com/savaki/stack-runner/internal/executor"
	"github.com/savaki/stack-runner/internal/fixture"
	"github.com/savaki/stack-runner/internal/registry"
	"github.com/savaki/stack-runner/internal/secrets"
)

// BuildCommand returns the build command for building and pushing container
// images
func BuildCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Build the container image, optionally push it to the registry",
		ArgsUsage: " ",
		Description: `Runs the image pipeline: docker-build for each enabled architecture, then
docker-push when --push is given.

When pushing to ECR, the registry authorization token is resolved first and
fed to docker login over stdin; the credential never appears in argv, the
environment or any log. The registry host comes from --registry, the runner
settings, or the caller's AWS account.

Examples:
  # Build for the host platform and arm64
  stack-runner build

  # Build and push to the account's ECR registry
  stack-runner build --push

  # Skip the arm64 build on an agent without emulation
  stack-runner build --push --skip-aarch64`,
		Flags: append(commonFlags(),
			&cli.BoolFlag{
				Name:  "push",
				Usage: "Push the image after building",
			},
			&cli.BoolFlag{
				Name:    "skip-aarch64",
				Usage:   "Skip the linux/arm64 build",
				EnvVars: []string{"SKIP_AARCH64"},
			},
			&cli.StringFlag{
				Name:    "registry",
				Usage:   "Registry host to push to (defaults to the runner settings, then ECR)",
				EnvVars: []string{"REGISTRY"},
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region for ECR authorization",
				Value:   "us-east-1",
				EnvVars: []string{"AWS_REGION"},
			},
		),
		Action: func(c *cli.Context) error {
			return buildAction(c, logger)
		},
	}
}

func buildAction(c *cli.Context, logger *zerolog.Logger) error {
	container, err := newContainer(c)
	if err != nil {
		return err
	}

	opts := fixture.ImageOptions{
		Push:        c.Bool("push"),
		SkipAarch64: c.Bool("skip-aarch64"),
		Registry:    c.String("registry"),
	}

	if opts.Push && opts.Registry == "" {
		err = container.Invoke(func(settings *config.Settings) {
			opts.Registry = settings.Registry
		})
		if err != nil {
			return err
		}
	}

	// ECR hosts need a fresh login before every push; non-ECR registries are
	// assumed to be authorized out of band.
	if opts.Push && (opts.Registry == "" || strings.Contains(opts.Registry, ".dkr.ecr.")) {
		err = container.Invoke(func(exec *executor.Executor, redactor *secrets.Redactor) error {
			service, err := registry.NewFromConfig(c.Context, c.String("region"))
			if err != nil {
				return err
			}
			host, err := service.Login(c.Context, exec, redactor)
			if err != nil {
				return err
			}
			if opts.Registry == "" {
				opts.Registry = host
			}
			logger.Info().Str("registry", opts.Registry).Msg("Registry login succeeded")
			return nil
		})
		if err != nil {
			return err
		}
	}

	return executePipeline(c, container, fixture.Image(opts))
}
