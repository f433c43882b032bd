package main

import (
	"context"
	"errors"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/lendkit/decisor/pkg/config"
	"github.com/lendkit/decisor/pkg/engine"
	"github.com/lendkit/decisor/pkg/log"
	"github.com/lendkit/decisor/pkg/otelhelper"
)

const defaultPort = 9090

func main() {
	logger := log.WithModule("studio")

	cmd := &cli.Command{
		Name:                  "decisor-studio",
		Usage:                 "Compose decision pipelines and inspect run traces",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a studio.yaml configuration file",
				Sources: cli.EnvVars("STUDIO_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the studio API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "engine-url",
				Usage:   "Base URL of the decision engine service",
				Sources: cli.EnvVars("ENGINE_URL"),
			},
			&cli.BoolFlag{
				Name:    "enable-tracing",
				Usage:   "Export OTLP traces for engine calls",
				Sources: cli.EnvVars("ENABLE_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			studio, err := resolveConfig(command)
			if err != nil {
				return err
			}

			log.Setup(studio.LogLevel)

			logger.InfoContext(ctx, "Initializing Decisor Studio API")

			opts := []engine.Option{}

			if studio.EnableTracing {
				tracer, err := otelhelper.NewTracer(ctx, "decisor-studio")
				if err != nil {
					return err
				}

				opts = append(opts, engine.WithTracer(tracer))
			}

			client := engine.NewClient(studio.EngineURL, logger, opts...)

			api := NewAPI(logger, client)

			err = api.Start(studio.Port)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start studio API", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

// resolveConfig merges the optional config file with the command line. Flags
// and environment variables take precedence over file values.
func resolveConfig(command *cli.Command) (config.Studio, error) {
	studio := config.Studio{
		Port:          defaultPort,
		LogLevel:      "info",
		EngineURL:     command.String("engine-url"),
		EnableTracing: command.Bool("enable-tracing"),
	}

	if path := command.String("config"); path != "" {
		loaded, err := config.LoadStudio(path)
		if err != nil {
			return config.Studio{}, err
		}

		studio = loaded
	}

	if command.IsSet("port") {
		studio.Port = command.Int("port")
	}

	if command.IsSet("engine-url") {
		studio.EngineURL = command.String("engine-url")
	}

	if command.IsSet("enable-tracing") {
		studio.EnableTracing = command.Bool("enable-tracing")
	}

	if command.IsSet("log-level") {
		studio.LogLevel = command.String("log-level")
	}

	if studio.EngineURL == "" {
		return config.Studio{}, errors.New("engine URL is required, set --engine-url or engine_url in the config file")
	}

	return studio, nil
}
