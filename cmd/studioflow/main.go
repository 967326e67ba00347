// Package main provides the studioflow command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/studioflow/pkg/template"
	cli "github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:                  "studioflow",
		EnableShellCompletion: true,
		Usage:                 "Produce creative content and orchestrate production workflows",
		Flags:                 commonFlags(),
		Commands: []*cli.Command{
			NewServeCommand(),
			NewProduceCommand(),
			NewWorkflowCommand(),
			NewScheduleCommand(),
			NewBridgeCommand(),
		},
	}

	err := cmd.Run(ctx, os.Args)
	if err != nil {
		stop()
		panic(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "work-dir",
			Usage:   "Working directory handed to the live editing backend",
			Value:   ".",
			Sources: cli.EnvVars("STUDIOFLOW_WORK_DIR"),
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Directory exports are written to",
			Value:   "output",
			Sources: cli.EnvVars("STUDIOFLOW_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:    "export-pattern",
			Usage:   "Template for export paths (e.g. '" + template.ExampleExportPattern + "')",
			Sources: cli.EnvVars("STUDIOFLOW_EXPORT_PATTERN"),
		},
		&cli.StringFlag{
			Name:    "backend",
			Usage:   "Editing backend (simulation, process, bus)",
			Value:   "simulation",
			Sources: cli.EnvVars("STUDIOFLOW_BACKEND"),
		},
		&cli.StringFlag{
			Name:    "backend-command",
			Usage:   "Command line of the process backend",
			Sources: cli.EnvVars("STUDIOFLOW_BACKEND_COMMAND"),
		},
		&cli.DurationFlag{
			Name:    "startup-timeout",
			Usage:   "How long to wait for the live backend before simulating",
			Value:   adapterStartupTimeout,
			Sources: cli.EnvVars("STUDIOFLOW_STARTUP_TIMEOUT"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (none, gochannel, kafka)",
			Value:   "none",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Workflow store URL (memory://, file://path, redis://..., postgres://...)",
			Value:   "memory://",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "rules-url",
			Usage:   "Fetch production rules over HTTP instead of from the backend",
			Sources: cli.EnvVars("STUDIOFLOW_RULES_URL"),
		},
		&cli.BoolFlag{
			Name:    "ffprobe",
			Usage:   "Probe source media with ffprobe instead of the backend",
			Sources: cli.EnvVars("STUDIOFLOW_FFPROBE"),
		},
		&cli.StringFlag{
			Name:    "plugins-path",
			Usage:   "Path to the directory containing step handler plugins",
			Value:   "./plugins",
			Sources: cli.EnvVars("PLUGINS_PATH"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
			Sources: cli.EnvVars("STUDIOFLOW_TRACING"),
		},
	}
}
