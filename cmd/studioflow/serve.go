package main

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dukex/studioflow/pkg/scheduler"
	cli "github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the studio HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   3000,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "schedule-file",
				Usage:   "YAML file of cron jobs to run alongside the API",
				Sources: cli.EnvVars("STUDIOFLOW_SCHEDULE_FILE"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			a, err := newApp(ctx, command, "studioflow-api")
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			if path := command.String("schedule-file"); path != "" {
				jobs, err := loadJobs(path)
				if err != nil {
					return err
				}

				sched := scheduler.New(a.studio, a.logger)
				for _, job := range jobs {
					if err := sched.Add(job); err != nil {
						return err
					}
				}

				sched.Start()
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
					defer cancel()

					_ = sched.Stop(stopCtx)
				}()
			}

			server := NewAPI(a.studio, a.metrics).App()

			go func() {
				<-ctx.Done()

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()

				if err := server.ShutdownWithContext(shutdownCtx); err != nil {
					a.logger.Error("Failed to shut down API", "error", err)
				}
			}()

			port := int(command.Int("port"))
			a.logger.InfoContext(ctx, "Starting Studioflow API", "port", port)

			err = server.Listen(":" + strconv.Itoa(port))
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}

			return nil
		},
	}
}
