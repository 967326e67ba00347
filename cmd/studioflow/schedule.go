package main

import (
	"context"
	"errors"

	"github.com/dukex/studioflow/pkg/scheduler"
	cli "github.com/urfave/cli/v3"
)

var errNoJobs = errors.New("no schedule given: use --cron or --schedule-file")

func NewScheduleCommand() *cli.Command {
	flags := append(workflowFlags(),
		&cli.StringFlag{
			Name:  "cron",
			Usage: "Cron expression (e.g. '0 9 * * MON' or '@every 1h')",
		},
		&cli.StringFlag{
			Name:    "schedule-file",
			Usage:   "YAML file of cron jobs",
			Sources: cli.EnvVars("STUDIOFLOW_SCHEDULE_FILE"),
		},
	)

	return &cli.Command{
		Name:  "schedule",
		Usage: "Start workflows on cron schedules until interrupted",
		Flags: flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			jobs, err := scheduleJobs(command)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, command, "studioflow-scheduler")
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			sched := scheduler.New(a.studio, a.logger)
			for _, job := range jobs {
				if err := sched.Add(job); err != nil {
					return err
				}
			}

			sched.Start()
			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			return sched.Stop(stopCtx)
		},
	}
}

func scheduleJobs(command *cli.Command) ([]scheduler.Job, error) {
	var jobs []scheduler.Job

	if path := command.String("schedule-file"); path != "" {
		loaded, err := loadJobs(path)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, loaded...)
	}

	if expr := command.String("cron"); expr != "" {
		cfg, err := workflowConfigFromFlags(command)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, scheduler.Job{ID: "cli", Cron: expr, Config: cfg})
	}

	if len(jobs) == 0 {
		return nil, errNoJobs
	}

	return jobs, nil
}
