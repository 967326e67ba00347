package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dukex/studioflow/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var errWorkflowFailed = errors.New("workflow did not complete")

func NewWorkflowCommand() *cli.Command {
	return &cli.Command{
		Name:    "workflow",
		Aliases: []string{"w"},
		Usage:   "Run production workflows",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Create a workflow, run it to the end and print its status",
				Flags: workflowFlags(),
				Action: func(ctx context.Context, command *cli.Command) error {
					cfg, err := workflowConfigFromFlags(command)
					if err != nil {
						return err
					}

					a, err := newApp(ctx, command, "studioflow-workflow")
					if err != nil {
						return err
					}
					defer a.close(context.WithoutCancel(ctx))

					started, err := a.studio.StartWorkflow(ctx, cfg)
					if err != nil {
						return err
					}

					a.studio.Wait()

					wf, err := a.studio.GetWorkflowStatus(ctx, started.WorkflowID)
					if err != nil {
						return err
					}

					if err := writeJSON(os.Stdout, wf); err != nil {
						return err
					}

					if wf.Status != models.WorkflowStatusCompleted {
						return fmt.Errorf("%w: %s is %s: %s", errWorkflowFailed, wf.ID, wf.Status, wf.Error)
					}

					return nil
				},
			},
		},
	}
}

func workflowFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML workflow config (content_type, name, design, video, monetization)",
		},
		&cli.StringFlag{
			Name:  "content-type",
			Usage: "Workflow content type (design, video, campaign); overrides the config file",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Workflow name; overrides the config file",
		},
	}
}

func workflowConfigFromFlags(command *cli.Command) (models.WorkflowConfig, error) {
	var cfg models.WorkflowConfig

	if path := command.String("config"); path != "" {
		loaded, err := loadWorkflowConfig(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	if ct := command.String("content-type"); ct != "" {
		cfg.ContentType = models.ContentType(ct)
	}

	if name := command.String("name"); name != "" {
		cfg.Name = name
	}

	return cfg, nil
}
