package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dukex/studioflow/pkg/models"
	cli "github.com/urfave/cli/v3"
)

func NewProduceCommand() *cli.Command {
	return &cli.Command{
		Name:    "produce",
		Aliases: []string{"p"},
		Usage:   "Produce every item of a YAML manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    "Path to the production manifest",
				Required: true,
				Sources:  cli.EnvVars("STUDIOFLOW_MANIFEST"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			manifest, err := loadManifest(command.String("manifest"))
			if err != nil {
				return err
			}

			a, err := newApp(ctx, command, "studioflow-produce")
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			results, err := a.studio.CreateContentArtifacts(ctx, manifest.Items)
			if err != nil {
				return err
			}

			if err := writeJSON(os.Stdout, results); err != nil {
				return err
			}

			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d of %d productions failed", failed, len(results))
			}

			return nil
		},
	}
}

func countFailed(results []*models.PipelineResult) int {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	return failed
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
