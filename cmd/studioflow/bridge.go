package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/studioflow/pkg/backends/bus"
	"github.com/dukex/studioflow/pkg/cmd"
	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/models"
	cli "github.com/urfave/cli/v3"
)

var errEditorNotReady = errors.New("editor process did not become ready")

// NewBridgeCommand fronts a local editor process with the bus backend
// protocol so studioflow instances can reach it over the event bus.
func NewBridgeCommand() *cli.Command {
	return &cli.Command{
		Name:  "bridge",
		Usage: "Serve bus backend commands with a local editor process",
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("studioflow-bridge")

			factory, err := cmd.NewBackendFactory(cmd.BackendConfig{
				Kind:    "process",
				Command: command.String("backend-command"),
				WorkDir: command.String("work-dir"),
			}, logger)
			if err != nil {
				return err
			}

			pub, sub, err := cmd.NewChannel(command.String("event-bus"), logger, "bridge")
			if err != nil {
				return err
			}

			backend, err := factory.Launch(ctx)
			if err != nil {
				return err
			}

			defer func() {
				if err := backend.Close(); err != nil {
					logger.Error("Failed to close editor process", "error", err)
				}
			}()

			select {
			case <-backend.Ready():
			case <-time.After(command.Duration("startup-timeout")):
				return fmt.Errorf("%w: %s", errEditorNotReady, factory.Name())
			case <-ctx.Done():
				return nil
			}

			responder := bus.NewResponder(pub, sub, func(ctx context.Context, req models.CommandRequest) models.CommandResponse {
				resp, err := backend.Call(ctx, req)
				if err != nil {
					return models.NewFailureResponse(err.Error())
				}

				return resp
			}, logger)

			if err := responder.Start(ctx); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Bridge serving commands")
			<-ctx.Done()

			return nil
		},
	}
}
