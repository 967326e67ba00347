package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukex/studioflow/pkg/adapter"
	"github.com/dukex/studioflow/pkg/cmd"
	"github.com/dukex/studioflow/pkg/eventbus"
	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/media"
	"github.com/dukex/studioflow/pkg/monetization"
	"github.com/dukex/studioflow/pkg/otelhelper"
	"github.com/dukex/studioflow/pkg/pipeline"
	"github.com/dukex/studioflow/pkg/rules"
	"github.com/dukex/studioflow/pkg/services"
	"github.com/dukex/studioflow/pkg/template"
	"github.com/dukex/studioflow/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	cli "github.com/urfave/cli/v3"
)

const adapterStartupTimeout = adapter.DefaultStartupTimeout

// app wires every studioflow component from the command flags.
type app struct {
	logger   *slog.Logger
	metrics  *prometheus.Registry
	adapter  *adapter.Adapter
	studio   *services.Studio
	closers  []func(ctx context.Context) error
	eventBus eventbus.EventBus
}

func newApp(ctx context.Context, command *cli.Command, module string) (*app, error) {
	log.Setup(command.String("log-level"))

	a := &app{
		logger:  log.WithModule(module),
		metrics: prometheus.NewRegistry(),
	}

	a.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	err := a.wire(ctx, command)
	if err != nil {
		a.close(ctx)

		return nil, err
	}

	return a, nil
}

func (a *app) wire(ctx context.Context, command *cli.Command) error {
	if pattern := command.String("export-pattern"); pattern != "" {
		if err := template.ValidateExportPattern(pattern); err != nil {
			return err
		}
	}

	tracer := otelhelper.NoopTracer()

	if command.Bool("tracing") {
		t, shutdown, err := otelhelper.NewTracer(ctx, "studioflow")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		tracer = t
		a.closers = append(a.closers, shutdown)
	}

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), a.logger)
	if err != nil {
		return err
	}

	var publisher eventbus.EventPublisher = eventbus.Nop{}
	if eventBus != nil {
		a.eventBus = eventBus
		publisher = eventBus
		a.closers = append(a.closers, func(context.Context) error { return eventBus.Close() })
	}

	store, err := cmd.NewPersistence(ctx, a.logger, command.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}

	a.closers = append(a.closers, store.Close)

	backendCfg := cmd.BackendConfig{
		Kind:    command.String("backend"),
		Command: command.String("backend-command"),
		WorkDir: command.String("work-dir"),
	}

	if backendCfg.Kind == "bus" {
		pub, sub, err := cmd.NewChannel(command.String("event-bus"), a.logger, "backend")
		if err != nil {
			return fmt.Errorf("bus backend needs an event bus: %w", err)
		}

		backendCfg.Publisher, backendCfg.Subscriber = pub, sub
	}

	factory, err := cmd.NewBackendFactory(backendCfg, a.logger)
	if err != nil {
		return err
	}

	adapterOpts := []adapter.Option{
		adapter.WithLogger(a.logger),
		adapter.WithTracer(tracer),
		adapter.WithMetrics(adapter.NewMetrics(a.metrics)),
		adapter.WithStartupTimeout(command.Duration("startup-timeout")),
		adapter.WithPaths(command.String("work-dir"), command.String("output-dir")),
	}
	if factory != nil {
		adapterOpts = append(adapterOpts, adapter.WithBackendFactory(factory))
	}

	a.adapter, err = adapter.New(adapterOpts...)
	if err != nil {
		return fmt.Errorf("failed to create command adapter: %w", err)
	}

	mode := a.adapter.Start(ctx)
	a.logger.InfoContext(ctx, "Command adapter ready", "mode", mode)
	a.closers = append(a.closers, a.adapter.Stop)

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithTracer(tracer),
		pipeline.WithPublisher(publisher),
		pipeline.WithExport(command.String("output-dir"), command.String("export-pattern")),
	}

	if url := command.String("rules-url"); url != "" {
		pipelineOpts = append(pipelineOpts, pipeline.WithRules(rules.NewHTTPFetcher(url, http.DefaultClient)))
	}

	if command.Bool("ffprobe") {
		pipelineOpts = append(pipelineOpts, pipeline.WithProbe(media.NewFFProbe()))
	}

	producer := pipeline.New(a.adapter, pipelineOpts...)
	planner := monetization.NewPlanner()

	reg, err := cmd.NewRegistry(a.logger, command.String("plugins-path"), producer, planner)
	if err != nil {
		return fmt.Errorf("failed to load step handlers: %w", err)
	}

	engine := workflow.NewEngine(store, reg,
		workflow.WithLogger(a.logger),
		workflow.WithTracer(tracer),
		workflow.WithPublisher(publisher),
	)

	a.studio = services.NewStudio(producer, engine, planner, store,
		services.WithAdapter(a.adapter),
		services.WithLogger(a.logger),
	)

	return nil
}

// close waits for background workflows, then releases resources in reverse
// order of acquisition.
func (a *app) close(ctx context.Context) {
	if a.studio != nil {
		a.studio.Wait()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.ErrorContext(ctx, "Failed to release resources", "error", err)
	}
}
