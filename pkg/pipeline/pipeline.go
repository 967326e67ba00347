// Package pipeline derives production artifacts by turning a ProductionConfig
// into an ordered series of command adapter calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/studioflow/pkg/eventbus"
	"github.com/dukex/studioflow/pkg/events"
	"github.com/dukex/studioflow/pkg/media"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/otelhelper"
	"github.com/dukex/studioflow/pkg/protocol"
	"github.com/dukex/studioflow/pkg/rules"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidConfig     = errors.New("invalid production config")
	ErrContainerCreation = errors.New("container creation failed")
)

// Commander dispatches adapter commands. *adapter.Adapter satisfies it.
type Commander interface {
	Send(ctx context.Context, op models.Operation, params map[string]any) models.CommandResponse
}

type Pipeline struct {
	commands      Commander
	rules         protocol.RulesFetcher
	probe         protocol.MediaProbe
	selector      *Selector
	validate      *validator.Validate
	tracer        trace.Tracer
	publisher     eventbus.EventPublisher
	logger        *slog.Logger
	outputDir     string
	exportPattern string
}

type Option func(*Pipeline)

// WithRules replaces the default get_ruleset lookup.
func WithRules(fetcher protocol.RulesFetcher) Option {
	return func(p *Pipeline) {
		p.rules = fetcher
	}
}

// WithProbe replaces the default parse_media_metadata probe. The probe is
// always wrapped with media.WithFallback.
func WithProbe(probe protocol.MediaProbe) Option {
	return func(p *Pipeline) {
		p.probe = probe
	}
}

func WithScoring(scoring protocol.ScoringFunction) Option {
	return func(p *Pipeline) {
		p.selector = NewSelector(scoring)
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithPublisher emits an ArtifactProduced event after each run.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(p *Pipeline) {
		p.publisher = publisher
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithExport sets the output directory and the export path pattern used
// when a config carries no explicit export path.
func WithExport(outputDir, pattern string) Option {
	return func(p *Pipeline) {
		p.outputDir = outputDir
		p.exportPattern = pattern
	}
}

func New(commands Commander, opts ...Option) *Pipeline {
	p := &Pipeline{
		commands:  commands,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		tracer:    otelhelper.NoopTracer(),
		publisher: eventbus.Nop{},
		logger:    slog.Default(),
		outputDir: "output",
	}

	for _, opt := range opts {
		opt(p)
	}

	p.logger = p.logger.With("module", "pipeline")

	if p.rules == nil {
		p.rules = rules.NewAdapterRules(commandRules{p.commands})
	}

	if p.probe == nil {
		p.probe = media.NewAdapterProbe(commandProbe{p.commands})
	}

	p.probe = media.WithFallback(p.probe, p.logger)

	if p.selector == nil {
		p.selector = NewSelector(nil)
	}

	return p
}

// CreateContentArtifact runs the video or poster pipeline, chosen by cfg.Kind.
// The returned result is never nil. The error is non-nil only for an invalid
// config or a failed container creation.
func (p *Pipeline) CreateContentArtifact(ctx context.Context, cfg models.ProductionConfig) (*models.PipelineResult, error) {
	kind := cfg.EffectiveKind()

	ctx, span := otelhelper.StartSpan(ctx, p.tracer, "pipeline."+string(kind),
		attribute.String(otelhelper.ContentKindKey, string(kind)),
	)
	defer span.End()

	var (
		result *models.PipelineResult
		err    error
	)

	switch kind {
	case models.ContentKindPoster:
		result, err = p.runPoster(ctx, cfg)
	default:
		result, err = p.runVideo(ctx, cfg)
	}

	if err != nil {
		otelhelper.SetError(span, err)
		p.logger.WarnContext(ctx, "Production failed", "kind", kind, "title", cfg.Title, "error", err)
	} else {
		p.logger.InfoContext(ctx, "Production finished",
			"kind", kind,
			"title", cfg.Title,
			"container_id", result.ContainerID,
			"segments", len(result.SegmentIDs),
			"duration", result.EstimatedTotalDuration,
		)
	}

	p.publish(ctx, result)

	return result, err
}

func (p *Pipeline) validateConfig(cfg models.ProductionConfig) error {
	if err := p.validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if cfg.EffectiveKind() == models.ContentKindVideo {
		if cfg.TargetDuration <= 0 {
			return fmt.Errorf("%w: target duration must be positive", ErrInvalidConfig)
		}

		if len(cfg.Sources) == 0 {
			return fmt.Errorf("%w: at least one source is required", ErrInvalidConfig)
		}
	}

	return nil
}

func (p *Pipeline) publish(ctx context.Context, result *models.PipelineResult) {
	err := p.publisher.Publish(ctx, result.ContainerID, events.ArtifactProduced{
		BaseEvent:   events.NewBaseEvent(events.ArtifactProducedEvent, ""),
		Kind:        result.Kind,
		Title:       result.Title,
		Success:     result.Success,
		ContainerID: result.ContainerID,
		ExportPath:  result.ExportPath,
		Error:       result.Error,
	})
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to publish artifact event", "error", err)
	}
}

type commandRules struct {
	commands Commander
}

func (c commandRules) GetRuleset(ctx context.Context) models.CommandResponse {
	return c.commands.Send(ctx, models.OperationGetRuleset, nil)
}

type commandProbe struct {
	commands Commander
}

func (c commandProbe) ParseMediaMetadata(ctx context.Context, path string) models.CommandResponse {
	return c.commands.Send(ctx, models.OperationParseMediaMetadata, map[string]any{"path": path})
}
