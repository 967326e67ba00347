package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
)

// consumes lists the id roles each operation takes as parameters.
var consumes = map[models.Operation][]models.IDRole{
	models.OperationCreateTrack:     {models.IDRoleDraft},
	models.OperationAddVideoSegment: {models.IDRoleTrack},
	models.OperationAddAudioSegment: {models.IDRoleTrack},
	models.OperationAddTextSegment:  {models.IDRoleTrack},
	models.OperationApplyEffect:     {models.IDRoleSegment},
	models.OperationExportDraft:     {models.IDRoleDraft},
}

// execution is the in-memory context of one pipeline run. It owns the
// resource graph ids and the execution report.
type execution struct {
	p      *Pipeline
	result *models.PipelineResult
	last   map[models.IDRole]string
}

func (p *Pipeline) newExecution(kind models.ContentKind, title string) *execution {
	return &execution{
		p:      p,
		result: models.NewPipelineResult(kind, title),
		last:   make(map[models.IDRole]string),
	}
}

// send fills unset id parameters from the most recently produced id of the
// matching role, dispatches the command and remembers the ids it produced.
func (e *execution) send(ctx context.Context, op models.Operation, params map[string]any) models.CommandResponse {
	if params == nil {
		params = map[string]any{}
	}

	for _, role := range consumes[op] {
		key := role.ParameterKey()
		if v, ok := params[key].(string); ok && v != "" {
			continue
		}

		if id := e.last[role]; id != "" {
			params[key] = id
		}
	}

	resp := e.p.commands.Send(ctx, op, params)
	if resp.Success {
		for role, id := range resp.GeneratedIDs {
			if id != "" {
				e.last[role] = id
			}
		}
	}

	return resp
}

// stage runs fn as one named stage, appending its record to the report.
func (e *execution) stage(ctx context.Context, name string, fn func(ctx context.Context) (map[string]any, error)) error {
	ctx, span := otelhelper.StartSpan(ctx, e.p.tracer, "pipeline.stage."+name,
		attribute.String(otelhelper.StageKey, name),
	)
	defer span.End()

	started := time.Now()
	result, err := fn(ctx)

	record := models.ExecutionRecord{
		Step:      name,
		Success:   err == nil,
		StartedAt: started.UTC(),
		Duration:  time.Since(started),
	}

	if err != nil {
		record.Error = err.Error()

		otelhelper.SetError(span, err)
		e.p.logger.WarnContext(ctx, "Stage failed", "stage", name, "error", err)
	} else {
		record.Result = result
		e.p.logger.DebugContext(ctx, "Stage finished", "stage", name)
	}

	e.result.ExecutionReport = append(e.result.ExecutionReport, record)

	return err
}

// abort turns the result into a failure with empty id collections, keeping
// the partial report.
func (e *execution) abort(err error) *models.PipelineResult {
	report := e.result.ExecutionReport

	e.result = models.NewPipelineResult(e.result.Kind, e.result.Title)
	e.result.ExecutionReport = report
	e.result.Success = false
	e.result.Error = err.Error()

	return e.result
}

// failValidation records the validate_config stage and aborts.
func (e *execution) failValidation(ctx context.Context, err error) (*models.PipelineResult, error) {
	_ = e.stage(ctx, "validate_config", func(context.Context) (map[string]any, error) {
		return nil, err
	})

	return e.abort(err), err
}

type commandError struct {
	op  models.Operation
	msg string
}

func (c *commandError) Error() string {
	return string(c.op) + ": " + c.msg
}

func responseError(op models.Operation, resp models.CommandResponse) error {
	if resp.Success {
		return nil
	}

	return &commandError{op: op, msg: resp.Error}
}

// IsCommandError reports whether err came from a failed adapter command.
func IsCommandError(err error) bool {
	var ce *commandError

	return errors.As(err, &ce)
}
