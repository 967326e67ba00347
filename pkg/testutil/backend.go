package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// RespondFunc answers a recorded request.
type RespondFunc func(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error)

// RecordingBackend is an in-process live backend that records every
// request it receives.
type RecordingBackend struct {
	mu       sync.Mutex
	ready    chan struct{}
	done     chan struct{}
	requests []models.CommandRequest
	respond  RespondFunc
	closed   bool
}

// NewRecordingBackend creates a backend that is ready immediately.
func NewRecordingBackend(respond RespondFunc) *RecordingBackend {
	ready := make(chan struct{})
	close(ready)

	return &RecordingBackend{ready: ready, done: make(chan struct{}), respond: respond}
}

// NewSilentBackend creates a backend that never signals readiness.
func NewSilentBackend() *RecordingBackend {
	return &RecordingBackend{ready: make(chan struct{}), done: make(chan struct{})}
}

// NewExitedBackend creates a backend that exits without signalling readiness.
func NewExitedBackend() *RecordingBackend {
	b := NewSilentBackend()
	close(b.done)

	return b
}

func (b *RecordingBackend) Ready() <-chan struct{} {
	return b.ready
}

func (b *RecordingBackend) Done() <-chan struct{} {
	return b.done
}

func (b *RecordingBackend) Call(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()

		return models.CommandResponse{}, errors.New("backend closed")
	}

	b.requests = append(b.requests, req)
	respond := b.respond
	b.mu.Unlock()

	if respond == nil {
		return models.NewSuccessResponse(map[string]any{"echo": string(req.Operation)}, nil), nil
	}

	return respond(ctx, req)
}

func (b *RecordingBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true

		select {
		case <-b.done:
		default:
			close(b.done)
		}
	}

	return nil
}

// Requests returns a copy of the recorded requests.
func (b *RecordingBackend) Requests() []models.CommandRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]models.CommandRequest(nil), b.requests...)
}

// Closed reports whether Close was called.
func (b *RecordingBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

// StaticBackendFactory hands out a fixed backend or a fixed launch error.
type StaticBackendFactory struct {
	Backend protocol.Backend
	Err     error
}

func (f StaticBackendFactory) Launch(context.Context) (protocol.Backend, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	return f.Backend, nil
}

func (f StaticBackendFactory) Name() string {
	return "static"
}
