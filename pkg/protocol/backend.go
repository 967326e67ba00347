// Package protocol defines the interfaces and contracts for pluggable components.
package protocol

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
)

// Backend is a live command execution surface the adapter can attach to.
type Backend interface {
	// Ready is closed once the backend signalled liveness.
	Ready() <-chan struct{}

	// Done is closed once the backend can no longer serve calls, whether
	// it exited on its own or was closed.
	Done() <-chan struct{}

	// Call forwards a request and waits for the backend's response. A
	// returned error means the transport failed; a backend-reported
	// failure comes back as a response with Success false.
	Call(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error)

	Close() error
}

// BackendFactory launches or attaches to a live backend.
type BackendFactory interface {
	// Launch starts the backend. It must not block waiting for readiness.
	Launch(ctx context.Context) (Backend, error)

	// Name returns a short identifier used in logs and metrics.
	Name() string
}
