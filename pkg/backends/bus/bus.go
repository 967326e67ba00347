// Package bus attaches the command adapter to a live backend reachable over
// a watermill pub/sub, using request/reply correlated by message metadata.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

const (
	CommandTopic   = "studioflow.commands"
	ResultTopic    = "studioflow.command.results"
	CorrelationKey = "correlation_id"
)

var (
	ErrBackendClosed = errors.New("bus backend closed")
	ErrMissingID     = errors.New("request id is required")
)

// Factory subscribes to the result topic on Launch.
type Factory struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
}

func NewFactory(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *Factory {
	return &Factory{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "bus_backend"),
	}
}

func (f *Factory) Name() string {
	return "bus"
}

// Launch is ready as soon as the result subscription is open.
//
// nolint:ireturn // factories hand out the Backend interface
func (f *Factory) Launch(ctx context.Context) (protocol.Backend, error) {
	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	messages, err := f.subscriber.Subscribe(subCtx, ResultTopic)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("failed to subscribe to %s: %w", ResultTopic, err)
	}

	ready := make(chan struct{})
	close(ready)

	b := &Backend{
		publisher: f.publisher,
		ready:     ready,
		done:      make(chan struct{}),
		cancel:    cancel,
		pending:   make(map[string]chan models.CommandResponse),
		logger:    f.logger,
	}

	go b.route(messages)

	return b, nil
}

// Backend publishes requests and routes replies back to waiting callers.
type Backend struct {
	publisher message.Publisher
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc

	mu      sync.Mutex
	pending map[string]chan models.CommandResponse

	logger *slog.Logger
}

func (b *Backend) Ready() <-chan struct{} {
	return b.ready
}

// Done is closed once the result subscription ends or Close is called.
func (b *Backend) Done() <-chan struct{} {
	return b.done
}

func (b *Backend) Call(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error) {
	if req.ID == "" {
		return models.CommandResponse{}, ErrMissingID
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return models.CommandResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	reply := make(chan models.CommandResponse, 1)

	b.mu.Lock()
	select {
	case <-b.done:
		b.mu.Unlock()

		return models.CommandResponse{}, ErrBackendClosed
	default:
	}

	b.pending[req.ID] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(CorrelationKey, req.ID)

	if err := b.publisher.Publish(CommandTopic, msg); err != nil {
		return models.CommandResponse{}, fmt.Errorf("failed to publish %s: %w", req.Operation, err)
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-b.done:
		return models.CommandResponse{}, ErrBackendClosed
	case <-ctx.Done():
		return models.CommandResponse{}, ctx.Err()
	}
}

func (b *Backend) route(messages <-chan *message.Message) {
	defer func() { _ = b.Close() }()

	for msg := range messages {
		id := msg.Metadata.Get(CorrelationKey)

		var resp models.CommandResponse
		if err := json.Unmarshal(msg.Payload, &resp); err != nil {
			b.logger.Warn("Dropping malformed reply", "correlation_id", id, "error", err)
			msg.Ack()

			continue
		}

		b.mu.Lock()
		reply, ok := b.pending[id]
		b.mu.Unlock()

		if ok {
			select {
			case reply <- resp:
			default:
				b.logger.Warn("Dropping duplicate reply", "correlation_id", id)
			}
		}

		msg.Ack()
	}
}

// Close stops routing replies. It does not close the shared pub/sub.
func (b *Backend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		close(b.done)
		b.mu.Unlock()

		b.cancel()
	})

	return nil
}
