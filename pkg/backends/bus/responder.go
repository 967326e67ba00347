package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/studioflow/pkg/models"
)

// HandlerFunc answers one command.
type HandlerFunc func(ctx context.Context, req models.CommandRequest) models.CommandResponse

// Responder serves commands published on CommandTopic, for workers that
// front a real editor.
type Responder struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handler    HandlerFunc
	logger     *slog.Logger
}

func NewResponder(pub message.Publisher, sub message.Subscriber, handler HandlerFunc, logger *slog.Logger) *Responder {
	return &Responder{
		publisher:  pub,
		subscriber: sub,
		handler:    handler,
		logger:     logger.With("module", "bus_responder"),
	}
}

// Start subscribes and serves in the background until ctx is cancelled.
func (r *Responder) Start(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, CommandTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", CommandTopic, err)
	}

	go func() {
		for msg := range messages {
			r.serve(ctx, msg)
		}
	}()

	return nil
}

func (r *Responder) serve(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	id := msg.Metadata.Get(CorrelationKey)

	var req models.CommandRequest

	resp := models.NewFailureResponse("malformed request")
	if err := json.Unmarshal(msg.Payload, &req); err == nil {
		resp = r.handler(ctx, req)
	} else {
		r.logger.WarnContext(ctx, "Malformed command", "correlation_id", id, "error", err)
	}

	resp.ID = id

	payload, err := json.Marshal(resp)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to encode reply", "correlation_id", id, "error", err)

		return
	}

	reply := message.NewMessage(watermill.NewUUID(), payload)
	reply.Metadata.Set(CorrelationKey, id)

	if err := r.publisher.Publish(ResultTopic, reply); err != nil {
		r.logger.ErrorContext(ctx, "Failed to publish reply", "correlation_id", id, "error", err)
	}
}
