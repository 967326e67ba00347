package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/studioflow/pkg/channels/gochannel"
	"github.com/dukex/studioflow/pkg/channels/kafka"
	"github.com/dukex/studioflow/pkg/eventbus"
)

// NewChannel creates the pub/sub pair for provider ("gochannel" or "kafka").
func NewChannel(provider string, logger *slog.Logger, serviceName string) (message.Publisher, message.Subscriber, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel":
		return gochannel.CreateChannel(wmLogger)
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return pub, sub, nil
	default:
		return nil, nil, fmt.Errorf("%w: event bus %q", ErrUnsupportedProvider, provider)
	}
}

// NewEventBus returns nil without error when provider is "" or "none".
//
// nolint:ireturn // callers work against the EventBus interface
func NewEventBus(provider string, logger *slog.Logger) (eventbus.EventBus, error) {
	if provider == "" || provider == "none" {
		return nil, nil //nolint:nilnil // no bus configured
	}

	pub, sub, err := NewChannel(provider, logger, "events")
	if err != nil {
		return nil, err
	}

	return eventbus.NewWatermillEventBus(pub, sub), nil
}
