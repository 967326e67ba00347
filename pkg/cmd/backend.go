package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/studioflow/pkg/backends/bus"
	"github.com/dukex/studioflow/pkg/backends/process"
	"github.com/dukex/studioflow/pkg/protocol"
)

// BackendConfig selects the live editing backend the adapter attaches to.
type BackendConfig struct {
	Kind    string // simulation, process or bus
	Command string // process: binary and arguments, space separated
	WorkDir string

	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewBackendFactory returns nil for simulation, in which case the adapter
// never tries to attach.
//
// nolint:ireturn // the adapter takes the BackendFactory interface
func NewBackendFactory(cfg BackendConfig, logger *slog.Logger) (protocol.BackendFactory, error) {
	switch cfg.Kind {
	case "", "simulation":
		return nil, nil //nolint:nilnil // simulation has no factory
	case "process":
		fields := strings.Fields(cfg.Command)
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: process backend needs a command", ErrUnsupportedProvider)
		}

		return process.NewFactory(fields[0], fields[1:],
			process.WithDir(cfg.WorkDir),
			process.WithLogger(logger),
		), nil
	case "bus":
		if cfg.Publisher == nil || cfg.Subscriber == nil {
			return nil, fmt.Errorf("%w: bus backend needs an event bus channel", ErrUnsupportedProvider)
		}

		return bus.NewFactory(cfg.Publisher, cfg.Subscriber, logger), nil
	default:
		return nil, fmt.Errorf("%w: backend %q", ErrUnsupportedProvider, cfg.Kind)
	}
}
