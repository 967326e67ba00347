package cmd

import (
	"log/slog"
	"os"

	"github.com/dukex/studioflow/pkg/registry"
	"github.com/dukex/studioflow/pkg/steps"
)

// NewRegistry registers the native step handlers and then any plugins found
// under pluginsPath, so a plugin can replace a native kind.
func NewRegistry(logger *slog.Logger, pluginsPath string, producer steps.Producer, planner steps.Planner, opts ...steps.AnalysisOption) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)

	for _, handler := range steps.Defaults(producer, planner, opts...) {
		reg.Register(handler)
	}

	if pluginsPath == "" {
		return reg, nil
	}

	if _, err := os.Stat(pluginsPath); os.IsNotExist(err) {
		logger.Debug("Plugins path does not exist, skipping plugins", "path", pluginsPath)

		return reg, nil
	}

	if _, err := reg.LoadPlugins(pluginsPath); err != nil {
		return nil, err
	}

	return reg, nil
}
