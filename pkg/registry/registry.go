// Package registry maps workflow step kinds to the handlers that execute them.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"slices"
	"sync"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// PluginSymbol is the exported symbol a handler plugin must provide.
const PluginSymbol = "Handler"

var (
	ErrHandlerNotFound = errors.New("step handler not registered")
	ErrInvalidPlugin   = errors.New("invalid step handler plugin")
)

type Registry struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers map[models.StepKind]protocol.StepHandler
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:   log.With("module", "registry"),
		handlers: make(map[models.StepKind]protocol.StepHandler),
	}
}

// Register adds a handler, replacing any handler already registered for
// the same kind.
func (r *Registry) Register(handler protocol.StepHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[handler.Kind()] = handler
}

func (r *Registry) Handler(kind models.StepKind) (protocol.StepHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHandlerNotFound, kind)
	}

	return handler, nil
}

// Kinds returns the registered step kinds in lexical order.
func (r *Registry) Kinds() []models.StepKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]models.StepKind, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}

	slices.Sort(kinds)

	return kinds
}

// LoadPlugins opens every *.so under pluginsPath/handlers and registers the
// handler each one exports. Plugins override built-in handlers of the same
// kind.
func (r *Registry) LoadPlugins(pluginsPath string) ([]protocol.StepHandler, error) {
	handlers, err := loadPlugin[protocol.StepHandler](r.logger, pluginsPath, PluginSymbol)
	if err != nil {
		return nil, err
	}

	for _, handler := range handlers {
		r.Register(handler)
	}

	return handlers, nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := filepath.Join(pluginsPath, "handlers")

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", rootPath), slog.String("symbol", symbolName))
	l.Info("Loading plugins", "count", len(pluginPathList))

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPlugin, p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPlugin, p, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("%w: %s: symbol %s has type %T", ErrInvalidPlugin, p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded handler plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
