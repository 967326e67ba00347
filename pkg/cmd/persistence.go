// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/studioflow/pkg/persistence"
	"github.com/dukex/studioflow/pkg/persistence/file"
	"github.com/dukex/studioflow/pkg/persistence/memory"
	"github.com/dukex/studioflow/pkg/persistence/postgresql"
	"github.com/dukex/studioflow/pkg/persistence/redis"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

var supportedPersistenceProviders = []string{"memory", "file", "redis", "rediss", "postgres", "postgresql"}

// NewPersistence opens the store selected by the URL scheme. A bare path is
// treated as a file store root.
//
// nolint:ireturn // callers work against the Persistence interface
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "memory":
		return memory.NewPersistence(), nil
	case "redis", "rediss":
		return redis.NewPersistence(ctx, logger, databaseURL)
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		if databaseURL == "" {
			return nil, fmt.Errorf("%w: empty database url", ErrUnsupportedProvider)
		}

		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
