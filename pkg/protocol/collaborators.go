package protocol

import (
	"context"

	"github.com/dukex/studioflow/pkg/models"
)

// MediaProbe reads technical metadata from a source file.
type MediaProbe interface {
	Probe(ctx context.Context, path string) (models.MediaMetadata, error)
}

// RulesFetcher loads the advisory production ruleset.
type RulesFetcher interface {
	FetchRules(ctx context.Context) (string, error)
}
