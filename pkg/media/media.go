// Package media probes source files for the production pipeline.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

// Defaults used when a source cannot be probed.
const (
	DefaultDuration  = 60.0
	DefaultFrameRate = 30.0
	DefaultFormat    = "mp4"
	DefaultWidth     = 1920
	DefaultHeight    = 1080
)

var ErrUnknownSource = errors.New("unknown media source")

// Defaults returns the fallback metadata for path.
func Defaults(path string) models.MediaMetadata {
	return models.MediaMetadata{
		Path:      path,
		Duration:  DefaultDuration,
		FrameRate: DefaultFrameRate,
		Format:    DefaultFormat,
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Fallback:  true,
	}
}

// FallbackProbe substitutes default metadata when the wrapped probe fails,
// so one unreadable input never aborts a run.
type FallbackProbe struct {
	probe  protocol.MediaProbe
	logger *slog.Logger
}

func WithFallback(probe protocol.MediaProbe, logger *slog.Logger) *FallbackProbe {
	return &FallbackProbe{
		probe:  probe,
		logger: logger.With("module", "media_probe"),
	}
}

func (p *FallbackProbe) Probe(ctx context.Context, path string) (models.MediaMetadata, error) {
	meta, err := p.probe.Probe(ctx, path)
	if err != nil {
		p.logger.WarnContext(ctx, "Probe failed, using default metadata", "path", path, "error", err)

		return Defaults(path), nil
	}

	if meta.Duration <= 0 {
		meta.Duration = DefaultDuration
	}

	if meta.FrameRate <= 0 {
		meta.FrameRate = DefaultFrameRate
	}

	if meta.Path == "" {
		meta.Path = path
	}

	return meta, nil
}

// Static answers from a fixed table.
type Static map[string]models.MediaMetadata

func (s Static) Probe(_ context.Context, path string) (models.MediaMetadata, error) {
	meta, ok := s[path]
	if !ok {
		return models.MediaMetadata{}, fmt.Errorf("%w: %s", ErrUnknownSource, path)
	}

	if meta.Path == "" {
		meta.Path = path
	}

	return meta, nil
}

// MetadataParser is the slice of the command adapter AdapterProbe needs.
type MetadataParser interface {
	ParseMediaMetadata(ctx context.Context, path string) models.CommandResponse
}

// AdapterProbe asks the command adapter to parse the file.
type AdapterProbe struct {
	parser MetadataParser
}

func NewAdapterProbe(parser MetadataParser) *AdapterProbe {
	return &AdapterProbe{parser: parser}
}

func (p *AdapterProbe) Probe(ctx context.Context, path string) (models.MediaMetadata, error) {
	resp := p.parser.ParseMediaMetadata(ctx, path)
	if !resp.Success {
		return models.MediaMetadata{}, fmt.Errorf("parse_media_metadata %s: %s", path, resp.Error)
	}

	meta := models.MediaMetadata{
		Path:      path,
		Duration:  number(resp.Result["duration"]),
		FrameRate: number(resp.Result["frame_rate"]),
		Width:     int(number(resp.Result["width"])),
		Height:    int(number(resp.Result["height"])),
	}

	if format, ok := resp.Result["format"].(string); ok && format != "" {
		meta.Format = format
	} else {
		meta.Format = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	return meta, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint32:
		return float64(n)
	}

	return 0
}
