package media

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/studioflow/pkg/log"
	"github.com/dukex/studioflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProbe struct{}

func (failingProbe) Probe(context.Context, string) (models.MediaMetadata, error) {
	return models.MediaMetadata{}, errors.New("corrupt header")
}

func TestWithFallback(t *testing.T) {
	static := Static{
		"good.mp4":   {Duration: 90, FrameRate: 25, Format: "mp4", Width: 1280, Height: 720},
		"noinfo.mp4": {Format: "mp4"},
	}

	probe := WithFallback(static, log.Discard())

	meta, err := probe.Probe(t.Context(), "good.mp4")
	require.NoError(t, err)
	assert.Equal(t, 90.0, meta.Duration)
	assert.Equal(t, "good.mp4", meta.Path)
	assert.False(t, meta.Fallback)

	meta, err = probe.Probe(t.Context(), "missing.mp4")
	require.NoError(t, err)
	assert.Equal(t, Defaults("missing.mp4"), meta)
	assert.True(t, meta.Fallback)

	meta, err = probe.Probe(t.Context(), "noinfo.mp4")
	require.NoError(t, err)
	assert.Equal(t, DefaultDuration, meta.Duration)
	assert.Equal(t, DefaultFrameRate, meta.FrameRate)

	meta, err = WithFallback(failingProbe{}, log.Discard()).Probe(t.Context(), "x.mov")
	require.NoError(t, err)
	assert.Equal(t, 60.0, meta.Duration)
	assert.Equal(t, 30.0, meta.FrameRate)
	assert.Equal(t, "mp4", meta.Format)
	assert.Equal(t, 1920, meta.Width)
	assert.Equal(t, 1080, meta.Height)
}

func TestStatic_Unknown(t *testing.T) {
	_, err := Static{}.Probe(t.Context(), "a.mp4")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

type parserFunc func(ctx context.Context, path string) models.CommandResponse

func (f parserFunc) ParseMediaMetadata(ctx context.Context, path string) models.CommandResponse {
	return f(ctx, path)
}

func TestAdapterProbe(t *testing.T) {
	probe := NewAdapterProbe(parserFunc(func(_ context.Context, path string) models.CommandResponse {
		if path == "bad.mp4" {
			return models.NewFailureResponse("unreadable")
		}

		return models.NewSuccessResponse(map[string]any{
			"duration":   120.0,
			"frame_rate": 24.0,
			"width":      3840,
			"height":     2160,
		}, nil)
	}))

	meta, err := probe.Probe(t.Context(), "clip.mov")
	require.NoError(t, err)
	assert.Equal(t, models.MediaMetadata{
		Path: "clip.mov", Duration: 120, FrameRate: 24, Format: "mov", Width: 3840, Height: 2160,
	}, meta)

	_, err = probe.Probe(t.Context(), "bad.mp4")
	assert.ErrorContains(t, err, "unreadable")
}

func TestParseFFProbe(t *testing.T) {
	output := []byte(`{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001", "r_frame_rate": "30/1"}
		],
		"format": {"format_name": "mov,mp4,m4a,3gp", "duration": "93.500000"}
	}`)

	meta, err := parseFFProbe("a.mp4", output)
	require.NoError(t, err)
	assert.Equal(t, 93.5, meta.Duration)
	assert.Equal(t, "mov", meta.Format)
	assert.Equal(t, 1920, meta.Width)
	assert.InDelta(t, 29.97, meta.FrameRate, 0.01)

	_, err = parseFFProbe("a.mp4", []byte("not json"))
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"30/1":  30,
		"25":    25,
		"0/0":   0,
		"bogus": 0,
		"":      0,
	}

	for in, want := range tests {
		assert.InDelta(t, want, parseRate(in), 0.0001, in)
	}
}

func TestFFProbe_MissingBinary(t *testing.T) {
	_, err := (&FFProbe{Binary: "studioflow-no-ffprobe"}).Probe(t.Context(), "a.mp4")
	assert.Error(t, err)
}
