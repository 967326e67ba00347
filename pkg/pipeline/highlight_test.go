package pipeline

import (
	"fmt"
	"testing"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantScoring(score float64) protocol.ScoringFunction {
	return protocol.ScoringFunc(func(string, int, int) float64 { return score })
}

func sources(durations ...float64) []models.MediaMetadata {
	out := make([]models.MediaMetadata, 0, len(durations))
	for i, d := range durations {
		out = append(out, models.MediaMetadata{Path: fmt.Sprintf("clip-%d.mp4", i), Duration: d})
	}

	return out
}

func TestStyleWeight(t *testing.T) {
	tests := []struct {
		style    models.Style
		position float64
		window   int
		want     float64
	}{
		{models.StyleEducation, 0.1, 0, 1.4},
		{models.StyleEducation, 0.9, 0, 0.8},
		{models.StyleVlog, 0.05, 0, 1.4},
		{models.StyleVlog, 0.5, 0, 0.9},
		{models.StyleVlog, 0.95, 0, 1.4},
		{models.StylePromo, 0, 0, 1.5},
		{models.StylePromo, 1, 0, 0.5},
		{models.StyleMusic, 0.5, 2, 1.4},
		{models.StyleMusic, 0.5, 3, 0.7},
		{models.StyleCinematic, 0, 0, 1.0},
		{models.Style("unknown"), 0.3, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s@%.2f", tt.style, tt.position), func(t *testing.T) {
			assert.InDelta(t, tt.want, StyleWeight(tt.style, tt.position, tt.window), 1e-9)
		})
	}
}

func TestSelector_EducationFavoursFirstHalf(t *testing.T) {
	selector := NewSelector(constantScoring(0.7))

	timeline := selector.Select(sources(90, 90, 90), models.StyleEducation, 60)

	require.Len(t, timeline, 9)

	for _, w := range timeline {
		assert.Less(t, w.Start, 45.0, "education keeps first-half windows")
		assert.Greater(t, w.Score, ScoreThreshold)
	}

	assert.Equal(t, 45.0, TotalDuration(timeline))
	assert.Equal(t, 0, timeline[0].SourceIndex)
	assert.Equal(t, 2, timeline[8].SourceIndex)
	assert.Equal(t, 40.0, timeline[8].TimelineStart)
}

func TestSelector_TruncatesFinalWindow(t *testing.T) {
	selector := NewSelector(constantScoring(0.9))

	timeline := selector.Select(sources(60, 60), models.StylePromo, 12)

	require.Len(t, timeline, 3)
	assert.Equal(t, 5.0, timeline[0].Duration)
	assert.Equal(t, 5.0, timeline[1].Duration)
	assert.Equal(t, 2.0, timeline[2].Duration)
	assert.Equal(t, 12.0, TotalDuration(timeline))
}

func TestSelector_KeepsAtMostThreePerSource(t *testing.T) {
	selector := NewSelector(protocol.ScoringFunc(func(_ string, _ int, window int) float64 {
		return 0.5 + float64(window%4)*0.1
	}))

	timeline := selector.Select(sources(200), models.Style("unknown"), 1000)

	require.Len(t, timeline, MaxPerSource)

	for i := 1; i < len(timeline); i++ {
		assert.GreaterOrEqual(t, timeline[i-1].Score, timeline[i].Score)
	}
}

func TestSelector_FallsBackToStrongestWindow(t *testing.T) {
	selector := NewSelector(protocol.ScoringFunc(func(_ string, source int, window int) float64 {
		if source == 1 && window == 2 {
			return 0.4
		}

		return 0.1
	}))

	timeline := selector.Select(sources(30, 30), models.Style("unknown"), 60)

	require.Len(t, timeline, 1)
	assert.Equal(t, 1, timeline[0].SourceIndex)
	assert.Equal(t, 10.0, timeline[0].Start)
}

func TestSelector_PartialLastWindow(t *testing.T) {
	selector := NewSelector(constantScoring(0.9))

	timeline := selector.Select(sources(7), models.Style("unknown"), 60)

	require.Len(t, timeline, 2)
	assert.Equal(t, 7.0, TotalDuration(timeline))
}

func TestSelector_NeverExceedsTarget(t *testing.T) {
	targets := []float64{0.5, 1, 7.3, 12.5, 30, 60, 600}

	for _, style := range models.Styles() {
		for _, target := range targets {
			t.Run(fmt.Sprintf("%s/%v", style, target), func(t *testing.T) {
				selector := NewSelector(nil)

				for range 20 {
					timeline := selector.Select(sources(90, 45, 12, 3), style, target)

					assert.LessOrEqual(t, TotalDuration(timeline), target+1e-9)
				}
			})
		}
	}
}
