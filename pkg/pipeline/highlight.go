package pipeline

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/dukex/studioflow/pkg/models"
	"github.com/dukex/studioflow/pkg/protocol"
)

const (
	WindowSize       = 5.0
	ScoreThreshold   = 0.6
	MaxPerSource     = 3
	durationEpsilon  = 1e-9
	minWindowSeconds = 0.01
)

// RandomScoring draws base scores uniformly from [0, 1).
var RandomScoring = protocol.ScoringFunc(func(string, int, int) float64 {
	return rand.Float64()
})

// StyleWeight returns the emphasis multiplier of a style at a relative
// position in [0, 1] of a source. window is the window index, used by
// beat-driven styles.
func StyleWeight(style models.Style, position float64, window int) float64 {
	switch style {
	case models.StyleEducation:
		if position < 0.5 {
			return 1.4
		}

		return 0.8
	case models.StyleVlog:
		if position < 0.2 || position > 0.8 {
			return 1.4
		}

		return 0.9
	case models.StyleCinematic:
		return 1.0 + 0.4*math.Sin(2*math.Pi*3*position)
	case models.StylePromo:
		return 1.5 - position
	case models.StyleMusic:
		if window%2 == 0 {
			return 1.4
		}

		return 0.7
	default:
		return 1.0
	}
}

// Selector picks highlight windows out of probed sources.
type Selector struct {
	scoring protocol.ScoringFunction
}

// NewSelector uses RandomScoring when scoring is nil.
func NewSelector(scoring protocol.ScoringFunction) *Selector {
	if scoring == nil {
		scoring = RandomScoring
	}

	return &Selector{scoring: scoring}
}

// Select partitions each source into WindowSize windows, weights them by the
// style curve and keeps at most MaxPerSource windows scoring above
// ScoreThreshold per source, best first. Windows are then accumulated in
// source order until target is reached; the last one is truncated so the
// total never exceeds target.
func (s *Selector) Select(sources []models.MediaMetadata, style models.Style, target float64) []models.TimelineWindow {
	var candidates []models.TimelineWindow

	var best *models.TimelineWindow

	for i, src := range sources {
		scored := s.score(i, src, style)

		for j := range scored {
			if best == nil || scored[j].Score > best.Score {
				w := scored[j]
				best = &w
			}
		}

		retained := slices.DeleteFunc(scored, func(w models.TimelineWindow) bool {
			return w.Score <= ScoreThreshold
		})

		slices.SortStableFunc(retained, func(a, b models.TimelineWindow) int {
			return cmp.Compare(b.Score, a.Score)
		})

		if len(retained) > MaxPerSource {
			retained = retained[:MaxPerSource]
		}

		candidates = append(candidates, retained...)
	}

	// Nothing qualified: keep the single strongest window so the draft
	// still has content.
	if len(candidates) == 0 && best != nil {
		candidates = append(candidates, *best)
	}

	return accumulate(candidates, target)
}

func (s *Selector) score(index int, src models.MediaMetadata, style models.Style) []models.TimelineWindow {
	if src.Duration <= 0 {
		return nil
	}

	count := int(math.Ceil(src.Duration / WindowSize))
	windows := make([]models.TimelineWindow, 0, count)

	for w := range count {
		start := float64(w) * WindowSize
		duration := math.Min(WindowSize, src.Duration-start)

		if duration < minWindowSeconds {
			continue
		}

		position := (start + duration/2) / src.Duration
		base := s.scoring.Score(src.Path, index, w)

		windows = append(windows, models.TimelineWindow{
			Source:      src.Path,
			SourceIndex: index,
			Start:       start,
			Duration:    duration,
			Score:       base * StyleWeight(style, position, w),
		})
	}

	return windows
}

func accumulate(candidates []models.TimelineWindow, target float64) []models.TimelineWindow {
	timeline := make([]models.TimelineWindow, 0, len(candidates))
	total := 0.0

	for _, w := range candidates {
		remaining := target - total
		if remaining <= durationEpsilon {
			break
		}

		w.TimelineStart = total

		if w.Duration >= remaining {
			w.Duration = remaining
			total = target
		} else {
			total += w.Duration
		}

		timeline = append(timeline, w)
	}

	return timeline
}

// TotalDuration sums the durations of a timeline.
func TotalDuration(timeline []models.TimelineWindow) float64 {
	total := 0.0
	for _, w := range timeline {
		total += w.Duration
	}

	return total
}
