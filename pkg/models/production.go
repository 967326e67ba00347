package models

import "time"

// ContentKind selects which pipeline produces an artifact.
type ContentKind string

const (
	ContentKindVideo  ContentKind = "video"
	ContentKindPoster ContentKind = "poster"
)

// Style is the creative style tag driving highlight weighting and effects.
type Style string

const (
	StyleEducation Style = "education"
	StyleVlog      Style = "vlog"
	StyleCinematic Style = "cinematic"
	StylePromo     Style = "promo"
	StyleMusic     Style = "music"
)

// Styles lists every supported style tag.
func Styles() []Style {
	return []Style{StyleEducation, StyleVlog, StyleCinematic, StylePromo, StyleMusic}
}

// AspectRatio is the output canvas shape.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
	AspectFeed      AspectRatio = "4:5"
)

// Dimensions returns the canvas width and height for the ratio.
func (a AspectRatio) Dimensions() (int, int) {
	switch a {
	case AspectPortrait:
		return 1080, 1920
	case AspectSquare:
		return 1080, 1080
	case AspectFeed:
		return 1080, 1350
	default:
		return 1920, 1080
	}
}

// ProductionConfig describes a single artifact to produce.
type ProductionConfig struct {
	Kind           ContentKind `json:"kind"            yaml:"kind"            validate:"omitempty,oneof=video poster"`
	Title          string      `json:"title"           yaml:"title"           validate:"required,min=1"`
	Style          Style       `json:"style"           yaml:"style"           validate:"required,oneof=education vlog cinematic promo music"`
	TargetDuration float64     `json:"target_duration" yaml:"target_duration" validate:"gte=0"`
	AspectRatio    AspectRatio `json:"aspect_ratio"    yaml:"aspect_ratio"    validate:"omitempty,oneof=16:9 9:16 1:1 4:5"`
	Sources        []string    `json:"sources"         yaml:"sources"         validate:"dive,required"`
	Captions       bool        `json:"captions"        yaml:"captions"`
	MusicStyle     string      `json:"music_style"     yaml:"music_style"`
	ExportPath     string      `json:"export_path"     yaml:"export_path"`
}

// EffectiveKind returns the kind, defaulting to video.
func (c ProductionConfig) EffectiveKind() ContentKind {
	if c.Kind == "" {
		return ContentKindVideo
	}

	return c.Kind
}

// EffectiveAspectRatio returns the aspect ratio, defaulting to 16:9.
func (c ProductionConfig) EffectiveAspectRatio() AspectRatio {
	if c.AspectRatio == "" {
		return AspectLandscape
	}

	return c.AspectRatio
}

// TimelineWindow is a slice of a source retained by highlight selection.
type TimelineWindow struct {
	Source        string  `json:"source"`
	SourceIndex   int     `json:"source_index"`
	Start         float64 `json:"start"`
	Duration      float64 `json:"duration"`
	Score         float64 `json:"score"`
	TimelineStart float64 `json:"timeline_start"`
}

// MediaMetadata is what a media probe reports about a source.
type MediaMetadata struct {
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	FrameRate float64 `json:"frame_rate"`
	Format    string  `json:"format"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Fallback  bool    `json:"fallback,omitempty"`
}

// AppliedEffect records an effect attached to a segment.
type AppliedEffect struct {
	EffectID   string `json:"effect_id"`
	EffectType string `json:"effect_type"`
	SegmentID  string `json:"segment_id"`
}

// ExecutionRecord is one entry of an execution report.
type ExecutionRecord struct {
	Step      string         `json:"step"`
	Success   bool           `json:"success"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// PipelineResult is the outcome of one pipeline run.
type PipelineResult struct {
	Success                bool              `json:"success"`
	Error                  string            `json:"error,omitempty"`
	Kind                   ContentKind       `json:"kind"`
	Title                  string            `json:"title"`
	ContainerID            string            `json:"container_id,omitempty"`
	SubContainerIDs        map[string]string `json:"sub_container_ids"`
	SegmentIDs             []string          `json:"segment_ids"`
	ExportPath             string            `json:"export_path,omitempty"`
	DerivedTimeline        []TimelineWindow  `json:"derived_timeline"`
	AppliedEffects         []AppliedEffect   `json:"applied_effects"`
	EstimatedTotalDuration float64           `json:"estimated_total_duration"`
	ExecutionReport        []ExecutionRecord `json:"execution_report"`
}

// NewPipelineResult returns a result with empty, non-nil collections.
func NewPipelineResult(kind ContentKind, title string) *PipelineResult {
	return &PipelineResult{
		Kind:            kind,
		Title:           title,
		SubContainerIDs: map[string]string{},
		SegmentIDs:      []string{},
		DerivedTimeline: []TimelineWindow{},
		AppliedEffects:  []AppliedEffect{},
		ExecutionReport: []ExecutionRecord{},
	}
}
