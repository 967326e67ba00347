package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dukex/studioflow/pkg/models"
)

// FFProbe shells out to ffprobe.
type FFProbe struct {
	Binary string
}

func NewFFProbe() *FFProbe {
	return &FFProbe{Binary: "ffprobe"}
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

func (p *FFProbe) Probe(ctx context.Context, path string) (models.MediaMetadata, error) {
	binary, err := exec.LookPath(p.Binary)
	if err != nil {
		return models.MediaMetadata{}, fmt.Errorf("ffprobe not available: %w", err)
	}

	out, err := exec.CommandContext(ctx, binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	).Output()
	if err != nil {
		return models.MediaMetadata{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseFFProbe(path, out)
}

func parseFFProbe(path string, data []byte) (models.MediaMetadata, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return models.MediaMetadata{}, fmt.Errorf("failed to decode ffprobe output: %w", err)
	}

	meta := models.MediaMetadata{Path: path}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		meta.Duration = d
	}

	// format_name is a comma separated list such as "mov,mp4,m4a".
	if name, _, _ := strings.Cut(out.Format.FormatName, ","); name != "" {
		meta.Format = name
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}

		meta.Width = s.Width
		meta.Height = s.Height

		meta.FrameRate = parseRate(s.AvgFrameRate)
		if meta.FrameRate == 0 {
			meta.FrameRate = parseRate(s.RFrameRate)
		}

		break
	}

	return meta, nil
}

// parseRate parses ffprobe rationals like "30000/1001".
func parseRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	if !found {
		return n
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}

	return n / d
}
