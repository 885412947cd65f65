// Package probe wraps the external media probing tool. The catalog never
// inspects media content itself; everything technical comes from here.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// VideoStream describes one video stream of a probed file.
type VideoStream struct {
	Index     int
	Codec     string
	Width     int
	Height    int
	FrameRate float64
	BitRate   int64 // bits per second
}

// AudioStream describes one audio stream of a probed file.
type AudioStream struct {
	Index    int
	Codec    string
	Channels int
}

// MediaInfo is the prober's view of a media file.
type MediaInfo struct {
	DurationSeconds float64
	VideoStreams    []VideoStream
	AudioStreams    []AudioStream
}

// PrimaryVideo returns the first video stream, or nil if none exists.
func (m *MediaInfo) PrimaryVideo() *VideoStream {
	if len(m.VideoStreams) == 0 {
		return nil
	}
	return &m.VideoStreams[0]
}

// PrimaryAudio returns the first audio stream, or nil if none exists.
func (m *MediaInfo) PrimaryAudio() *AudioStream {
	if len(m.AudioStreams) == 0 {
		return nil
	}
	return &m.AudioStreams[0]
}

// Prober extracts technical media information from a file on disk.
type Prober interface {
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}

// ffprobeOutput mirrors the JSON structure emitted by ffprobe.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		Index     int    `json:"index"`
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
		FrameRate string `json:"r_frame_rate,omitempty"`
		BitRate   string `json:"bit_rate,omitempty"`
		Channels  int    `json:"channels,omitempty"`
	} `json:"streams"`
}

// FFprobeProber shells out to ffprobe for media information.
type FFprobeProber struct {
	binary  string
	timeout time.Duration
	logger  hclog.Logger
}

// NewFFprobeProber creates a prober using the given ffprobe binary.
func NewFFprobeProber(binary string, timeout time.Duration, logger hclog.Logger) *FFprobeProber {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFprobeProber{binary: binary, timeout: timeout, logger: logger}
}

// Probe runs ffprobe against the file and parses its JSON output.
func (p *FFprobeProber) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		p.logger.Debug("ffprobe failed", "path", path, "error", err)
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	if duration, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
		info.DurationSeconds = duration
	}

	for _, stream := range probed.Streams {
		switch stream.CodecType {
		case "video":
			vs := VideoStream{
				Index:     stream.Index,
				Codec:     stream.CodecName,
				Width:     stream.Width,
				Height:    stream.Height,
				FrameRate: parseFrameRate(stream.FrameRate),
			}
			if bitrate, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				vs.BitRate = bitrate
			}
			info.VideoStreams = append(info.VideoStreams, vs)
		case "audio":
			info.AudioStreams = append(info.AudioStreams, AudioStream{
				Index:    stream.Index,
				Codec:    stream.CodecName,
				Channels: stream.Channels,
			})
		}
	}

	p.logger.Debug("probed media file",
		"path", path,
		"duration", info.DurationSeconds,
		"video_streams", len(info.VideoStreams),
		"audio_streams", len(info.AudioStreams))

	return info, nil
}

// parseFrameRate converts ffprobe's rational frame rate ("30000/1001")
// to frames per second.
func parseFrameRate(raw string) float64 {
	if raw == "" || raw == "0/0" {
		return 0
	}
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) == 1 {
		fps, _ := strconv.ParseFloat(parts[0], 64)
		return fps
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
