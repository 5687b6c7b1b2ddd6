package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"easyaisubbing/internal/language"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
	raw     []byte
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index       int               `json:"index"`
	CodecName   string            `json:"codec_name"`
	CodecType   string            `json:"codec_type"`
	CodecTag    string            `json:"codec_tag_string"`
	Duration    string            `json:"duration"`
	BitRate     string            `json:"bit_rate"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	SampleRate  string            `json:"sample_rate"`
	Channels    int               `json:"channels"`
	Tags        map[string]string `json:"tags"`
	Disposition Disposition       `json:"disposition"`
}

// Tag returns the named metadata tag, matching the key case-insensitively.
// Muxers disagree on tag casing, so an exact map lookup would miss entries.
func (s Stream) Tag(name string) string {
	if value, ok := s.Tags[name]; ok {
		return strings.TrimSpace(value)
	}
	for key, value := range s.Tags {
		if strings.EqualFold(key, name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Language returns the stream language tag, lowercased, or "" when untagged.
func (s Stream) Language() string {
	return language.ExtractFromTags(s.Tags)
}

// Title returns the stream title tag, or "" when untagged.
func (s Stream) Title() string {
	return s.Tag("title")
}

// Disposition carries the stream flags the pipeline reads.
type Disposition struct {
	Default int `json:"default"`
	Forced  int `json:"forced"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// SubtitleStream identifies one subtitle track inside a container.
type SubtitleStream struct {
	// Index is the absolute stream index inside the container.
	Index    int
	Codec    string
	Language string
	Title    string
	Forced   bool
}

// textSubtitleCodecs are the codecs that carry extractable text. Bitmap
// formats (PGS, DVD subpictures) cannot be converted without OCR.
var textSubtitleCodecs = map[string]struct{}{
	"srt":      {},
	"subrip":   {},
	"ass":      {},
	"ssa":      {},
	"webvtt":   {},
	"mov_text": {},
	"text":     {},
}

// IsText reports whether the track carries text that can be extracted
// by stream copy.
func (s SubtitleStream) IsText() bool {
	_, ok := textSubtitleCodecs[s.Codec]
	return ok
}

// runner executes the probe binary and returns its combined output.
// Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

var run runner = func(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := run(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	result.raw = append([]byte(nil), output...)
	return result, nil
}

// RawJSON returns the raw ffprobe JSON payload.
func (r Result) RawJSON() []byte {
	return append([]byte(nil), r.raw...)
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countType("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countType("audio")
}

// SubtitleStreamCount returns the number of subtitle streams of any codec.
func (r Result) SubtitleStreamCount() int {
	return r.countType("subtitle")
}

func (r Result) countType(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// Resolution returns the dimensions of the first video stream, or zeros
// when the container has no video.
func (r Result) Resolution() (width, height int) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream.Width, stream.Height
		}
	}
	return 0, 0
}

// SubtitleStreams returns every subtitle track in container order,
// bitmap formats included so listings can show why a track is not
// extractable. Check IsText before extracting.
func (r Result) SubtitleStreams() []SubtitleStream {
	var streams []SubtitleStream
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "subtitle") {
			continue
		}
		streams = append(streams, SubtitleStream{
			Index:    stream.Index,
			Codec:    strings.ToLower(strings.TrimSpace(stream.CodecName)),
			Language: stream.Language(),
			Title:    stream.Title(),
			Forced:   stream.Disposition.Forced != 0,
		})
	}
	return streams
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	rate := parseFloat(r.Format.BitRate)
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	return int64(rate)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
