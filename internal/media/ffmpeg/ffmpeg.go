package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"easyaisubbing/internal/language"
	"easyaisubbing/internal/logging"
)

// Audio extraction parameters. Gemini transcribes 16 kHz mono PCM, so
// every extracted track is normalized to that shape.
const (
	audioCodec      = "pcm_s16le"
	audioSampleRate = "16000"
	audioChannels   = "1"

	defaultEncoder      = "libx264"
	defaultPreset       = "medium"
	defaultCRF          = 23
	defaultAudioBitrate = "192k"

	muxedTrackTitle = "Translated Subtitles"
)

// ProgressFunc receives the transcode position as a percentage of the
// probed input duration.
type ProgressFunc func(percent float64)

// FFmpeg wraps ffmpeg subprocess invocations for the pipeline.
type FFmpeg struct {
	binary string
	logger *slog.Logger
	run    commandRunner
}

// New constructs an ffmpeg wrapper. An empty binary resolves to "ffmpeg"
// on PATH.
func New(binary string, logger *slog.Logger) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FFmpeg{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (f *FFmpeg) WithCommandRunner(r commandRunner) {
	if f != nil && r != nil {
		f.run = r
	}
}

// ExtractAudioRequest describes one audio extraction.
type ExtractAudioRequest struct {
	InputPath  string
	OutputPath string // .wav target
	// StartSeconds and DurationSeconds cut a segment when positive.
	StartSeconds    float64
	DurationSeconds float64
	// TotalSeconds is the probed input duration used for progress.
	TotalSeconds float64
	OnProgress   ProgressFunc
}

// ExtractAudio pulls the audio track into a 16 kHz mono WAV file.
func (f *FFmpeg) ExtractAudio(ctx context.Context, req ExtractAudioRequest) error {
	if err := requirePaths(req.InputPath, req.OutputPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	args := []string{"-y", "-i", req.InputPath}
	if req.StartSeconds > 0 {
		args = append(args, "-ss", formatSeconds(req.StartSeconds))
	}
	if req.DurationSeconds > 0 {
		args = append(args, "-t", formatSeconds(req.DurationSeconds))
	}
	args = append(args,
		"-vn",
		"-acodec", audioCodec,
		"-ar", audioSampleRate,
		"-ac", audioChannels,
		req.OutputPath,
	)
	f.logger.Debug("extracting audio",
		logging.String("input", req.InputPath),
		logging.String("output", req.OutputPath))
	total := req.TotalSeconds
	if req.DurationSeconds > 0 {
		total = req.DurationSeconds
	}
	if err := f.run(ctx, progressScanner(total, req.OnProgress), f.binary, args...); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}

// ExtractSubtitleRequest describes one subtitle stream extraction.
type ExtractSubtitleRequest struct {
	InputPath  string
	OutputPath string
	// StreamIndex is the absolute stream index from ffprobe.
	StreamIndex int
}

// ExtractSubtitle copies one subtitle stream out of the container
// without re-encoding.
func (f *FFmpeg) ExtractSubtitle(ctx context.Context, req ExtractSubtitleRequest) error {
	if err := requirePaths(req.InputPath, req.OutputPath); err != nil {
		return fmt.Errorf("extract subtitle: %w", err)
	}
	args := []string{
		"-y",
		"-i", req.InputPath,
		"-map", fmt.Sprintf("0:%d", req.StreamIndex),
		"-c:s", "copy",
	}
	if format := subtitleFormat(req.OutputPath); format != "" {
		args = append(args, "-f", format)
	}
	args = append(args, req.OutputPath)
	f.logger.Debug("extracting subtitle stream",
		logging.String("input", req.InputPath),
		logging.Int("stream", req.StreamIndex))
	if err := f.run(ctx, nil, f.binary, args...); err != nil {
		return fmt.Errorf("extract subtitle: %w", err)
	}
	return nil
}

func subtitleFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return "srt"
	case ".ass", ".ssa":
		return "ass"
	case ".vtt":
		return "webvtt"
	}
	return ""
}

// MuxRequest describes a soft-subtitle mux.
type MuxRequest struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	// Language tags the new track; any supported language name or code
	// is accepted and stored as ISO 639-2. Empty becomes "und".
	Language string
	// Title names the new track; empty becomes "Translated Subtitles".
	Title string
	// ExistingSubtitles is the count of subtitle streams already in the
	// video, so metadata lands on the appended track.
	ExistingSubtitles int
	TotalSeconds      float64
	OnProgress        ProgressFunc
}

// Mux copies all source streams and appends the subtitle file as a new
// track. The output is written to a hidden temp name and renamed into
// place so a failed run never leaves a partial artifact.
func (f *FFmpeg) Mux(ctx context.Context, req MuxRequest) (string, error) {
	if err := requirePaths(req.VideoPath, req.OutputPath); err != nil {
		return "", fmt.Errorf("mux: %w", err)
	}
	if strings.TrimSpace(req.SubtitlePath) == "" {
		return "", fmt.Errorf("mux: subtitle path is required")
	}

	format, codec := containerFormat(req.OutputPath)
	lang := language.ToISO3(req.Language)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = muxedTrackTitle
	}
	metaTarget := fmt.Sprintf("-metadata:s:s:%d", req.ExistingSubtitles)

	tmpPath := hiddenTempPath(req.OutputPath)
	args := []string{
		"-y",
		"-i", req.VideoPath,
		"-i", req.SubtitlePath,
		"-map", "0",
		"-map", "1",
		"-c", "copy",
		"-c:s", codec,
		metaTarget, "language=" + lang,
		metaTarget, "title=" + title,
		"-f", format,
		tmpPath,
	}
	f.logger.Debug("muxing subtitles",
		logging.String("video", req.VideoPath),
		logging.String("subtitle", req.SubtitlePath),
		logging.String("language", lang))
	if err := f.run(ctx, progressScanner(req.TotalSeconds, req.OnProgress), f.binary, args...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("mux: %w", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("mux: move output: %w", err)
	}
	return req.OutputPath, nil
}

func containerFormat(path string) (format, subtitleCodec string) {
	if strings.EqualFold(filepath.Ext(path), ".mp4") {
		return "mp4", "mov_text"
	}
	return "matroska", "srt"
}

// Style controls force_style rendering for hardsubbed SRT/VTT inputs.
// ASS/SSA inputs keep their embedded styling and ignore it.
type Style struct {
	FontName      string
	FontSize      int
	PrimaryColour string
	OutlineColour string
	Outline       int
	Shadow        int
	// Position is one of the named corners/edges; unknown values fall
	// back to Bottom Center.
	Position string
}

// positionAlignment maps position names to libass numpad alignment codes.
var positionAlignment = map[string]int{
	"Bottom Center": 2,
	"Bottom Left":   1,
	"Bottom Right":  3,
	"Top Center":    8,
	"Top Left":      7,
	"Top Right":     9,
}

func (s Style) forceStyle() string {
	font := strings.TrimSpace(s.FontName)
	if font == "" {
		font = "Arial"
	}
	size := s.FontSize
	if size <= 0 {
		size = 24
	}
	primary := strings.TrimSpace(s.PrimaryColour)
	if primary == "" {
		primary = "&H00FFFFFF"
	}
	outlineColour := strings.TrimSpace(s.OutlineColour)
	if outlineColour == "" {
		outlineColour = "&H00000000"
	}
	alignment, ok := positionAlignment[strings.TrimSpace(s.Position)]
	if !ok {
		alignment = positionAlignment["Bottom Center"]
	}
	return fmt.Sprintf("Fontname=%s,FontSize=%d,PrimaryColour=%s,OutlineColour=%s,BorderStyle=1,Outline=%d,Shadow=%d,Alignment=%d",
		font, size, primary, outlineColour, s.Outline, s.Shadow, alignment)
}

// HardsubRequest describes a burn-in encode.
type HardsubRequest struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	Style        Style
	// Scale is an optional "WxH" output size.
	Scale string
	// Encoder, Preset and CRF default to libx264 / medium / 23.
	Encoder string
	Preset  string
	CRF     int
	// EncodeAudio re-encodes audio as AAC 192k instead of copying.
	EncodeAudio  bool
	TotalSeconds float64
	OnProgress   ProgressFunc
}

// Hardsub burns the subtitle file into the video stream. Like Mux the
// output lands under a temp name first.
func (f *FFmpeg) Hardsub(ctx context.Context, req HardsubRequest) (string, error) {
	if err := requirePaths(req.VideoPath, req.OutputPath); err != nil {
		return "", fmt.Errorf("hardsub: %w", err)
	}
	if strings.TrimSpace(req.SubtitlePath) == "" {
		return "", fmt.Errorf("hardsub: subtitle path is required")
	}

	filter := "subtitles='" + escapeFilterPath(req.SubtitlePath) + "'"
	ext := strings.ToLower(filepath.Ext(req.SubtitlePath))
	if ext != ".ass" && ext != ".ssa" {
		filter += ":force_style='" + req.Style.forceStyle() + "'"
	}
	if scale := strings.TrimSpace(req.Scale); scale != "" {
		w, h, err := parseScale(scale)
		if err != nil {
			return "", fmt.Errorf("hardsub: %w", err)
		}
		filter += fmt.Sprintf(",scale=%d:%d", w, h)
	}

	encoder := strings.TrimSpace(req.Encoder)
	if encoder == "" {
		encoder = defaultEncoder
	}
	preset := strings.TrimSpace(req.Preset)
	if preset == "" {
		preset = defaultPreset
	}
	crf := req.CRF
	if crf <= 0 {
		crf = defaultCRF
	}
	format, _ := containerFormat(req.OutputPath)

	tmpPath := hiddenTempPath(req.OutputPath)
	args := []string{
		"-y",
		"-i", req.VideoPath,
		"-vf", filter,
		"-c:v", encoder,
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
	}
	if req.EncodeAudio {
		args = append(args, "-c:a", "aac", "-b:a", defaultAudioBitrate)
	} else {
		args = append(args, "-c:a", "copy")
	}
	args = append(args, "-f", format, tmpPath)

	f.logger.Debug("hardsubbing",
		logging.String("video", req.VideoPath),
		logging.String("subtitle", req.SubtitlePath),
		logging.String("encoder", encoder))
	if err := f.run(ctx, progressScanner(req.TotalSeconds, req.OnProgress), f.binary, args...); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("hardsub: %w", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("hardsub: move output: %w", err)
	}
	return req.OutputPath, nil
}

func parseScale(scale string) (width, height int, err error) {
	parts := strings.SplitN(strings.ToLower(scale), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid scale %q, want WxH", scale)
	}
	width, werr := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, herr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid scale %q, want WxH", scale)
	}
	return width, height, nil
}

// escapeFilterPath quotes a path for the ffmpeg filter grammar, which
// treats :, ', comma and brackets specially even inside filter options.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	replacer := strings.NewReplacer(
		":", "\\:",
		"'", "\\'",
		",", "\\,",
		"[", "\\[",
		"]", "\\]",
	)
	return replacer.Replace(path)
}

func hiddenTempPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	return filepath.Join(dir, "."+base+".tmp")
}

func requirePaths(input, output string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(output) == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
