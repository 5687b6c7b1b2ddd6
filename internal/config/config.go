package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir  string `toml:"staging_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
	DownloadDir string `toml:"download_dir"`
}

// Gemini contains connection settings for the Gemini generative API.
type Gemini struct {
	APIKey           string  `toml:"api_key"`
	KeyFile          string  `toml:"key_file"`
	Model            string  `toml:"model"`
	BaseURL          string  `toml:"base_url"`
	TimeoutSeconds   int     `toml:"timeout_seconds"`
	Temperature      float64 `toml:"temperature"`
	TopP             float64 `toml:"top_p"`
	TopK             int     `toml:"top_k"`
	RetryAttempts    int     `toml:"retry_attempts"`
	RetryBaseSeconds int     `toml:"retry_base_seconds"`
}

// Translate contains translation provider settings.
type Translate struct {
	Provider       string `toml:"provider"`
	TargetLanguage string `toml:"target_language"`
	Style          string `toml:"style"`
	BatchSize      int    `toml:"batch_size"`
	OpenAIAPIKey   string `toml:"openai_api_key"`
	OpenAIBaseURL  string `toml:"openai_base_url"`
	OpenAIModel    string `toml:"openai_model"`
}

// Subtitles contains cue timing rules and hardsub styling.
type Subtitles struct {
	MaxCueSeconds    float64 `toml:"max_cue_seconds"`
	MinDurationMs    int     `toml:"min_duration_ms"`
	MinGapMs         int     `toml:"min_gap_ms"`
	GapNarrowSeconds float64 `toml:"gap_narrow_seconds"`
	FontName         string  `toml:"font_name"`
	FontSize         int     `toml:"font_size"`
	PrimaryColour    string  `toml:"primary_colour"`
	OutlineColour    string  `toml:"outline_colour"`
	Outline          int     `toml:"outline"`
	Shadow           int     `toml:"shadow"`
	Position         string  `toml:"position"`
}

// FFmpeg contains media tool binaries and encode settings.
type FFmpeg struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoEncoder  string `toml:"video_encoder"`
	CRF           int    `toml:"crf"`
	Preset        string `toml:"preset"`
	AudioBitrate  string `toml:"audio_bitrate"`
}

// Download contains yt-dlp acquisition settings.
type Download struct {
	YtDlpBinary        string `toml:"ytdlp_binary"`
	FormatSort         string `toml:"format_sort"`
	RecodeVideo        string `toml:"recode_video"`
	RestrictTitleBytes int    `toml:"restrict_title_bytes"`
}

// Workflow contains worker timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
}

// Notifications contains webhook notification settings.
type Notifications struct {
	Enabled            bool   `toml:"enabled"`
	WebhookURL         string `toml:"webhook_url"`
	RequestTimeout     int    `toml:"request_timeout"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values.
//
// Configuration sections by subsystem:
//   - Paths: staging, output, log, and download directories
//   - Gemini: Gemini API connection, model, and retry settings
//   - Translate: translation provider, target language, and batching
//   - Subtitles: cue timing rules and hardsub styling
//   - FFmpeg: ffmpeg/ffprobe binaries and encode settings
//   - Download: yt-dlp binary and format selection
//   - Workflow: worker polling intervals and heartbeat timeouts
//   - Notifications: completion/failure webhook settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Gemini        Gemini        `toml:"gemini"`
	Translate     Translate     `toml:"translate"`
	Subtitles     Subtitles     `toml:"subtitles"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Download      Download      `toml:"download"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/easyaisubbing/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("easyaisubbing.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
// DownloadDir is created on a best-effort basis so config load keeps working
// when the download target sits on detached storage.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.DownloadDir) != "" {
		_ = os.MkdirAll(c.Paths.DownloadDir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name or path.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.FFmpeg.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name or path.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.FFmpeg.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

// YtDlpBinary returns the yt-dlp executable name or path.
func (c *Config) YtDlpBinary() string {
	if bin := strings.TrimSpace(c.Download.YtDlpBinary); bin != "" {
		return bin
	}
	return "yt-dlp"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// GeminiOptions contains resolved Gemini client settings.
type GeminiOptions struct {
	APIKey           string
	BaseURL          string
	Model            string
	TimeoutSeconds   int
	Temperature      float64
	TopP             float64
	TopK             int
	RetryAttempts    int
	RetryBaseSeconds int
}

// GeminiOptions returns the resolved Gemini connection settings.
func (c *Config) GeminiOptions() GeminiOptions {
	return GeminiOptions{
		APIKey:           strings.TrimSpace(c.Gemini.APIKey),
		BaseURL:          strings.TrimSpace(c.Gemini.BaseURL),
		Model:            strings.TrimSpace(c.Gemini.Model),
		TimeoutSeconds:   c.Gemini.TimeoutSeconds,
		Temperature:      c.Gemini.Temperature,
		TopP:             c.Gemini.TopP,
		TopK:             c.Gemini.TopK,
		RetryAttempts:    c.Gemini.RetryAttempts,
		RetryBaseSeconds: c.Gemini.RetryBaseSeconds,
	}
}

// HasGeminiKey reports whether a Gemini API credential was resolved from any
// source in the chain (environment, config, key file, .env).
func (c *Config) HasGeminiKey() bool {
	return strings.TrimSpace(c.Gemini.APIKey) != ""
}

// CueRuleOptions contains resolved cue timing thresholds, all in seconds.
// The field set matches the timedtext rules type so the two convert directly.
type CueRuleOptions struct {
	MaxCueSeconds      float64
	MinDurationSeconds float64
	MinGapSeconds      float64
	GapNarrowSeconds   float64
	OverlapGapSeconds  float64
	StartShiftSeconds  float64
}

// CueRules returns the cue timing thresholds with config overrides applied.
// The overlap resolution thresholds are fixed; only the operator-facing
// limits come from the [subtitles] section.
func (c *Config) CueRules() CueRuleOptions {
	rules := CueRuleOptions{
		MaxCueSeconds:      defaultMaxCueSeconds,
		MinDurationSeconds: float64(defaultMinDurationMs) / 1000,
		MinGapSeconds:      float64(defaultMinGapMs) / 1000,
		GapNarrowSeconds:   defaultGapNarrowSeconds,
		OverlapGapSeconds:  defaultOverlapGapSeconds,
		StartShiftSeconds:  defaultStartShiftSeconds,
	}
	if c.Subtitles.MaxCueSeconds > 0 {
		rules.MaxCueSeconds = c.Subtitles.MaxCueSeconds
	}
	if c.Subtitles.MinDurationMs > 0 {
		rules.MinDurationSeconds = float64(c.Subtitles.MinDurationMs) / 1000
	}
	if c.Subtitles.MinGapMs > 0 {
		rules.MinGapSeconds = float64(c.Subtitles.MinGapMs) / 1000
	}
	if c.Subtitles.GapNarrowSeconds > 0 {
		rules.GapNarrowSeconds = c.Subtitles.GapNarrowSeconds
	}
	return rules
}

// SubtitleStyleOptions contains resolved hardsub styling settings. The field
// set matches the ffmpeg style type so the two convert directly.
type SubtitleStyleOptions struct {
	FontName      string
	FontSize      int
	PrimaryColour string
	OutlineColour string
	Outline       int
	Shadow        int
	Position      string
}

// SubtitleStyle returns the hardsub styling from the [subtitles] section.
func (c *Config) SubtitleStyle() SubtitleStyleOptions {
	return SubtitleStyleOptions{
		FontName:      strings.TrimSpace(c.Subtitles.FontName),
		FontSize:      c.Subtitles.FontSize,
		PrimaryColour: strings.TrimSpace(c.Subtitles.PrimaryColour),
		OutlineColour: strings.TrimSpace(c.Subtitles.OutlineColour),
		Outline:       c.Subtitles.Outline,
		Shadow:        c.Subtitles.Shadow,
		Position:      strings.TrimSpace(c.Subtitles.Position),
	}
}
