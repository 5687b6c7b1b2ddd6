package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeGemini(); err != nil {
		return err
	}
	c.normalizeTranslate()
	c.normalizeSubtitles()
	c.normalizeFFmpeg()
	c.normalizeDownload()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DownloadDir) == "" {
		c.Paths.DownloadDir = defaultDownloadDir
	}
	if c.Paths.DownloadDir, err = expandPath(c.Paths.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	return nil
}

// normalizeGemini resolves the API credential chain. The environment wins over
// the config file so a shell export can override a stored key; the key file
// and a local .env file are fallbacks for keyless configs.
func (c *Config) normalizeGemini() error {
	var err error
	if strings.TrimSpace(c.Gemini.KeyFile) == "" {
		c.Gemini.KeyFile = defaultGeminiKeyFile
	}
	if c.Gemini.KeyFile, err = expandPath(c.Gemini.KeyFile); err != nil {
		return fmt.Errorf("gemini.key_file: %w", err)
	}

	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Gemini.APIKey = strings.TrimSpace(value)
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = readKeyFile(c.Gemini.KeyFile)
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = readDotEnvKey(".env", "GEMINI_API_KEY")
	}

	c.Gemini.BaseURL = strings.TrimSpace(strings.TrimSuffix(c.Gemini.BaseURL, "/"))
	if c.Gemini.BaseURL == "" {
		c.Gemini.BaseURL = defaultGeminiBaseURL
	}
	c.Gemini.Model = strings.TrimSpace(c.Gemini.Model)
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaultGeminiModel
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		c.Gemini.TimeoutSeconds = defaultGeminiTimeoutSeconds
	}
	if c.Gemini.RetryAttempts <= 0 {
		c.Gemini.RetryAttempts = defaultGeminiRetryAttempts
	}
	if c.Gemini.RetryBaseSeconds <= 0 {
		c.Gemini.RetryBaseSeconds = defaultGeminiRetryBaseSeconds
	}
	return nil
}

func (c *Config) normalizeTranslate() {
	c.Translate.Provider = strings.ToLower(strings.TrimSpace(c.Translate.Provider))
	if c.Translate.Provider == "" {
		c.Translate.Provider = defaultTranslateProvider
	}
	c.Translate.TargetLanguage = strings.TrimSpace(c.Translate.TargetLanguage)
	if c.Translate.TargetLanguage == "" {
		c.Translate.TargetLanguage = defaultTargetLanguage
	}
	c.Translate.Style = strings.TrimSpace(c.Translate.Style)
	if c.Translate.Style == "" {
		c.Translate.Style = defaultTranslationStyle
	}
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = defaultTranslateBatch
	}
	c.Translate.OpenAIAPIKey = strings.TrimSpace(c.Translate.OpenAIAPIKey)
	if c.Translate.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Translate.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.Translate.OpenAIBaseURL = strings.TrimSpace(c.Translate.OpenAIBaseURL)
	c.Translate.OpenAIModel = strings.TrimSpace(c.Translate.OpenAIModel)
}

func (c *Config) normalizeSubtitles() {
	if c.Subtitles.MaxCueSeconds <= 0 {
		c.Subtitles.MaxCueSeconds = defaultMaxCueSeconds
	}
	if c.Subtitles.MinDurationMs <= 0 {
		c.Subtitles.MinDurationMs = defaultMinDurationMs
	}
	if c.Subtitles.MinGapMs < 0 {
		c.Subtitles.MinGapMs = defaultMinGapMs
	}
	if c.Subtitles.GapNarrowSeconds <= 0 {
		c.Subtitles.GapNarrowSeconds = defaultGapNarrowSeconds
	}
	c.Subtitles.FontName = strings.TrimSpace(c.Subtitles.FontName)
	if c.Subtitles.FontName == "" {
		c.Subtitles.FontName = defaultFontName
	}
	if c.Subtitles.FontSize <= 0 {
		c.Subtitles.FontSize = defaultFontSize
	}
	c.Subtitles.PrimaryColour = strings.TrimSpace(c.Subtitles.PrimaryColour)
	if c.Subtitles.PrimaryColour == "" {
		c.Subtitles.PrimaryColour = defaultPrimaryColour
	}
	c.Subtitles.OutlineColour = strings.TrimSpace(c.Subtitles.OutlineColour)
	if c.Subtitles.OutlineColour == "" {
		c.Subtitles.OutlineColour = defaultOutlineColour
	}
	if c.Subtitles.Outline < 0 {
		c.Subtitles.Outline = defaultOutlineWidth
	}
	if c.Subtitles.Shadow < 0 {
		c.Subtitles.Shadow = defaultShadowDepth
	}
	c.Subtitles.Position = strings.TrimSpace(c.Subtitles.Position)
	if c.Subtitles.Position == "" {
		c.Subtitles.Position = defaultSubtitlePosition
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.FFmpegBinary = strings.TrimSpace(c.FFmpeg.FFmpegBinary)
	if c.FFmpeg.FFmpegBinary == "" {
		c.FFmpeg.FFmpegBinary = "ffmpeg"
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = "ffprobe"
	}
	c.FFmpeg.VideoEncoder = strings.TrimSpace(c.FFmpeg.VideoEncoder)
	if c.FFmpeg.VideoEncoder == "" {
		c.FFmpeg.VideoEncoder = defaultVideoEncoder
	}
	if c.FFmpeg.CRF <= 0 {
		c.FFmpeg.CRF = defaultCRF
	}
	c.FFmpeg.Preset = strings.TrimSpace(c.FFmpeg.Preset)
	if c.FFmpeg.Preset == "" {
		c.FFmpeg.Preset = defaultEncodePreset
	}
	c.FFmpeg.AudioBitrate = strings.TrimSpace(c.FFmpeg.AudioBitrate)
	if c.FFmpeg.AudioBitrate == "" {
		c.FFmpeg.AudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeDownload() {
	c.Download.YtDlpBinary = strings.TrimSpace(c.Download.YtDlpBinary)
	if c.Download.YtDlpBinary == "" {
		c.Download.YtDlpBinary = "yt-dlp"
	}
	c.Download.FormatSort = strings.TrimSpace(c.Download.FormatSort)
	if c.Download.FormatSort == "" {
		c.Download.FormatSort = defaultFormatSort
	}
	c.Download.RecodeVideo = strings.ToLower(strings.TrimSpace(c.Download.RecodeVideo))
	if c.Download.RecodeVideo == "" {
		c.Download.RecodeVideo = defaultRecodeVideo
	}
	if c.Download.RestrictTitleBytes <= 0 {
		c.Download.RestrictTitleBytes = defaultRestrictTitleBytes
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.WebhookURL = strings.TrimSpace(c.Notifications.WebhookURL)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		c.Notifications.DedupWindowSeconds = defaultNotifyDedupWindowSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// readKeyFile returns the first non-empty line of the file, or "" when the
// file is absent or unreadable.
func readKeyFile(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line
		}
	}
	return ""
}

// readDotEnvKey scans a dotenv-style file for the named variable. Only simple
// KEY=value lines are recognized; values may be quoted.
func readDotEnvKey(path, key string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		name, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(name) != key {
			continue
		}
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if value != "" {
			return value
		}
	}
	return ""
}
