package config

import (
	"errors"
	"fmt"
	"strings"
)

var subtitlePositions = []string{
	"Bottom Center",
	"Bottom Left",
	"Bottom Right",
	"Top Center",
	"Top Left",
	"Top Right",
}

// SubtitlePositions returns the accepted hardsub position names.
func SubtitlePositions() []string {
	out := make([]string, len(subtitlePositions))
	copy(out, subtitlePositions)
	return out
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateTranslate(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		return errors.New("gemini.temperature must be between 0 and 2")
	}
	if c.Gemini.TopP < 0 || c.Gemini.TopP > 1 {
		return errors.New("gemini.top_p must be between 0 and 1")
	}
	if c.Gemini.TopK < 0 {
		return errors.New("gemini.top_k must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"gemini.timeout_seconds":    c.Gemini.TimeoutSeconds,
		"gemini.retry_attempts":     c.Gemini.RetryAttempts,
		"gemini.retry_base_seconds": c.Gemini.RetryBaseSeconds,
	})
}

func (c *Config) validateTranslate() error {
	switch c.Translate.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("translate.provider must be \"gemini\" or \"openai\", got %q", c.Translate.Provider)
	}
	if c.Translate.Provider == "openai" {
		if c.Translate.OpenAIAPIKey == "" {
			return errors.New("translate.openai_api_key must be set when translate.provider is \"openai\" (or set OPENAI_API_KEY)")
		}
		if c.Translate.OpenAIModel == "" {
			return errors.New("translate.openai_model must be set when translate.provider is \"openai\"")
		}
	}
	if c.Translate.BatchSize <= 0 {
		return errors.New("translate.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxCueSeconds <= 0 {
		return errors.New("subtitles.max_cue_seconds must be positive")
	}
	if c.Subtitles.MinDurationMs <= 0 {
		return errors.New("subtitles.min_duration_ms must be positive")
	}
	if c.Subtitles.MinGapMs < 0 {
		return errors.New("subtitles.min_gap_ms must be >= 0")
	}
	if c.Subtitles.GapNarrowSeconds*1000 <= float64(c.Subtitles.MinGapMs) {
		return errors.New("subtitles.gap_narrow_seconds must be greater than subtitles.min_gap_ms")
	}
	if c.Subtitles.FontSize <= 0 {
		return errors.New("subtitles.font_size must be positive")
	}
	position := strings.ToLower(c.Subtitles.Position)
	for _, name := range subtitlePositions {
		if strings.ToLower(name) == position {
			c.Subtitles.Position = name
			return nil
		}
	}
	return fmt.Errorf("subtitles.position must be one of %s", strings.Join(subtitlePositions, ", "))
}

func (c *Config) validateFFmpeg() error {
	if c.FFmpeg.CRF < 0 || c.FFmpeg.CRF > 51 {
		return errors.New("ffmpeg.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.RestrictTitleBytes <= 0 {
		return errors.New("download.restrict_title_bytes must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.Enabled && c.Notifications.WebhookURL == "" {
		return errors.New("notifications.webhook_url must be set when notifications.enabled is true")
	}
	if c.Notifications.DedupWindowSeconds < 0 {
		return errors.New("notifications.dedup_window_seconds must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
