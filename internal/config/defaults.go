package config

const (
	defaultStagingDir  = "~/.local/share/easyaisubbing/staging"
	defaultOutputDir   = "~/subtitles"
	defaultLogDir      = "~/.local/share/easyaisubbing/app_logs"
	defaultDownloadDir = "~/Downloads/easyaisubbing"

	defaultGeminiKeyFile          = "~/.gemini_srt_key"
	defaultGeminiModel            = "gemini-2.5-flash"
	defaultGeminiBaseURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiTimeoutSeconds   = 300
	defaultGeminiTemperature      = 0.4
	defaultGeminiRetryAttempts    = 3
	defaultGeminiRetryBaseSeconds = 15

	defaultTranslateProvider = "gemini"
	defaultTargetLanguage    = "Vietnamese"
	defaultTranslationStyle  = "Default/Neutral"
	defaultTranslateBatch    = 30

	defaultMaxCueSeconds     = 10.0
	defaultMinDurationMs     = 100
	defaultMinGapMs          = 100
	defaultGapNarrowSeconds  = 0.5
	defaultOverlapGapSeconds = 0.05
	defaultStartShiftSeconds = 0.025
	defaultFontName          = "Arial"
	defaultFontSize          = 24
	defaultPrimaryColour     = "&H00FFFFFF"
	defaultOutlineColour     = "&H00000000"
	defaultOutlineWidth      = 2
	defaultShadowDepth       = 1
	defaultSubtitlePosition  = "Bottom Center"

	defaultVideoEncoder = "libx264"
	defaultCRF          = 23
	defaultEncodePreset = "medium"
	defaultAudioBitrate = "192k"

	defaultFormatSort         = "res,ext:mp4:m4a"
	defaultRecodeVideo        = "mp4"
	defaultRestrictTitleBytes = 200

	defaultQueuePollInterval        = 5
	defaultErrorRetryInterval       = 10
	defaultHeartbeatInterval        = 15
	defaultHeartbeatTimeout         = 120
	defaultNotifyRequestTimeout     = 10
	defaultNotifyDedupWindowSeconds = 300

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		Gemini: Gemini{
			KeyFile:          defaultGeminiKeyFile,
			Model:            defaultGeminiModel,
			BaseURL:          defaultGeminiBaseURL,
			TimeoutSeconds:   defaultGeminiTimeoutSeconds,
			Temperature:      defaultGeminiTemperature,
			RetryAttempts:    defaultGeminiRetryAttempts,
			RetryBaseSeconds: defaultGeminiRetryBaseSeconds,
		},
		Translate: Translate{
			Provider:       defaultTranslateProvider,
			TargetLanguage: defaultTargetLanguage,
			Style:          defaultTranslationStyle,
			BatchSize:      defaultTranslateBatch,
		},
		Subtitles: Subtitles{
			MaxCueSeconds:    defaultMaxCueSeconds,
			MinDurationMs:    defaultMinDurationMs,
			MinGapMs:         defaultMinGapMs,
			GapNarrowSeconds: defaultGapNarrowSeconds,
			FontName:         defaultFontName,
			FontSize:         defaultFontSize,
			PrimaryColour:    defaultPrimaryColour,
			OutlineColour:    defaultOutlineColour,
			Outline:          defaultOutlineWidth,
			Shadow:           defaultShadowDepth,
			Position:         defaultSubtitlePosition,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			VideoEncoder:  defaultVideoEncoder,
			CRF:           defaultCRF,
			Preset:        defaultEncodePreset,
			AudioBitrate:  defaultAudioBitrate,
		},
		Download: Download{
			YtDlpBinary:        "yt-dlp",
			FormatSort:         defaultFormatSort,
			RecodeVideo:        defaultRecodeVideo,
			RestrictTitleBytes: defaultRestrictTitleBytes,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout:     defaultNotifyRequestTimeout,
			DedupWindowSeconds: defaultNotifyDedupWindowSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
