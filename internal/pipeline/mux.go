package pipeline

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/media/ffmpeg"
	"easyaisubbing/internal/media/ffprobe"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/stage"
)

const progressStageMuxing = "Muxing"

// Mux appends the finished subtitle to the source video as a soft
// track. Stream data is copied, so the output keeps the original
// encode.
type Mux struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	ffmpeg *ffmpeg.FFmpeg
}

// NewMux builds the muxing stage from the [ffmpeg] config section.
func NewMux(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Mux {
	m := &Mux{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "mux"),
	}
	if cfg != nil {
		m.ffmpeg = ffmpeg.New(cfg.FFmpegBinary(), logger)
	}
	return m
}

// SetLogger replaces the stage logger.
func (m *Mux) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logging.NewComponentLogger(logger, "mux")
	}
}

// WithFFmpeg swaps the ffmpeg wrapper, used by tests to inject stub
// runners.
func (m *Mux) WithFFmpeg(f *ffmpeg.FFmpeg) *Mux {
	if f != nil {
		m.ffmpeg = f
	}
	return m
}

// Prepare validates wiring and both mux inputs.
func (m *Mux) Prepare(ctx context.Context, item *queue.Item) error {
	if m.cfg == nil || m.store == nil || m.ffmpeg == nil {
		return services.Wrap(
			services.ErrConfiguration, "mux", "prepare",
			"mux stage is not fully configured", nil)
	}
	if err := stage.RequireFile("mux", item.SourcePath); err != nil {
		return err
	}
	if err := stage.RequireFile("mux", item.SubtitlePath); err != nil {
		return err
	}
	item.InitProgress(progressStageMuxing, "Starting mux")
	return nil
}

// Execute probes the video for existing subtitle tracks and writes the
// muxed output into the output directory.
func (m *Mux) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	log := logging.WithContext(ctx, m.logger)

	outDir := strings.TrimSpace(m.cfg.Paths.OutputDir)
	if outDir == "" {
		return services.Wrap(
			services.ErrConfiguration, "mux", "prepare output",
			"output directory is not configured", nil)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration, "mux", "prepare output",
			"cannot create output directory "+outDir, err)
	}

	if err := persistProgress(ctx, m.store, item, "mux",
		progressStageMuxing, "Probing "+filepath.Base(item.SourcePath), 0); err != nil {
		return err
	}

	probe, err := ffprobe.Inspect(ctx, m.cfg.FFprobeBinary(), item.SourcePath)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool, "mux", "probe media",
			"ffprobe could not inspect "+item.SourcePath, err)
	}
	if probe.VideoStreamCount() == 0 {
		return services.Wrap(
			services.ErrValidation, "mux", "probe media",
			"source has no video streams to mux into", nil)
	}

	total := item.Metadata().DurationSeconds
	if total <= 0 {
		total = probe.DurationSeconds()
	}

	// Matroska accepts any copied stream; only mp4 sources keep their
	// container.
	ext := ".mkv"
	if strings.EqualFold(filepath.Ext(item.SourcePath), ".mp4") {
		ext = ".mp4"
	}
	outPath := filepath.Join(outDir, outputBaseName(item)+".subbed"+ext)

	writer := newProgressWriter(ctx, m.store, item, log, progressStageMuxing, "Muxing")
	muxed, err := m.ffmpeg.Mux(ctx, ffmpeg.MuxRequest{
		VideoPath:         item.SourcePath,
		SubtitlePath:      item.SubtitlePath,
		OutputPath:        outPath,
		Language:          targetLanguage(m.cfg, item),
		ExistingSubtitles: probe.SubtitleStreamCount(),
		TotalSeconds:      total,
		OnProgress:        writer.update,
	})
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool, "mux", "mux subtitles",
			"ffmpeg could not mux the subtitle track", err)
	}

	item.OutputPath = muxed
	item.SetProgressComplete(progressStageMuxing, "Muxed "+filepath.Base(muxed))

	log.Info("mux completed",
		logging.String("video", item.SourcePath),
		logging.String("subtitle", item.SubtitlePath),
		logging.String("output", muxed),
		logging.Duration("elapsed", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the stage wiring and that both media binaries
// resolve on PATH.
func (m *Mux) HealthCheck(ctx context.Context) stage.Health {
	const name = "mux"
	if m.cfg == nil || m.store == nil || m.ffmpeg == nil {
		return stage.Unhealthy(name, "stage is not fully configured")
	}
	if _, err := exec.LookPath(m.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, m.cfg.FFmpegBinary()+" not found on PATH")
	}
	if _, err := exec.LookPath(m.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, m.cfg.FFprobeBinary()+" not found on PATH")
	}
	return stage.Healthy(name)
}
