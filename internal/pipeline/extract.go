package pipeline

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/media/ffmpeg"
	"easyaisubbing/internal/media/ffprobe"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/stage"
)

const (
	progressStageExtracting = "Extracting"

	// extractedAudioName is the staging artifact consumed by the
	// transcribe stage.
	extractedAudioName = "audio.wav"
)

// ExtractAudio probes the source and pulls its audio track into the 16
// kHz mono WAV format transcription expects. Audio-only sources run
// through the same path so the transcriber always sees a predictable
// sample rate and a bounded file size.
type ExtractAudio struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	ffmpeg *ffmpeg.FFmpeg
}

// NewExtractAudio builds the extraction stage from the [ffmpeg] config
// section.
func NewExtractAudio(cfg *config.Config, store *queue.Store, logger *slog.Logger) *ExtractAudio {
	e := &ExtractAudio{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "extract-audio"),
	}
	if cfg != nil {
		e.ffmpeg = ffmpeg.New(cfg.FFmpegBinary(), logger)
	}
	return e
}

// SetLogger replaces the stage logger.
func (e *ExtractAudio) SetLogger(logger *slog.Logger) {
	if logger != nil {
		e.logger = logging.NewComponentLogger(logger, "extract-audio")
	}
}

// WithFFmpeg swaps the ffmpeg wrapper, used by tests to inject stub
// runners.
func (e *ExtractAudio) WithFFmpeg(f *ffmpeg.FFmpeg) *ExtractAudio {
	if f != nil {
		e.ffmpeg = f
	}
	return e
}

// Prepare validates wiring and that the source media exists.
func (e *ExtractAudio) Prepare(ctx context.Context, item *queue.Item) error {
	if e.cfg == nil || e.store == nil || e.ffmpeg == nil {
		return services.Wrap(
			services.ErrConfiguration, "extract-audio", "prepare",
			"extract stage is not fully configured", nil)
	}
	if err := stage.RequireFile("extract-audio", item.SourcePath); err != nil {
		return err
	}
	item.InitProgress(progressStageExtracting, "Starting audio extraction")
	return nil
}

// Execute probes the source, records its duration, and writes the
// extracted WAV into the item's staging directory.
func (e *ExtractAudio) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	log := logging.WithContext(ctx, e.logger)

	workDir, err := stage.EnsureWorkDir(item, e.cfg.Paths.StagingDir)
	if err != nil {
		return err
	}

	if err := persistProgress(ctx, e.store, item, "extract-audio",
		progressStageExtracting, "Probing "+filepath.Base(item.SourcePath), 0); err != nil {
		return err
	}

	probe, err := ffprobe.Inspect(ctx, e.cfg.FFprobeBinary(), item.SourcePath)
	if err != nil {
		return services.Wrap(
			services.ErrExternalTool, "extract-audio", "probe media",
			"ffprobe could not inspect "+item.SourcePath, err)
	}
	if probe.AudioStreamCount() == 0 {
		return services.Wrap(
			services.ErrValidation, "extract-audio", "probe media",
			"source has no audio streams", nil)
	}

	duration := probe.DurationSeconds()
	audioPath := filepath.Join(workDir, extractedAudioName)

	writer := newProgressWriter(ctx, e.store, item, log, progressStageExtracting, "Extracting audio")
	if err := e.ffmpeg.ExtractAudio(ctx, ffmpeg.ExtractAudioRequest{
		InputPath:    item.SourcePath,
		OutputPath:   audioPath,
		TotalSeconds: duration,
		OnProgress:   writer.update,
	}); err != nil {
		return services.Wrap(
			services.ErrExternalTool, "extract-audio", "extract audio",
			"ffmpeg could not extract audio", err)
	}
	if info, statErr := os.Stat(audioPath); statErr != nil || info.Size() == 0 {
		return services.Wrap(
			services.ErrExternalTool, "extract-audio", "verify output",
			"extracted audio file is missing or empty", statErr)
	}

	meta := item.Metadata()
	meta.AudioPath = audioPath
	meta.DurationSeconds = duration
	item.SetMetadata(meta)
	item.SetProgressComplete(progressStageExtracting, "Audio extracted")

	log.Info("audio extracted",
		logging.String("source", item.SourcePath),
		logging.String("audio", audioPath),
		logging.Float64("duration_seconds", duration),
		logging.Duration("elapsed", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the stage wiring and that both media binaries
// resolve on PATH.
func (e *ExtractAudio) HealthCheck(ctx context.Context) stage.Health {
	const name = "extract-audio"
	if e.cfg == nil || e.store == nil || e.ffmpeg == nil {
		return stage.Unhealthy(name, "stage is not fully configured")
	}
	if _, err := exec.LookPath(e.cfg.FFmpegBinary()); err != nil {
		return stage.Unhealthy(name, e.cfg.FFmpegBinary()+" not found on PATH")
	}
	if _, err := exec.LookPath(e.cfg.FFprobeBinary()); err != nil {
		return stage.Unhealthy(name, e.cfg.FFprobeBinary()+" not found on PATH")
	}
	return stage.Healthy(name)
}
