package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/fileutil"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/stage"
	"easyaisubbing/internal/transcribe"
)

const (
	progressStageTranscribing = "Transcribing"

	// transcriptName is the staging artifact holding the timed
	// transcript in the bracket-stamp dialect.
	transcriptName = "transcript.txt"
)

// Transcribe sends the extracted audio to Gemini and writes the timed
// transcript. The transcription prompt asks for the target language
// directly, so for audio sources this stage is also the translation.
type Transcribe struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	svc    *transcribe.Service
}

// NewTranscribe builds the transcription stage around a transcribe
// service.
func NewTranscribe(cfg *config.Config, store *queue.Store, logger *slog.Logger, svc *transcribe.Service) *Transcribe {
	return &Transcribe{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "transcribe"),
		svc:    svc,
	}
}

// SetLogger replaces the stage logger.
func (t *Transcribe) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logging.NewComponentLogger(logger, "transcribe")
	}
}

// Prepare validates wiring, credentials, and the extracted audio
// artifact.
func (t *Transcribe) Prepare(ctx context.Context, item *queue.Item) error {
	if t.cfg == nil || t.store == nil || t.svc == nil {
		return services.Wrap(
			services.ErrConfiguration, "transcribe", "prepare",
			"transcribe stage is not fully configured", nil)
	}
	if !t.cfg.HasGeminiKey() {
		return services.Wrap(
			services.ErrConfiguration, "transcribe", "prepare",
			"Gemini API key is not configured", nil)
	}
	if err := stage.RequireFile("transcribe", item.Metadata().AudioPath); err != nil {
		return err
	}
	item.InitProgress(progressStageTranscribing, "Starting transcription")
	return nil
}

// Execute runs the Gemini transcription call and stores the transcript
// artifact.
func (t *Transcribe) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	log := logging.WithContext(ctx, t.logger)

	workDir, err := stage.EnsureWorkDir(item, t.cfg.Paths.StagingDir)
	if err != nil {
		return err
	}

	lang := targetLanguage(t.cfg, item)
	if lang == "" {
		return services.Wrap(
			services.ErrValidation, "transcribe", "resolve language",
			"no target language on the item or in [translate] config", nil)
	}

	meta := item.Metadata()
	style := strings.TrimSpace(meta.Style)
	if style == "" {
		style = strings.TrimSpace(t.cfg.Translate.Style)
	}

	if err := persistProgress(ctx, t.store, item, "transcribe",
		progressStageTranscribing, "Transcribing with "+t.svc.Model(), 10); err != nil {
		return err
	}

	result, err := t.svc.Transcribe(ctx, transcribe.Request{
		AudioPath:  meta.AudioPath,
		TargetLang: lang,
		SourceLang: meta.SourceLang,
		Style:      style,
		Keywords:   splitKeywords(meta.Keywords),
	})
	if err != nil {
		// The service already classified the failure.
		return err
	}

	transcriptPath := filepath.Join(workDir, transcriptName)
	if err := fileutil.WriteFileAtomic(transcriptPath, []byte(result.Transcript.String()), 0o644); err != nil {
		return services.Wrap(
			services.ErrTransient, "transcribe", "write transcript",
			"cannot write transcript to "+transcriptPath, err)
	}

	item.TranscriptPath = transcriptPath
	meta.Provider = t.svc.Model()
	item.SetMetadata(meta)

	message := fmt.Sprintf("Transcribed %d cues", len(result.Transcript))
	if n := len(result.Issues); n > 0 {
		message = fmt.Sprintf("Transcribed %d cues, %d timing findings", len(result.Transcript), n)
		log.Warn("transcript has timing findings",
			logging.Int("findings", n),
			logging.String("first", result.Issues[0].String()),
		)
	}
	item.SetProgressComplete(progressStageTranscribing, message)

	log.Info("transcription completed",
		logging.String("audio", meta.AudioPath),
		logging.String("transcript", transcriptPath),
		logging.Int("cues", len(result.Transcript)),
		logging.String("model", t.svc.Model()),
		logging.Duration("elapsed", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies wiring and that a Gemini key is present.
func (t *Transcribe) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcribe"
	if t.cfg == nil || t.store == nil || t.svc == nil {
		return stage.Unhealthy(name, "stage is not fully configured")
	}
	if !t.cfg.HasGeminiKey() {
		return stage.Unhealthy(name, "Gemini API key is not configured")
	}
	return stage.Healthy(name)
}
