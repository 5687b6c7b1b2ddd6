package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/textutil"
	"easyaisubbing/internal/timedtext"
	"easyaisubbing/internal/transcribe"
	"easyaisubbing/internal/translate"
	"easyaisubbing/internal/workflow"
)

// NewStageSet wires every pipeline stage from configuration. The
// Gemini client is shared between the transcriber and the translator
// so both see the same model resolution and retry policy.
func NewStageSet(cfg *config.Config, store *queue.Store, logger *slog.Logger) workflow.StageSet {
	client := gemini.NewClient(gemini.Config(cfg.GeminiOptions()))
	rules := timedtext.Rules(cfg.CueRules())

	return workflow.StageSet{
		Downloader:  NewDownload(cfg, store, logger),
		Extractor:   NewExtractAudio(cfg, store, logger),
		Transcriber: NewTranscribe(cfg, store, logger, transcribe.New(client, rules, logger)),
		Translator:  NewTranslate(cfg, store, logger, newProvider(cfg, client, logger)),
		Converter:   NewConvert(cfg, store, logger),
		Muxer:       NewMux(cfg, store, logger),
	}
}

// newProvider picks the translation backend named in the [translate]
// config section. Anything that is not OpenAI falls back to Gemini.
func newProvider(cfg *config.Config, client *gemini.Client, logger *slog.Logger) translate.Provider {
	if strings.EqualFold(strings.TrimSpace(cfg.Translate.Provider), "openai") {
		return translate.NewOpenAIProvider(translate.OpenAIConfig{
			APIKey:  cfg.Translate.OpenAIAPIKey,
			BaseURL: cfg.Translate.OpenAIBaseURL,
			Model:   cfg.Translate.OpenAIModel,
		}, logger)
	}
	return translate.NewGeminiProvider(client, logger)
}

// persistProgress stores an inline progress update and wraps store
// failures as transient so the manager retries instead of parking the
// item.
func persistProgress(ctx context.Context, store *queue.Store, item *queue.Item, stageName, label, message string, percent float64) error {
	item.SetProgress(label, message, percent)
	if err := store.UpdateProgress(ctx, item); err != nil {
		return services.Wrap(
			services.ErrTransient, stageName, "persist progress",
			"cannot persist "+stageName+" progress", err)
	}
	return nil
}

// progressWriter bridges tool percentage callbacks onto the queue row.
// Updates are sampled in five percent buckets so a chatty ffmpeg or
// yt-dlp run does not turn into a SQLite write per output line, and
// persistence failures are logged rather than surfaced because the
// callback signature has no error return.
type progressWriter struct {
	ctx     context.Context
	store   *queue.Store
	item    *queue.Item
	logger  *slog.Logger
	label   string
	verb    string
	sampler *logging.ProgressSampler
}

func newProgressWriter(ctx context.Context, store *queue.Store, item *queue.Item, logger *slog.Logger, label, verb string) *progressWriter {
	return &progressWriter{
		ctx:     ctx,
		store:   store,
		item:    item,
		logger:  logger,
		label:   label,
		verb:    verb,
		sampler: logging.NewProgressSampler(5),
	}
}

func (w *progressWriter) update(percent float64) {
	if percent < 0 {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if !w.sampler.ShouldLog(percent, w.verb) {
		return
	}
	w.item.SetProgress(w.label, fmt.Sprintf("%s %.0f%%", w.verb, percent), percent)
	if err := w.store.UpdateProgress(w.ctx, w.item); err != nil {
		w.logger.Debug("progress update not persisted", logging.Error(err))
	}
}

// outputBaseName derives the file stem used for artifacts written to
// the output directory: the item title when present, otherwise the
// source file name, otherwise the queue ID.
func outputBaseName(item *queue.Item) string {
	if name := textutil.SanitizeFileName(item.Title); name != "" {
		return name
	}
	if item.SourcePath != "" {
		base := filepath.Base(item.SourcePath)
		if name := textutil.SanitizeFileName(strings.TrimSuffix(base, filepath.Ext(base))); name != "" {
			return name
		}
	}
	return fmt.Sprintf("queue-%d", item.ID)
}

// splitKeywords turns the comma separated metadata field into the
// slice form the prompt builders take.
func splitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

// targetLanguage resolves the per-item target language with the config
// default as fallback.
func targetLanguage(cfg *config.Config, item *queue.Item) string {
	if lang := strings.TrimSpace(item.TargetLang); lang != "" {
		return lang
	}
	return strings.TrimSpace(cfg.Translate.TargetLanguage)
}
