package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/fileutil"
	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/stage"
	"easyaisubbing/internal/subtitle"
	"easyaisubbing/internal/translate"
)

const progressStageTranslating = "Translating"

// Translate runs queued subtitle files through a translation provider.
// Audio and URL items never reach this stage because their
// transcription already lands in the target language.
type Translate struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	provider translate.Provider
}

// NewTranslate builds the translation stage around a provider.
func NewTranslate(cfg *config.Config, store *queue.Store, logger *slog.Logger, provider translate.Provider) *Translate {
	return &Translate{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "translate"),
		provider: provider,
	}
}

// SetLogger replaces the stage logger.
func (t *Translate) SetLogger(logger *slog.Logger) {
	if logger != nil {
		t.logger = logging.NewComponentLogger(logger, "translate")
	}
}

// WithProvider swaps the translation backend, used by tests.
func (t *Translate) WithProvider(provider translate.Provider) *Translate {
	if provider != nil {
		t.provider = provider
	}
	return t
}

// Prepare validates wiring and the subtitle input file.
func (t *Translate) Prepare(ctx context.Context, item *queue.Item) error {
	if t.cfg == nil || t.store == nil || t.provider == nil {
		return services.Wrap(
			services.ErrConfiguration, "translate", "prepare",
			"translate stage is not fully configured", nil)
	}
	if err := stage.RequireFile("translate", item.SourcePath); err != nil {
		return err
	}
	item.InitProgress(progressStageTranslating, "Starting translation")
	return nil
}

// Execute parses the subtitle file, translates its dialogue, and
// writes the translated artifact into the staging directory. SRT and
// VTT inputs come back as SRT; ASS inputs keep their styling and come
// back as ASS.
func (t *Translate) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	log := logging.WithContext(ctx, t.logger)

	workDir, err := stage.EnsureWorkDir(item, t.cfg.Paths.StagingDir)
	if err != nil {
		return err
	}

	lang := targetLanguage(t.cfg, item)
	if lang == "" {
		return services.Wrap(
			services.ErrValidation, "translate", "resolve language",
			"no target language on the item or in [translate] config", nil)
	}

	data, err := os.ReadFile(item.SourcePath)
	if err != nil {
		return services.Wrap(
			services.ErrTransient, "translate", "read subtitle",
			"cannot read "+item.SourcePath, err)
	}

	parsed, err := parseSubtitleSource(item.SourcePath, data)
	if err != nil {
		return err
	}
	if len(parsed.lines) == 0 {
		return services.Wrap(
			services.ErrValidation, "translate", "parse subtitle",
			"subtitle file has no dialogue to translate", nil)
	}

	meta := item.Metadata()
	style := meta.Style
	if style == "" {
		style = t.cfg.Translate.Style
	}

	if err := persistProgress(ctx, t.store, item, "translate",
		progressStageTranslating,
		fmt.Sprintf("Translating %d lines to %s", len(parsed.lines), lang), 0); err != nil {
		return err
	}

	writer := newProgressWriter(ctx, t.store, item, log, progressStageTranslating, "Translating")
	translated, err := t.provider.Translate(ctx, translate.Request{
		Lines:      parsed.lines,
		SourceLang: meta.SourceLang,
		TargetLang: lang,
		Style:      style,
		Keywords:   splitKeywords(meta.Keywords),
		BatchSize:  t.cfg.Translate.BatchSize,
	}, func(done, total int) {
		if total > 0 {
			writer.update(float64(done) / float64(total) * 100)
		}
	})
	if err != nil {
		return wrapProviderError(t.provider.Name(), err)
	}

	outPath, err := parsed.reassemble(workDir, translated)
	if err != nil {
		return err
	}

	meta.TranslatedPath = outPath
	item.SetMetadata(meta)
	item.SetProgressComplete(progressStageTranslating,
		fmt.Sprintf("Translated %d lines", len(translated)))

	log.Info("translation completed",
		logging.String("source", item.SourcePath),
		logging.String("translated", outPath),
		logging.Int("lines", len(translated)),
		logging.String("provider", t.provider.Name()),
		logging.Duration("elapsed", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the stage wiring.
func (t *Translate) HealthCheck(ctx context.Context) stage.Health {
	const name = "translate"
	if t.cfg == nil || t.store == nil || t.provider == nil {
		return stage.Unhealthy(name, "stage is not fully configured")
	}
	return stage.Healthy(name)
}

// parsedSubtitle carries the flattened dialogue plus enough structure
// to rebuild the file with translated text in place.
type parsedSubtitle struct {
	lines  []string
	doc    *subtitle.Document
	script *subtitle.Script
}

func parseSubtitleSource(path string, data []byte) (*parsedSubtitle, error) {
	switch subtitle.DetectFormat(path, data) {
	case subtitle.SRTFormat:
		doc, err := subtitle.ParseSRT(data, true)
		if err != nil {
			return nil, services.Wrap(
				services.ErrValidation, "translate", "parse subtitle",
				"cannot parse SRT file", err)
		}
		return &parsedSubtitle{lines: cueTexts(doc), doc: doc}, nil
	case subtitle.FormatVTT:
		doc, err := subtitle.ParseVTT(data)
		if err != nil {
			return nil, services.Wrap(
				services.ErrValidation, "translate", "parse subtitle",
				"cannot parse VTT file", err)
		}
		return &parsedSubtitle{lines: cueTexts(doc), doc: doc}, nil
	case subtitle.FormatASS:
		script, err := subtitle.ParseASS(data)
		if err != nil {
			return nil, services.Wrap(
				services.ErrValidation, "translate", "parse subtitle",
				"cannot parse ASS file", err)
		}
		return &parsedSubtitle{lines: subtitle.ExtractDialogue(script), script: script}, nil
	default:
		return nil, services.Wrap(
			services.ErrValidation, "translate", "parse subtitle",
			"unrecognized subtitle format: "+filepath.Base(path), nil)
	}
}

func cueTexts(doc *subtitle.Document) []string {
	lines := make([]string, 0, len(doc.Cues))
	for _, cue := range doc.Cues {
		lines = append(lines, cue.Text())
	}
	return lines
}

// reassemble writes the translated artifact and returns its path. SRT
// and VTT documents are rendered as SRT; ASS scripts keep their header
// and styling with only the dialogue text replaced.
func (p *parsedSubtitle) reassemble(workDir string, translated []string) (string, error) {
	if p.script != nil {
		out, err := subtitle.ReassembleASS(p.script, translated)
		if err != nil {
			return "", services.Wrap(
				services.ErrExternalTool, "translate", "reassemble subtitle",
				"translated line count does not match the dialogue", err)
		}
		path := filepath.Join(workDir, "translated.ass")
		if err := fileutil.WriteFileAtomic(path, out, 0o644); err != nil {
			return "", services.Wrap(
				services.ErrTransient, "translate", "write subtitle",
				"cannot write "+path, err)
		}
		return path, nil
	}

	if len(translated) != len(p.doc.Cues) {
		return "", services.Wrap(
			services.ErrExternalTool, "translate", "reassemble subtitle",
			fmt.Sprintf("provider returned %d lines for %d cues", len(translated), len(p.doc.Cues)), nil)
	}
	for i, cue := range p.doc.Cues {
		cue.Lines = []string{translated[i]}
	}
	path := filepath.Join(workDir, "translated.srt")
	if err := fileutil.WriteFileAtomic(path, subtitle.FormatSRT(p.doc), 0o644); err != nil {
		return "", services.Wrap(
			services.ErrTransient, "translate", "write subtitle",
			"cannot write "+path, err)
	}
	return path, nil
}

// wrapProviderError classifies plain provider errors with the services
// sentinels. Gemini predicates match through wrapped errors; other
// providers fall through to the external tool marker.
func wrapProviderError(provider string, err error) error {
	marker := services.ErrExternalTool
	message := provider + " translation failed"
	switch {
	case gemini.IsInvalidKey(err):
		marker = services.ErrConfiguration
		message = provider + " rejected the API key"
	case gemini.IsBlocked(err):
		marker = services.ErrValidation
		message = "content was blocked by safety filters"
	case gemini.IsQuota(err):
		marker = services.ErrTransient
		message = provider + " quota exhausted"
	case gemini.IsDeadline(err):
		marker = services.ErrTimeout
		message = provider + " request timed out"
	}
	return services.Wrap(marker, "translate", "translate lines", message, err)
}
