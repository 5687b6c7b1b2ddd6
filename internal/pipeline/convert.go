package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/fileutil"
	"easyaisubbing/internal/language"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/stage"
	"easyaisubbing/internal/subtitle"
	"easyaisubbing/internal/timedtext"
)

const progressStageConverting = "Converting"

// Convert produces the final subtitle file in the output directory.
// Media items arrive with a timed transcript that gets refined and
// rendered as SRT; subtitle items arrive with a translated file that
// gets normalized and renamed into place.
type Convert struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	rules  timedtext.Rules
}

// NewConvert builds the conversion stage with the cue timing rules
// from the [subtitles] config section.
func NewConvert(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Convert {
	c := &Convert{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "convert"),
	}
	if cfg != nil {
		c.rules = timedtext.Rules(cfg.CueRules())
	}
	return c
}

// SetLogger replaces the stage logger.
func (c *Convert) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logging.NewComponentLogger(logger, "convert")
	}
}

// Prepare validates wiring and that a convertible artifact exists.
func (c *Convert) Prepare(ctx context.Context, item *queue.Item) error {
	if c.cfg == nil || c.store == nil {
		return services.Wrap(
			services.ErrConfiguration, "convert", "prepare",
			"convert stage is not fully configured", nil)
	}
	input := c.inputPath(item)
	if input == "" {
		return services.Wrap(
			services.ErrValidation, "convert", "prepare",
			"item has neither a transcript nor a translated subtitle", nil)
	}
	if err := stage.RequireFile("convert", input); err != nil {
		return err
	}
	item.InitProgress(progressStageConverting, "Starting conversion")
	return nil
}

// Execute writes the final subtitle into the output directory and
// records it as the item's subtitle artifact.
func (c *Convert) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	log := logging.WithContext(ctx, c.logger)

	outDir := strings.TrimSpace(c.cfg.Paths.OutputDir)
	if outDir == "" {
		return services.Wrap(
			services.ErrConfiguration, "convert", "prepare output",
			"output directory is not configured", nil)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(
			services.ErrConfiguration, "convert", "prepare output",
			"cannot create output directory "+outDir, err)
	}

	input := c.inputPath(item)
	if err := persistProgress(ctx, c.store, item, "convert",
		progressStageConverting, "Converting "+filepath.Base(input), 10); err != nil {
		return err
	}

	lang := language.ToISO2(targetLanguage(c.cfg, item))
	base := outputBaseName(item)

	meta := item.Metadata()
	var (
		outPath string
		cues    int
		err     error
	)
	if meta.TranslatedPath != "" {
		outPath, cues, err = c.convertTranslated(meta.TranslatedPath, outDir, base, lang)
	} else {
		outPath, cues, err = c.convertTranscript(log, item.TranscriptPath, outDir, base, lang)
	}
	if err != nil {
		return err
	}

	item.SubtitlePath = outPath
	item.SetProgressComplete(progressStageConverting,
		fmt.Sprintf("Wrote %s with %d cues", filepath.Base(outPath), cues))

	log.Info("conversion completed",
		logging.String("input", input),
		logging.String("output", outPath),
		logging.Int("cues", cues),
		logging.Duration("elapsed", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the stage wiring.
func (c *Convert) HealthCheck(ctx context.Context) stage.Health {
	const name = "convert"
	if c.cfg == nil || c.store == nil {
		return stage.Unhealthy(name, "stage is not fully configured")
	}
	return stage.Healthy(name)
}

// inputPath prefers the translated artifact so subtitle items do not
// fall back to a stale transcript.
func (c *Convert) inputPath(item *queue.Item) string {
	if path := item.Metadata().TranslatedPath; path != "" {
		return path
	}
	return item.TranscriptPath
}

// convertTranscript parses the timed transcript, refines cue timing
// against the configured rules, and renders SRT.
func (c *Convert) convertTranscript(log *slog.Logger, transcriptPath, outDir, base, lang string) (string, int, error) {
	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return "", 0, services.Wrap(
			services.ErrTransient, "convert", "read transcript",
			"cannot read "+transcriptPath, err)
	}

	transcript, issues := timedtext.Parse(string(data))
	if len(transcript) == 0 {
		return "", 0, services.Wrap(
			services.ErrValidation, "convert", "parse transcript",
			"transcript contains no timed lines", nil)
	}

	refined, refineIssues := timedtext.RefineTiming(transcript, c.rules)
	doc, convertIssues := timedtext.ToSRT(refined, c.rules)
	issues = append(issues, refineIssues...)
	issues = append(issues, convertIssues...)
	if len(issues) > 0 {
		log.Warn("conversion adjusted cue timing",
			logging.Int("findings", len(issues)),
			logging.String("first", issues[0].String()),
		)
	}
	if len(doc.Cues) == 0 {
		return "", 0, services.Wrap(
			services.ErrValidation, "convert", "render subtitle",
			"no cues survived timing refinement", nil)
	}

	outPath := filepath.Join(outDir, base+"."+lang+".srt")
	if err := fileutil.WriteFileAtomic(outPath, subtitle.FormatSRT(doc), 0o644); err != nil {
		return "", 0, services.Wrap(
			services.ErrTransient, "convert", "write subtitle",
			"cannot write "+outPath, err)
	}
	return outPath, len(doc.Cues), nil
}

// convertTranslated normalizes a translated SRT into the output
// directory, or copies a translated ASS as-is since its styling is
// already final.
func (c *Convert) convertTranslated(translatedPath, outDir, base, lang string) (string, int, error) {
	data, err := os.ReadFile(translatedPath)
	if err != nil {
		return "", 0, services.Wrap(
			services.ErrTransient, "convert", "read subtitle",
			"cannot read "+translatedPath, err)
	}

	if strings.EqualFold(filepath.Ext(translatedPath), ".ass") {
		script, parseErr := subtitle.ParseASS(data)
		if parseErr != nil {
			return "", 0, services.Wrap(
				services.ErrValidation, "convert", "parse subtitle",
				"cannot parse translated ASS file", parseErr)
		}
		outPath := filepath.Join(outDir, base+"."+lang+".ass")
		if err := fileutil.CopyFileVerified(translatedPath, outPath); err != nil {
			return "", 0, services.Wrap(
				services.ErrTransient, "convert", "write subtitle",
				"cannot copy "+translatedPath+" to "+outPath, err)
		}
		return outPath, len(script.Dialogue()), nil
	}

	doc, parseErr := subtitle.ParseSRT(data, true)
	if parseErr != nil || len(doc.Cues) == 0 {
		return "", 0, services.Wrap(
			services.ErrValidation, "convert", "parse subtitle",
			"translated subtitle is empty or malformed", parseErr)
	}
	outPath := filepath.Join(outDir, base+"."+lang+".srt")
	if err := fileutil.WriteFileAtomic(outPath, subtitle.FormatSRT(doc), 0o644); err != nil {
		return "", 0, services.Wrap(
			services.ErrTransient, "convert", "write subtitle",
			"cannot write "+outPath, err)
	}
	return outPath, len(doc.Cues), nil
}
