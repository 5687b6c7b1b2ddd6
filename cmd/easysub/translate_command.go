package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/fileutil"
	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/language"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/subtitle"
	"easyaisubbing/internal/translate"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var targetLang string
	var sourceLang string
	var style string
	var providerName string
	var batchSize int
	var keywords string
	var outPath string

	cmd := &cobra.Command{
		Use:   "translate <subtitle>",
		Short: "Translate an SRT, ASS, or VTT subtitle file",
		Long: `Translate rewrites the dialogue of a subtitle file in the target
language, preserving all timing. ASS scripts keep their styling and
layout; VTT input is written back as SRT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			data, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read subtitle: %w", err)
			}
			parsed, err := parseSubtitleFile(source, data)
			if err != nil {
				return err
			}
			if len(parsed.lines) == 0 {
				return fmt.Errorf("%s has no dialogue to translate", filepath.Base(source))
			}

			lang := resolveTargetLanguage(targetLang, cfg.Translate.TargetLanguage)
			tone := strings.TrimSpace(style)
			if tone == "" {
				tone = cfg.Translate.Style
			}
			size := batchSize
			if size <= 0 {
				size = cfg.Translate.BatchSize
			}

			provider, err := buildTranslateProvider(cfg, providerName, logger)
			if err != nil {
				return err
			}

			progress := newProgressPrinter("Translating")
			translated, err := provider.Translate(cmd.Context(), translate.Request{
				Lines:      parsed.lines,
				SourceLang: strings.TrimSpace(sourceLang),
				TargetLang: lang,
				Style:      tone,
				Keywords:   splitCommaList(keywords),
				BatchSize:  size,
			}, progress.updateCount)
			progress.done()
			if err != nil {
				return describeProviderError(provider.Name(), err)
			}

			target, err := resolveOutputPath(outPath, siblingPath(source, "."+language.ToISO2(lang)+parsed.outputExt()), source)
			if err != nil {
				return err
			}
			payload, err := parsed.render(translated)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(target, payload, 0o644); err != nil {
				return fmt.Errorf("write subtitle: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Translated %d lines to %s: %s\n", len(parsed.lines), lang, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetLang, "to", "t", "", "Target language (default: translate.target_language)")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "Source language hint (default: auto-detect)")
	cmd.Flags().StringVar(&style, "style", "", "Translation style preset (default: translate.style)")
	cmd.Flags().StringVar(&providerName, "provider", "", "Translation backend: gemini or openai (default: translate.provider)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Lines per request (default: translate.batch_size)")
	cmd.Flags().StringVar(&keywords, "keywords", "", "Comma-separated preferred terms in the target language")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: <source>.<lang>.<ext>)")
	return cmd
}

// translatableFile is a parsed subtitle plus enough structure to write
// the translation back in the right shape.
type translatableFile struct {
	lines  []string
	doc    *subtitle.Document
	script *subtitle.Script
}

func parseSubtitleFile(path string, data []byte) (*translatableFile, error) {
	switch subtitle.DetectFormat(path, data) {
	case subtitle.SRTFormat:
		doc, err := subtitle.ParseSRT(data, true)
		if err != nil {
			return nil, fmt.Errorf("parse SRT: %w", err)
		}
		return &translatableFile{lines: documentLines(doc), doc: doc}, nil
	case subtitle.FormatVTT:
		doc, err := subtitle.ParseVTT(data)
		if err != nil {
			return nil, fmt.Errorf("parse VTT: %w", err)
		}
		return &translatableFile{lines: documentLines(doc), doc: doc}, nil
	case subtitle.FormatASS:
		script, err := subtitle.ParseASS(data)
		if err != nil {
			return nil, fmt.Errorf("parse ASS: %w", err)
		}
		return &translatableFile{lines: subtitle.ExtractDialogue(script), script: script}, nil
	}
	return nil, fmt.Errorf("%s is not a recognized subtitle format", filepath.Base(path))
}

func documentLines(doc *subtitle.Document) []string {
	lines := make([]string, 0, len(doc.Cues))
	for _, cue := range doc.Cues {
		lines = append(lines, cue.Text())
	}
	return lines
}

// outputExt keeps ASS scripts in their native format; everything else is
// written as SRT.
func (f *translatableFile) outputExt() string {
	if f.script != nil {
		return ".ass"
	}
	return ".srt"
}

func (f *translatableFile) render(translated []string) ([]byte, error) {
	if f.script != nil {
		return subtitle.ReassembleASS(f.script, translated)
	}
	if len(translated) != len(f.doc.Cues) {
		return nil, fmt.Errorf("provider returned %d lines for %d cues", len(translated), len(f.doc.Cues))
	}
	for i, cue := range f.doc.Cues {
		cue.Lines = []string{translated[i]}
	}
	return subtitle.FormatSRT(f.doc), nil
}

// buildTranslateProvider picks the backend named on the command line or
// in the [translate] config section.
func buildTranslateProvider(cfg *config.Config, name string, logger *slog.Logger) (translate.Provider, error) {
	selected := strings.TrimSpace(name)
	if selected == "" {
		selected = cfg.Translate.Provider
	}
	switch {
	case strings.EqualFold(selected, "openai"):
		if strings.TrimSpace(cfg.Translate.OpenAIAPIKey) == "" {
			return nil, errors.New("translate.openai_api_key is not configured")
		}
		return translate.NewOpenAIProvider(translate.OpenAIConfig{
			APIKey:  cfg.Translate.OpenAIAPIKey,
			BaseURL: cfg.Translate.OpenAIBaseURL,
			Model:   cfg.Translate.OpenAIModel,
		}, logger), nil
	case selected == "" || strings.EqualFold(selected, "gemini"):
		if !cfg.HasGeminiKey() {
			return nil, errors.New("no Gemini API key configured; run easysub doctor for setup hints")
		}
		return translate.NewGeminiProvider(gemini.NewClient(gemini.Config(cfg.GeminiOptions())), logger), nil
	}
	return nil, fmt.Errorf("unknown translation provider %q (use gemini or openai)", selected)
}

// describeProviderError adds setup hints for the failure classes a user
// can fix themselves.
func describeProviderError(provider string, err error) error {
	switch {
	case gemini.IsInvalidKey(err):
		return fmt.Errorf("%s rejected the API key; check GEMINI_API_KEY or the configured key_file", provider)
	case gemini.IsQuota(err):
		return fmt.Errorf("%s quota exhausted; retry later or switch models: %w", provider, err)
	case gemini.IsBlocked(err):
		return fmt.Errorf("%s declined the content: %w", provider, err)
	}
	return err
}
