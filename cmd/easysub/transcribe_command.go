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
	"easyaisubbing/internal/media/ffmpeg"
	"easyaisubbing/internal/media/ffprobe"
	"easyaisubbing/internal/subtitle"
	"easyaisubbing/internal/timedtext"
	"easyaisubbing/internal/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var targetLang string
	var sourceLang string
	var style string
	var keywords string
	var contextHint string
	var modelOverride string
	var audioOnly bool
	var fixFeedback string
	var outPath string

	cmd := &cobra.Command{
		Use:   "transcribe <media>",
		Short: "Transcribe media into timed target-language subtitles",
		Long: `Transcribe sends the media's audio to Gemini and writes two artifacts
next to the source: a timed transcript (<name>.transcript.txt) and an
SRT subtitle. Video files have their audio extracted first; pass
--audio-only to send the file untouched.

A follow-up run with --fix "feedback" asks the model to correct the
saved transcript instead of transcribing again.`,
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
			if !cfg.HasGeminiKey() {
				return errors.New("no Gemini API key configured; run easysub doctor for setup hints")
			}
			if override := strings.TrimSpace(modelOverride); override != "" {
				adjusted := *cfg
				adjusted.Gemini.Model = override
				cfg = &adjusted
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			lang := resolveTargetLanguage(targetLang, cfg.Translate.TargetLanguage)
			tone := strings.TrimSpace(style)
			if tone == "" {
				tone = cfg.Translate.Style
			}
			terms := splitCommaList(keywords)
			if hint := strings.TrimSpace(contextHint); hint != "" {
				terms = append(terms, hint)
			}

			client := gemini.NewClient(gemini.Config(cfg.GeminiOptions()))
			rules := timedtext.Rules(cfg.CueRules())
			svc := transcribe.New(client, rules, logger)

			transcriptPath := siblingPath(source, ".transcript.txt")
			srtPath, err := resolveOutputPath(outPath, siblingPath(source, "."+language.ToISO2(lang)+".srt"), source)
			if err != nil {
				return err
			}

			var result transcribe.Result
			if feedback := strings.TrimSpace(fixFeedback); feedback != "" {
				current, readErr := os.ReadFile(transcriptPath)
				if readErr != nil {
					if os.IsNotExist(readErr) {
						return fmt.Errorf("no saved transcript at %s; run transcribe without --fix first", transcriptPath)
					}
					return fmt.Errorf("read transcript: %w", readErr)
				}
				result, err = svc.Correct(cmd.Context(), nil, []string{feedback}, string(current), tone)
				if err != nil {
					return err
				}
			} else {
				audioPath, cleanup, prepErr := prepareAudio(cmd, cfg, logger, source, audioOnly)
				if prepErr != nil {
					return prepErr
				}
				if cleanup != nil {
					defer cleanup()
				}
				result, err = svc.Transcribe(cmd.Context(), transcribe.Request{
					AudioPath:  audioPath,
					TargetLang: lang,
					SourceLang: strings.TrimSpace(sourceLang),
					Style:      tone,
					Keywords:   terms,
				})
				if err != nil {
					return err
				}
			}

			if err := fileutil.WriteFileAtomic(transcriptPath, []byte(result.Transcript.String()), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}

			refined, timingIssues := timedtext.RefineTiming(result.Transcript, rules)
			doc, convertIssues := timedtext.ToSRT(refined, rules)
			if len(doc.Cues) == 0 {
				return fmt.Errorf("model reply contained no usable cues; transcript kept at %s", transcriptPath)
			}
			if err := fileutil.WriteFileAtomic(srtPath, subtitle.FormatSRT(doc), 0o644); err != nil {
				return fmt.Errorf("write subtitle: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transcript: %s\n", transcriptPath)
			fmt.Fprintf(out, "Subtitle: %s (%d cues)\n", srtPath, len(doc.Cues))

			issues := append([]timedtext.Issue(nil), result.Issues...)
			issues = append(issues, timingIssues...)
			issues = append(issues, convertIssues...)
			if len(issues) > 0 {
				fmt.Fprintf(out, "%d finding(s):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  %s\n", issue)
				}
				fmt.Fprintln(out, `Re-run with --fix "..." to ask the model for corrections.`)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetLang, "lang", "l", "", "Target subtitle language (default: translate.target_language)")
	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "Spoken language hint (default: auto-detect)")
	cmd.Flags().StringVar(&style, "style", "", "Translation style preset (default: translate.style)")
	cmd.Flags().StringVar(&keywords, "keywords", "", "Comma-separated preferred terms in the target language")
	cmd.Flags().StringVar(&contextHint, "context", "", "Free-form context folded into the terminology hints")
	cmd.Flags().StringVar(&modelOverride, "model", "", "Gemini model override for this run")
	cmd.Flags().BoolVar(&audioOnly, "audio-only", false, "Send the file as-is instead of extracting audio first")
	cmd.Flags().StringVar(&fixFeedback, "fix", "", "Request a correction turn against the saved transcript")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Subtitle output path (default: <source>.<lang>.srt)")
	return cmd
}

// prepareAudio returns the path to send to Gemini. The media's audio is
// normalized to a 16 kHz mono WAV in a staging directory unless
// --audio-only sends the file untouched. The cleanup func removes the
// staging directory when extraction happened.
func prepareAudio(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, source string, audioOnly bool) (string, func(), error) {
	if audioOnly {
		return source, nil, nil
	}
	probe, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), source)
	if err != nil {
		return "", nil, fmt.Errorf("probe %s: %w", filepath.Base(source), err)
	}
	if probe.AudioStreamCount() == 0 {
		return "", nil, fmt.Errorf("%s has no audio streams", filepath.Base(source))
	}

	workDir, err := os.MkdirTemp(cfg.Paths.StagingDir, "transcribe-")
	if err != nil {
		return "", nil, fmt.Errorf("create work directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(workDir) }

	audioPath := filepath.Join(workDir, "audio.wav")
	runner := ffmpeg.New(cfg.FFmpegBinary(), logger)
	progress := newProgressPrinter("Extracting audio")
	err = runner.ExtractAudio(cmd.Context(), ffmpeg.ExtractAudioRequest{
		InputPath:    source,
		OutputPath:   audioPath,
		TotalSeconds: probe.DurationSeconds(),
		OnProgress:   progress.update,
	})
	progress.done()
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return audioPath, cleanup, nil
}
