package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/language"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/media/ffmpeg"
	"easyaisubbing/internal/media/ffprobe"
)

func newExtractAudioCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var startSeconds float64
	var durationSeconds float64

	cmd := &cobra.Command{
		Use:   "extract-audio <media>",
		Short: "Extract a 16 kHz mono WAV ready for transcription",
		Args:  cobra.ExactArgs(1),
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

			probe, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), source)
			if err != nil {
				return fmt.Errorf("probe %s: %w", filepath.Base(source), err)
			}
			if probe.AudioStreamCount() == 0 {
				return fmt.Errorf("%s has no audio streams", filepath.Base(source))
			}

			target, err := resolveOutputPath(outPath, siblingPath(source, ".wav"), source)
			if err != nil {
				return err
			}

			runner := ffmpeg.New(cfg.FFmpegBinary(), logger)
			progress := newProgressPrinter("Extracting")
			err = runner.ExtractAudio(cmd.Context(), ffmpeg.ExtractAudioRequest{
				InputPath:       source,
				OutputPath:      target,
				StartSeconds:    startSeconds,
				DurationSeconds: durationSeconds,
				TotalSeconds:    probe.DurationSeconds(),
				OnProgress:      progress.update,
			})
			progress.done()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted audio: %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output WAV path (default: alongside the source)")
	cmd.Flags().Float64Var(&startSeconds, "start", 0, "Start offset in seconds")
	cmd.Flags().Float64Var(&durationSeconds, "duration", 0, "Segment length in seconds (0 extracts to the end)")
	return cmd
}

func newExtractSubsCommand(ctx *commandContext) *cobra.Command {
	var streamIndex int
	var list bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "extract-subs <video>",
		Short: "Extract an embedded text subtitle track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			probe, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), source)
			if err != nil {
				return fmt.Errorf("probe %s: %w", filepath.Base(source), err)
			}
			subs := probe.SubtitleStreams()
			out := cmd.OutOrStdout()

			if list {
				if len(subs) == 0 {
					fmt.Fprintf(out, "No subtitle streams in %s\n", filepath.Base(source))
					return nil
				}
				rows := make([][]string, 0, len(subs))
				for _, sub := range subs {
					lang := sub.Language
					if lang != "" {
						lang = language.DisplayName(lang)
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", sub.Index),
						sub.Codec,
						lang,
						sub.Title,
						yesNo(sub.Forced),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Stream", "Codec", "Lang", "Title", "Forced"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			}

			if len(subs) == 0 {
				return fmt.Errorf("%s has no subtitle streams", filepath.Base(source))
			}

			selected, ok := pickSubtitleStream(subs, streamIndex)
			if !ok {
				if streamIndex >= 0 {
					return fmt.Errorf("stream %d is not a subtitle stream (use --list to see candidates)", streamIndex)
				}
				return fmt.Errorf("%s has only bitmap subtitles; they need OCR and cannot be extracted", filepath.Base(source))
			}
			if !selected.IsText() {
				return fmt.Errorf("stream %d is a bitmap subtitle (%s); only text tracks can be extracted", selected.Index, selected.Codec)
			}

			target, err := resolveOutputPath(outPath, defaultSubtitlePath(source, selected), source)
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			runner := ffmpeg.New(cfg.FFmpegBinary(), logger)
			if err := runner.ExtractSubtitle(cmd.Context(), ffmpeg.ExtractSubtitleRequest{
				InputPath:   source,
				OutputPath:  target,
				StreamIndex: selected.Index,
			}); err != nil {
				return err
			}
			fmt.Fprintf(out, "Extracted subtitle stream %d: %s\n", selected.Index, target)
			return nil
		},
	}

	cmd.Flags().IntVar(&streamIndex, "stream", -1, "Absolute stream index to extract (default: first subtitle stream)")
	cmd.Flags().BoolVar(&list, "list", false, "List subtitle streams and exit")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output subtitle path")
	return cmd
}

// pickSubtitleStream chooses the requested track, or the first text
// track when no index was given.
func pickSubtitleStream(subs []ffprobe.SubtitleStream, index int) (ffprobe.SubtitleStream, bool) {
	if index >= 0 {
		for _, sub := range subs {
			if sub.Index == index {
				return sub, true
			}
		}
		return ffprobe.SubtitleStream{}, false
	}
	for _, sub := range subs {
		if sub.IsText() {
			return sub, true
		}
	}
	return ffprobe.SubtitleStream{}, false
}

// defaultSubtitlePath names the extracted track after the source, tagging
// the stream language when one is declared.
func defaultSubtitlePath(source string, stream ffprobe.SubtitleStream) string {
	ext := ".srt"
	switch stream.Codec {
	case "ass", "ssa":
		ext = ".ass"
	case "webvtt":
		ext = ".vtt"
	}
	tag := strings.TrimSpace(stream.Language)
	if tag == "" {
		tag = fmt.Sprintf("track%d", stream.Index)
	}
	return siblingPath(source, "."+tag+ext)
}
