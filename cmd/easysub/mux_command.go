package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/media/ffmpeg"
	"easyaisubbing/internal/media/ffprobe"
)

func newMuxCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var trackTitle string
	var outPath string

	cmd := &cobra.Command{
		Use:   "mux <video> <subtitle>",
		Short: "Mux a subtitle file into a video as a soft track",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			video, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			sub, err := resolveInputFile(args[1])
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

			probe, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), video)
			if err != nil {
				return fmt.Errorf("probe %s: %w", filepath.Base(video), err)
			}
			if probe.VideoStreamCount() == 0 {
				return fmt.Errorf("%s has no video streams", filepath.Base(video))
			}

			trackLang := resolveTargetLanguage(lang, cfg.Translate.TargetLanguage)
			ext := ".mkv"
			if strings.EqualFold(filepath.Ext(video), ".mp4") {
				ext = ".mp4"
			}
			target, err := resolveOutputPath(outPath, siblingPath(video, ".subbed"+ext), video, sub)
			if err != nil {
				return err
			}

			runner := ffmpeg.New(cfg.FFmpegBinary(), logger)
			progress := newProgressPrinter("Muxing")
			muxed, err := runner.Mux(cmd.Context(), ffmpeg.MuxRequest{
				VideoPath:         video,
				SubtitlePath:      sub,
				OutputPath:        target,
				Language:          trackLang,
				Title:             strings.TrimSpace(trackTitle),
				ExistingSubtitles: probe.SubtitleStreamCount(),
				TotalSeconds:      probe.DurationSeconds(),
				OnProgress:        progress.update,
			})
			progress.done()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Muxed: %s\n", muxed)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Language tag for the new track (default: translate.target_language)")
	cmd.Flags().StringVar(&trackTitle, "title", "", "Track title metadata")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: <video>.subbed.<ext>)")
	return cmd
}
