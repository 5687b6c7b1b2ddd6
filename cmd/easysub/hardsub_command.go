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

func newHardsubCommand(ctx *commandContext) *cobra.Command {
	var scale string
	var encoder string
	var crf int
	var preset string
	var copyAudio bool
	var fontName string
	var fontSize int
	var position string
	var outPath string

	cmd := &cobra.Command{
		Use:   "hardsub <video> <subtitle>",
		Short: "Burn subtitles into the video stream",
		Long: `Hardsub re-encodes the video with the subtitles rendered into the
picture. Styling defaults come from the [subtitles] config section and
can be overridden per run.`,
		Args: cobra.ExactArgs(2),
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

			style := ffmpeg.Style(cfg.SubtitleStyle())
			if name := strings.TrimSpace(fontName); name != "" {
				style.FontName = name
			}
			if fontSize > 0 {
				style.FontSize = fontSize
			}
			if pos := strings.TrimSpace(position); pos != "" {
				style.Position = pos
			}

			enc := strings.TrimSpace(encoder)
			if enc == "" {
				enc = cfg.FFmpeg.VideoEncoder
			}
			pre := strings.TrimSpace(preset)
			if pre == "" {
				pre = cfg.FFmpeg.Preset
			}
			quality := crf
			if quality <= 0 {
				quality = cfg.FFmpeg.CRF
			}

			target, err := resolveOutputPath(outPath, siblingPath(video, ".hardsub.mp4"), video, sub)
			if err != nil {
				return err
			}

			runner := ffmpeg.New(cfg.FFmpegBinary(), logger)
			progress := newProgressPrinter("Encoding")
			burned, err := runner.Hardsub(cmd.Context(), ffmpeg.HardsubRequest{
				VideoPath:    video,
				SubtitlePath: sub,
				OutputPath:   target,
				Style:        style,
				Scale:        strings.TrimSpace(scale),
				Encoder:      enc,
				Preset:       pre,
				CRF:          quality,
				EncodeAudio:  !copyAudio,
				TotalSeconds: probe.DurationSeconds(),
				OnProgress:   progress.update,
			})
			progress.done()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hardsubbed: %s\n", burned)
			return nil
		},
	}

	cmd.Flags().StringVar(&scale, "scale", "", "Output resolution, e.g. 1280x720 (default: source resolution)")
	cmd.Flags().StringVar(&encoder, "encoder", "", "Video encoder (default: ffmpeg.video_encoder)")
	cmd.Flags().IntVar(&crf, "crf", 0, "Constant rate factor (default: ffmpeg.crf)")
	cmd.Flags().StringVar(&preset, "preset", "", "Encoder preset (default: ffmpeg.preset)")
	cmd.Flags().BoolVar(&copyAudio, "copy-audio", false, "Copy the audio stream instead of re-encoding to AAC")
	cmd.Flags().StringVar(&fontName, "font", "", "Subtitle font name override")
	cmd.Flags().IntVar(&fontSize, "font-size", 0, "Subtitle font size override")
	cmd.Flags().StringVar(&position, "position", "", "Subtitle position, e.g. \"Bottom Center\"")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: <video>.hardsub.mp4)")
	return cmd
}
