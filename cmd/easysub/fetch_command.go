package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/fetch"
	"easyaisubbing/internal/logging"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var audioOnly bool
	var dir string
	var cookiesFromBrowser string

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Download a source video or audio track with yt-dlp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := strings.TrimSpace(args[0])
			if !isURL(url) {
				return errors.New("fetch needs an http(s) URL")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			target := strings.TrimSpace(dir)
			if target == "" {
				target = cfg.Paths.DownloadDir
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("ensure download directory: %w", err)
			}

			kind := fetch.KindVideo
			verb := "Downloading"
			if audioOnly {
				kind = fetch.KindAudio
				verb = "Downloading audio"
			}

			fetcher := fetch.New(fetch.Config{
				Binary:             cfg.YtDlpBinary(),
				FormatSort:         cfg.Download.FormatSort,
				RecodeVideo:        cfg.Download.RecodeVideo,
				RestrictTitleBytes: cfg.Download.RestrictTitleBytes,
			}, logger)

			progress := newProgressPrinter(verb)
			result, err := fetcher.Fetch(cmd.Context(), fetch.Options{
				URL:                url,
				Kind:               kind,
				Dir:                target,
				CookiesFromBrowser: strings.TrimSpace(cookiesFromBrowser),
				OnProgress:         progress.update,
			})
			progress.done()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Title != "" {
				fmt.Fprintf(out, "Title: %s\n", result.Title)
			}
			fmt.Fprintf(out, "Downloaded: %s\n", result.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&audioOnly, "audio", false, "Download audio only, post-processed to 16 kHz mono WAV")
	cmd.Flags().StringVar(&dir, "dir", "", "Download directory (default: paths.download_dir)")
	cmd.Flags().StringVar(&cookiesFromBrowser, "cookies-from-browser", "", "Browser (or browser:profile) whose cookies yt-dlp should use")
	return cmd
}
