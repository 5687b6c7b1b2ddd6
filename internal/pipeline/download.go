package pipeline

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/fetch"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/stage"
)

const progressStageDownloading = "Downloading"

// Download acquires a queued URL with yt-dlp and records the local
// media path so the rest of the pipeline can treat the item like a
// local file.
type Download struct {
	cfg     *config.Config
	store   *queue.Store
	logger  *slog.Logger
	fetcher *fetch.Fetcher
}

// NewDownload builds the download stage. The fetcher is constructed
// from the [download] config section.
func NewDownload(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Download {
	d := &Download{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "download"),
	}
	if cfg != nil {
		d.fetcher = fetch.New(fetch.Config{
			Binary:             cfg.YtDlpBinary(),
			FormatSort:         cfg.Download.FormatSort,
			RecodeVideo:        cfg.Download.RecodeVideo,
			RestrictTitleBytes: cfg.Download.RestrictTitleBytes,
		}, logger)
	}
	return d
}

// SetLogger replaces the stage logger.
func (d *Download) SetLogger(logger *slog.Logger) {
	if logger != nil {
		d.logger = logging.NewComponentLogger(logger, "download")
	}
}

// WithFetcher swaps the yt-dlp wrapper, used by tests to inject stub
// runners.
func (d *Download) WithFetcher(fetcher *fetch.Fetcher) *Download {
	if fetcher != nil {
		d.fetcher = fetcher
	}
	return d
}

// Prepare validates wiring and the item's URL before work starts.
func (d *Download) Prepare(ctx context.Context, item *queue.Item) error {
	if d.cfg == nil || d.store == nil || d.fetcher == nil {
		return services.Wrap(
			services.ErrConfiguration, "download", "prepare",
			"download stage is not fully configured", nil)
	}
	if strings.TrimSpace(item.SourceURL) == "" {
		return services.Wrap(
			services.ErrValidation, "download", "prepare",
			"queue item has no source URL", nil)
	}
	item.InitProgress(progressStageDownloading, "Starting download")
	return nil
}

// Execute runs yt-dlp and stores the resulting path and title on the
// item.
func (d *Download) Execute(ctx context.Context, item *queue.Item) error {
	stageStart := time.Now()
	log := logging.WithContext(ctx, d.logger)

	dir := strings.TrimSpace(d.cfg.Paths.DownloadDir)
	if dir == "" {
		workDir, err := stage.EnsureWorkDir(item, d.cfg.Paths.StagingDir)
		if err != nil {
			return err
		}
		dir = workDir
	}

	if err := persistProgress(ctx, d.store, item, "download",
		progressStageDownloading, "Contacting "+item.SourceURL, 0); err != nil {
		return err
	}

	writer := newProgressWriter(ctx, d.store, item, log, progressStageDownloading, "Downloading")
	result, err := d.fetcher.Fetch(ctx, fetch.Options{
		URL:        item.SourceURL,
		Kind:       fetch.KindVideo,
		Dir:        dir,
		OnProgress: writer.update,
	})
	if err != nil {
		// The fetcher already classified the failure.
		return err
	}

	item.SourcePath = result.Path
	if item.Title == "" && result.Title != "" {
		item.Title = result.Title
	}
	item.SetProgressComplete(progressStageDownloading, "Download completed")

	log.Info("download completed",
		logging.String("url", item.SourceURL),
		logging.String("path", result.Path),
		logging.Duration("elapsed", time.Since(stageStart)),
	)
	return nil
}

// HealthCheck verifies the stage wiring and that the yt-dlp binary
// resolves on PATH.
func (d *Download) HealthCheck(ctx context.Context) stage.Health {
	const name = "download"
	if d.cfg == nil || d.store == nil || d.fetcher == nil {
		return stage.Unhealthy(name, "stage is not fully configured")
	}
	if _, err := exec.LookPath(d.cfg.YtDlpBinary()); err != nil {
		return stage.Unhealthy(name, d.cfg.YtDlpBinary()+" not found on PATH")
	}
	return stage.Healthy(name)
}
