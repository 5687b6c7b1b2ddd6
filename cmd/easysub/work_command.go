package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/pipeline"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/workflow"
)

// lockFileName guards against two workers sharing one queue database.
const lockFileName = "easysub.lock"

const stopTimeout = 10 * time.Second

func newWorkCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Run the queue worker in the foreground",
		Long: `Work processes queue items through the download, extract, transcribe,
translate, convert, and mux stages until interrupted. Only one worker
may run per machine; a second invocation exits immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logging.PruneOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, lockFileName))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire worker lock: %w", err)
			}
			if !locked {
				return errors.New("another easysub worker is already running")
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("release worker lock", logging.Error(err))
				}
			}()

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue store: %w", err)
			}
			defer store.Close()

			manager := workflow.NewManager(cfg, store, logger)
			manager.ConfigureStages(pipeline.NewStageSet(cfg, store, logger))

			if once {
				return manager.ProcessOnce(signalCtx)
			}

			if err := manager.Start(signalCtx); err != nil {
				return err
			}
			logger.Info("worker started",
				logging.String("log_file", logging.FilePath(cfg)))

			<-signalCtx.Done()
			logger.Info("worker shutting down")

			stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
			defer cancelStop()
			return manager.Stop(stopCtx)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Drain the queue once and exit")
	return cmd
}
