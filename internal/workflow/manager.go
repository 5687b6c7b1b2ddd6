package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/notifications"
	"easyaisubbing/internal/queue"
)

// Manager drives queue items through the registered pipeline stages.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	heartbeat *HeartbeatMonitor
	stages    []pipelineStage

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item

	queueActive    bool
	queueStart     time.Time
	processedCount int
	failedCount    int
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	base := logging.NewComponentLogger(logger, "workflow")
	return &Manager{
		cfg:      cfg,
		store:    store,
		logger:   base,
		notifier: notifier,
		heartbeat: NewHeartbeatMonitor(
			store,
			base,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}
