package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/stage"
)

func (m *Manager) processItem(ctx context.Context, item *queue.Item) error {
	stg, ok := m.nextStageFor(item)
	if !ok {
		return m.finishItem(ctx, item)
	}

	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, item.ID, stg.name, requestID)
	stageLogger := m.stageLogger(stageCtx, stg.name)
	if aware, ok := stg.handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if err := m.transitionToProcessing(stageCtx, stg, item); err != nil {
		stageLogger.Error("failed to transition item to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processing)),
		logging.String("title", strings.TrimSpace(item.Title)),
		logging.String("source", strings.TrimSpace(item.Source())),
	)

	if err := stg.handler.Prepare(ctx, item); err != nil {
		return m.handleStageFailure(ctx, stageLogger, stg, item, err)
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, stg.handler, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		return m.handleStageFailure(ctx, stageLogger, stg, item, execErr)
	}

	finished := false
	if item.Status == stg.processing || item.Status == "" {
		if _, more := m.nextStageFor(item); more {
			item.Status = queue.StatusPending
		} else {
			finished = true
		}
	}
	item.LastHeartbeat = nil
	if finished {
		stageLogger.Info(
			"stage completed",
			logging.String(logging.FieldEventType, "stage_complete"),
			logging.Duration("stage_duration", time.Since(stageStart)),
		)
		return m.finishItem(ctx, item)
	}

	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
		m.setLastError(wrapped)
		return wrapped
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.String("progress_stage", strings.TrimSpace(item.ProgressStage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastItem(item)
	return nil
}

// finishItem marks an item with no remaining stages as completed.
func (m *Manager) finishItem(ctx context.Context, item *queue.Item) error {
	item.Status = queue.StatusCompleted
	item.LastHeartbeat = nil
	completedLabel := deriveStageLabel(queue.StatusCompleted)
	if item.ProgressPercent < 100 {
		item.ProgressPercent = 100
	}
	item.ProgressStage = completedLabel
	if strings.TrimSpace(item.ProgressMessage) == "" {
		item.ProgressMessage = completedLabel
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist completed item: %w", err)
		m.setLastError(wrapped)
		return wrapped
	}
	m.logger.Info("item completed",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("title", strings.TrimSpace(item.Title)),
	)
	m.setLastItem(item)
	m.recordOutcome(true)
	m.notifyItemCompleted(ctx, item)
	m.checkQueueCompletion(ctx)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, item.ID)

	execErr := handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, stg pipelineStage, item *queue.Item) error {
	if stg.processing == "" {
		return errors.New("processing status must not be empty")
	}

	now := time.Now().UTC()
	item.Status = stg.processing
	label := deriveStageLabel(stg.processing)
	item.InitProgress(label, label+" started")
	item.LastHeartbeat = &now
	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastItem(item)
	return nil
}
