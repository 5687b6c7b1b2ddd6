package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
)

// handleStageFailure parks the item as failed or review depending on the
// error classification, persists it, and notifies. A nil return means the
// failure was absorbed into item state.
func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item, stageErr error) error {
	m.setLastError(stageErr)

	resolved := services.FailureStatus(stageErr)
	message := m.classifyStageFailure(stg.name, stageErr)
	if resolved == queue.StatusReview {
		item.SetReview(message)
	} else {
		item.SetFailed(message)
	}

	stageLogger.Error("stage failed",
		logging.Error(stageErr),
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(item.Status)),
		logging.String("error_message", strings.TrimSpace(message)),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("shutting down, could not persist stage failure")
			return err
		}
		wrapped := fmt.Errorf("persist stage failure: %w", err)
		stageLogger.Error("failed to persist stage failure", logging.Error(wrapped))
		return wrapped
	}

	m.setLastItem(item)
	m.recordOutcome(false)
	if resolved == queue.StatusReview {
		m.notifyReview(ctx, item)
	} else {
		m.notifyStageError(ctx, stg.name, item, stageErr)
	}
	m.checkQueueCompletion(ctx)
	return nil
}

func (m *Manager) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	message := strings.TrimSpace(services.Message(stageErr))
	if message == "" {
		message = stageName + " failed"
	}
	return message
}
