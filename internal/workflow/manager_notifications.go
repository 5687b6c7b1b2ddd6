package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/notifications"
	"easyaisubbing/internal/queue"
)

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("shutting down, notification not sent", logging.String("event", string(event)))
			return
		}
		m.logger.Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

// markQueueActive announces the start of a processing burst exactly once.
// The flag stays set until checkQueueCompletion observes an idle queue.
func (m *Manager) markQueueActive(ctx context.Context) {
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.processedCount = 0
	m.failedCount = 0
	m.mu.Unlock()

	count := 0
	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("queue stats unavailable for start notification",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
		)
	} else {
		count = countWorkItems(stats)
	}
	m.publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": count})
}

// checkQueueCompletion announces the end of a burst once no runnable items
// remain. Review and failed items are parked, so they do not hold the queue
// open.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	m.mu.Lock()
	active := m.queueActive
	m.mu.Unlock()
	if !active {
		return
	}

	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("queue stats unavailable for completion check",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
		return
	}
	if countActiveItems(stats) > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = false
	start := m.queueStart
	m.queueStart = time.Time{}
	processed := m.processedCount
	failed := m.failedCount
	m.mu.Unlock()

	duration := time.Duration(0)
	if !start.IsZero() {
		duration = time.Since(start)
	}
	m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": processed,
		"failed":    failed,
		"duration":  duration,
	})
}

// recordOutcome tallies per-burst results for the completion notification.
func (m *Manager) recordOutcome(succeeded bool) {
	m.mu.Lock()
	if succeeded {
		m.processedCount++
	} else {
		m.failedCount++
	}
	m.mu.Unlock()
}

func (m *Manager) notifyItemCompleted(ctx context.Context, item *queue.Item) {
	output := item.OutputPath
	if output == "" {
		output = item.SubtitlePath
	}
	m.publish(ctx, notifications.EventItemCompleted, notifications.Payload{
		"title":  item.Title,
		"output": output,
	})
}

func (m *Manager) notifyReview(ctx context.Context, item *queue.Item) {
	m.publish(ctx, notifications.EventReview, notifications.Payload{
		"title":  item.Title,
		"reason": item.ReviewReason,
	})
}

func (m *Manager) notifyStageError(ctx context.Context, stageName string, item *queue.Item, stageErr error) {
	if stageErr == nil {
		return
	}
	m.publish(ctx, notifications.EventError, notifications.Payload{
		"error":   stageErr,
		"context": fmt.Sprintf("%s (item #%d)", stageName, item.ID),
	})
}

// countWorkItems counts items that still have pipeline work ahead of them.
func countWorkItems(stats map[queue.Status]int) int {
	total := 0
	for status, count := range stats {
		if status == queue.StatusCompleted || status == queue.StatusFailed || status == queue.StatusReview {
			continue
		}
		total += count
	}
	return total
}

// countActiveItems counts pending plus in-flight items.
func countActiveItems(stats map[queue.Status]int) int {
	total := stats[queue.StatusPending]
	for _, status := range queue.ProcessingStatuses() {
		total += stats[status]
	}
	return total
}
