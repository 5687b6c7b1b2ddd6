package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	reset, err := m.store.ResetStuckProcessing(runCtx)
	if err != nil {
		cancel()
		m.mu.Lock()
		m.running = false
		m.cancel = nil
		m.mu.Unlock()
		return fmt.Errorf("reset stuck items: %w", err)
	}
	if reset > 0 {
		m.logger.Info("returned stuck items to pending", logging.Int64("count", reset))
	}

	m.wg.Add(1)
	go m.runLoop(runCtx)
	m.logger.Info("workflow started")
	return nil
}

// Stop halts processing and returns in-flight items to pending so the next
// start resumes them from their last finished artifact.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()

	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		return fmt.Errorf("reset in-flight items: %w", err)
	}
	if reset > 0 {
		m.logger.Info("returned in-flight items to pending", logging.Int64("count", reset))
	}
	m.logger.Info("workflow stopped")
	return nil
}

// ProcessOnce advances pending items until the queue has no runnable work.
// Used by one-shot invocations that drain the queue and exit.
func (m *Manager) ProcessOnce(ctx context.Context) error {
	if len(m.stages) == 0 {
		return errors.New("workflow stages not configured")
	}
	if _, err := m.store.ResetStuckProcessing(ctx); err != nil {
		return fmt.Errorf("reset stuck items: %w", err)
	}
	for {
		processed, err := m.processNext(ctx)
		if err != nil {
			return err
		}
		if !processed {
			return nil
		}
	}
}

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	poll := time.Duration(m.cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	retry := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = poll
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		if err := m.heartbeat.ReclaimStaleItems(ctx, m.logger, queue.ProcessingStatuses()); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("reclaim stale processing failed; stuck items may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		processed, err := m.processNext(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			m.setLastError(err)
			m.logger.Error("queue processing error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			if !sleepContext(ctx, retry) {
				return
			}
			continue
		case processed:
			// Drain available work before idling.
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// processNext claims the oldest pending item and advances it one stage.
func (m *Manager) processNext(ctx context.Context) (bool, error) {
	item, err := m.store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		return false, fmt.Errorf("fetch next item: %w", err)
	}
	if item == nil {
		m.checkQueueCompletion(ctx)
		return false, nil
	}
	m.markQueueActive(ctx)
	if err := m.processItem(ctx, item); err != nil {
		return true, err
	}
	return true, nil
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item != nil {
		copied := *item
		m.lastItem = &copied
	} else {
		m.lastItem = nil
	}
	m.mu.Unlock()
}
