package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"easyaisubbing/internal/config"
)

const userAgent = "EasyAISubbing-Go/0.1.0"

// Event enumerates the workflow milestones worth telling the operator about.
type Event string

const (
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
	EventItemCompleted  Event = "item_completed"
	EventReview         Event = "review"
	EventError          Event = "error"
	EventTest           Event = "test"
)

// Payload carries event-specific values consumed by the message renderer.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by an ntfy-style webhook
// when configured. When no webhook URL is configured or notifications are
// disabled, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	url := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if url == "" || !cfg.Notifications.Enabled {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	window := time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second

	return &webhookService{
		endpoint:    url,
		client:      &http.Client{Timeout: timeout},
		dedupWindow: window,
		lastSent:    make(map[string]time.Time),
		now:         time.Now,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type webhookService struct {
	endpoint    string
	client      *http.Client
	dedupWindow time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

// Publish renders the event and delivers it unless an identical message was
// sent within the dedup window.
func (w *webhookService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg := render(event, payload)
	if msg.body == "" {
		return nil
	}
	if w.suppressed(string(event) + "\x00" + msg.body) {
		return nil
	}
	return w.send(ctx, msg)
}

func (w *webhookService) suppressed(key string) bool {
	if w.dedupWindow <= 0 {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if sent, ok := w.lastSent[key]; ok && now.Sub(sent) < w.dedupWindow {
		return true
	}
	for k, sent := range w.lastSent {
		if now.Sub(sent) >= w.dedupWindow {
			delete(w.lastSent, k)
		}
	}
	w.lastSent[key] = now
	return false
}

func render(event Event, payload Payload) message {
	switch event {
	case EventQueueStarted:
		return message{
			title: "Easy AI Subbing - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d items", payloadInt(payload, "count")),
			tags:  []string{"easysub", "queue", "started"},
		}
	case EventQueueCompleted:
		processed := payloadInt(payload, "processed")
		failed := payloadInt(payload, "failed")
		duration := payloadDuration(payload, "duration").Round(time.Second)
		if duration < 0 {
			duration = 0
		}
		if failed == 0 {
			return message{
				title: "Easy AI Subbing - Queue Complete",
				body:  fmt.Sprintf("Queue processing complete: %d items processed in %s", processed, duration),
				tags:  []string{"easysub", "queue", "completed"},
			}
		}
		return message{
			title: "Easy AI Subbing - Queue Complete (with errors)",
			body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, duration),
			tags:  []string{"easysub", "queue", "completed"},
		}
	case EventItemCompleted:
		body := fmt.Sprintf("Subtitles ready: %s", payloadString(payload, "title"))
		if output := payloadString(payload, "output"); output != "" {
			body = fmt.Sprintf("%s\nFile: %s", body, output)
		}
		return message{
			title:    "Easy AI Subbing - Complete",
			body:     body,
			tags:     []string{"easysub", "workflow", "completed"},
			priority: "high",
		}
	case EventReview:
		body := fmt.Sprintf("Needs review: %s", payloadString(payload, "title"))
		if reason := payloadString(payload, "reason"); reason != "" {
			body = fmt.Sprintf("%s\nReason: %s", body, reason)
		}
		return message{
			title: "Easy AI Subbing - Review",
			body:  body,
			tags:  []string{"easysub", "review"},
		}
	case EventError:
		var builder strings.Builder
		builder.WriteString("Error")
		if contextLabel := payloadString(payload, "context"); contextLabel != "" {
			builder.WriteString(" with ")
			builder.WriteString(contextLabel)
		}
		builder.WriteString(": ")
		switch v := payload["error"].(type) {
		case error:
			builder.WriteString(strings.TrimSpace(v.Error()))
		case string:
			builder.WriteString(strings.TrimSpace(v))
		default:
			builder.WriteString("unknown")
		}
		return message{
			title:    "Easy AI Subbing - Error",
			body:     builder.String(),
			tags:     []string{"easysub", "error", "alert"},
			priority: "high",
		}
	case EventTest:
		return message{
			title:    "Easy AI Subbing - Test",
			body:     "Notification system test",
			tags:     []string{"easysub", "test"},
			priority: "low",
		}
	default:
		return message{}
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func payloadInt(payload Payload, key string) int {
	if payload == nil {
		return 0
	}
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func payloadDuration(payload Payload, key string) time.Duration {
	if payload == nil {
		return 0
	}
	if v, ok := payload[key].(time.Duration); ok {
		return v
	}
	return 0
}

func (w *webhookService) send(ctx context.Context, msg message) error {
	if w == nil || w.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
