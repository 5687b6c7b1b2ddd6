package workflow

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
)

// stageLogger builds a logger scoped to one stage invocation, carrying the
// item, stage, and correlation identifiers from the context.
func (m *Manager) stageLogger(ctx context.Context, stageName string) *slog.Logger {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	return logging.WithContext(ctx, base.With(logging.String(logging.FieldComponent, stageName)))
}

func withStageContext(ctx context.Context, itemID int64, stageName, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithItemID(ctx, itemID)
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

// deriveStageLabel renders a queue status as the progress label shown in
// listings, e.g. "transcribing" becomes "Transcribing".
func deriveStageLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
