package logging

import (
	"context"
	"log/slog"

	"easyaisubbing/internal/services"
)

// Shared attribute keys. Every log line about an item carries the same
// names so entries can be grepped across the worker and the CLI.
const (
	FieldComponent     = "component"
	FieldItemID        = "item_id"
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	// FieldEventType marks lifecycle events (stage_start, staging_cleanup).
	FieldEventType = "event_type"
	// FieldErrorHint carries an operator remediation hint next to an error.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts the item, stage, and correlation attributes a
// pipeline context carries.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldItemID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger augmented with ContextFields(ctx).
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
