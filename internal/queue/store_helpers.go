package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, kind, source_path, source_url, title, target_lang, status, progress_stage, progress_percent, progress_message, error_message, needs_review, review_reason, output_path, transcript_path, subtitle_path, metadata_json, created_at, updated_at, last_heartbeat"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		kindStr          sql.NullString
		sourcePath       sql.NullString
		sourceURL        sql.NullString
		title            sql.NullString
		targetLang       sql.NullString
		statusStr        string
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		errorMessage     sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
		outputPath       sql.NullString
		transcriptPath   sql.NullString
		subtitlePath     sql.NullString
		metadata         sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&kindStr,
		&sourcePath,
		&sourceURL,
		&title,
		&targetLang,
		&statusStr,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&errorMessage,
		&needsReview,
		&reviewReason,
		&outputPath,
		&transcriptPath,
		&subtitlePath,
		&metadata,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Kind:            Kind(kindStr.String),
		SourcePath:      sourcePath.String,
		SourceURL:       sourceURL.String,
		Title:           title.String,
		TargetLang:      targetLang.String,
		Status:          Status(statusStr),
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		ErrorMessage:    errorMessage.String,
		ReviewReason:    reviewReason.String,
		OutputPath:      outputPath.String,
		TranscriptPath:  transcriptPath.String,
		SubtitlePath:    subtitlePath.String,
		MetadataJSON:    metadata.String,
	}
	if item.Kind == "" {
		item.Kind = KindMedia
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
