package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/textutil"
)

func buildQueueListRows(items []*queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			string(item.Kind),
			itemTitle(item),
			string(item.Status),
			formatItemProgress(item),
			item.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

// buildQueueStatusRows orders counts by pipeline stage rather than
// alphabetically.
func buildQueueStatusRows(stats map[queue.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
	}
	return rows
}

func itemTitle(item *queue.Item) string {
	if title := strings.TrimSpace(item.Title); title != "" {
		return title
	}
	if item.SourcePath != "" {
		return filepath.Base(item.SourcePath)
	}
	if item.SourceURL != "" {
		return item.SourceURL
	}
	return "(untitled)"
}

// formatItemProgress renders stage and percent for in-flight items and
// the blocking reason for review or failed ones.
func formatItemProgress(item *queue.Item) string {
	switch item.Status {
	case queue.StatusPending:
		return "-"
	case queue.StatusCompleted:
		return "done"
	case queue.StatusFailed, queue.StatusReview:
		reason := strings.TrimSpace(item.ReviewReason)
		if reason == "" {
			reason = strings.TrimSpace(item.ErrorMessage)
		}
		if reason == "" {
			return "-"
		}
		return textutil.Snippet(reason, 48)
	}
	stage := strings.TrimSpace(item.ProgressStage)
	if stage == "" {
		return "-"
	}
	return fmt.Sprintf("%s %.0f%%", stage, item.ProgressPercent)
}
