package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"easyaisubbing/internal/textutil"
)

// WorkRoot returns the per-item staging directory rooted at base. The
// sanitized title is used when present, otherwise queue-{ID} keeps items
// from colliding.
func (i Item) WorkRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	segment := sanitizeSegment(i.Title)
	if segment == "" {
		segment = fmt.Sprintf("queue-%d", i.ID)
	}
	return filepath.Join(base, segment)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.Trim(value, "-_")
	return value
}
