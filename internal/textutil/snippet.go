package textutil

import "strings"

// Snippet collapses whitespace runs and truncates the result to maxRunes,
// appending an ellipsis marker when text was dropped. Used to keep log lines
// and error messages short when they carry model output or tool stderr.
func Snippet(s string, maxRunes int) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	joined := strings.Join(fields, " ")
	if maxRunes <= 0 {
		return joined
	}
	runes := []rune(joined)
	if len(runes) <= maxRunes {
		return joined
	}
	return string(runes[:maxRunes]) + "..."
}
