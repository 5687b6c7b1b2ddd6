package subtitle

import (
	"path/filepath"
	"strings"
	"time"
)

// Format identifies a subtitle file format.
type Format string

const (
	SRTFormat     Format = "srt"
	FormatASS     Format = "ass"
	FormatVTT     Format = "vtt"
	FormatUnknown Format = ""
)

// Cue is a single timed text block.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// Document holds an ordered list of cues.
type Document struct {
	Cues []*Cue
}

// Text returns the cue's lines joined with spaces and cleaned for provider
// input.
func (c *Cue) Text() string {
	return CleanText(strings.Join(c.Lines, " "))
}

// DetectFormat determines the subtitle format from the filename extension,
// falling back to a content sniff when the extension is unhelpful.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return SRTFormat
	case ".ass", ".ssa":
		return FormatASS
	case ".vtt":
		return FormatVTT
	}

	head := strings.TrimSpace(string(data))
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case strings.HasPrefix(head, "WEBVTT"):
		return FormatVTT
	case strings.Contains(head, "[Script Info]"), strings.Contains(head, "[Events]"):
		return FormatASS
	case strings.Contains(head, "-->"):
		return SRTFormat
	}
	return FormatUnknown
}
