package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseSRT parses common SRT. When lenient is true, malformed blocks are
// skipped instead of failing the whole file.
func ParseSRT(data []byte, lenient bool) (*Document, error) {
	blocks := splitBlocks(data)
	cues := make([]*Cue, 0, len(blocks))
	for _, blk := range blocks {
		if len(blk) == 0 {
			continue
		}
		cue, err := parseSRTBlock(blk)
		if err != nil {
			if lenient {
				continue
			}
			return nil, err
		}
		cues = append(cues, cue)
	}
	for i := range cues {
		cues[i].Index = i + 1
	}
	return &Document{Cues: cues}, nil
}

// splitBlocks divides the input into blank-line separated line groups with
// newlines normalized and per-block edges trimmed.
func splitBlocks(data []byte) [][]string {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	parts := strings.Split(s, "\n\n")
	out := make([][]string, 0, len(parts))
	for _, p := range parts {
		lines := strings.Split(p, "\n")
		trimmed := make([]string, 0, len(lines))
		for _, l := range lines {
			trimmed = append(trimmed, strings.TrimRight(l, " \t"))
		}
		for len(trimmed) > 0 && strings.TrimSpace(trimmed[0]) == "" {
			trimmed = trimmed[1:]
		}
		for len(trimmed) > 0 && strings.TrimSpace(trimmed[len(trimmed)-1]) == "" {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if len(trimmed) > 0 {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseSRTBlock(lines []string) (*Cue, error) {
	if len(lines) == 0 {
		return nil, errors.New("srt block empty")
	}
	// The index line is optional; some files omit or duplicate it.
	timingLine := 0
	if !strings.Contains(lines[0], "-->") {
		if len(lines) < 2 || !strings.Contains(lines[1], "-->") {
			return nil, fmt.Errorf("no timing line in block starting %q", lines[0])
		}
		timingLine = 1
	}
	start, end, err := parseTimingLine(lines[timingLine])
	if err != nil {
		return nil, fmt.Errorf("parse timing: %w", err)
	}
	textLines := append([]string{}, lines[timingLine+1:]...)
	return &Cue{Start: start, End: end, Lines: textLines}, nil
}

func parseTimingLine(line string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, errors.New("invalid timing separator")
	}
	start, err := ParseSRTTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("start time: %w", err)
	}
	end, err := ParseSRTTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("end time: %w", err)
	}
	return start, end, nil
}

// ParseSRTTimestamp parses HH:MM:SS,mmm. A '.' millisecond separator is
// accepted since some generators emit it.
func ParseSRTTimestamp(s string) (time.Duration, error) {
	sep := ","
	if !strings.Contains(s, ",") && strings.Contains(s, ".") {
		sep = "."
	}
	hmsMillis := strings.Split(s, sep)
	if len(hmsMillis) != 2 {
		return 0, errors.New("missing millis")
	}
	hms := strings.Split(hmsMillis[0], ":")
	if len(hms) != 3 {
		return 0, errors.New("invalid h:m:s")
	}
	h, err := strconv.Atoi(hms[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(hms[1])
	if err != nil {
		return 0, err
	}
	sec, err := strconv.Atoi(hms[2])
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(hmsMillis[1])
	if err != nil {
		return 0, err
	}
	total := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond
	return total, nil
}

// FormatSRTTimestamp renders a duration as HH:MM:SS,mmm.
func FormatSRTTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	ms := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// FormatSRT renders a document to SRT, renumbering cues from 1..N and
// dropping cues with no text.
func FormatSRT(doc *Document) []byte {
	var buf bytes.Buffer
	index := 1
	for _, cue := range doc.Cues {
		hasText := false
		for _, line := range cue.Lines {
			if strings.TrimSpace(line) != "" {
				hasText = true
				break
			}
		}
		if !hasText {
			continue
		}
		if index > 1 {
			buf.WriteString("\n")
		}
		buf.WriteString(strconv.Itoa(index))
		buf.WriteString("\n")
		buf.WriteString(FormatSRTTimestamp(cue.Start))
		buf.WriteString(" --> ")
		buf.WriteString(FormatSRTTimestamp(cue.End))
		for _, line := range cue.Lines {
			buf.WriteString("\n")
			buf.WriteString(line)
		}
		buf.WriteString("\n")
		index++
	}
	return buf.Bytes()
}

// ValidateSRT inspects SRT content and returns human-readable issues in
// "code: detail" form. An empty slice means the file looks usable.
func ValidateSRT(data []byte) []string {
	var issues []string
	if len(bytes.TrimSpace(data)) == 0 {
		return []string{"empty_subtitle_file"}
	}

	lineNo := 0
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	for _, line := range strings.Split(s, "\n") {
		lineNo++
		if !strings.Contains(line, "-->") {
			continue
		}
		start, end, err := parseTimingLine(line)
		if err != nil {
			issues = append(issues, fmt.Sprintf("unparseable_timestamp: line %d", lineNo))
			continue
		}
		if start >= end {
			issues = append(issues, fmt.Sprintf("start_not_before_end: line %d", lineNo))
		}
	}

	doc, err := ParseSRT(data, true)
	if err == nil && len(doc.Cues) == 0 {
		issues = append(issues, "cue_count_zero")
	}
	return issues
}
