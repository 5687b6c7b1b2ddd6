package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseVTT parses WebVTT input far enough to recover cue timing and text.
// Cue identifiers and cue settings are discarded; NOTE, STYLE and REGION
// blocks are skipped.
func ParseVTT(data []byte) (*Document, error) {
	blocks := splitBlocks(data)
	if len(blocks) == 0 || !strings.HasPrefix(blocks[0][0], "WEBVTT") {
		return nil, errors.New("missing WEBVTT header")
	}

	var cues []*Cue
	for _, blk := range blocks[1:] {
		head := strings.TrimSpace(blk[0])
		if strings.HasPrefix(head, "NOTE") ||
			strings.HasPrefix(head, "STYLE") ||
			strings.HasPrefix(head, "REGION") {
			continue
		}
		cue, err := parseVTTBlock(blk)
		if err != nil {
			return nil, err
		}
		if cue != nil {
			cues = append(cues, cue)
		}
	}
	for i := range cues {
		cues[i].Index = i + 1
	}
	return &Document{Cues: cues}, nil
}

func parseVTTBlock(lines []string) (*Cue, error) {
	// An optional identifier line precedes the timing line.
	timingLine := 0
	if !strings.Contains(lines[0], "-->") {
		if len(lines) < 2 || !strings.Contains(lines[1], "-->") {
			return nil, fmt.Errorf("no timing line in cue starting %q", lines[0])
		}
		timingLine = 1
	}
	parts := strings.Split(lines[timingLine], "-->")
	if len(parts) != 2 {
		return nil, errors.New("invalid timing separator")
	}
	start, err := parseVTTTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("start time: %w", err)
	}
	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return nil, errors.New("missing end time")
	}
	end, err := parseVTTTimestamp(endField[0])
	if err != nil {
		return nil, fmt.Errorf("end time: %w", err)
	}
	return &Cue{Start: start, End: end, Lines: append([]string{}, lines[timingLine+1:]...)}, nil
}

// parseVTTTimestamp parses MM:SS.mmm or HH:MM:SS.mmm.
func parseVTTTimestamp(s string) (time.Duration, error) {
	main, millis, found := strings.Cut(s, ".")
	if !found {
		return 0, fmt.Errorf("invalid vtt time %q", s)
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}
	fields := strings.Split(main, ":")
	var h, m, sec int
	switch len(fields) {
	case 2:
		if m, err = strconv.Atoi(fields[0]); err != nil {
			return 0, err
		}
		if sec, err = strconv.Atoi(fields[1]); err != nil {
			return 0, err
		}
	case 3:
		if h, err = strconv.Atoi(fields[0]); err != nil {
			return 0, err
		}
		if m, err = strconv.Atoi(fields[1]); err != nil {
			return 0, err
		}
		if sec, err = strconv.Atoi(fields[2]); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("invalid vtt time %q", s)
	}
	total := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond
	return total, nil
}
