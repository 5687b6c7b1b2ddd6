package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Script is a parsed ASS/SSA file. Everything outside event lines is kept
// verbatim so a reassembled file differs from the input only in the
// dialogue text that was replaced.
type Script struct {
	// HeaderLines holds every line up to and including the [Events]
	// Format: line, unmodified.
	HeaderLines []string
	// Events holds every line inside [Events] after the Format: line.
	Events []*Event
	// FooterLines holds any sections that follow [Events], unmodified.
	FooterLines []string

	format eventFormat
}

// Event is one line from the [Events] section. Dialogue and Comment lines
// are parsed; anything else is preserved raw with an empty Kind.
type Event struct {
	Kind  string // "Dialogue", "Comment", or "" for unparsed lines
	Start time.Duration
	End   time.Duration
	Style string
	Text  string

	raw    string // the original line, verbatim
	prefix string // raw up to the start of the text field
}

// Raw returns the original unmodified line.
func (e *Event) Raw() string { return e.raw }

type eventFormat struct {
	fields   int
	startIdx int
	endIdx   int
	styleIdx int
	textIdx  int
}

// standardEventFormat matches "Format: Layer, Start, End, Style, Name,
// MarginL, MarginR, MarginV, Effect, Text".
var standardEventFormat = eventFormat{fields: 10, startIdx: 1, endIdx: 2, styleIdx: 3, textIdx: 9}

// ParseASS parses an ASS or SSA file. Line endings are normalized to \n;
// all content except replaced dialogue text survives reassembly byte for
// byte.
func ParseASS(data []byte) (*Script, error) {
	script := &Script{format: standardEventFormat}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	const (
		inHeader = iota
		inEvents
		inFooter
	)
	state := inHeader
	sawEvents := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch state {
		case inHeader:
			script.HeaderLines = append(script.HeaderLines, line)
			if strings.EqualFold(trimmed, "[events]") {
				sawEvents = true
				state = inEvents
			}
		case inEvents:
			if isSectionHeader(trimmed) {
				script.FooterLines = append(script.FooterLines, line)
				state = inFooter
				continue
			}
			if strings.HasPrefix(trimmed, "Format:") {
				script.format = parseEventFormat(trimmed)
				script.HeaderLines = append(script.HeaderLines, line)
				continue
			}
			script.Events = append(script.Events, parseEventLine(line, script.format))
		case inFooter:
			script.FooterLines = append(script.FooterLines, line)
		}
	}
	if !sawEvents {
		return nil, errors.New("no [Events] section found")
	}
	return script, nil
}

func isSectionHeader(trimmed string) bool {
	return len(trimmed) > 2 && trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']'
}

func parseEventFormat(line string) eventFormat {
	spec := strings.TrimSpace(strings.TrimPrefix(line, "Format:"))
	names := strings.Split(spec, ",")
	f := eventFormat{fields: len(names), startIdx: -1, endIdx: -1, styleIdx: -1}
	for i, name := range names {
		switch strings.TrimSpace(name) {
		case "Start":
			f.startIdx = i
		case "End":
			f.endIdx = i
		case "Style":
			f.styleIdx = i
		}
	}
	// Text can contain commas so it is always the last field.
	f.textIdx = f.fields - 1
	if f.fields < 2 || f.startIdx < 0 || f.endIdx < 0 {
		return standardEventFormat
	}
	return f
}

// parseEventLine parses one event. Lines that are not well-formed Dialogue
// or Comment entries are kept raw so they round-trip untouched.
func parseEventLine(line string, format eventFormat) *Event {
	trimmed := strings.TrimSpace(line)
	var kind string
	switch {
	case strings.HasPrefix(trimmed, "Dialogue:"):
		kind = "Dialogue"
	case strings.HasPrefix(trimmed, "Comment:"):
		kind = "Comment"
	default:
		return &Event{raw: line}
	}

	idx := strings.Index(line, ":")
	rest := line[idx+1:]
	parts := strings.SplitN(rest, ",", format.fields)
	if len(parts) < format.fields {
		return &Event{raw: line}
	}
	text := parts[format.textIdx]

	ev := &Event{
		Kind:   kind,
		Text:   text,
		raw:    line,
		prefix: line[:len(line)-len(text)],
	}
	if start, err := parseASSTime(strings.TrimSpace(parts[format.startIdx])); err == nil {
		ev.Start = start
	}
	if end, err := parseASSTime(strings.TrimSpace(parts[format.endIdx])); err == nil {
		ev.End = end
	}
	if format.styleIdx >= 0 {
		ev.Style = strings.TrimSpace(parts[format.styleIdx])
	}
	return ev
}

// parseASSTime parses H:MM:SS.cc timestamps, tolerating one to three
// fractional digits.
func parseASSTime(s string) (time.Duration, error) {
	main, frac, found := strings.Cut(s, ".")
	if !found {
		return 0, fmt.Errorf("invalid ass time %q", s)
	}
	hms := strings.Split(main, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid ass time %q", s)
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
	if len(frac) > 3 {
		frac = frac[:3]
	}
	fracVal, err := strconv.Atoi(frac)
	if err != nil {
		return 0, err
	}
	var ms int
	switch len(frac) {
	case 1:
		ms = fracVal * 100
	case 2:
		ms = fracVal * 10
	default:
		ms = fracVal
	}
	total := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(ms)*time.Millisecond
	return total, nil
}

// Dialogue returns the Dialogue events in file order.
func (s *Script) Dialogue() []*Event {
	var out []*Event
	for _, ev := range s.Events {
		if ev.Kind == "Dialogue" {
			out = append(out, ev)
		}
	}
	return out
}

// Placeholder strings stand in for dialogue that carries no translatable
// text. They keep list positions aligned through a translation round trip;
// ReassembleASS restores the original text wherever one appears.
const (
	PlaceholderShape = "(shape)"
	PlaceholderEmpty = "(empty)"
)

// ExtractDialogue returns one cleaned text line per Dialogue event.
// Drawing-mode events yield PlaceholderShape and events whose text cleans
// to nothing yield PlaceholderEmpty, so the slice always matches
// Dialogue() position for position.
func ExtractDialogue(script *Script) []string {
	dialogue := script.Dialogue()
	out := make([]string, 0, len(dialogue))
	for _, ev := range dialogue {
		if isDrawing(ev.Text) {
			out = append(out, PlaceholderShape)
			continue
		}
		cleaned := CleanText(stripOverrideTags(ev.Text))
		if cleaned == "" {
			out = append(out, PlaceholderEmpty)
			continue
		}
		out = append(out, cleaned)
	}
	return out
}

// ReassembleASS writes the script back out with Dialogue text replaced
// positionally from translated. Placeholder entries keep the event's
// original text. The translated count must match the Dialogue count.
func ReassembleASS(script *Script, translated []string) ([]byte, error) {
	dialogueCount := len(script.Dialogue())
	if len(translated) != dialogueCount {
		return nil, fmt.Errorf("translated line count %d does not match dialogue count %d",
			len(translated), dialogueCount)
	}

	var buf bytes.Buffer
	for _, line := range script.HeaderLines {
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	next := 0
	for _, ev := range script.Events {
		line := ev.raw
		if ev.Kind == "Dialogue" {
			t := translated[next]
			next++
			if t != PlaceholderShape && t != PlaceholderEmpty {
				line = ev.prefix + t
			}
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	for _, line := range script.FooterLines {
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
