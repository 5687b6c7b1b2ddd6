// Package timedtext implements the compact timed-transcript dialect the
// transcription prompts ask the model to produce. Each line looks like
//
//	[01:02,5 - 01:04,0] spoken text {optional note}
//
// with minutes:seconds,tenths stamps. The package parses model output
// leniently, lints it against the format contract, normalizes and refines
// timing, and converts it to SRT cues.
package timedtext

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"easyaisubbing/internal/textutil"
)

// Line is one parsed transcript line. Start and End are seconds.
type Line struct {
	Start  float64
	End    float64
	Text   string
	Note   string
	Raw    string // the stripped source line
	Number int    // 1-based line number in the source text
}

// Duration returns the line length in seconds.
func (ln Line) Duration() float64 { return ln.End - ln.Start }

// String renders the line in canonical form.
func (ln Line) String() string {
	s := fmt.Sprintf("[%s - %s] %s", formatStamp(ln.Start), formatStamp(ln.End), ln.Text)
	if ln.Note != "" {
		s += " {" + ln.Note + "}"
	}
	return s
}

// Transcript is an ordered list of lines.
type Transcript []Line

// String renders the whole transcript canonically, one line per entry.
func (t Transcript) String() string {
	var b strings.Builder
	for _, ln := range t {
		b.WriteString(ln.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Issue reports a problem tied to a source line.
type Issue struct {
	Line    int
	Code    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s: %s", i.Line, i.Code, i.Message)
}

// Issue codes.
const (
	IssueMalformedTimestamp = "malformed_timestamp"
	IssueSecondsOutOfRange  = "seconds_out_of_range"
	IssueTenthsWidth        = "tenths_width"
	IssueStartNotBeforeEnd  = "start_not_before_end"
	IssueOverlap            = "overlap"
	IssueDuplicateStamp     = "duplicate_stamp"
	IssueCueTooLong         = "cue_too_long"
	IssueCueTooShort        = "cue_too_short"
	IssueDroppedShort       = "dropped_short"
	IssueDroppedOverlap     = "dropped_overlap"
	IssueUnresolvedOverlap  = "unresolved_overlap"
)

// Rules carries the timing thresholds. Zero values are not usable; start
// from DefaultRules and override from configuration.
type Rules struct {
	MaxCueSeconds      float64
	MinDurationSeconds float64
	MinGapSeconds      float64
	GapNarrowSeconds   float64
	OverlapGapSeconds  float64
	StartShiftSeconds  float64
}

// DefaultRules returns the thresholds the prompts promise the model.
func DefaultRules() Rules {
	return Rules{
		MaxCueSeconds:      10,
		MinDurationSeconds: 0.1,
		MinGapSeconds:      0.1,
		GapNarrowSeconds:   0.5,
		OverlapGapSeconds:  0.05,
		StartShiftSeconds:  0.025,
	}
}

// lineRe is deliberately laxer than the contract: seconds up to two digits
// of any value and tenths of any width still parse, so Lint can point at
// them instead of the whole line going dark.
var lineRe = regexp.MustCompile(
	`^\s*\[\s*(\d+)[:,](\d{1,2})[,.](\d+)\s*-\s*(\d+)[:,](\d{1,2})[,.](\d+)\s*\]\s*(.*?)(?:\s*\{([^}]*)\})?\s*$`)

// Parse reads model output into a transcript. Malformed lines become
// issues, never errors; blank lines and lines starting with "#" or "//"
// are skipped.
func Parse(text string) (Transcript, []Issue) {
	var t Transcript
	var issues []Issue
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		number := i + 1
		stripped := strings.TrimSpace(raw)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "#") || strings.HasPrefix(stripped, "//") {
			continue
		}
		m := lineRe.FindStringSubmatch(stripped)
		if m == nil {
			issues = append(issues, Issue{
				Line:    number,
				Code:    IssueMalformedTimestamp,
				Message: malformedDetail(stripped),
			})
			continue
		}
		t = append(t, Line{
			Start:  stampSeconds(m[1], m[2], m[3]),
			End:    stampSeconds(m[4], m[5], m[6]),
			Text:   strings.TrimSpace(m[7]),
			Note:   strings.TrimSpace(m[8]),
			Raw:    stripped,
			Number: number,
		})
	}
	return t, issues
}

func malformedDetail(line string) string {
	if strings.Contains(line, "[") && strings.Contains(line, "]") && strings.Contains(line, "-") {
		return fmt.Sprintf("timestamp block malformed: %s", textutil.Snippet(line, 60))
	}
	return fmt.Sprintf("no timestamp block: %s", textutil.Snippet(line, 60))
}

// stampSeconds converts matched components to seconds. Overwide tenths are
// read as a plain fraction so "5,25" means 5.25s.
func stampSeconds(minutes, seconds, tenths string) float64 {
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)
	frac, _ := strconv.Atoi(tenths)
	return float64(m)*60 + float64(s) + float64(frac)/math.Pow10(len(tenths))
}

// formatStamp renders seconds as the canonical m:s,t stamp. Minutes keep
// two digits until they need three.
func formatStamp(seconds float64) string {
	ms := msRound(seconds)
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	rem := ms % 60000
	secs := rem / 1000
	tenths := (rem % 1000) / 100
	if minutes < 100 {
		return fmt.Sprintf("%02d:%02d,%d", minutes, secs, tenths)
	}
	return fmt.Sprintf("%d:%02d,%d", minutes, secs, tenths)
}

// FormatStamp renders seconds in the transcript's own stamp notation.
func FormatStamp(seconds float64) string { return formatStamp(seconds) }

func msRound(seconds float64) int {
	return int(math.Round(seconds * 1000))
}

// Normalize clamps negative times to zero, trims text and notes, and
// stably sorts lines by start time.
func Normalize(t Transcript) Transcript {
	out := make(Transcript, 0, len(t))
	for _, ln := range t {
		if ln.Start < 0 {
			ln.Start = 0
		}
		if ln.End < 0 {
			ln.End = 0
		}
		ln.Text = strings.TrimSpace(ln.Text)
		ln.Note = strings.TrimSpace(ln.Note)
		out = append(out, ln)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
