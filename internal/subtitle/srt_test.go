package subtitle_test

import (
	"strings"
	"testing"
	"time"

	"easyaisubbing/internal/subtitle"
)

const mixedSRT = `1
00:00:01,000 --> 00:00:02,500
Hello world

00:00:03.000 --> 00:00:04.000
No index, dot millis

this block is not a cue

3
00:00:05,000 --> 00:00:06,000
Third
line two
`

func TestParseSRTLenient(t *testing.T) {
	doc, err := subtitle.ParseSRT([]byte(mixedSRT), true)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(doc.Cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(doc.Cues))
	}
	for i, cue := range doc.Cues {
		if cue.Index != i+1 {
			t.Errorf("cue %d: index = %d, want %d", i, cue.Index, i+1)
		}
	}
	if doc.Cues[0].Start != time.Second || doc.Cues[0].End != 2500*time.Millisecond {
		t.Errorf("cue 1 timing = %v..%v", doc.Cues[0].Start, doc.Cues[0].End)
	}
	if doc.Cues[1].Start != 3*time.Second {
		t.Errorf("dot-millis start = %v, want 3s", doc.Cues[1].Start)
	}
	if got := doc.Cues[2].Text(); got != "Third line two" {
		t.Errorf("cue 3 text = %q", got)
	}
}

func TestParseSRTStrictFailsOnGarbage(t *testing.T) {
	if _, err := subtitle.ParseSRT([]byte(mixedSRT), false); err == nil {
		t.Fatal("expected error for malformed block in strict mode")
	}
}

func TestParseSRTTimestamp(t *testing.T) {
	got, err := subtitle.ParseSRTTimestamp("01:02:03,456")
	if err != nil {
		t.Fatalf("ParseSRTTimestamp: %v", err)
	}
	want := time.Hour + 2*time.Minute + 3*time.Second + 456*time.Millisecond
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err := subtitle.ParseSRTTimestamp("01:02:03"); err == nil {
		t.Error("expected error for missing millis")
	}
	if _, err := subtitle.ParseSRTTimestamp("0:bad:00,000"); err == nil {
		t.Error("expected error for non-numeric field")
	}
}

func TestFormatSRTRenumbersAndSkipsEmpty(t *testing.T) {
	doc := &subtitle.Document{Cues: []*subtitle.Cue{
		{Index: 7, Start: time.Second, End: 2 * time.Second, Lines: []string{"Hello"}},
		{Index: 8, Start: 3 * time.Second, End: 4 * time.Second, Lines: []string{"  "}},
		{Index: 9, Start: 5 * time.Second, End: 6 * time.Second, Lines: []string{"World", "again"}},
	}}
	want := `1
00:00:01,000 --> 00:00:02,000
Hello

2
00:00:05,000 --> 00:00:06,000
World
again
`
	if got := string(subtitle.FormatSRT(doc)); got != want {
		t.Errorf("FormatSRT:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatSRTRoundTrip(t *testing.T) {
	original := `1
00:00:01,000 --> 00:00:02,500
Hello world

2
00:00:05,000 --> 00:00:06,000
Third
line two
`
	doc, err := subtitle.ParseSRT([]byte(original), false)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if got := string(subtitle.FormatSRT(doc)); got != original {
		t.Errorf("round trip changed content:\n%s", got)
	}
}

func TestValidateSRT(t *testing.T) {
	if issues := subtitle.ValidateSRT([]byte("  \n ")); len(issues) != 1 || issues[0] != "empty_subtitle_file" {
		t.Errorf("empty file issues = %v", issues)
	}

	issues := subtitle.ValidateSRT([]byte("just some text\nwith no cues"))
	if len(issues) != 1 || issues[0] != "cue_count_zero" {
		t.Errorf("no-cue issues = %v", issues)
	}

	issues = subtitle.ValidateSRT([]byte("1\n00:00:aa,000 --> 00:00:02,000\nHi\n"))
	if !containsIssue(issues, "unparseable_timestamp: line 2") {
		t.Errorf("bad timestamp issues = %v", issues)
	}

	issues = subtitle.ValidateSRT([]byte("1\n00:00:05,000 --> 00:00:04,000\nHi\n"))
	if !containsIssue(issues, "start_not_before_end: line 2") {
		t.Errorf("inverted timing issues = %v", issues)
	}

	if issues := subtitle.ValidateSRT([]byte(mixedSRT)); len(issues) != 0 {
		t.Errorf("lenient-parseable file issues = %v", issues)
	}
}

func containsIssue(issues []string, want string) bool {
	for _, issue := range issues {
		if strings.HasPrefix(issue, want) {
			return true
		}
	}
	return false
}
