package subtitle_test

import (
	"strings"
	"testing"
	"time"

	"easyaisubbing/internal/subtitle"
)

const sampleASS = `[Script Info]
Title: Sample
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize
Style: Default,Arial,24

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:03.50,Default,,0,0,0,,{\an8}Hello, there!
Comment: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,timing note
Dialogue: 0,0:00:06.00,0:00:07.00,Default,,0,0,0,,{\p1}m 0 0 l 100 0 100 100{\p0}
Dialogue: 0,0:00:08.00,0:00:09.00,Default,,0,0,0,,{\fad(200,0)}
Dialogue: 0,0:00:10.00,0:00:12.00,Default,,0,0,0,,Second line\Nwith a break
`

func TestParseASSDialogue(t *testing.T) {
	script, err := subtitle.ParseASS([]byte(sampleASS))
	if err != nil {
		t.Fatalf("ParseASS: %v", err)
	}
	dialogue := script.Dialogue()
	if len(dialogue) != 4 {
		t.Fatalf("expected 4 dialogue events, got %d", len(dialogue))
	}
	first := dialogue[0]
	if first.Start != time.Second || first.End != 3500*time.Millisecond {
		t.Errorf("first timing = %v..%v", first.Start, first.End)
	}
	if first.Style != "Default" {
		t.Errorf("first style = %q", first.Style)
	}
	if first.Text != `{\an8}Hello, there!` {
		t.Errorf("first text = %q", first.Text)
	}
}

func TestParseASSFractionWidths(t *testing.T) {
	input := `[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.5,0:00:02.25,Default,,0,0,0,,Hi
Dialogue: 0,0:00:03.125,0:00:04.1234,Default,,0,0,0,,Ho
`
	script, err := subtitle.ParseASS([]byte(input))
	if err != nil {
		t.Fatalf("ParseASS: %v", err)
	}
	dialogue := script.Dialogue()
	if dialogue[0].Start != 1500*time.Millisecond {
		t.Errorf("one-digit fraction = %v, want 1.5s", dialogue[0].Start)
	}
	if dialogue[0].End != 2250*time.Millisecond {
		t.Errorf("two-digit fraction = %v, want 2.25s", dialogue[0].End)
	}
	if dialogue[1].Start != 3125*time.Millisecond {
		t.Errorf("three-digit fraction = %v, want 3.125s", dialogue[1].Start)
	}
	if dialogue[1].End != 4123*time.Millisecond {
		t.Errorf("overlong fraction = %v, want truncation to 4.123s", dialogue[1].End)
	}
}

func TestParseASSRequiresEvents(t *testing.T) {
	if _, err := subtitle.ParseASS([]byte("[Script Info]\nTitle: x\n")); err == nil {
		t.Fatal("expected error for file without [Events]")
	}
}

func TestExtractDialogue(t *testing.T) {
	script, err := subtitle.ParseASS([]byte(sampleASS))
	if err != nil {
		t.Fatalf("ParseASS: %v", err)
	}
	got := subtitle.ExtractDialogue(script)
	want := []string{
		"Hello, there!",
		subtitle.PlaceholderShape,
		subtitle.PlaceholderEmpty,
		"Second line with a break",
	}
	if len(got) != len(want) {
		t.Fatalf("extracted %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReassembleASS(t *testing.T) {
	script, err := subtitle.ParseASS([]byte(sampleASS))
	if err != nil {
		t.Fatalf("ParseASS: %v", err)
	}
	translated := []string{
		"Xin chào!",
		subtitle.PlaceholderShape,
		subtitle.PlaceholderEmpty,
		"Dòng thứ hai",
	}
	out, err := subtitle.ReassembleASS(script, translated)
	if err != nil {
		t.Fatalf("ReassembleASS: %v", err)
	}
	text := string(out)

	if !strings.Contains(text, "Dialogue: 0,0:00:01.00,0:00:03.50,Default,,0,0,0,,Xin chào!") {
		t.Errorf("translated text not substituted:\n%s", text)
	}
	if !strings.Contains(text, `{\p1}m 0 0 l 100 0 100 100{\p0}`) {
		t.Error("shape placeholder did not restore drawing commands")
	}
	if !strings.Contains(text, `{\fad(200,0)}`) {
		t.Error("empty placeholder did not restore original text")
	}
	if !strings.Contains(text, "Comment: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,timing note") {
		t.Error("comment line not preserved")
	}
	if !strings.Contains(text, "[V4+ Styles]") || !strings.Contains(text, "Style: Default,Arial,24") {
		t.Error("header sections not preserved")
	}
}

func TestReassembleASSCountMismatch(t *testing.T) {
	script, err := subtitle.ParseASS([]byte(sampleASS))
	if err != nil {
		t.Fatalf("ParseASS: %v", err)
	}
	if _, err := subtitle.ReassembleASS(script, []string{"only one"}); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestReassembleASSIdentityForPlaceholders(t *testing.T) {
	script, err := subtitle.ParseASS([]byte(sampleASS))
	if err != nil {
		t.Fatalf("ParseASS: %v", err)
	}
	all := make([]string, len(script.Dialogue()))
	for i := range all {
		all[i] = subtitle.PlaceholderEmpty
	}
	out, err := subtitle.ReassembleASS(script, all)
	if err != nil {
		t.Fatalf("ReassembleASS: %v", err)
	}
	if string(out) != sampleASS {
		t.Errorf("all-placeholder reassembly is not byte identical:\n%s", string(out))
	}
}
