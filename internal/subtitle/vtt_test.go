package subtitle_test

import (
	"testing"
	"time"

	"easyaisubbing/internal/subtitle"
)

func TestParseVTT(t *testing.T) {
	input := `WEBVTT

NOTE produced by a web downloader

00:01.000 --> 00:03.000 position:50% line:0
Hello

1
00:00:04.500 --> 00:00:06.000
Second line
continues
`
	doc, err := subtitle.ParseVTT([]byte(input))
	if err != nil {
		t.Fatalf("ParseVTT: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.Cues[0].Start != time.Second || doc.Cues[0].End != 3*time.Second {
		t.Errorf("cue 1 timing = %v..%v", doc.Cues[0].Start, doc.Cues[0].End)
	}
	if doc.Cues[0].Text() != "Hello" {
		t.Errorf("cue 1 text = %q", doc.Cues[0].Text())
	}
	if doc.Cues[1].Start != 4500*time.Millisecond {
		t.Errorf("cue 2 start = %v, want 4.5s", doc.Cues[1].Start)
	}
	if got := doc.Cues[1].Text(); got != "Second line continues" {
		t.Errorf("cue 2 text = %q", got)
	}
}

func TestParseVTTRequiresHeader(t *testing.T) {
	input := "00:01.000 --> 00:03.000\nHello\n"
	if _, err := subtitle.ParseVTT([]byte(input)); err == nil {
		t.Fatal("expected error for missing WEBVTT header")
	}
}

func TestParseVTTSkipsStyleAndRegion(t *testing.T) {
	input := `WEBVTT

STYLE
::cue { color: yellow }

REGION
id:bill width:40%

00:01.000 --> 00:02.000
Only cue
`
	doc, err := subtitle.ParseVTT([]byte(input))
	if err != nil {
		t.Fatalf("ParseVTT: %v", err)
	}
	if len(doc.Cues) != 1 || doc.Cues[0].Text() != "Only cue" {
		t.Fatalf("cues = %+v", doc.Cues)
	}
}
