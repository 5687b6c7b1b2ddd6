package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureArgs(f *FFmpeg, createOutput bool) *[]string {
	var captured []string
	f.run = func(ctx context.Context, onLine func(string), name string, args ...string) error {
		captured = append([]string{name}, args...)
		if createOutput && len(args) > 0 {
			if err := os.WriteFile(args[len(args)-1], []byte("out"), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
	return &captured
}

func argString(captured *[]string) string {
	return strings.Join(*captured, " ")
}

func TestExtractAudioArgs(t *testing.T) {
	f := New("", nil)
	captured := captureArgs(f, false)

	err := f.ExtractAudio(context.Background(), ExtractAudioRequest{
		InputPath:  "/media/in.mp4",
		OutputPath: "/tmp/out.wav",
	})
	if err != nil {
		t.Fatalf("extract audio: %v", err)
	}
	got := argString(captured)
	want := "ffmpeg -y -i /media/in.mp4 -vn -acodec pcm_s16le -ar 16000 -ac 1 /tmp/out.wav"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestExtractAudioSegmentArgs(t *testing.T) {
	f := New("ffmpeg-custom", nil)
	captured := captureArgs(f, false)

	err := f.ExtractAudio(context.Background(), ExtractAudioRequest{
		InputPath:       "/media/in.mp4",
		OutputPath:      "/tmp/out.wav",
		StartSeconds:    5,
		DurationSeconds: 12.5,
	})
	if err != nil {
		t.Fatalf("extract audio: %v", err)
	}
	got := argString(captured)
	if !strings.HasPrefix(got, "ffmpeg-custom ") {
		t.Errorf("expected custom binary, got %q", got)
	}
	if !strings.Contains(got, "-ss 5.000 -t 12.500 -vn") {
		t.Errorf("segment flags missing: %q", got)
	}
}

func TestExtractSubtitleArgs(t *testing.T) {
	f := New("", nil)
	captured := captureArgs(f, false)

	err := f.ExtractSubtitle(context.Background(), ExtractSubtitleRequest{
		InputPath:   "/media/in.mkv",
		OutputPath:  "/tmp/track.srt",
		StreamIndex: 2,
	})
	if err != nil {
		t.Fatalf("extract subtitle: %v", err)
	}
	got := argString(captured)
	want := "ffmpeg -y -i /media/in.mkv -map 0:2 -c:s copy -f srt /tmp/track.srt"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestMuxMP4(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.mp4")

	f := New("", nil)
	captured := captureArgs(f, true)

	result, err := f.Mux(context.Background(), MuxRequest{
		VideoPath:         "/media/in.mp4",
		SubtitlePath:      "/tmp/subs.srt",
		OutputPath:        outPath,
		Language:          "Vietnamese",
		ExistingSubtitles: 1,
	})
	if err != nil {
		t.Fatalf("mux: %v", err)
	}
	if result != outPath {
		t.Errorf("result path = %q", result)
	}
	got := argString(captured)
	for _, want := range []string{
		"-map 0 -map 1 -c copy -c:s mov_text",
		"-metadata:s:s:1 language=vie",
		"-metadata:s:s:1 title=Translated Subtitles",
		"-f mp4",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("args missing %q: %q", want, got)
		}
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("output not renamed into place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ".out.mp4.tmp")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("temp file should not remain")
	}
}

func TestMuxMKVUsesSRTCodec(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.mkv")

	f := New("", nil)
	captured := captureArgs(f, true)

	if _, err := f.Mux(context.Background(), MuxRequest{
		VideoPath:    "/media/in.mkv",
		SubtitlePath: "/tmp/subs.srt",
		OutputPath:   outPath,
	}); err != nil {
		t.Fatalf("mux: %v", err)
	}
	got := argString(captured)
	if !strings.Contains(got, "-c:s srt") || !strings.Contains(got, "-f matroska") {
		t.Errorf("mkv output should use srt codec: %q", got)
	}
	if !strings.Contains(got, "language=und") {
		t.Errorf("empty language should tag und: %q", got)
	}
}

func TestMuxCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.mkv")

	f := New("", nil)
	f.run = func(ctx context.Context, onLine func(string), name string, args ...string) error {
		if err := os.WriteFile(args[len(args)-1], []byte("partial"), 0o644); err != nil {
			return err
		}
		return errors.New("exit status 1: Invalid data found")
	}

	_, err := f.Mux(context.Background(), MuxRequest{
		VideoPath:    "/media/in.mkv",
		SubtitlePath: "/tmp/subs.srt",
		OutputPath:   outPath,
	})
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected tool error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, ".out.mkv.tmp")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("temp file should be removed on failure")
	}
	if _, statErr := os.Stat(outPath); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("final output should not exist on failure")
	}
}

func TestHardsubSRTStyleAndScale(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.mp4")

	f := New("", nil)
	captured := captureArgs(f, true)

	if _, err := f.Hardsub(context.Background(), HardsubRequest{
		VideoPath:    "/media/in.mp4",
		SubtitlePath: "/subs/it's a file.srt",
		OutputPath:   outPath,
		Style: Style{
			FontName:      "Noto Sans",
			FontSize:      28,
			PrimaryColour: "&H00FFFFFF",
			OutlineColour: "&H00000000",
			Outline:       2,
			Shadow:        1,
			Position:      "Bottom Right",
		},
		Scale: "1280x720",
	}); err != nil {
		t.Fatalf("hardsub: %v", err)
	}

	args := *captured
	vf := ""
	for i, arg := range args {
		if arg == "-vf" && i+1 < len(args) {
			vf = args[i+1]
		}
	}
	if vf == "" {
		t.Fatalf("no -vf flag in %v", args)
	}
	if !strings.HasPrefix(vf, `subtitles='/subs/it\'s a file.srt'`) {
		t.Errorf("subtitle path not escaped: %q", vf)
	}
	if !strings.Contains(vf, "force_style='Fontname=Noto Sans,FontSize=28,") {
		t.Errorf("force_style missing: %q", vf)
	}
	if !strings.Contains(vf, "BorderStyle=1,Outline=2,Shadow=1,Alignment=3") {
		t.Errorf("style tail wrong: %q", vf)
	}
	if !strings.HasSuffix(vf, ",scale=1280:720") {
		t.Errorf("scale filter missing: %q", vf)
	}

	got := argString(captured)
	if !strings.Contains(got, "-c:v libx264 -preset medium -crf 23") {
		t.Errorf("default encode settings missing: %q", got)
	}
	if !strings.Contains(got, "-c:a copy") {
		t.Errorf("audio should default to copy: %q", got)
	}
}

func TestHardsubASSKeepsEmbeddedStyle(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.mkv")

	f := New("", nil)
	captured := captureArgs(f, true)

	if _, err := f.Hardsub(context.Background(), HardsubRequest{
		VideoPath:    "/media/in.mkv",
		SubtitlePath: "/subs/styled.ass",
		OutputPath:   outPath,
		EncodeAudio:  true,
	}); err != nil {
		t.Fatalf("hardsub: %v", err)
	}
	got := argString(captured)
	if strings.Contains(got, "force_style") {
		t.Errorf("ASS input must keep embedded styling: %q", got)
	}
	if !strings.Contains(got, "-c:a aac -b:a 192k") {
		t.Errorf("audio encode flags missing: %q", got)
	}
}

func TestHardsubRejectsBadScale(t *testing.T) {
	f := New("", nil)
	captureArgs(f, true)

	_, err := f.Hardsub(context.Background(), HardsubRequest{
		VideoPath:    "/media/in.mp4",
		SubtitlePath: "/subs/subs.srt",
		OutputPath:   "/tmp/out.mp4",
		Scale:        "wide",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid scale") {
		t.Fatalf("expected scale error, got %v", err)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`C:\subs\file.srt`, `C\:/subs/file.srt`},
		{`/plain/path.srt`, `/plain/path.srt`},
		{`/a'b,c[d].srt`, `/a\'b\,c\[d\].srt`},
	}
	for _, tc := range cases {
		if got := escapeFilterPath(tc.in); got != tc.want {
			t.Errorf("escapeFilterPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProgressSeconds(t *testing.T) {
	line := "frame=  100 fps= 25 q=28.0 size=     256kB time=00:01:05.50 bitrate= 512.0kbits/s speed=1.2x"
	got, ok := progressSeconds(line)
	if !ok || got != 65.5 {
		t.Fatalf("progressSeconds = %v, %v", got, ok)
	}
	if _, ok := progressSeconds("configuration: --enable-gpl"); ok {
		t.Fatal("non-status line should not parse")
	}
}

func TestProgressScanner(t *testing.T) {
	var percents []float64
	scan := progressScanner(100, func(p float64) { percents = append(percents, p) })
	scan("time=00:00:50.00 bitrate=1k")
	scan("no progress here")
	scan("time=00:02:30.00 bitrate=1k")
	if len(percents) != 2 || percents[0] != 50 || percents[1] != 100 {
		t.Fatalf("percents = %v", percents)
	}
	if progressScanner(0, func(float64) {}) != nil {
		t.Fatal("scanner without duration should be nil")
	}
	if progressScanner(10, nil) != nil {
		t.Fatal("scanner without callback should be nil")
	}
}
