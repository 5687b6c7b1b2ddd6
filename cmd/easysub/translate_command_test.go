package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"easyaisubbing/internal/config"
)

// newStubGemini returns a server whose generateContent endpoint always
// replies with the given text part.
func newStubGemini(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := fmt.Sprintf(
			`{"candidates":[{"content":{"parts":[{"text":%q}]},"finishReason":"STOP"}]}`, reply)
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCLITranslateSRT(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	server := newStubGemini(t, "[Segment 1]: Hallo.\n[Segment 2]: Auf Wiedersehen.")

	configPath := writeTestConfig(t, func(cfg *config.Config) {
		cfg.Gemini.APIKey = "test-key"
		cfg.Gemini.BaseURL = server.URL
	})

	dir := t.TempDir()
	srt := filepath.Join(dir, "episode.srt")
	content := "1\n00:00:01,000 --> 00:00:03,000\nHello.\n\n" +
		"2\n00:00:04,000 --> 00:00:06,000\nGoodbye.\n"
	if err := os.WriteFile(srt, []byte(content), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "translate", srt, "--to", "German")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	want := filepath.Join(dir, "episode.de.srt")
	if !strings.Contains(stdout, want) {
		t.Errorf("summary missing output path: %q", stdout)
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read translated: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Hallo.") || !strings.Contains(text, "Auf Wiedersehen.") {
		t.Errorf("translation not applied: %q", text)
	}
	if !strings.Contains(text, "00:00:01,000 --> 00:00:03,000") {
		t.Errorf("timing changed: %q", text)
	}
	if strings.Contains(text, "Hello.") {
		t.Errorf("source text left in output: %q", text)
	}

	// The input file is untouched.
	original, _ := os.ReadFile(srt)
	if string(original) != content {
		t.Error("input subtitle was rewritten")
	}
}

func TestCLITranslateASSKeepsLayout(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	server := newStubGemini(t, "[Segment 1]: Guten Morgen.")

	configPath := writeTestConfig(t, func(cfg *config.Config) {
		cfg.Gemini.APIKey = "test-key"
		cfg.Gemini.BaseURL = server.URL
	})

	dir := t.TempDir()
	ass := filepath.Join(dir, "scene.ass")
	script := "[Script Info]\nTitle: Scene\nScriptType: v4.00+\n\n" +
		"[V4+ Styles]\nFormat: Name, Fontname, Fontsize\nStyle: Default,Arial,48\n\n" +
		"[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n" +
		"Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,Good morning.\n"
	if err := os.WriteFile(ass, []byte(script), 0o644); err != nil {
		t.Fatalf("write ass: %v", err)
	}

	_, _, err := runCLI(t, configPath, "translate", ass, "--to", "German")
	if err != nil {
		t.Fatalf("translate ass: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "scene.de.ass"))
	if err != nil {
		t.Fatalf("read translated ass: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Guten Morgen.") {
		t.Errorf("dialogue not translated: %q", text)
	}
	if !strings.Contains(text, "[V4+ Styles]") || !strings.Contains(text, "Style: Default,Arial,48") {
		t.Errorf("styling sections lost: %q", text)
	}
	if !strings.Contains(text, "0:00:01.00,0:00:03.00") {
		t.Errorf("event timing lost: %q", text)
	}
}

func TestCLITranslateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)

	srt := writeTempFile(t, "a.srt", "1\n00:00:01,000 --> 00:00:02,000\nHi.\n")
	_, _, err := runCLI(t, configPath, "translate", srt, "--provider", "acme")
	if err == nil || !strings.Contains(err.Error(), "unknown translation provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}
