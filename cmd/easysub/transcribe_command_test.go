package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"easyaisubbing/internal/config"
)

func TestCLITranscribeAudioOnly(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	server := newStubGemini(t, "[00:01,0 - 00:03,0] Xin chào.\n[00:04,0 - 00:06,0] Tạm biệt.")

	configPath := writeTestConfig(t, func(cfg *config.Config) {
		cfg.Gemini.APIKey = "test-key"
		cfg.Gemini.BaseURL = server.URL
	})

	dir := t.TempDir()
	audio := filepath.Join(dir, "talk.wav")
	if err := os.WriteFile(audio, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "transcribe", audio, "--audio-only", "--lang", "Vietnamese")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}

	transcriptPath := filepath.Join(dir, "talk.transcript.txt")
	srtPath := filepath.Join(dir, "talk.vi.srt")
	for _, want := range []string{transcriptPath, srtPath} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("missing artifact %s: %v", want, err)
		}
	}
	if !strings.Contains(stdout, "2 cues") {
		t.Errorf("unexpected summary: %q", stdout)
	}

	data, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("read subtitle: %v", err)
	}
	if !strings.Contains(string(data), "Xin chào.") {
		t.Errorf("subtitle content: %q", data)
	}

	// A correction turn rewrites both artifacts from the saved transcript.
	stdout, _, err = runCLI(t, configPath, "transcribe", audio, "--fix", "fix punctuation", "--lang", "Vietnamese")
	if err != nil {
		t.Fatalf("transcribe --fix: %v", err)
	}
	if !strings.Contains(stdout, "Subtitle: ") {
		t.Errorf("unexpected fix summary: %q", stdout)
	}
}

func TestCLITranscribeFixNeedsSavedTranscript(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, func(cfg *config.Config) {
		cfg.Gemini.APIKey = "test-key"
	})

	audio := writeTempFile(t, "untouched.wav", "RIFFfake")
	_, _, err := runCLI(t, configPath, "transcribe", audio, "--fix", "tighten timing")
	if err == nil || !strings.Contains(err.Error(), "run transcribe without --fix first") {
		t.Fatalf("expected missing-transcript error, got %v", err)
	}
}

func TestCLITranscribeWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)

	audio := writeTempFile(t, "talk.wav", "RIFFfake")
	_, _, err := runCLI(t, configPath, "transcribe", audio, "--audio-only")
	if err == nil || !strings.Contains(err.Error(), "no Gemini API key") {
		t.Fatalf("expected missing-key error, got %v", err)
	}
}
