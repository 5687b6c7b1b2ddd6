package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLIStagingListAndClean(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)
	root := filepath.Dir(configPath)
	stagingDir := filepath.Join(root, "staging")

	source := filepath.Join(root, "episode.mkv")
	if err := os.WriteFile(source, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if _, _, err := runCLI(t, configPath, "queue", "add", source); err != nil {
		t.Fatalf("queue add: %v", err)
	}

	// The queued item's work dir plus one orphan from a cleared item.
	activeDir := filepath.Join(stagingDir, "Episode")
	orphanDir := filepath.Join(stagingDir, "Stale-Title")
	for _, dir := range []string{activeDir, orphanDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(activeDir, "audio.wav"), []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "staging", "list")
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	if !strings.Contains(stdout, "Episode") || !strings.Contains(stdout, "Stale-Title") {
		t.Fatalf("listing missing work dirs: %q", stdout)
	}
	if !strings.Contains(stdout, "Total: 2 directories") {
		t.Fatalf("listing missing total: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "staging", "clean")
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	if !strings.Contains(stdout, "Removed 1 orphaned directories") {
		t.Fatalf("unexpected clean output: %q", stdout)
	}
	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Error("orphan work dir should be gone")
	}
	if _, err := os.Stat(activeDir); err != nil {
		t.Error("active work dir should survive a default clean")
	}

	stdout, _, err = runCLI(t, configPath, "staging", "clean", "--all")
	if err != nil {
		t.Fatalf("staging clean --all: %v", err)
	}
	if !strings.Contains(stdout, "Removed 1 work directories") {
		t.Fatalf("unexpected clean --all output: %q", stdout)
	}
	if _, err := os.Stat(activeDir); !os.IsNotExist(err) {
		t.Error("clean --all should remove active work dirs too")
	}

	stdout, _, err = runCLI(t, configPath, "staging", "clean")
	if err != nil {
		t.Fatalf("staging clean (empty): %v", err)
	}
	if !strings.Contains(stdout, "No orphaned directories to clean") {
		t.Fatalf("unexpected empty clean output: %q", stdout)
	}
}

func TestCLIStagingListEmpty(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)

	stdout, _, err := runCLI(t, configPath, "staging", "list")
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	if !strings.Contains(stdout, "No work directories found") {
		t.Fatalf("unexpected output: %q", stdout)
	}
}
