package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"easyaisubbing/internal/config"
)

// writeTestConfig writes a config file rooted in a temp directory and
// returns its path. mutate can adjust settings before the file lands.
func writeTestConfig(t *testing.T, mutate func(cfg *config.Config)) string {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(root, "staging")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.DownloadDir = filepath.Join(root, "downloads")
	cfg.Gemini.KeyFile = filepath.Join(root, "no-such-key")
	if mutate != nil {
		mutate(&cfg)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(root, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// runCLI executes the command tree with captured output.
func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCLIVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, "easysub 0.1.0") {
		t.Errorf("unexpected version output: %q", stdout)
	}
}

func TestCLIRejectsMissingFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)

	_, _, err := runCLI(t, configPath, "probe", "/no/such/file.mkv")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected missing-file error, got %v", err)
	}
}
