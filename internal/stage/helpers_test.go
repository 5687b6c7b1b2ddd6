package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
)

func TestEnsureWorkDirCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	item := &queue.Item{ID: 3, Title: "Test Episode"}

	root, err := EnsureWorkDir(item, base)
	if err != nil {
		t.Fatalf("EnsureWorkDir: %v", err)
	}
	if root != filepath.Join(base, "Test-Episode") {
		t.Fatalf("unexpected work root %q", root)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %q, err=%v", root, err)
	}
}

func TestEnsureWorkDirRejectsEmptyBase(t *testing.T) {
	item := &queue.Item{ID: 3}
	_, err := EnsureWorkDir(item, "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.srt")
	if err := os.WriteFile(path, []byte("1\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	if err := RequireFile("translating", path); err != nil {
		t.Fatalf("expected existing file to pass, got %v", err)
	}

	err := RequireFile("translating", filepath.Join(dir, "missing.srt"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	err = RequireFile("translating", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty path, got %v", err)
	}

	err = RequireFile("translating", dir)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for directory, got %v", err)
	}
}
