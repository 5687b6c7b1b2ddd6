package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"easyaisubbing/internal/logging"
)

func TestPruneOldLogs(t *testing.T) {
	dir := t.TempDir()

	stale := filepath.Join(dir, "tool-20240101.log")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale log: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale log: %v", err)
	}

	fresh := filepath.Join(dir, "tool-today.log")
	if err := os.WriteFile(fresh, []byte("new"), 0o644); err != nil {
		t.Fatalf("write fresh log: %v", err)
	}

	current := filepath.Join(dir, logging.LogFileName)
	if err := os.WriteFile(current, []byte("app"), 0o644); err != nil {
		t.Fatalf("write current log: %v", err)
	}
	if err := os.Chtimes(current, old, old); err != nil {
		t.Fatalf("age current log: %v", err)
	}

	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write unrelated file: %v", err)
	}
	if err := os.Chtimes(other, old, old); err != nil {
		t.Fatalf("age unrelated file: %v", err)
	}

	logging.PruneOldLogs(logging.NewNop(), dir, 14)

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected stale log to be pruned")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh log to remain: %v", err)
	}
	if _, err := os.Stat(current); err != nil {
		t.Fatalf("expected current application log to remain: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("expected unrelated file to remain: %v", err)
	}
}

func TestPruneOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "tool.log")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatalf("write stale log: %v", err)
	}
	old := time.Now().AddDate(0, 0, -100)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("age stale log: %v", err)
	}

	logging.PruneOldLogs(logging.NewNop(), dir, 0)

	if _, err := os.Stat(stale); err != nil {
		t.Fatalf("expected file to remain with retention disabled: %v", err)
	}
}
