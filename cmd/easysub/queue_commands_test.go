package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/queue"
)

func TestCLIQueueAddListClear(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)

	media := filepath.Join(t.TempDir(), "episode.mkv")
	if err := os.WriteFile(media, []byte("x"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "queue", "add", media)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if !strings.Contains(stdout, "Queued item 1 (media)") {
		t.Errorf("unexpected add output: %q", stdout)
	}

	// The same source is reported, not queued twice.
	stdout, _, err = runCLI(t, configPath, "queue", "add", media)
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if !strings.Contains(stdout, "already queued as item 1") {
		t.Errorf("expected duplicate notice: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "queue", "add", "https://example.com/watch?v=abc", "--to", "German")
	if err != nil {
		t.Fatalf("queue add url: %v", err)
	}
	if !strings.Contains(stdout, "Queued item 2 (url)") {
		t.Errorf("unexpected url add output: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(stdout, "episode.mkv") || !strings.Contains(stdout, "example.com") {
		t.Errorf("list missing items: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(stdout, "pending") || !strings.Contains(stdout, "Total: 2") {
		t.Errorf("unexpected status output: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(stdout, "Cleared 2 queue items") {
		t.Errorf("unexpected clear output: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list after clear: %v", err)
	}
	if !strings.Contains(stdout, "Queue is empty") {
		t.Errorf("expected empty queue: %q", stdout)
	}
}

func TestCLIQueueRetryAndHealth(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	configPath := writeTestConfig(t, nil)

	// Seed a failed item directly through the store.
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	item, err := store.NewItem(context.Background(), queue.NewItemRequest{
		Kind:      queue.KindURL,
		SourceURL: "https://example.com/a",
	})
	if err != nil {
		t.Fatalf("new item: %v", err)
	}
	item.Status = queue.StatusFailed
	item.ErrorMessage = "network down"
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("update item: %v", err)
	}
	store.Close()

	stdout, _, err := runCLI(t, configPath, "queue", "retry", fmt.Sprintf("%d", item.ID))
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	if !strings.Contains(stdout, fmt.Sprintf("Item %d reset for retry", item.ID)) {
		t.Errorf("unexpected retry output: %q", stdout)
	}

	stdout, _, err = runCLI(t, configPath, "queue", "retry", "99")
	if err != nil {
		t.Fatalf("queue retry missing id: %v", err)
	}
	if !strings.Contains(stdout, "Item 99 not found") {
		t.Errorf("unexpected missing-item output: %q", stdout)
	}

	if _, _, err := runCLI(t, configPath, "queue", "retry", "zero"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}

	stdout, _, err = runCLI(t, configPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	for _, want := range []string{"Database exists: yes", "Integrity check: yes", "1 total", "1 pending"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("health output missing %q: %q", want, stdout)
		}
	}
}
