package fetch

import (
	"testing"
)

func TestHistoryUpsertsByURL(t *testing.T) {
	dir := t.TempDir()

	first := Record{
		ID:        urlHash("https://example.com/v/1"),
		URL:       "https://example.com/v/1",
		Title:     "First",
		Path:      "/media/first.mp4",
		FetchedAt: "2026-08-20T10:00:00Z",
	}
	second := Record{
		ID:        urlHash("https://example.com/v/2"),
		URL:       "https://example.com/v/2",
		Title:     "Second",
		Path:      "/media/second.mp4",
		FetchedAt: "2026-08-21T10:00:00Z",
	}
	if err := recordDownload(dir, first); err != nil {
		t.Fatalf("recordDownload: %v", err)
	}
	if err := recordDownload(dir, second); err != nil {
		t.Fatalf("recordDownload: %v", err)
	}

	// Re-fetching the first URL replaces its record instead of appending.
	first.Path = "/media/first-redownload.mp4"
	first.FetchedAt = "2026-08-22T10:00:00Z"
	if err := recordDownload(dir, first); err != nil {
		t.Fatalf("recordDownload: %v", err)
	}

	records, err := History(dir)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].URL != first.URL || records[0].Path != "/media/first-redownload.mp4" {
		t.Fatalf("newest record = %+v, want updated first", records[0])
	}
	if records[1].URL != second.URL {
		t.Fatalf("oldest record = %+v, want second", records[1])
	}
}

func TestHistoryMissingIndex(t *testing.T) {
	records, err := History(t.TempDir())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if records != nil {
		t.Fatalf("records = %v, want nil", records)
	}
}

func TestURLHashStable(t *testing.T) {
	a := urlHash("https://example.com/v/1")
	b := urlHash(" https://example.com/v/1 ")
	if a != b {
		t.Fatalf("hash differs after trimming: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("hash length = %d, want 16", len(a))
	}
}
