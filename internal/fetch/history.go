package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"easyaisubbing/internal/fileutil"
)

// historyFile is the per-directory download index. Records are keyed by URL
// hash so re-fetching a URL updates its record in place.
const historyFile = "downloads.json"

// Record is one entry in the download index.
type Record struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Path      string `json:"path"`
	FetchedAt string `json:"fetched_at"`
}

func urlHash(rawURL string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(rawURL)))
	return hex.EncodeToString(sum[:])[:16]
}

func recordDownload(dir string, rec Record) error {
	path := filepath.Join(dir, historyFile)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading download index: %w", err)
	}
	updated, err := sjson.SetBytes(data, "downloads."+rec.ID, rec)
	if err != nil {
		return fmt.Errorf("updating download index: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, updated, 0o644); err != nil {
		return fmt.Errorf("writing download index: %w", err)
	}
	return nil
}

// History lists the download index for dir, newest first. A missing index is
// an empty history, not an error.
func History(dir string) ([]Record, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	data, err := os.ReadFile(filepath.Join(dir, historyFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading download index: %w", err)
	}

	var records []Record
	gjson.GetBytes(data, "downloads").ForEach(func(_, value gjson.Result) bool {
		records = append(records, Record{
			ID:        value.Get("id").String(),
			URL:       value.Get("url").String(),
			Title:     value.Get("title").String(),
			Path:      value.Get("path").String(),
			FetchedAt: value.Get("fetched_at").String(),
		})
		return true
	})

	// fetched_at is RFC 3339 UTC, so string order is time order.
	sort.Slice(records, func(i, j int) bool {
		return records[i].FetchedAt > records[j].FetchedAt
	})
	return records, nil
}
