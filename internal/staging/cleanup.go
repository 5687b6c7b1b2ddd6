// Package staging maintains the per-item work area under paths.staging_dir.
// Pipeline stages leave intermediate artifacts (extracted audio, transcripts,
// translated subtitles) in per-item directories; this package reclaims them
// once the owning item is gone or the directory has aged out.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"easyaisubbing/internal/logging"
)

// CleanResult reports which directories a cleanup pass removed and which
// removals failed.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its removal error.
type CleanupError struct {
	Path string
	Err  error
}

// CleanStale removes work directories whose modification time is older than
// maxAge. A maxAge of zero removes every directory.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Err: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: filepath.Join(stagingDir, entry.Name()), Err: err})
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		remove(stagingDir, entry.Name(), info.ModTime(), logger, &result)
	}

	return result
}

// CleanOrphaned removes work directories whose name is not in keep. The
// caller builds keep from the work roots of queue items that are still in
// flight, so directories left behind by cleared or finished items go away
// while active ones survive.
func CleanOrphaned(ctx context.Context, stagingDir string, keep map[string]struct{}, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Err: err})
		}
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}
		if _, active := keep[entry.Name()]; active {
			continue
		}
		remove(stagingDir, entry.Name(), time.Time{}, logger, &result)
	}

	return result
}

func remove(stagingDir, name string, modTime time.Time, logger *slog.Logger, result *CleanResult) {
	dirPath := filepath.Join(stagingDir, name)
	if err := os.RemoveAll(dirPath); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dirPath, Err: err})
		if logger != nil {
			logger.Warn("failed to remove staging directory",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
			)
		}
		return
	}
	result.Removed = append(result.Removed, dirPath)
	if logger != nil {
		attrs := []logging.Attr{
			logging.String("path", dirPath),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		}
		if !modTime.IsZero() {
			attrs = append(attrs, logging.Duration("age", time.Since(modTime)))
		}
		logger.Info("removed staging directory", logging.Args(attrs...)...)
	}
}

// DirInfo describes one work directory for listings.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns the work directories under stagingDir with their
// recursive sizes. A missing staging directory yields an empty list.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(stagingDir, entry.Name())
		size, _ := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}

	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
