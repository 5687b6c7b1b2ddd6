package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"easyaisubbing/internal/pipeline"
	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/testsupport"
)

func TestExtractAudioExecuteWritesWav(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.FFmpeg.FFprobeBinary = writeFFprobeStub(t, probeVideoWithAudio)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	item := testsupport.NewItem(t, store, queue.NewItemRequest{
		Kind:       queue.KindMedia,
		SourcePath: source,
	})

	var calls [][]string
	handler := pipeline.NewExtractAudio(cfg, store, nil).WithFFmpeg(stubFFmpeg(t, &calls))

	ctx := context.Background()
	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	meta := item.Metadata()
	wantAudio := filepath.Join(item.WorkRoot(cfg.Paths.StagingDir), "audio.wav")
	if meta.AudioPath != wantAudio {
		t.Fatalf("AudioPath = %q, want %q", meta.AudioPath, wantAudio)
	}
	if _, err := os.Stat(meta.AudioPath); err != nil {
		t.Fatalf("extracted audio missing: %v", err)
	}
	if meta.DurationSeconds != 12.5 {
		t.Fatalf("DurationSeconds = %v, want 12.5", meta.DurationSeconds)
	}
	if len(calls) != 1 {
		t.Fatalf("ffmpeg ran %d times, want 1", len(calls))
	}
	if !argsContain(calls[0], "-ar", "16000") || !argsContain(calls[0], "-ac", "1") {
		t.Fatalf("extraction args missing 16 kHz mono settings: %v", calls[0])
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("ProgressPercent = %v, want 100", item.ProgressPercent)
	}
}

func TestExtractAudioRejectsSilentSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.FFmpeg.FFprobeBinary = writeFFprobeStub(t, probeVideoNoAudio)
	store := testsupport.MustOpenStore(t, cfg)

	source := filepath.Join(t.TempDir(), "slideshow.mkv")
	if err := os.WriteFile(source, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	item := testsupport.NewItem(t, store, queue.NewItemRequest{
		Kind:       queue.KindMedia,
		SourcePath: source,
	})

	handler := pipeline.NewExtractAudio(cfg, store, nil).WithFFmpeg(stubFFmpeg(t, nil))

	ctx := context.Background()
	if err := handler.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	err := handler.Execute(ctx, item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Execute error = %v, want validation", err)
	}
	if got := services.FailureStatus(err); got != queue.StatusReview {
		t.Fatalf("FailureStatus = %v, want review", got)
	}
}

func TestExtractAudioPrepareRequiresSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, queue.NewItemRequest{
		Kind:       queue.KindMedia,
		SourcePath: filepath.Join(t.TempDir(), "vanished.mkv"),
	})

	handler := pipeline.NewExtractAudio(cfg, store, nil)
	if err := handler.Prepare(context.Background(), item); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("Prepare error = %v, want not found", err)
	}
}
