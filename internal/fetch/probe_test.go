package fetch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"easyaisubbing/internal/services"
)

func TestProbeParsesMetadata(t *testing.T) {
	var got []string
	f := New(Config{}, nil).WithCaptureRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		got = append([]string{name}, args...)
		return []byte(`{"title":"Demo Clip","ext":"mp4","duration":93.5,"webpage_url":"https://example.com/w/1"}` + "\n"), nil
	})

	info, err := f.Probe(context.Background(), "https://example.com/v/1")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}

	want := "yt-dlp -j --no-playlist https://example.com/v/1"
	if joined := strings.Join(got, " "); joined != want {
		t.Fatalf("args = %q, want %q", joined, want)
	}
	if info.Title != "Demo Clip" || info.Ext != "mp4" || info.DurationSeconds != 93.5 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.WebpageURL != "https://example.com/w/1" {
		t.Fatalf("WebpageURL = %q", info.WebpageURL)
	}
}

func TestProbeFallsBackToRequestURL(t *testing.T) {
	f := New(Config{}, nil).WithCaptureRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`{"title":"Untitled"}`), nil
	})

	info, err := f.Probe(context.Background(), "https://example.com/v/2")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.WebpageURL != "https://example.com/v/2" {
		t.Fatalf("WebpageURL = %q, want request URL", info.WebpageURL)
	}
}

func TestProbeRejectsInvalidMetadata(t *testing.T) {
	f := New(Config{}, nil).WithCaptureRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("WARNING: not json"), nil
	})

	_, err := f.Probe(context.Background(), "https://example.com/v/3")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("err = %v, want ErrExternalTool", err)
	}
}

func TestProbeClassifiesUnsupportedURL(t *testing.T) {
	f := New(Config{}, nil).WithCaptureRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: ERROR: Unsupported URL: https://example.com/nope")
	})

	_, err := f.Probe(context.Background(), "https://example.com/nope")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestProbeRequiresURL(t *testing.T) {
	f := New(Config{}, nil)
	if _, err := f.Probe(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
