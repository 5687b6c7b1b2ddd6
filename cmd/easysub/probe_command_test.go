package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"easyaisubbing/internal/config"
)

const probeFixtureJSON = `{"streams":[` +
	`{"index":0,"codec_type":"video","codec_name":"h264","width":1280,"height":720},` +
	`{"index":1,"codec_type":"audio","codec_name":"aac","sample_rate":"48000","channels":2,"tags":{"language":"jpn"}},` +
	`{"index":2,"codec_type":"subtitle","codec_name":"subrip","tags":{"language":"eng","title":"English"}}` +
	`],"format":{"filename":"in.mkv","nb_streams":3,"duration":"83.5","size":"1048576","format_name":"matroska,webm"}}`

// writeStubFFprobe writes a script that ignores its arguments and prints
// a canned ffprobe report.
func writeStubFFprobe(t *testing.T, payload string) string {
	t.Helper()
	dir := t.TempDir()
	fixture := filepath.Join(dir, "report.json")
	if err := os.WriteFile(fixture, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	stub := filepath.Join(dir, "ffprobe")
	script := "#!/bin/sh\ncat \"" + fixture + "\"\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return stub
}

func TestCLIProbe(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	stub := writeStubFFprobe(t, probeFixtureJSON)
	configPath := writeTestConfig(t, func(cfg *config.Config) {
		cfg.FFmpeg.FFprobeBinary = stub
	})

	media := filepath.Join(t.TempDir(), "in.mkv")
	if err := os.WriteFile(media, []byte("x"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	stdout, _, err := runCLI(t, configPath, "probe", media)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	for _, want := range []string{"matroska", "00:01:24", "h264", "1280x720", "48000 Hz, 2 ch", "subrip", "English"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary missing %q: %q", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, configPath, "probe", media, "--json")
	if err != nil {
		t.Fatalf("probe --json: %v", err)
	}
	if strings.TrimSpace(stdout) != probeFixtureJSON {
		t.Errorf("raw JSON not passed through: %q", stdout)
	}
}
