package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"easyaisubbing/internal/media/ffmpeg"
)

// writeFFprobeStub writes an executable that prints the given JSON
// payload, standing in for ffprobe.
func writeFFprobeStub(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\ncat <<'PROBE'\n" + payload + "\nPROBE\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return path
}

const probeVideoWithAudio = `{"streams":[` +
	`{"index":0,"codec_type":"video","codec_name":"h264","width":1920,"height":1080},` +
	`{"index":1,"codec_type":"audio","codec_name":"aac"}],` +
	`"format":{"duration":"12.5","size":"1024","bit_rate":"128000"}}`

const probeVideoNoAudio = `{"streams":[` +
	`{"index":0,"codec_type":"video","codec_name":"h264","width":1280,"height":720}],` +
	`"format":{"duration":"8.0"}}`

// stubFFmpeg returns an ffmpeg wrapper whose subprocess is replaced by
// a runner that records the argv and writes the output path, which is
// always the final argument.
func stubFFmpeg(t *testing.T, calls *[][]string) *ffmpeg.FFmpeg {
	t.Helper()
	f := ffmpeg.New("ffmpeg", nil)
	f.WithCommandRunner(func(ctx context.Context, onLine func(line string), name string, args ...string) error {
		if calls != nil {
			*calls = append(*calls, append([]string(nil), args...))
		}
		return os.WriteFile(args[len(args)-1], []byte("artifact"), 0o644)
	})
	return f
}

func argsContain(args []string, want ...string) bool {
	for i := 0; i+len(want) <= len(args); i++ {
		match := true
		for j, w := range want {
			if args[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
