package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const outputTailLines = 12

// commandRunner executes yt-dlp, invoking onLine for every status line it
// prints, and returns the trailing output for failure classification. yt-dlp
// reports progress on stdout and errors on stderr, so the runner scans stdout
// and buffers stderr whole.
type commandRunner func(ctx context.Context, onLine func(line string), name string, args ...string) (string, error)

// captureRunner executes yt-dlp and returns its stdout, for metadata dumps
// that must stay free of interleaved warnings.
type captureRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultCommandRunner(ctx context.Context, onLine func(line string), name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("attaching stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("starting %s: %w", name, err)
	}

	tail := make([]string, 0, outputTailLines)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanStatusLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(tail) == outputTailLines {
			copy(tail, tail[1:])
			tail = tail[:outputTailLines-1]
		}
		tail = append(tail, line)
		if onLine != nil {
			onLine(line)
		}
	}

	waitErr := cmd.Wait()
	output := strings.TrimSpace(strings.Join(tail, "\n") + "\n" + stderr.String())
	if waitErr != nil {
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		return output, waitErr
	}
	return output, nil
}

func defaultCaptureRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return out, nil
}

// scanStatusLines splits on both \n and \r so progress lines yt-dlp rewrites
// in place are seen individually.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
