package ffmpeg

import (
	"regexp"
	"strconv"
)

var progressTimeRe = regexp.MustCompile(`time=(\d{2,}):(\d{2}):(\d{2})\.(\d{2,3})`)

// progressSeconds extracts the transcode position from an ffmpeg status
// line. The second result is false when the line carries no position.
func progressSeconds(line string) (float64, bool) {
	m := progressTimeRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	frac, _ := strconv.ParseFloat("0."+m[4], 64)
	return float64(hours*3600+minutes*60+seconds) + frac, true
}

// progressScanner adapts a percent callback into a per-line callback for
// the command runner. A missing duration or callback disables reporting.
func progressScanner(totalSeconds float64, onProgress ProgressFunc) func(string) {
	if onProgress == nil || totalSeconds <= 0 {
		return nil
	}
	return func(line string) {
		position, ok := progressSeconds(line)
		if !ok {
			return
		}
		percent := position / totalSeconds * 100
		if percent > 100 {
			percent = 100
		}
		onProgress(percent)
	}
}
