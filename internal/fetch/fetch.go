package fetch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/textutil"
)

const (
	defaultBinary      = "yt-dlp"
	defaultFormatSort  = "res,ext:mp4:m4a"
	defaultRecodeVideo = "mp4"
	defaultTitleBytes  = 200

	errorSnippetRunes = 400
)

// Kind selects the acquisition mode.
type Kind string

const (
	// KindAudio downloads and post-processes to 16 kHz mono WAV, ready for
	// transcription without a separate extraction step.
	KindAudio Kind = "audio"
	// KindVideo downloads the best available streams recoded to a single
	// video container.
	KindVideo Kind = "video"
)

// ProgressFunc receives download percentages in the 0-100 range.
type ProgressFunc func(percent float64)

// Options describes a single download.
type Options struct {
	URL  string
	Kind Kind
	Dir  string

	// CookiesFromBrowser names a browser (optionally browser:profile) whose
	// cookie jar yt-dlp should use for sites behind a login wall.
	CookiesFromBrowser string

	OnProgress ProgressFunc
}

// Result reports where the download landed.
type Result struct {
	Path  string
	Title string
}

// Config carries the tunables mirrored from the [download] config section.
// Zero values fall back to the defaults.
type Config struct {
	Binary             string
	FormatSort         string
	RecodeVideo        string
	RestrictTitleBytes int
}

// Fetcher wraps the yt-dlp binary.
type Fetcher struct {
	binary      string
	formatSort  string
	recodeVideo string
	titleBytes  int
	logger      *slog.Logger
	run         commandRunner
	capture     captureRunner
}

// New builds a Fetcher. A nil logger disables logging.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = defaultBinary
	}
	formatSort := strings.TrimSpace(cfg.FormatSort)
	if formatSort == "" {
		formatSort = defaultFormatSort
	}
	recode := strings.ToLower(strings.TrimSpace(cfg.RecodeVideo))
	if recode == "" {
		recode = defaultRecodeVideo
	}
	titleBytes := cfg.RestrictTitleBytes
	if titleBytes <= 0 {
		titleBytes = defaultTitleBytes
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		binary:      binary,
		formatSort:  formatSort,
		recodeVideo: recode,
		titleBytes:  titleBytes,
		logger:      logging.NewComponentLogger(logger, "fetch"),
		run:         defaultCommandRunner,
		capture:     defaultCaptureRunner,
	}
}

// WithCommandRunner replaces the download executor, primarily for tests.
func (f *Fetcher) WithCommandRunner(run commandRunner) *Fetcher {
	if run != nil {
		f.run = run
	}
	return f
}

// WithCaptureRunner replaces the metadata executor, primarily for tests.
func (f *Fetcher) WithCaptureRunner(capture captureRunner) *Fetcher {
	if capture != nil {
		f.capture = capture
	}
	return f
}

// Fetch downloads opts.URL into opts.Dir and resolves the resulting file. The
// download index in the target directory is updated on success.
func (f *Fetcher) Fetch(ctx context.Context, opts Options) (Result, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return Result{}, services.Wrap(services.ErrValidation, "fetch", "download", "url is required", nil)
	}
	opts.URL = url
	if opts.Kind == "" {
		opts.Kind = KindVideo
	}
	opts.Dir = strings.TrimSpace(opts.Dir)
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "fetch", "download", "creating output directory", err)
	}

	wantExt := f.expectedExt(opts.Kind)
	args := f.buildArgs(opts)
	start := time.Now()

	f.logger.Debug("downloading",
		logging.String("url", url),
		logging.String("kind", string(opts.Kind)),
		logging.String("dir", opts.Dir))

	var cands candidates
	onLine := func(line string) {
		if pct, ok := progressPercent(line); ok {
			if opts.OnProgress != nil {
				opts.OnProgress(pct)
			}
			return
		}
		cands.observe(line, wantExt)
	}

	output, err := f.run(ctx, onLine, f.binary, args...)
	if err != nil {
		marker, reason := classifyFailure(output)
		return Result{}, services.Wrap(marker, "fetch", "download", failureDetail(reason, output), err)
	}

	path, ok := resolveOutput(cands, opts.Dir, wantExt, start)
	if !ok {
		return Result{}, services.Wrap(services.ErrExternalTool, "fetch", "download", "downloaded file not found in "+opts.Dir, nil)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	record := Record{
		ID:        urlHash(url),
		URL:       url,
		Title:     title,
		Path:      path,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := recordDownload(opts.Dir, record); err != nil {
		f.logger.Warn("recording download history failed", logging.Error(err))
	}

	f.logger.Debug("download complete", logging.String("path", path))
	return Result{Path: path, Title: title}, nil
}

func (f *Fetcher) buildArgs(opts Options) []string {
	args := []string{
		"--no-check-certificates",
		"--no-mtime",
		"--ignore-config",
		"--no-playlist",
		"-P", opts.Dir,
		"-o", f.outputTemplate(),
	}
	switch opts.Kind {
	case KindAudio:
		args = append(args,
			"-x",
			"--audio-format", "wav",
			"--audio-quality", "0",
			"--ppa", "ffmpeg:-ar 16000 -ac 1",
		)
	default:
		args = append(args, "-S", f.formatSort, "--recode-video", f.recodeVideo)
	}
	if browser := strings.TrimSpace(opts.CookiesFromBrowser); browser != "" {
		args = append(args, "--cookies-from-browser", browser)
	}
	return append(args, opts.URL)
}

// outputTemplate truncates titles by bytes, not characters, so multibyte
// titles cannot overflow filesystem name limits.
func (f *Fetcher) outputTemplate() string {
	return "%(title)." + strconv.Itoa(f.titleBytes) + "B.%(ext)s"
}

func (f *Fetcher) expectedExt(kind Kind) string {
	if kind == KindAudio {
		return ".wav"
	}
	return "." + strings.TrimPrefix(f.recodeVideo, ".")
}

var (
	downloadPercentRe = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)
	mergerRe          = regexp.MustCompile(`Merging formats into "([^"]+)"`)
	destinationRe     = regexp.MustCompile(`\[(?:info|ExtractAudio|download|Fixup\w*)\] Destination: (.+)`)
	infoOutputRe      = regexp.MustCompile(`^\[info\] Output: (.+)`)
)

func progressPercent(line string) (float64, bool) {
	m := downloadPercentRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// candidates collects the output paths yt-dlp reports as it works. Later
// reports replace earlier ones since post-processors print after downloaders.
type candidates struct {
	merger      string
	destination string
	infoOutput  string
}

func (c *candidates) observe(line, wantExt string) {
	if m := mergerRe.FindStringSubmatch(line); m != nil {
		c.merger = strings.TrimSpace(m[1])
		return
	}
	if m := destinationRe.FindStringSubmatch(line); m != nil {
		// Destination lines also name intermediate downloads, so only the
		// expected extension counts.
		if p := strings.TrimSpace(m[1]); strings.EqualFold(filepath.Ext(p), wantExt) {
			c.destination = p
		}
		return
	}
	if m := infoOutputRe.FindStringSubmatch(line); m != nil {
		c.infoOutput = strings.TrimSpace(m[1])
	}
}

func resolveOutput(c candidates, dir, wantExt string, since time.Time) (string, bool) {
	for _, p := range []string{c.merger, c.destination, c.infoOutput} {
		if resolved, ok := locateFile(p, dir); ok {
			return resolved, true
		}
	}
	return newestFileSince(dir, wantExt, since)
}

func locateFile(path, dir string) (string, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", false
	}
	try := []string{path}
	if !filepath.IsAbs(path) {
		try = []string{filepath.Join(dir, filepath.Base(path)), path}
	}
	for _, p := range try {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs, true
		}
		return p, true
	}
	return "", false
}

func newestFileSince(dir, wantExt string, since time.Time) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var best string
	var bestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), wantExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().Before(since) {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best = entry.Name()
			bestMod = info.ModTime()
		}
	}
	if best == "" {
		return "", false
	}
	p := filepath.Join(dir, best)
	if abs, err := filepath.Abs(p); err == nil {
		return abs, true
	}
	return p, true
}

// classifyFailure inspects yt-dlp output and maps known failure modes to the
// service sentinel that drives queue status. Conditions the operator can act
// on (bad URL, sign-in walls, geo blocks) classify as validation so the item
// lands in review instead of retrying forever.
func classifyFailure(output string) (error, string) {
	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "unsupported url"),
		strings.Contains(lower, "is not a valid url"):
		return services.ErrValidation, "unsupported URL"
	case strings.Contains(lower, "sign in to confirm"),
		strings.Contains(lower, "login required"),
		strings.Contains(lower, "members-only"),
		strings.Contains(lower, "members only"),
		strings.Contains(lower, "private video"),
		strings.Contains(lower, "use --cookies"):
		return services.ErrValidation, "sign-in required, retry with --cookies-from-browser"
	case strings.Contains(lower, "not available in your country"),
		strings.Contains(lower, "geo restriction"),
		strings.Contains(lower, "geo-restricted"):
		return services.ErrValidation, "video is geo-restricted"
	case strings.Contains(lower, "certificate verify failed"),
		strings.Contains(lower, "certificate_verify_failed"):
		return services.ErrExternalTool, "TLS certificate problem"
	}
	return services.ErrExternalTool, ""
}

func failureDetail(reason, output string) string {
	snippet := textutil.Snippet(output, errorSnippetRunes)
	switch {
	case reason == "":
		return snippet
	case snippet == "":
		return reason
	}
	return reason + ": " + snippet
}
