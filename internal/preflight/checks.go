package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/deps"
	"easyaisubbing/internal/gemini"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckGeminiKey reports whether an API key is configured. The detail
// names the sources the resolver consults but never the key itself.
func CheckGeminiKey(cfg *config.Config) Result {
	const name = "Gemini API key"
	if cfg.HasGeminiKey() {
		return Result{Name: name, Passed: true, Detail: "configured"}
	}
	return Result{
		Name:   name,
		Detail: fmt.Sprintf("missing (set GEMINI_API_KEY, write %s, or add a .env next to the binary)", cfg.Gemini.KeyFile),
	}
}

// CheckGeminiAPI verifies that the Gemini API is reachable and the key is
// accepted. It resolves the configured model with a 15-second timeout and a
// single attempt, so a typo'd model name surfaces here instead of failing
// the first transcription.
func CheckGeminiAPI(ctx context.Context, cfg *config.Config) Result {
	const name = "Gemini API"
	if !cfg.HasGeminiKey() {
		return Result{Name: name, Detail: "skipped (no API key)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client := gemini.NewClient(gemini.Config(cfg.GeminiOptions()), gemini.WithRetryAttempts(1))
	resolved, err := client.ResolveModel(checkCtx, cfg.Gemini.Model)
	if err != nil {
		return Result{Name: name, Detail: summarizeGeminiError(err)}
	}
	detail := fmt.Sprintf("reachable (model %s)", resolved)
	if resolved != cfg.Gemini.Model {
		detail = fmt.Sprintf("reachable (configured model %q not listed; nearest is %s)", cfg.Gemini.Model, resolved)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out
// to. Both the worker and the doctor command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction, muxing, and hardsub encodes",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.YtDlpBinary(),
			Description: "Enables downloading sources from URLs",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeGeminiError produces a human-readable summary for API check failures.
func summarizeGeminiError(err error) string {
	switch {
	case gemini.IsInvalidKey(err):
		return "authentication failed (invalid API key)"
	case gemini.IsQuota(err):
		return "quota exhausted (retry later or switch models)"
	case gemini.IsDeadline(err):
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
