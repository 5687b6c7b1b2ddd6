package preflight

import (
	"context"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/deps"
)

// Result captures the outcome of a single environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Report aggregates environment checks and external tool probes.
type Report struct {
	Checks []Result
	Tools  []deps.Status
}

// Passed reports whether every check succeeded and every required tool
// is available. Optional tools do not block a passing report.
func (r Report) Passed() bool {
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	for _, tool := range r.Tools {
		if !tool.Available && !tool.Optional {
			return false
		}
	}
	return true
}

// Run executes the full preflight suite for the given configuration.
// The API connectivity check only runs when a key is configured so the
// report stays useful on machines that have not been set up yet.
func Run(ctx context.Context, cfg *config.Config) Report {
	var report Report
	if cfg == nil {
		return report
	}

	report.Checks = append(report.Checks,
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	)
	if cfg.Paths.DownloadDir != "" {
		report.Checks = append(report.Checks,
			CheckDirectoryAccess("Download directory", cfg.Paths.DownloadDir))
	}

	report.Checks = append(report.Checks, CheckGeminiKey(cfg))
	if cfg.HasGeminiKey() {
		report.Checks = append(report.Checks, CheckGeminiAPI(ctx, cfg))
	}

	report.Tools = CheckSystemDeps(cfg)
	return report
}
