package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/deps"
	"easyaisubbing/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, credentials, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.Run(cmd.Context(), cfg)

			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDoctorReport(cmd, report)
			}

			if !report.Passed() {
				return errors.New("environment is not ready; fix the failed checks above")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
	return cmd
}

func printDoctorReport(cmd *cobra.Command, report preflight.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSectionHeader("External tools", colorize))
	for _, tool := range report.Tools {
		fmt.Fprintln(out, renderStatusLine(tool.Name, toolStatusKind(tool), toolDetail(cmd, tool), colorize))
	}
}

func toolStatusKind(tool deps.Status) statusKind {
	switch {
	case tool.Available:
		return statusOK
	case tool.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func toolDetail(cmd *cobra.Command, tool deps.Status) string {
	if !tool.Available {
		detail := tool.Detail
		if tool.Optional {
			detail += " (optional)"
		}
		return detail
	}
	if version := deps.VersionString(cmd.Context(), tool.Command, toolVersionArgs(tool.Command)...); version != "" {
		return version
	}
	return tool.Command
}

// toolVersionArgs picks the version flag each tool understands; the
// ffmpeg family takes a single dash.
func toolVersionArgs(command string) []string {
	name := strings.ToLower(filepath.Base(command))
	if strings.HasPrefix(name, "ff") {
		return []string{"-version"}
	}
	return []string{"--version"}
}
