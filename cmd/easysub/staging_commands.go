package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/queue"
	"easyaisubbing/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage pipeline work directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work directories and their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dirs, err := staging.ListDirectories(cfg.Paths.StagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			if jsonOut {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, dirs)
			}

			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No work directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", cfg.Paths.StagingDir)

			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				age := time.Since(dir.ModTime).Truncate(time.Minute)
				totalSize += dir.Size
				rows = append(rows, []string{dir.Name, formatAge(age), formatBytes(dir.Size)})
			}

			fmt.Fprint(out, renderTable(
				[]string{"Name", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), formatBytes(totalSize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the listing as JSON")

	return cmd
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned work directories",
		Long: `Remove work directories left behind by finished or cleared queue items.

By default directories belonging to items still in the queue (anything not
completed or failed) are kept. Use --all to remove every work directory
regardless of queue state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Paths.StagingDir) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Staging directory not configured")
				return nil
			}

			if cleanAll {
				result := staging.CleanStale(cmd.Context(), cfg.Paths.StagingDir, 0, nil)
				return printStagingCleanResult(cmd, result, "work")
			}

			return ctx.withStore(func(store *queue.Store) error {
				items, err := store.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list queue items: %w", err)
				}
				keep := make(map[string]struct{})
				for _, item := range items {
					if item.Status == queue.StatusCompleted || item.Status == queue.StatusFailed {
						continue
					}
					if root := item.WorkRoot(cfg.Paths.StagingDir); root != "" {
						keep[filepath.Base(root)] = struct{}{}
					}
				}
				result := staging.CleanOrphaned(cmd.Context(), cfg.Paths.StagingDir, keep, nil)
				return printStagingCleanResult(cmd, result, "orphaned")
			})
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all work directories, including active ones")

	return cmd
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanResult, label string) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintf(out, "No %s directories to clean\n", label)
		return nil
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d %s directories, %d errors\n", len(result.Removed), label, len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Err)
		}
		return nil
	}
	fmt.Fprintf(out, "Removed %d %s directories\n", len(result.Removed), label)
	return nil
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
