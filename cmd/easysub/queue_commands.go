package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the processing queue",
	}

	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetStuckCommand(ctx))

	return queueCmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var targetLang string
	var title string

	cmd := &cobra.Command{
		Use:   "add <path|url>",
		Short: "Queue a media file, URL, or subtitle for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return errors.New("source path or URL is required")
			}

			req := queue.NewItemRequest{
				Title:      strings.TrimSpace(title),
				TargetLang: resolveTargetLanguage(targetLang, ""),
			}
			if raw := strings.TrimSpace(kindFlag); raw != "" {
				kind, ok := queue.ParseKind(raw)
				if !ok {
					return fmt.Errorf("unknown kind %q (use media, url, or subtitle)", raw)
				}
				req.Kind = kind
			}

			if req.Kind == queue.KindURL || isURL(source) {
				req.SourceURL = source
			} else {
				path, err := resolveInputFile(source)
				if err != nil {
					return err
				}
				req.SourcePath = path
			}

			return ctx.withStore(func(store *queue.Store) error {
				cmdCtx := cmd.Context()
				out := cmd.OutOrStdout()

				key := req.SourceURL
				if key == "" {
					key = req.SourcePath
				}
				existing, err := store.FindBySource(cmdCtx, key)
				if err != nil {
					return err
				}
				if existing != nil && existing.Status != queue.StatusCompleted && existing.Status != queue.StatusFailed {
					fmt.Fprintf(out, "Source already queued as item %d (%s)\n", existing.ID, existing.Status)
					return nil
				}

				item, err := store.NewItem(cmdCtx, req)
				if err != nil {
					return fmt.Errorf("queue item: %w", err)
				}
				fmt.Fprintf(out, "Queued item %d (%s)\n", item.ID, item.Kind)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Source kind: media, url, or subtitle (default: inferred)")
	cmd.Flags().StringVar(&targetLang, "to", "", "Target language for this item (default: translate.target_language)")
	cmd.Flags().StringVar(&title, "title", "", "Display title override")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters []queue.Status
			for _, raw := range statusFilters {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				filters = append(filters, status)
			}
			return ctx.withStore(func(store *queue.Store) error {
				items, err := store.List(cmd.Context(), filters...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "Title", "Status", "Progress", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFilters, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize queue items by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				total := 0
				for _, count := range stats {
					total += count
				}
				if total == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Status", "Items"},
					buildQueueStatusRows(stats),
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total: %d\n", total)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the queue database schema and integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"database": health,
						"items":    summary,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "queue_items table present: %s\n", yesNo(health.TableExists))
				if len(health.MissingColumns) > 0 {
					missing := append([]string(nil), health.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Items: %d total, %d pending, %d processing, %d review, %d failed, %d completed\n",
					summary.Total, summary.Pending, summary.Processing, summary.Review, summary.Failed, summary.Completed)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit health as JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed items (all of them without arguments)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				cmdCtx := cmd.Context()
				out := cmd.OutOrStdout()

				if len(args) == 0 {
					updated, err := store.RetryFailed(cmdCtx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed item(s)\n", updated)
					return nil
				}

				ids, err := parsePositiveIDs(args)
				if err != nil {
					return err
				}
				for _, id := range ids {
					item, err := store.GetByID(cmdCtx, id)
					if err != nil {
						return err
					}
					if item == nil {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					if item.Status != queue.StatusFailed {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						continue
					}
					if _, err := store.RetryFailed(cmdCtx, id); err != nil {
						return err
					}
					fmt.Fprintf(out, "Item %d reset for retry\n", id)
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var completed bool
	var failed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items (everything, or one class with a flag)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if completed && failed {
				return errors.New("choose at most one of --completed and --failed")
			}
			return ctx.withStore(func(store *queue.Store) error {
				var (
					removed int64
					err     error
					label   = "queue items"
				)
				switch {
				case completed:
					removed, err = store.ClearCompleted(cmd.Context())
					label = "completed items"
				case failed:
					removed, err = store.ClearFailed(cmd.Context())
					label = "failed items"
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&completed, "completed", false, "Only remove completed items")
	cmd.Flags().BoolVar(&failed, "failed", false, "Only remove failed items")
	return cmd
}

func newQueueResetStuckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to pending after a crashed worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				updated, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d item(s) to pending\n", updated)
				return nil
			})
		},
	}
}
