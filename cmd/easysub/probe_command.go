package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/media/ffprobe"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var rawJSON bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a media file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary(), path)
			if err != nil {
				return fmt.Errorf("probe %s: %w", filepath.Base(path), err)
			}

			out := cmd.OutOrStdout()
			if rawJSON {
				fmt.Fprintln(out, string(bytes.TrimSpace(result.RawJSON())))
				return nil
			}
			printProbeSummary(out, path, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print the raw ffprobe JSON")
	return cmd
}

func printProbeSummary(out io.Writer, path string, result ffprobe.Result) {
	fmt.Fprintf(out, "File: %s\n", path)
	if result.Format.FormatName != "" {
		fmt.Fprintf(out, "Container: %s\n", result.Format.FormatName)
	}
	fmt.Fprintf(out, "Duration: %s\n", formatClock(result.DurationSeconds()))
	if size := result.SizeBytes(); size > 0 {
		fmt.Fprintf(out, "Size: %s\n", formatBytes(size))
	}
	if rate := result.BitRate(); rate > 0 {
		fmt.Fprintf(out, "Bit rate: %d kb/s\n", rate/1000)
	}
	fmt.Fprintln(out)

	rows := make([][]string, 0, len(result.Streams))
	for _, stream := range result.Streams {
		rows = append(rows, []string{
			fmt.Sprintf("%d", stream.Index),
			stream.CodecType,
			stream.CodecName,
			streamDetail(stream),
			stream.Language(),
			stream.Title(),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Type", "Codec", "Detail", "Lang", "Title"},
		rows,
		[]columnAlignment{alignRight},
	))
}

func streamDetail(stream ffprobe.Stream) string {
	switch stream.CodecType {
	case "video":
		if stream.Width > 0 && stream.Height > 0 {
			return fmt.Sprintf("%dx%d", stream.Width, stream.Height)
		}
	case "audio":
		var parts []string
		if stream.SampleRate != "" {
			parts = append(parts, stream.SampleRate+" Hz")
		}
		if stream.Channels > 0 {
			parts = append(parts, fmt.Sprintf("%d ch", stream.Channels))
		}
		return joinNonEmpty(parts, ", ")
	case "subtitle":
		var parts []string
		if stream.Disposition.Default != 0 {
			parts = append(parts, "default")
		}
		if stream.Disposition.Forced != 0 {
			parts = append(parts, "forced")
		}
		return joinNonEmpty(parts, ", ")
	}
	return ""
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += part
	}
	return out
}

func formatClock(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	total := int(time.Duration(seconds * float64(time.Second)).Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
