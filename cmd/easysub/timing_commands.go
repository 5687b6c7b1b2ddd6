package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"easyaisubbing/internal/fileutil"
	"easyaisubbing/internal/subtitle"
	"easyaisubbing/internal/timedtext"
)

func newLintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <transcript>",
		Short: "Check a timed transcript for timing and format problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			transcript, issues := timedtext.Parse(string(text))
			if len(transcript) == 0 {
				return fmt.Errorf("%s contains no timed lines", filepath.Base(source))
			}
			rules := timedtext.Rules(cfg.CueRules())
			issues = append(issues, timedtext.Lint(transcript, rules)...)

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "%s: %d lines, no timing issues\n", filepath.Base(source), len(transcript))
				return nil
			}
			for _, issue := range issues {
				fmt.Fprintln(out, issue)
			}
			return fmt.Errorf("%d timing issue(s) in %s", len(issues), filepath.Base(source))
		},
	}
}

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "normalize <transcript>",
		Short: "Sort, dedupe, and tidy a timed transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			text, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			transcript, issues := timedtext.Parse(string(text))
			if len(transcript) == 0 {
				return fmt.Errorf("%s contains no timed lines", filepath.Base(source))
			}
			normalized := timedtext.Normalize(transcript)

			target, err := resolveOutputPath(outPath, siblingPath(source, ".normalized.txt"), source)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(target, []byte(normalized.String()), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Normalized %d lines to %s\n", len(normalized), target)
			for _, issue := range issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: <source>.normalized.txt)")
	return cmd
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "convert <transcript>",
		Short: "Convert a timed transcript to SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}

			transcript, issues := timedtext.Parse(string(text))
			if len(transcript) == 0 {
				return fmt.Errorf("%s contains no timed lines", filepath.Base(source))
			}
			rules := timedtext.Rules(cfg.CueRules())
			refined, refineIssues := timedtext.RefineTiming(transcript, rules)
			doc, convertIssues := timedtext.ToSRT(refined, rules)
			if len(doc.Cues) == 0 {
				return fmt.Errorf("no cues survived timing refinement in %s", filepath.Base(source))
			}

			target, err := resolveOutputPath(outPath, siblingPath(source, ".srt"), source)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(target, subtitle.FormatSRT(doc), 0o644); err != nil {
				return fmt.Errorf("write subtitle: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s (%d cues)\n", target, len(doc.Cues))
			issues = append(issues, refineIssues...)
			issues = append(issues, convertIssues...)
			for _, issue := range issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: <source>.srt)")
	return cmd
}

func newRefineCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "refine <transcript|srt>",
		Short: "Apply timing rules to a transcript or SRT file",
		Long: `Refine applies the configured cue timing rules (gap enforcement,
duration clamps, overlap repair) to a timed transcript or an SRT file
and writes the result alongside the source.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolveInputFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read %s: %w", filepath.Base(source), err)
			}
			rules := timedtext.Rules(cfg.CueRules())
			out := cmd.OutOrStdout()

			if subtitle.DetectFormat(source, data) == subtitle.SRTFormat {
				doc, err := subtitle.ParseSRT(data, true)
				if err != nil {
					return fmt.Errorf("parse SRT: %w", err)
				}
				if len(doc.Cues) == 0 {
					return fmt.Errorf("%s contains no cues", filepath.Base(source))
				}
				refined, issues := timedtext.RefineTiming(transcriptFromDocument(doc), rules)
				outDoc, convertIssues := timedtext.ToSRT(refined, rules)

				target, err := resolveOutputPath(outPath, siblingPath(source, ".refined.srt"), source)
				if err != nil {
					return err
				}
				if err := fileutil.WriteFileAtomic(target, subtitle.FormatSRT(outDoc), 0o644); err != nil {
					return fmt.Errorf("write subtitle: %w", err)
				}
				fmt.Fprintf(out, "Refined %d cues to %s\n", len(outDoc.Cues), target)
				issues = append(issues, convertIssues...)
				for _, issue := range issues {
					fmt.Fprintf(out, "  %s\n", issue)
				}
				return nil
			}

			transcript, issues := timedtext.Parse(string(data))
			if len(transcript) == 0 {
				return fmt.Errorf("%s contains no timed lines", filepath.Base(source))
			}
			refined, refineIssues := timedtext.RefineTiming(transcript, rules)

			target, err := resolveOutputPath(outPath, siblingPath(source, ".refined.txt"), source)
			if err != nil {
				return err
			}
			if err := fileutil.WriteFileAtomic(target, []byte(refined.String()), 0o644); err != nil {
				return fmt.Errorf("write transcript: %w", err)
			}
			fmt.Fprintf(out, "Refined %d lines to %s\n", len(refined), target)
			issues = append(issues, refineIssues...)
			for _, issue := range issues {
				fmt.Fprintf(out, "  %s\n", issue)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: <source>.refined.<ext>)")
	return cmd
}

// transcriptFromDocument flattens SRT cues into timed lines so the
// transcript timing rules apply to existing subtitles too.
func transcriptFromDocument(doc *subtitle.Document) timedtext.Transcript {
	transcript := make(timedtext.Transcript, 0, len(doc.Cues))
	for i, cue := range doc.Cues {
		transcript = append(transcript, timedtext.Line{
			Start:  cue.Start.Seconds(),
			End:    cue.End.Seconds(),
			Text:   cue.Text(),
			Number: i + 1,
		})
	}
	return transcript
}
