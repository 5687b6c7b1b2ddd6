package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"easyaisubbing/internal/config"
	"easyaisubbing/internal/language"
)

// resolveInputFile expands and validates a file argument, returning its
// absolute path.
func resolveInputFile(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("file path is required")
	}
	path, err := config.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file %q not found", path)
		}
		return "", fmt.Errorf("inspect %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path %q is a directory", path)
	}
	return path, nil
}

// stem returns the file name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// siblingPath builds a path next to src with suffix appended to its stem,
// e.g. siblingPath("/a/movie.mkv", ".vi.srt") -> "/a/movie.vi.srt".
func siblingPath(src, suffix string) string {
	return filepath.Join(filepath.Dir(src), stem(src)+suffix)
}

// resolveOutputPath picks the flag value over the default path and
// refuses to write over any of the input files. Relative flag values
// are made absolute before the comparison.
func resolveOutputPath(flagValue, fallback string, inputs ...string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		target = fallback
	}
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	for _, input := range inputs {
		if target == input {
			return "", fmt.Errorf("output would overwrite the input %s; pass a different --out", filepath.Base(input))
		}
	}
	return target, nil
}

// resolveTargetLanguage picks the flag value over the config default and
// canonicalizes names and codes the language table knows ("de", "german"
// both become "German"). Anything else passes through verbatim so users
// are not limited to the built-in list.
func resolveTargetLanguage(flagValue, configValue string) string {
	lang := strings.TrimSpace(flagValue)
	if lang == "" {
		lang = strings.TrimSpace(configValue)
	}
	if canonical, ok := language.Normalize(lang); ok {
		return canonical
	}
	return lang
}

func splitCommaList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func isURL(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// writeJSON encodes v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// progressPrinter renders a single-line percentage on TTYs and stays
// silent otherwise, so piped output is not polluted.
type progressPrinter struct {
	out  *os.File
	verb string
	tty  bool
	last int
	drew bool
}

func newProgressPrinter(verb string) *progressPrinter {
	out := os.Stderr
	return &progressPrinter{
		out:  out,
		verb: verb,
		tty:  isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()),
		last: -1,
	}
}

func (p *progressPrinter) update(percent float64) {
	if p == nil || !p.tty {
		return
	}
	value := int(percent)
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	if value == p.last {
		return
	}
	p.last = value
	p.drew = true
	fmt.Fprintf(p.out, "\r%s %3d%%", p.verb, value)
}

func (p *progressPrinter) updateCount(done, total int) {
	if total <= 0 {
		return
	}
	p.update(float64(done) / float64(total) * 100)
}

func (p *progressPrinter) done() {
	if p == nil || !p.tty || !p.drew {
		return
	}
	fmt.Fprint(p.out, "\r\x1b[K")
}
