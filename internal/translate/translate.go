// Package translate turns subtitle text into another language in
// numbered batches. Providers send one prompt per batch and must hand
// back exactly as many "[Segment N]:" lines as they were given; a batch
// that comes back malformed is retried once with a corrective reminder
// before the whole translation fails.
package translate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/prompt"
)

// DefaultBatchSize bounds how many segments travel in one request when
// the caller does not choose a size.
const DefaultBatchSize = 30

// Request describes one translation job over flattened cue texts.
type Request struct {
	// Lines are the source texts, one per cue, already cleaned of markup.
	Lines []string
	// SourceLang names the input language; empty or "auto" lets the
	// model detect it.
	SourceLang string
	// TargetLang is the language to translate into.
	TargetLang string
	// Style selects a translation style preset.
	Style string
	// Keywords hold preferred target-language terminology.
	Keywords []string
	// BatchSize overrides DefaultBatchSize when positive.
	BatchSize int
}

// ProgressFunc reports completed line counts after each batch.
type ProgressFunc func(done, total int)

// Provider is a translation backend.
type Provider interface {
	// Translate returns one translated line per input line, in order.
	Translate(ctx context.Context, req Request, progress ProgressFunc) ([]string, error)
	// Name identifies the backend in logs and errors.
	Name() string
}

var segmentMarkerRe = regexp.MustCompile(`^\[Segment (\d+)\]:`)

// ParseSegments extracts translated segment texts from a provider
// response. A line starting with a "[Segment N]:" marker opens a
// segment; following lines without a marker belong to it; text before
// the first marker is discarded. Segments are returned in the order
// they appear.
func ParseSegments(text string) []string {
	var segments []string
	var current []string
	open := false
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := segmentMarkerRe.FindStringIndex(line); m != nil {
			if open {
				segments = append(segments, strings.Join(current, "\n"))
			}
			open = true
			current = current[:0]
			if rest := strings.TrimSpace(line[m[1]:]); rest != "" {
				current = append(current, rest)
			}
			continue
		}
		if open {
			current = append(current, line)
		}
	}
	if open {
		segments = append(segments, strings.Join(current, "\n"))
	}
	return segments
}

// sendFunc performs one prompt round trip for a provider.
type sendFunc func(ctx context.Context, body string) (string, error)

func correctiveReminder(count, first, last int) string {
	return fmt.Sprintf(
		"\n\nIMPORTANT: Your response MUST contain EXACTLY %d segments, the first starting with \"[Segment %d]:\" and the last with \"[Segment %d]:\", one per line. Output ONLY those lines.",
		count, first, last)
}

// translateBatches drives the shared batch loop for every provider.
func translateBatches(ctx context.Context, req Request, progress ProgressFunc, logger *slog.Logger, name string, send sendFunc) ([]string, error) {
	total := len(req.Lines)
	if total == 0 {
		return nil, nil
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		return nil, fmt.Errorf("%s: target language is required", name)
	}
	size := req.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	opts := prompt.TranslationOptions{
		SourceLanguage: req.SourceLang,
		TargetLanguage: req.TargetLang,
		Style:          req.Style,
		Keywords:       req.Keywords,
	}

	out := make([]string, 0, total)
	empty := 0
	for offset := 0; offset < total; offset += size {
		end := offset + size
		if end > total {
			end = total
		}
		batch := req.Lines[offset:end]
		first, last := offset+1, end

		body := prompt.TranslationBatch(opts, batch, first)
		reply, err := send(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("%s: batch %d-%d: %w", name, first, last, err)
		}
		segments := ParseSegments(reply)
		if len(segments) != len(batch) {
			logger.Warn("translated segment count mismatch, retrying batch",
				logging.String("provider", name),
				logging.Int("batch_first", first),
				logging.Int("batch_last", last),
				logging.Int("want", len(batch)),
				logging.Int("got", len(segments)))
			reply, err = send(ctx, body+correctiveReminder(len(batch), first, last))
			if err != nil {
				return nil, fmt.Errorf("%s: batch %d-%d retry: %w", name, first, last, err)
			}
			segments = ParseSegments(reply)
			if len(segments) != len(batch) {
				return nil, fmt.Errorf("%s: batch %d-%d: expected %d translated segments, got %d",
					name, first, last, len(batch), len(segments))
			}
		}
		for i, segment := range segments {
			if strings.TrimSpace(segment) == "" {
				out = append(out, batch[i])
				empty++
				continue
			}
			out = append(out, segment)
		}
		if progress != nil {
			progress(len(out), total)
		}
	}
	if empty > 0 {
		logger.Warn("empty translations fell back to source text",
			logging.String("provider", name),
			logging.Int("count", empty))
	}
	return out, nil
}
