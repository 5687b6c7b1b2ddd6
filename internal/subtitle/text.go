package subtitle

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	overrideTagRe  = regexp.MustCompile(`\{[^}]*\}`)
	sdhBracketRe   = regexp.MustCompile(`\[[^\]]*\]`)
	drawingModeRe  = regexp.MustCompile(`\\p[1-9]`)
	softLineBreaks = strings.NewReplacer(`\N`, " ", `\n`, " ", `\h`, " ")
)

// CleanText flattens a cue into a single line: ASS soft breaks and real
// newlines become spaces, runs of whitespace collapse, and Unicode
// ellipses are normalized to three dots.
func CleanText(s string) string {
	s = softLineBreaks.Replace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "…", "...")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripSDH removes bracketed hearing-impaired annotations such as
// "[door slams]". Text that becomes empty collapses to "".
func StripSDH(s string) string {
	s = sdhBracketRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// stripOverrideTags removes ASS override blocks like {\an8\fad(200,0)}.
func stripOverrideTags(s string) string {
	return overrideTagRe.ReplaceAllString(s, "")
}

// isDrawing reports whether the event text enables ASS drawing mode,
// meaning the "text" is vector shape commands rather than dialogue.
func isDrawing(s string) bool {
	for _, block := range overrideTagRe.FindAllString(s, -1) {
		if drawingModeRe.MatchString(block) {
			return true
		}
	}
	return false
}
