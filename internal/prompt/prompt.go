// Package prompt builds the instruction text sent to Gemini for audio
// transcription, transcript correction, and batch subtitle translation.
// The templates carry a strict output contract (timestamp format, segment
// markers, exact counts) that the parsing side depends on, so wording
// changes here must stay in sync with internal/timedtext and
// internal/translate.
package prompt

import (
	"fmt"
	"strings"
)

// DefaultStyle is the style value that produces neutral phrasing instead
// of an explicit style instruction.
const DefaultStyle = "Default/Neutral"

// maxFeedbackLines caps how many analysis findings a correction prompt
// spells out before summarizing the rest.
const maxFeedbackLines = 7

// Styles lists the translation styles offered to users, default first.
func Styles() []string {
	return []string{
		DefaultStyle,
		"Formal",
		"Informal/Colloquial",
		"Humorous",
		"Serious/Academic",
		"Poetic",
		"Anime/Manga",
		"Historical/Archaic",
		"Technical",
	}
}

func isDefaultStyle(style string) bool {
	switch strings.ToLower(strings.TrimSpace(style)) {
	case "", "default/neutral", "default", "neutral":
		return true
	}
	return false
}

// StyleInstruction renders the style sentence embedded in transcription
// and translation prompts.
func StyleInstruction(style string) string {
	if isDefaultStyle(style) {
		return "Use a neutral and natural style."
	}
	return fmt.Sprintf("Ensure the translation adopts a '%s' style.", strings.TrimSpace(style))
}

func styleReminder(style string) string {
	if isDefaultStyle(style) {
		return "Maintain neutral and natural style."
	}
	return fmt.Sprintf("Maintain '%s' style.", strings.TrimSpace(style))
}

func translationStyleInstruction(style string) string {
	if isDefaultStyle(style) {
		return "Adopt a neutral style."
	}
	return fmt.Sprintf("Adopt a '%s' style.", strings.TrimSpace(style))
}

// FormatKeywords joins context keywords into the bracketed list form the
// transcription template uses. Blank entries are dropped.
func FormatKeywords(keywords []string) string {
	var kept []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kept = append(kept, kw)
		}
	}
	return strings.Join(kept, ", ")
}

// formatQuotedKeywords is the translation-template variant: each keyword
// quoted, with an explicit placeholder when none are given.
func formatQuotedKeywords(keywords []string) string {
	var kept []string
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			kept = append(kept, `"`+kw+`"`)
		}
	}
	if len(kept) == 0 {
		return "None provided"
	}
	return strings.Join(kept, ", ")
}

// TranscriptionOptions parameterize the initial transcribe-and-translate
// prompt sent alongside the audio part.
type TranscriptionOptions struct {
	// TargetLanguage is the language the subtitles should be written in.
	TargetLanguage string
	// SourceLanguage optionally names the spoken language when the user
	// knows it. Empty lets the model detect it.
	SourceLanguage string
	// Style selects a translation style; DefaultStyle or empty means
	// neutral.
	Style string
	// Keywords hold preferred terminology in the target language.
	Keywords []string
}

const transcriptionTemplate = `You are a professional translator and subtitler. I have provided a full audio file.
Your primary task is to accurately translate and then create perfectly timed subtitles.
Follow these instructions METICULOUSLY:
1.  **Audio Analysis & Translation:**
    *   Listen to the ENTIRE audio carefully.%[4]s
    *   Translate the spoken content into %[1]s with utmost accuracy, ensuring natural phrasing. %[2]s
2.  **Subtitle Segmentation & Timing (CRITICAL):**
    *   Divide the translation into VERY SHORT, coherent subtitle lines, respecting natural speech pauses.
    *   **Line Duration:** Aim for lines between 3 to 7 seconds. STRICTLY AVOID lines longer than 10 seconds unless it's a single, completely indivisible spoken phrase. If a thought is longer, break it into multiple shorter subtitle lines.
    *   **Timestamp Format:** For EACH subtitle line, provide timestamps in the EXACT format: '[m:s,x - m:s,x]'
        *   'm' = minutes (e.g., 0, 1, 58, 120).
        *   's' = seconds (0-59, e.g., 6 or 06).
        *   'x' = tenth of a second (0-9, ONE digit after comma).
        *   Example: [0:06,1 - 0:12,7] or [1:02,5 - 1:08,0]
    *   **No Duplicate/Overlapping Timestamps:** Each distinct dialogue line MUST have a unique start and end time. Ensure timestamps are sequential. Small non-overlapping gaps (<0.1s) are preferred over overlaps.
3.  **Output Structure (CRITICAL):**
    *   The output MUST be a list of lines.
    *   Each line strictly following: '[m:s,x - m:s,x] Translated text.'
    *   If applicable, a brief terminological note can be added: '[m:s,x - m:s,x] Translated text. {note}'
4.  **Contextual Information:**
    *   If provided, refer to this list of preferred %[1]s terms/names: [%[3]s].
5.  **General Guidelines:**
    *   Do NOT add any extra commentary, introductions, or summaries outside the required line format.
    *   If there are silent parts, do NOT generate lines for them.
Example of **GOOD** output lines:
[0:00,7 - 0:03,2] This is a short first sentence.
[0:03,3 - 0:05,9] The next one, also concise. {with a note}
Example of **BAD** output (wrong format, or duplicate timestamps):
[00:10.0 - 00:25.0] Incorrect separator and potentially too long.
[0:26,0 - 0:28,0] First part of bad duplicate.
[0:26,0 - 0:28,0] Second part of bad duplicate.
[0:30,55 - 0:32,1] '55' is not a tenth of a second, use ',5' for 5 tenths.
Strict adherence to all formatting and timing rules is essential.
`

// Transcription builds the initial prompt that accompanies an audio file.
func Transcription(opts TranscriptionOptions) string {
	sourceHint := ""
	if src := strings.TrimSpace(opts.SourceLanguage); src != "" && !strings.EqualFold(src, "auto") {
		sourceHint = fmt.Sprintf("\n    *   The audio is primarily in %s.", src)
	}
	return fmt.Sprintf(transcriptionTemplate,
		strings.TrimSpace(opts.TargetLanguage),
		StyleInstruction(opts.Style),
		FormatKeywords(opts.Keywords),
		sourceHint,
	)
}

const correctionTemplate = `Please correct your previous subtitle generation based on the following issues and rules.
%[1]s
REQUIRED CORRECTIONS & OUTPUT FORMAT:
1. Fix any identified issues related to timestamps or formatting in the subtitle text I am asking you to correct.
2. %[2]s
3. The corrected output MUST be ONLY a list of subtitle lines.
4. Each line MUST strictly follow the format: '[m:s,x - m:s,x] Translated text. {Optional note}'
   - 'm' = minutes (e.g., 0, 58, 120).
   - 's' = seconds (0-59, e.g., 6 or 06).
   - 'x' = tenth of a second (0-9, ONE digit after comma).
5. Ensure all timestamps are logical: Start time < End time. Timestamps must be sequential. NO identical timestamps for different dialogue lines.
IMPORTANT: The text you need to correct is your immediately preceding subtitle generation in our current conversation.
For your reference, here is the current state of that text (after my potential edits), which you should correct:
--- START OF CURRENT SUBTITLE TEXT TO CORRECT ---
%[3]s
--- END OF CURRENT SUBTITLE TEXT ---
Provide ONLY the fully corrected subtitle script. Do not add any other commentary or explanations.
`

// Correction builds the follow-up prompt that asks the model to fix its
// previous transcript. feedback lists findings from local analysis; when
// empty the prompt tells the model to rely on the stated rules alone.
// current is the transcript text to correct, included verbatim so manual
// edits made since the last response are respected.
func Correction(feedback []string, current, style string) string {
	var block []string
	var kept []string
	for _, msg := range feedback {
		if msg = strings.TrimSpace(msg); msg != "" {
			kept = append(kept, msg)
		}
	}
	if len(kept) > 0 {
		block = append(block, "\nPotential issues identified by local analysis (please verify and guide correction):")
		for i, msg := range kept {
			if i < maxFeedbackLines {
				block = append(block, "- "+msg)
			}
		}
		if len(kept) > maxFeedbackLines {
			block = append(block, "- ... (and other issues. Focus on these primary ones or refer to the full subtitle text).")
		}
	} else {
		block = append(block, "\n(No specific critical issues auto-detected by local analysis, or analysis not run recently. Describe the desired fixes.)")
	}
	return fmt.Sprintf(correctionTemplate,
		strings.Join(block, "\n"),
		styleReminder(style),
		current,
	)
}

// TranslationOptions parameterize a batch translation prompt.
type TranslationOptions struct {
	// SourceLanguage names the language of the segments. Empty or "auto"
	// asks the model to detect it.
	SourceLanguage string
	// TargetLanguage is the language to translate into.
	TargetLanguage string
	// Style selects a translation style; DefaultStyle or empty means
	// neutral.
	Style string
	// Keywords hold preferred terminology in the target language.
	Keywords []string
}

const translationTemplate = `You are a professional translator. Your task is to translate the following subtitle text segments from %[1]s into %[2]s.
%[3]s
Contextual Keywords (for terminology guidance in %[2]s, if applicable): [%[4]s]

Translate ALL of the following segments. Each original segment is prefixed with "[Segment X]:" where X is its original number.
CRITICAL: Respond ONLY with the translated segments. Each translated segment MUST start with its corresponding "[Segment X]:" marker (where X is the original segment number) and each translated segment MUST be on a new line. You MUST return EXACTLY %[5]d translated segments, each starting with its "[Segment X]:" marker.
Do NOT add any numbering, additional prefixes, explanations, or any text other than the translated segments and their "[Segment X]:" markers.

Segments to Translate:
---
%[6]s
---

Your Translated Segments (MUST be %[5]d segments, each starting with its [Segment X]: marker, each on a new line):
`

// TranslationBatch builds the prompt for one batch of subtitle segments.
// Segments are numbered from start so markers stay aligned with the full
// document across batches.
func TranslationBatch(opts TranslationOptions, segments []string, start int) string {
	source := strings.TrimSpace(opts.SourceLanguage)
	if source == "" || strings.EqualFold(source, "auto") {
		source = "the source language (auto-detected)"
	}
	numbered := make([]string, 0, len(segments))
	for i, text := range segments {
		numbered = append(numbered, fmt.Sprintf("[Segment %d]: %s", start+i, text))
	}
	return fmt.Sprintf(translationTemplate,
		source,
		strings.TrimSpace(opts.TargetLanguage),
		translationStyleInstruction(opts.Style),
		formatQuotedKeywords(opts.Keywords),
		len(segments),
		strings.Join(numbered, "\n"),
	)
}
