package prompt_test

import (
	"fmt"
	"strings"
	"testing"

	"easyaisubbing/internal/prompt"
)

func TestTranscriptionIncludesContract(t *testing.T) {
	text := prompt.Transcription(prompt.TranscriptionOptions{
		TargetLanguage: "Vietnamese",
		SourceLanguage: "Japanese",
		Style:          "Anime/Manga",
		Keywords:       []string{"Senpai", " Tokyo ", ""},
	})

	for _, want := range []string{
		"into Vietnamese with utmost accuracy",
		"The audio is primarily in Japanese.",
		"Ensure the translation adopts a 'Anime/Manga' style.",
		"'[m:s,x - m:s,x]'",
		"preferred Vietnamese terms/names: [Senpai, Tokyo].",
		"[0:00,7 - 0:03,2] This is a short first sentence.",
		"[0:30,55 - 0:32,1] '55' is not a tenth of a second",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcription prompt missing %q", want)
		}
	}
}

func TestTranscriptionNeutralDefaults(t *testing.T) {
	text := prompt.Transcription(prompt.TranscriptionOptions{TargetLanguage: "English"})

	if !strings.Contains(text, "Use a neutral and natural style.") {
		t.Error("expected neutral style instruction for empty style")
	}
	if !strings.Contains(text, "terms/names: [].") {
		t.Error("expected empty keyword list to render as []")
	}
	if strings.Contains(text, "primarily in") {
		t.Error("empty source language should not add an audio language hint")
	}
}

func TestTranscriptionAutoSourceOmitsHint(t *testing.T) {
	text := prompt.Transcription(prompt.TranscriptionOptions{
		TargetLanguage: "English",
		SourceLanguage: "auto",
	})
	if strings.Contains(text, "primarily in") {
		t.Error("auto source language should not add an audio language hint")
	}
}

func TestCorrectionEmbedsCurrentText(t *testing.T) {
	current := "[0:00,0 - 0:01,0] Hi\n[0:01,5 - 0:03,0] There"
	text := prompt.Correction([]string{"overlap at line 3", "tenths digit at line 9"}, current, "Formal")

	startMarker := "--- START OF CURRENT SUBTITLE TEXT TO CORRECT ---"
	endMarker := "--- END OF CURRENT SUBTITLE TEXT ---"
	startAt := strings.Index(text, startMarker)
	endAt := strings.Index(text, endMarker)
	if startAt < 0 || endAt < 0 || endAt < startAt {
		t.Fatalf("missing or misordered transcript markers in:\n%s", text)
	}
	between := text[startAt+len(startMarker) : endAt]
	if !strings.Contains(between, current) {
		t.Errorf("current transcript not embedded between markers, got %q", between)
	}
	if !strings.Contains(text, "- overlap at line 3") {
		t.Error("feedback line missing")
	}
	if !strings.Contains(text, "Maintain 'Formal' style.") {
		t.Error("style reminder missing")
	}
	if !strings.Contains(text, "Provide ONLY the fully corrected subtitle script.") {
		t.Error("closing instruction missing")
	}
}

func TestCorrectionWithoutFeedback(t *testing.T) {
	text := prompt.Correction(nil, "[0:00,0 - 0:01,0] Hi", "")

	if !strings.Contains(text, "(No specific critical issues auto-detected by local analysis") {
		t.Error("expected no-findings placeholder")
	}
	if !strings.Contains(text, "Maintain neutral and natural style.") {
		t.Error("expected neutral style reminder")
	}
}

func TestCorrectionCapsFeedback(t *testing.T) {
	var feedback []string
	for i := 1; i <= 9; i++ {
		feedback = append(feedback, fmt.Sprintf("issue number %d", i))
	}
	text := prompt.Correction(feedback, "body", "")

	if !strings.Contains(text, "- issue number 7") {
		t.Error("seventh finding should be listed")
	}
	if strings.Contains(text, "issue number 8") {
		t.Error("eighth finding should be summarized away")
	}
	if !strings.Contains(text, "- ... (and other issues.") {
		t.Error("expected overflow summary line")
	}
}

func TestTranslationBatchNumbering(t *testing.T) {
	text := prompt.TranslationBatch(prompt.TranslationOptions{
		SourceLanguage: "Japanese",
		TargetLanguage: "English",
		Keywords:       []string{"Kyoto"},
	}, []string{"Hello", "World"}, 5)

	for _, want := range []string{
		"from Japanese into English",
		"[Segment 5]: Hello",
		"[Segment 6]: World",
		"EXACTLY 2 translated segments",
		`Contextual Keywords (for terminology guidance in English, if applicable): ["Kyoto"]`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("translation prompt missing %q", want)
		}
	}
}

func TestTranslationBatchAutoDetectsSource(t *testing.T) {
	text := prompt.TranslationBatch(prompt.TranslationOptions{
		TargetLanguage: "German",
	}, []string{"Hallo"}, 1)

	if !strings.Contains(text, "from the source language (auto-detected) into German") {
		t.Error("expected auto-detected source phrasing")
	}
	if !strings.Contains(text, "if applicable): [None provided]") {
		t.Error("expected keyword placeholder when none are given")
	}
	if !strings.Contains(text, "Adopt a neutral style.") {
		t.Error("expected neutral style phrasing in translation prompt")
	}
}

func TestStyles(t *testing.T) {
	styles := prompt.Styles()
	if len(styles) != 9 {
		t.Fatalf("expected 9 styles, got %d", len(styles))
	}
	if styles[0] != prompt.DefaultStyle {
		t.Errorf("expected default style first, got %q", styles[0])
	}
}

func TestStyleInstruction(t *testing.T) {
	cases := []struct {
		style string
		want  string
	}{
		{"", "Use a neutral and natural style."},
		{"default", "Use a neutral and natural style."},
		{"Neutral", "Use a neutral and natural style."},
		{"Default/Neutral", "Use a neutral and natural style."},
		{"Poetic", "Ensure the translation adopts a 'Poetic' style."},
	}
	for _, tc := range cases {
		if got := prompt.StyleInstruction(tc.style); got != tc.want {
			t.Errorf("StyleInstruction(%q) = %q, want %q", tc.style, got, tc.want)
		}
	}
}
