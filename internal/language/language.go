package language

import "strings"

type entry struct {
	code2   string
	code3   string
	alt3    string
	display string
	words   []string
}

// languages lists the translation targets offered by the CLI plus the codes
// needed to recognize them in container metadata. Display names match the
// values accepted by the translate prompts.
var languages = []entry{
	{code2: "en", code3: "eng", display: "English"},
	{code2: "vi", code3: "vie", display: "Vietnamese"},
	{code2: "ja", code3: "jpn", display: "Japanese", words: []string{"jp"}},
	{code2: "zh", code3: "chi", alt3: "zho", display: "Chinese (Simplified)", words: []string{"chinese", "simplified chinese", "mandarin"}},
	{code2: "es", code3: "spa", display: "Spanish"},
	{code2: "fr", code3: "fre", alt3: "fra", display: "French"},
	{code2: "de", code3: "ger", alt3: "deu", display: "German"},
	{code2: "ko", code3: "kor", display: "Korean"},
	{code2: "ru", code3: "rus", display: "Russian"},
	{code2: "pt", code3: "por", display: "Portuguese (Brazilian)", words: []string{"portuguese", "brazilian portuguese"}},
	{code2: "it", code3: "ita", display: "Italian"},
	{code2: "hi", code3: "hin", display: "Hindi"},
	{code2: "ar", code3: "ara", display: "Arabic"},
	{code2: "tr", code3: "tur", display: "Turkish"},
	{code2: "pl", code3: "pol", display: "Polish"},
	{code2: "nl", code3: "dut", alt3: "nld", display: "Dutch"},
}

var (
	byCode = map[string]*entry{}
	byWord = map[string]*entry{}
)

func init() {
	for i := range languages {
		lang := &languages[i]
		byCode[lang.code2] = lang
		byCode[lang.code3] = lang
		if lang.alt3 != "" {
			byCode[lang.alt3] = lang
		}
		byWord[strings.ToLower(lang.display)] = lang
		for _, word := range lang.words {
			byWord[word] = lang
		}
	}
}

// Supported returns the display names of every available target language.
func Supported() []string {
	names := make([]string, len(languages))
	for i, lang := range languages {
		names[i] = lang.display
	}
	return names
}

// Normalize resolves a user-supplied language name or code to its canonical
// display name. The boolean reports whether the value was recognized.
func Normalize(value string) (string, bool) {
	if lang := lookup(value); lang != nil {
		return lang.display, true
	}
	return "", false
}

// ToISO2 converts a language name or code to its two-letter code, or "und"
// when unknown.
func ToISO2(value string) string {
	if lang := lookup(value); lang != nil {
		return lang.code2
	}
	return "und"
}

// ToISO3 converts a language name or code to its three-letter code, or "und"
// when unknown. Container subtitle tracks are tagged with this value.
func ToISO3(value string) string {
	if lang := lookup(value); lang != nil {
		return lang.code3
	}
	return "und"
}

// DisplayName returns a human-readable name for a language code. Unknown
// codes are uppercased so they remain visible in listings.
func DisplayName(code string) string {
	if lang := lookup(code); lang != nil {
		return lang.display
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	return strings.ToUpper(trimmed)
}

// ExtractFromTags pulls a language value from container metadata tags,
// tolerating the key casings ffprobe reports across muxers. NUL bytes,
// which some muxers pad fixed-width tag fields with, are stripped.
func ExtractFromTags(tags map[string]string) string {
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value, ok := tags[key]; ok {
			cleaned := strings.ReplaceAll(value, "\x00", "")
			cleaned = strings.ToLower(strings.TrimSpace(cleaned))
			if cleaned != "" {
				return cleaned
			}
		}
	}
	return ""
}

func lookup(value string) *entry {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return nil
	}
	if lang, ok := byCode[normalized]; ok {
		return lang
	}
	if lang, ok := byWord[normalized]; ok {
		return lang
	}
	// IETF subtags such as pt-BR or zh-Hans reduce to their primary tag.
	if base, _, found := strings.Cut(normalized, "-"); found {
		if lang, ok := byCode[base]; ok {
			return lang
		}
	}
	return nil
}
