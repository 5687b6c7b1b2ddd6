package queue

import (
	"encoding/json"
	"strings"
)

// Metadata carries stage-to-stage state that does not warrant its own column.
type Metadata struct {
	// AudioPath is the extracted 16 kHz mono WAV fed to transcription.
	AudioPath string `json:"audio_path,omitempty"`
	// TranslatedPath is the raw translated SRT before styling and conversion.
	TranslatedPath string `json:"translated_path,omitempty"`
	// SourceLang is the detected or declared language of the source dialogue.
	SourceLang string `json:"source_lang,omitempty"`
	// Style is the translation tone hint passed through to prompts.
	Style string `json:"style,omitempty"`
	// Keywords are comma-separated terms kept verbatim during translation.
	Keywords string `json:"keywords,omitempty"`
	// Provider records which model produced the transcript.
	Provider string `json:"provider,omitempty"`
	// DurationSeconds is the probed media duration.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// MetadataFromJSON decodes stored metadata, returning the zero value for
// missing or malformed input.
func MetadataFromJSON(data string) Metadata {
	var meta Metadata
	if strings.TrimSpace(data) == "" {
		return meta
	}
	_ = json.Unmarshal([]byte(data), &meta)
	return meta
}

// JSON encodes the metadata for persistence.
func (m Metadata) JSON() string {
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}

// Metadata decodes the item's stored metadata.
func (i *Item) Metadata() Metadata {
	return MetadataFromJSON(i.MetadataJSON)
}

// SetMetadata encodes and stores metadata on the item.
func (i *Item) SetMetadata(meta Metadata) {
	i.MetadataJSON = meta.JSON()
}
