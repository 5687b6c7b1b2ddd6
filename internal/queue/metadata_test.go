package queue

import "testing"

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		AudioPath:       "/staging/item/audio.wav",
		SourceLang:      "Japanese",
		Style:           "Casual",
		Keywords:        "Tanaka, Himeji Castle",
		Provider:        "gemini-2.5-flash",
		DurationSeconds: 83.4,
	}

	item := &Item{}
	item.SetMetadata(meta)
	if item.MetadataJSON == "" {
		t.Fatal("expected metadata JSON to be stored")
	}

	decoded := item.Metadata()
	if decoded != meta {
		t.Fatalf("expected %+v, got %+v", meta, decoded)
	}
}

func TestMetadataFromJSONToleratesBadInput(t *testing.T) {
	if meta := MetadataFromJSON(""); meta != (Metadata{}) {
		t.Fatalf("expected zero metadata for empty input, got %+v", meta)
	}
	if meta := MetadataFromJSON("{not json"); meta != (Metadata{}) {
		t.Fatalf("expected zero metadata for malformed input, got %+v", meta)
	}
}

func TestMetadataOmitsEmptyFields(t *testing.T) {
	encoded := Metadata{SourceLang: "Korean"}.JSON()
	if encoded != `{"source_lang":"Korean"}` {
		t.Fatalf("expected only populated fields encoded, got %s", encoded)
	}
}
