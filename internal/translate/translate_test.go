package translate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/translate"
)

func TestParseSegments(t *testing.T) {
	reply := "Here are your translations:\n" +
		"[Segment 1]: Hello there.\n" +
		"[Segment 2]: Second line\n" +
		"continued on the next line.\n" +
		"\n" +
		"[Segment 3]:\n"

	segments := translate.ParseSegments(reply)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d: %q", len(segments), segments)
	}
	if segments[0] != "Hello there." {
		t.Errorf("segment 1 = %q", segments[0])
	}
	if segments[1] != "Second line\ncontinued on the next line." {
		t.Errorf("segment 2 = %q", segments[1])
	}
	if segments[2] != "" {
		t.Errorf("segment 3 should be empty, got %q", segments[2])
	}
}

func TestParseSegmentsWithoutMarkers(t *testing.T) {
	if segments := translate.ParseSegments("no markers in here\njust prose"); len(segments) != 0 {
		t.Fatalf("expected no segments, got %q", segments)
	}
}

// wireRequest mirrors the generateContent payload shape for assertions.
type wireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func promptFromRequest(t *testing.T, r *http.Request) string {
	t.Helper()
	var payload wireRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected contents shape: %+v", payload.Contents)
	}
	return payload.Contents[0].Parts[0].Text
}

func geminiReply(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func newGeminiProvider(t *testing.T, handler http.HandlerFunc) *translate.GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := gemini.NewClient(
		gemini.Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		gemini.WithRetryBaseDelay(0),
	)
	return translate.NewGeminiProvider(client, nil)
}

func TestGeminiProviderTranslatesInBatches(t *testing.T) {
	calls := 0
	provider := newGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		body := promptFromRequest(t, r)
		switch calls {
		case 1:
			if !strings.Contains(body, "[Segment 1]: Hallo") || !strings.Contains(body, "[Segment 2]: Welt") {
				t.Fatalf("first batch prompt missing segments:\n%s", body)
			}
			if strings.Contains(body, "[Segment 3]") {
				t.Fatal("first batch should not carry the third segment")
			}
			json.NewEncoder(w).Encode(geminiReply("[Segment 1]: Hello\n[Segment 2]: World"))
		case 2:
			if !strings.Contains(body, "[Segment 3]: Wiedersehen") {
				t.Fatalf("second batch prompt missing segment 3:\n%s", body)
			}
			json.NewEncoder(w).Encode(geminiReply("```\n[Segment 3]: Goodbye\n```"))
		default:
			t.Fatalf("unexpected call %d", calls)
		}
	})

	var progress [][2]int
	lines, err := provider.Translate(context.Background(), translate.Request{
		Lines:      []string{"Hallo", "Welt", "Wiedersehen"},
		SourceLang: "German",
		TargetLang: "English",
		BatchSize:  2,
	}, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	want := []string{"Hello", "World", "Goodbye"}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if calls != 2 {
		t.Errorf("expected 2 API calls, got %d", calls)
	}
	if len(progress) != 2 || progress[0] != [2]int{2, 3} || progress[1] != [2]int{3, 3} {
		t.Errorf("progress = %v", progress)
	}
}

func TestGeminiProviderRetriesMalformedBatch(t *testing.T) {
	calls := 0
	provider := newGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		body := promptFromRequest(t, r)
		if calls == 1 {
			json.NewEncoder(w).Encode(geminiReply("[Segment 1]: Only one came back"))
			return
		}
		if !strings.Contains(body, "IMPORTANT: Your response MUST contain EXACTLY 2 segments") {
			t.Fatalf("retry prompt missing corrective reminder:\n%s", body)
		}
		json.NewEncoder(w).Encode(geminiReply("[Segment 1]: One\n[Segment 2]: Two"))
	})

	lines, err := provider.Translate(context.Background(), translate.Request{
		Lines:      []string{"Eins", "Zwei"},
		TargetLang: "English",
	}, nil)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected retry call, got %d calls", calls)
	}
	if lines[0] != "One" || lines[1] != "Two" {
		t.Errorf("lines = %q", lines)
	}
}

func TestGeminiProviderFailsWhenRetryStillMismatched(t *testing.T) {
	calls := 0
	provider := newGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(geminiReply("[Segment 1]: Still only one"))
	})

	_, err := provider.Translate(context.Background(), translate.Request{
		Lines:      []string{"Eins", "Zwei"},
		TargetLang: "English",
	}, nil)
	if err == nil {
		t.Fatal("expected mismatch error")
	}
	if !strings.Contains(err.Error(), "batch 1-2") {
		t.Errorf("error should name the batch range: %v", err)
	}
	if !strings.Contains(err.Error(), "expected 2 translated segments, got 1") {
		t.Errorf("error should report counts: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected exactly one retry, got %d calls", calls)
	}
}

func TestGeminiProviderEmptyTranslationFallsBack(t *testing.T) {
	provider := newGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiReply("[Segment 1]:\n[Segment 2]: Zwei"))
	})

	lines, err := provider.Translate(context.Background(), translate.Request{
		Lines:      []string{"Hallo", "Welt"},
		TargetLang: "German",
	}, nil)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if lines[0] != "Hallo" {
		t.Errorf("empty translation should fall back to source, got %q", lines[0])
	}
	if lines[1] != "Zwei" {
		t.Errorf("line 2 = %q", lines[1])
	}
}

func TestGeminiProviderNoLines(t *testing.T) {
	provider := newGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an empty job")
	})

	lines, err := provider.Translate(context.Background(), translate.Request{TargetLang: "English"}, nil)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %q", lines)
	}
}

func TestGeminiProviderRequiresTargetLanguage(t *testing.T) {
	provider := newGeminiProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected without a target language")
	})

	_, err := provider.Translate(context.Background(), translate.Request{
		Lines: []string{"Hallo"},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "target language is required") {
		t.Fatalf("expected target language error, got %v", err)
	}
}
