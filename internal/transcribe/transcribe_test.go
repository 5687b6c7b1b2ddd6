package transcribe_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/testsupport"
	"easyaisubbing/internal/timedtext"
	"easyaisubbing/internal/transcribe"
)

// wireRequest mirrors the generateContent payload shape for assertions.
type wireRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				MIMEType string `json:"mime_type"`
				Data     string `json:"data"`
			} `json:"inline_data"`
		} `json:"parts"`
	} `json:"contents"`
}

func decodeRequest(t *testing.T, r *http.Request) wireRequest {
	t.Helper()
	var payload wireRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return payload
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

func newService(t *testing.T, handler http.HandlerFunc) *transcribe.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := gemini.NewClient(
		gemini.Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		gemini.WithRetryBaseDelay(0),
	)
	return transcribe.New(client, timedtext.DefaultRules(), nil)
}

func writeAudio(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, int64(size))
	return path
}

func TestTranscribeSendsAudioAndParsesReply(t *testing.T) {
	audio := writeAudio(t, "episode.wav", 2048)
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)
		if len(payload.Contents) != 1 {
			t.Fatalf("expected one content turn, got %d", len(payload.Contents))
		}
		parts := payload.Contents[0].Parts
		if len(parts) != 2 {
			t.Fatalf("expected prompt and audio parts, got %d", len(parts))
		}
		if !strings.Contains(parts[0].Text, "Translate the spoken content into English") {
			t.Fatalf("prompt missing target language:\n%s", parts[0].Text)
		}
		if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "audio/wav" {
			t.Fatalf("expected inline wav data, got %+v", parts[1])
		}
		if parts[1].InlineData.Data == "" {
			t.Fatal("expected base64 audio payload")
		}
		json.NewEncoder(w).Encode(geminiReply(
			"[0:00,5 - 0:02,0] First line.\n[0:02,1 - 0:04,0] Second line."))
	})

	result, err := svc.Transcribe(context.Background(), transcribe.Request{
		AudioPath:  audio,
		TargetLang: "English",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Transcript) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(result.Transcript))
	}
	if result.Transcript[0].Text != "First line." {
		t.Errorf("line 1 text = %q", result.Transcript[0].Text)
	}
	if result.Transcript[1].Start != 2.1 {
		t.Errorf("line 2 start = %v", result.Transcript[1].Start)
	}
	if len(result.Issues) != 0 {
		t.Errorf("expected clean transcript, issues: %v", result.Issues)
	}
	if result.Session == nil {
		t.Fatal("expected a session for follow-up corrections")
	}
}

func TestTranscribeCollectsLintIssues(t *testing.T) {
	audio := writeAudio(t, "talk.wav", 128)
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		// Second line overlaps the first well past the tolerance.
		json.NewEncoder(w).Encode(geminiReply(
			"[0:00,0 - 0:05,0] One.\n[0:01,0 - 0:06,0] Two.\nnot a transcript line"))
	})

	result, err := svc.Transcribe(context.Background(), transcribe.Request{
		AudioPath:  audio,
		TargetLang: "German",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(result.Transcript) != 2 {
		t.Fatalf("expected 2 parsed lines, got %d", len(result.Transcript))
	}
	if len(result.Issues) == 0 {
		t.Fatal("expected parse and lint issues")
	}
	codes := make(map[string]bool)
	for _, issue := range result.Issues {
		codes[issue.Code] = true
	}
	if !codes["malformed_timestamp"] {
		t.Errorf("expected malformed_timestamp issue, got %v", result.Issues)
	}
	if !codes["overlap"] {
		t.Errorf("expected overlap issue, got %v", result.Issues)
	}
}

func TestTranscribeRequiresTargetLanguage(t *testing.T) {
	svc := newService(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := svc.Transcribe(context.Background(), transcribe.Request{AudioPath: "x.wav"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeRejectsOversizedAudio(t *testing.T) {
	audio := writeAudio(t, "feature.wav", 15<<20)
	svc := newService(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("oversized audio must not reach the API")
	})

	_, err := svc.Transcribe(context.Background(), transcribe.Request{
		AudioPath:  audio,
		TargetLang: "English",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "extract-audio") {
		t.Fatalf("expected hint toward extract-audio, got %v", err)
	}
}

func TestTranscribeRejectsProseReply(t *testing.T) {
	audio := writeAudio(t, "empty.wav", 64)
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(geminiReply("I am sorry, I cannot transcribe this audio."))
	})

	_, err := svc.Transcribe(context.Background(), transcribe.Request{
		AudioPath:  audio,
		TargetLang: "English",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranscribeMapsBlockedContent(t *testing.T) {
	audio := writeAudio(t, "blocked.wav", 64)
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
	})

	_, err := svc.Transcribe(context.Background(), transcribe.Request{
		AudioPath:  audio,
		TargetLang: "English",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for blocked content, got %v", err)
	}
}

func TestCorrectReusesConversation(t *testing.T) {
	audio := writeAudio(t, "session.wav", 256)
	calls := 0
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		payload := decodeRequest(t, r)
		switch calls {
		case 1:
			json.NewEncoder(w).Encode(geminiReply("[0:00,0 - 0:02,0] Firts line."))
		case 2:
			// History: audio turn, model reply, correction turn.
			if len(payload.Contents) != 3 {
				t.Fatalf("expected 3 turns in correction call, got %d", len(payload.Contents))
			}
			correction := payload.Contents[2].Parts[0].Text
			if !strings.Contains(correction, "Firts line.") {
				t.Fatalf("correction prompt missing current transcript:\n%s", correction)
			}
			if !strings.Contains(correction, "typo in first line") {
				t.Fatalf("correction prompt missing feedback:\n%s", correction)
			}
			json.NewEncoder(w).Encode(geminiReply("[0:00,0 - 0:02,0] First line."))
		default:
			t.Fatalf("unexpected call %d", calls)
		}
	})

	first, err := svc.Transcribe(context.Background(), transcribe.Request{
		AudioPath:  audio,
		TargetLang: "English",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	fixed, err := svc.Correct(context.Background(), first.Session,
		[]string{"typo in first line"}, first.Transcript.String(), "")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if fixed.Transcript[0].Text != "First line." {
		t.Fatalf("corrected text = %q", fixed.Transcript[0].Text)
	}
	if calls != 2 {
		t.Fatalf("expected 2 API calls, got %d", calls)
	}
}

func TestCorrectWithoutSessionStartsFresh(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		payload := decodeRequest(t, r)
		if len(payload.Contents) != 1 {
			t.Fatalf("expected a single turn, got %d", len(payload.Contents))
		}
		json.NewEncoder(w).Encode(geminiReply("[0:01,0 - 0:03,0] Fixed."))
	})

	result, err := svc.Correct(context.Background(), nil, nil,
		"[0:01,0 - 0:03,0] Broken.", "")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if result.Transcript[0].Text != "Fixed." {
		t.Fatalf("text = %q", result.Transcript[0].Text)
	}
}

func TestFeedbackFromIssues(t *testing.T) {
	issues := []timedtext.Issue{
		{Line: 3, Code: "overlap", Message: "overlaps previous line"},
	}
	feedback := transcribe.FeedbackFromIssues(issues)
	if len(feedback) != 1 {
		t.Fatalf("expected 1 feedback line, got %d", len(feedback))
	}
	if !strings.Contains(feedback[0], "overlap") {
		t.Fatalf("feedback = %q", feedback[0])
	}
}
