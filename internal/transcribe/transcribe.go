// Package transcribe turns an audio file into a timed transcript with a
// single Gemini call, then normalizes and lints the reply. The model
// translates into the target language while transcribing, so the output
// is already in the language the subtitles ship in.
package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/prompt"
	"easyaisubbing/internal/services"
	"easyaisubbing/internal/timedtext"
)

// maxInlineAudioBytes bounds the raw audio payload. Base64 expansion plus
// the prompt must stay under the API's 20 MB request limit.
const maxInlineAudioBytes = 14 << 20

// Service drives transcription conversations against one Gemini client.
type Service struct {
	client *gemini.Client
	rules  timedtext.Rules
	logger *slog.Logger
}

// New builds a Service. Zero rules fall back to the repository defaults;
// a nil logger discards service logs.
func New(client *gemini.Client, rules timedtext.Rules, logger *slog.Logger) *Service {
	if rules == (timedtext.Rules{}) {
		rules = timedtext.DefaultRules()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		client: client,
		rules:  rules,
		logger: logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Model reports the configured Gemini model name.
func (s *Service) Model() string {
	if s == nil || s.client == nil {
		return ""
	}
	return s.client.Model()
}

// Request describes one transcription job.
type Request struct {
	// AudioPath is normally the extracted 16 kHz mono WAV; other audio
	// containers are accepted and sent with their own MIME type.
	AudioPath string
	// TargetLang is the language the subtitles are written in.
	TargetLang string
	// SourceLang optionally names the spoken language.
	SourceLang string
	// Style selects a translation style preset.
	Style string
	// Keywords hold preferred target-language terminology.
	Keywords []string
}

// Result carries the parsed transcript plus the conversation handle a
// follow-up correction turn needs.
type Result struct {
	// Transcript is normalized and sorted by start time.
	Transcript timedtext.Transcript
	// Raw is the fence-stripped model output.
	Raw string
	// Issues merges parse and lint findings.
	Issues []timedtext.Issue
	// Session carries the conversation for Correct calls.
	Session *gemini.Session
}

// Transcribe sends the audio with the transcription prompt and parses the
// reply into a transcript.
func (s *Service) Transcribe(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.TargetLang) == "" {
		return Result{}, services.Wrap(
			services.ErrValidation, "transcribe", "check request",
			"target language is required", nil)
	}
	data, mimeType, err := loadAudio(req.AudioPath)
	if err != nil {
		return Result{}, err
	}

	body := prompt.Transcription(prompt.TranscriptionOptions{
		TargetLanguage: req.TargetLang,
		SourceLanguage: req.SourceLang,
		Style:          req.Style,
		Keywords:       req.Keywords,
	})
	s.logger.Info("requesting transcription",
		logging.String("audio", req.AudioPath),
		logging.String("mime_type", mimeType),
		logging.Int("audio_bytes", len(data)),
		logging.String("model", s.client.Model()))

	session := s.client.NewSession("")
	reply, err := session.Send(ctx, gemini.TextPart(body), gemini.MediaPart(mimeType, data))
	if err != nil {
		return Result{}, wrapGenerateError("request transcription", err)
	}
	return s.finish(session, reply)
}

// Correct asks the model to fix its previous transcript. feedback lists
// findings to relay; current is the transcript text to correct, included
// verbatim so manual edits survive the round trip. A nil session starts a
// fresh conversation, which works because the prompt carries the full text.
func (s *Service) Correct(ctx context.Context, session *gemini.Session, feedback []string, current, style string) (Result, error) {
	if strings.TrimSpace(current) == "" {
		return Result{}, services.Wrap(
			services.ErrValidation, "transcribe", "check request",
			"no transcript text to correct", nil)
	}
	if session == nil {
		session = s.client.NewSession("")
	}
	body := prompt.Correction(feedback, current, style)
	s.logger.Info("requesting correction",
		logging.Int("feedback_lines", len(feedback)),
		logging.String("model", s.client.Model()))

	reply, err := session.Send(ctx, gemini.TextPart(body))
	if err != nil {
		return Result{}, wrapGenerateError("request correction", err)
	}
	return s.finish(session, reply)
}

// FeedbackFromIssues renders lint findings as correction feedback lines.
func FeedbackFromIssues(issues []timedtext.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.String())
	}
	return out
}

func (s *Service) finish(session *gemini.Session, reply string) (Result, error) {
	raw := strings.TrimSpace(gemini.StripCodeFences(reply))
	transcript, issues := timedtext.Parse(raw)
	if len(transcript) == 0 {
		return Result{}, services.Wrap(
			services.ErrValidation, "transcribe", "parse reply",
			"model returned no usable transcript lines", nil)
	}
	transcript = timedtext.Normalize(transcript)
	issues = append(issues, timedtext.Lint(transcript, s.rules)...)
	if len(issues) > 0 {
		s.logger.Warn("transcript has lint findings",
			logging.Int("count", len(issues)))
	}
	return Result{Transcript: transcript, Raw: raw, Issues: issues, Session: session}, nil
}

func loadAudio(path string) ([]byte, string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, "", services.Wrap(
			services.ErrValidation, "transcribe", "load audio",
			"audio path is required", nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", services.Wrap(
			services.ErrNotFound, "transcribe", "load audio",
			"cannot read audio file "+path, err)
	}
	if len(data) == 0 {
		return nil, "", services.Wrap(
			services.ErrValidation, "transcribe", "load audio",
			"audio file is empty: "+path, nil)
	}
	if len(data) > maxInlineAudioBytes {
		return nil, "", services.Wrap(
			services.ErrValidation, "transcribe", "load audio",
			fmt.Sprintf("audio file is %d MB, above the %d MB inline limit; extract a shorter segment with extract-audio first",
				len(data)>>20, maxInlineAudioBytes>>20), nil)
	}
	return data, audioMIME(path), nil
}

// audioMIME maps common audio extensions to the MIME types the API
// accepts; unknown extensions are sent as WAV since that is what the
// extractor produces.
func audioMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a", ".aac":
		return "audio/aac"
	case ".flac":
		return "audio/flac"
	case ".ogg", ".oga", ".opus":
		return "audio/ogg"
	case ".aiff", ".aif":
		return "audio/aiff"
	default:
		return "audio/wav"
	}
}

func wrapGenerateError(operation string, err error) error {
	switch {
	case gemini.IsInvalidKey(err):
		return services.Wrap(services.ErrConfiguration, "transcribe", operation,
			"Gemini rejected the API key", err)
	case gemini.IsBlocked(err):
		return services.Wrap(services.ErrValidation, "transcribe", operation,
			"content was blocked by safety filters", err)
	case gemini.IsQuota(err):
		return services.Wrap(services.ErrTransient, "transcribe", operation,
			"Gemini quota exhausted", err)
	case gemini.IsDeadline(err):
		return services.Wrap(services.ErrTimeout, "transcribe", operation,
			"Gemini request timed out", err)
	}
	return services.Wrap(services.ErrExternalTool, "transcribe", operation,
		"Gemini request failed", err)
}
