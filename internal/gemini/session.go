package gemini

import (
	"context"
	"strings"
)

// defaultHistoryLimit bounds how many turns a session keeps. Transcription
// review loops can go long; old turns stop mattering well before this.
const defaultHistoryLimit = 40

// Session is a multi-turn conversation with a fixed system instruction.
// The transcription flow uses one session so correction prompts can refer
// to what the model already produced.
type Session struct {
	client  *Client
	system  string
	limit   int
	history []Content
}

// NewSession starts a conversation with the given system instruction.
func (c *Client) NewSession(system string) *Session {
	return &Session{
		client: c,
		system: strings.TrimSpace(system),
		limit:  defaultHistoryLimit,
	}
}

// SetHistoryLimit changes how many turns are kept. Values below two keep
// only the latest exchange.
func (s *Session) SetHistoryLimit(limit int) {
	if limit < 2 {
		limit = 2
	}
	s.limit = limit
}

// Send appends a user turn, performs the call, and records the model's
// reply. On failure the user turn is not recorded, so a retried Send does
// not duplicate history.
func (s *Session) Send(ctx context.Context, parts ...Part) (string, error) {
	userTurn := Content{Role: "user", Parts: parts}
	contents := make([]Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userTurn)

	reply, err := s.client.Generate(ctx, GenerateRequest{
		System:   s.system,
		Contents: contents,
	})
	if err != nil {
		return "", err
	}

	s.history = append(s.history, userTurn, Content{
		Role:  "model",
		Parts: []Part{TextPart(reply)},
	})
	if len(s.history) > s.limit {
		s.history = s.history[len(s.history)-s.limit:]
	}
	return reply, nil
}

// History returns a copy of the recorded turns.
func (s *Session) History() []Content {
	out := make([]Content, len(s.history))
	copy(out, s.history)
	return out
}

// Reset drops all recorded turns but keeps the system instruction.
func (s *Session) Reset() {
	s.history = nil
}
