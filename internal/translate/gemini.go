package translate

import (
	"context"
	"log/slog"

	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/logging"
)

// GeminiProvider translates through the Gemini generateContent API.
type GeminiProvider struct {
	client *gemini.Client
	logger *slog.Logger
}

// NewGeminiProvider wraps an existing Gemini client. A nil logger
// discards provider logs.
func NewGeminiProvider(client *gemini.Client, logger *slog.Logger) *GeminiProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GeminiProvider{client: client, logger: logger}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Translate implements Provider. Each batch is a stateless
// generateContent call; retry against transient API failures lives in
// the client, while the one formatting retry lives in the batch loop.
func (p *GeminiProvider) Translate(ctx context.Context, req Request, progress ProgressFunc) ([]string, error) {
	return translateBatches(ctx, req, progress, p.logger, p.Name(), func(ctx context.Context, body string) (string, error) {
		reply, err := p.client.Generate(ctx, gemini.GenerateRequest{
			Contents: []gemini.Content{{
				Role:  "user",
				Parts: []gemini.Part{gemini.TextPart(body)},
			}},
		})
		if err != nil {
			return "", err
		}
		return gemini.StripCodeFences(reply), nil
	})
}
