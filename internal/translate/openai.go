package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"easyaisubbing/internal/gemini"
	"easyaisubbing/internal/logging"
)

const defaultOpenAIModel = "gpt-4.1-mini"

// openaiSystemPrompt sets the role once; the per-batch contract travels
// in the user message.
const openaiSystemPrompt = "You are a professional subtitle translator. Follow the formatting instructions in each request exactly and output nothing beyond the requested segment lines."

// OpenAIConfig configures the OpenAI-compatible provider. BaseURL makes
// it work against any compatible gateway.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// OpenAIProvider translates through chat completions.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *slog.Logger
}

// NewOpenAIProvider builds a provider from config. A nil logger
// discards provider logs.
func NewOpenAIProvider(cfg OpenAIConfig, logger *slog.Logger) *OpenAIProvider {
	if logger == nil {
		logger = logging.NewNop()
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Translate implements Provider.
func (p *OpenAIProvider) Translate(ctx context.Context, req Request, progress ProgressFunc) ([]string, error) {
	return translateBatches(ctx, req, progress, p.logger, p.Name(), func(ctx context.Context, body string) (string, error) {
		resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(openaiSystemPrompt),
				openai.UserMessage(body),
			},
			Model:       p.model,
			Temperature: openai.Float(p.temperature),
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("no completion choices returned")
		}
		return gemini.StripCodeFences(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
	})
}
