package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"easyaisubbing/internal/logging"
	"easyaisubbing/internal/textutil"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultHTTPTimeout    = 300 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 15 * time.Second
	retryMaxDelay         = 2 * time.Minute
	retryJitterFraction   = 0.2
	snippetRunes          = 160
)

// Config captures the runtime settings required to talk to Gemini. The
// field set matches config.GeminiOptions so the two convert directly.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	TimeoutSeconds   int
	Temperature      float64
	TopP             float64
	TopK             int
	RetryAttempts    int
	RetryBaseSeconds int
}

// Client talks to the Gemini REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger

	retryAttempts  int
	retryBaseDelay time.Duration
	sleeper        func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryAttempts overrides how many times a request is tried in total.
func WithRetryAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
	}
}

// WithRetryBaseDelay overrides the first retry delay. Zero disables the
// wait entirely, which tests rely on.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = delay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger for request/retry debug lines.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Gemini client from the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:            cfg,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logging.NewNop(),
		retryAttempts:  defaultRetryAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	client.cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	client.cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	client.cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.RetryAttempts > 0 {
		client.retryAttempts = cfg.RetryAttempts
	}
	if cfg.RetryBaseSeconds > 0 {
		client.retryBaseDelay = time.Duration(cfg.RetryBaseSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Part is one element of a content turn: text or inline media.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64-encoded media.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Content is one conversation turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// TextPart wraps a string as a text part.
func TextPart(text string) Part { return Part{Text: text} }

// MediaPart wraps raw media bytes as an inline-data part.
func MediaPart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}}
}

// GenerateRequest is a single generateContent call.
type GenerateRequest struct {
	System   string
	Contents []Content
}

// APIError is a non-2xx response decoded from the Gemini error envelope.
type APIError struct {
	StatusCode int
	Status     string
	Reason     string
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.Status
	}
	return fmt.Sprintf("gemini: http %d: %s", e.StatusCode, msg)
}

// BlockedError reports content refused by safety filtering rather than a
// transport failure. It is never retried.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("gemini: blocked: %s", e.Reason)
}

type emptyResponseError struct {
	FinishReason string
	Snippet      string
}

func (e *emptyResponseError) Error() string {
	return fmt.Sprintf("gemini: empty response (finish_reason=%q, body=%s)", e.FinishReason, e.Snippet)
}

// IsInvalidKey reports whether the error means the API key is unusable.
func IsInvalidKey(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return apiErr.Reason == "API_KEY_INVALID" ||
			strings.Contains(apiErr.Message, "API key not valid")
	}
	return false
}

// IsQuota reports rate-limit or quota exhaustion.
func IsQuota(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests ||
		apiErr.Status == "RESOURCE_EXHAUSTED"
}

// IsDeadline reports a server or client side timeout.
func IsDeadline(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusGatewayTimeout {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsBlocked reports safety-filter refusals.
func IsBlocked(err error) bool {
	var blocked *BlockedError
	return errors.As(err, &blocked)
}

// Generate issues one generateContent call and returns the model text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("gemini: api key required")
	}
	if c.cfg.Model == "" {
		return "", errors.New("gemini: model required")
	}
	if len(req.Contents) == 0 {
		return "", errors.New("gemini: empty request")
	}
	return c.generateWithRetry(ctx, req)
}

func (c *Client) generateWithRetry(ctx context.Context, req GenerateRequest) (string, error) {
	attempts := c.attempts()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		c.logger.Debug("gemini request",
			logging.String("model", c.cfg.Model),
			logging.Int("attempt", attempt),
			logging.String("parts", summarizeContents(req.Contents)))

		text, err := c.generateOnce(ctx, req)
		if err == nil {
			return text, nil
		}

		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return "", err
		}
		c.logger.Debug("gemini retry",
			logging.Duration("delay", delay),
			logging.String("cause", err.Error()))
		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			return "", sleepErr
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return "", fmt.Errorf("gemini: failed after %d attempts: %w", attempts, lastErr)
}

type generateContentRequest struct {
	SystemInstruction *Content         `json:"system_instruction,omitempty"`
	Contents          []Content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SafetySettings    []safetySetting  `json:"safetySettings"`
}

type generationConfig struct {
	Temperature float64  `json:"temperature"`
	TopP        *float64 `json:"topP,omitempty"`
	TopK        *int     `json:"topK,omitempty"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// blockNoneSafetySettings disables response filtering for every harm
// category; subtitle dialogue trips these filters constantly.
func blockNoneSafetySettings() []safetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
		"HARM_CATEGORY_CIVIC_INTEGRITY",
	}
	settings := make([]safetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, safetySetting{Category: cat, Threshold: "BLOCK_NONE"})
	}
	return settings
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

func (c *Client) generateOnce(ctx context.Context, req GenerateRequest) (string, error) {
	payload := generateContentRequest{
		Contents:         req.Contents,
		GenerationConfig: generationConfig{Temperature: c.cfg.Temperature},
		SafetySettings:   blockNoneSafetySettings(),
	}
	if system := strings.TrimSpace(req.System); system != "" {
		payload.SystemInstruction = &Content{Parts: []Part{TextPart(system)}}
	}
	if c.cfg.TopP > 0 {
		topP := c.cfg.TopP
		payload.GenerationConfig.TopP = &topP
	}
	if c.cfg.TopK > 0 {
		topK := c.cfg.TopK
		payload.GenerationConfig.TopK = &topK
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini: new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp, body)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if reason := strings.TrimSpace(decoded.PromptFeedback.BlockReason); reason != "" {
		return "", &BlockedError{Reason: reason}
	}

	var finishReason string
	for _, candidate := range decoded.Candidates {
		if finishReason == "" {
			finishReason = strings.TrimSpace(candidate.FinishReason)
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}
	if finishReason == "SAFETY" {
		return "", &BlockedError{Reason: "finish reason SAFETY"}
	}
	return "", &emptyResponseError{
		FinishReason: finishReason,
		Snippet:      textutil.Snippet(string(body), snippetRunes),
	}
}

func decodeAPIError(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if retryAfter, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
		apiErr.RetryAfter = retryAfter
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Status = envelope.Error.Status
		apiErr.Message = envelope.Error.Message
		for _, detail := range envelope.Error.Details {
			if detail.Reason != "" {
				apiErr.Reason = detail.Reason
				break
			}
		}
	} else {
		apiErr.Message = textutil.Snippet(string(body), snippetRunes)
	}
	return apiErr
}

func (c *Client) attempts() int {
	if c.retryAttempts <= 0 {
		return 1
	}
	return c.retryAttempts
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt, attempts int) (time.Duration, bool) {
	if attempt >= attempts || err == nil || ctx == nil || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	if IsBlocked(err) {
		return 0, false
	}

	var emptyErr *emptyResponseError
	if errors.As(err, &emptyErr) {
		return c.backoffDelay(attempt), true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= http.StatusInternalServerError:
			if apiErr.RetryAfter > 0 {
				return capDelay(apiErr.RetryAfter), true
			}
			return c.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return c.backoffDelay(attempt), true
	}
	return 0, false
}

// backoffDelay doubles the base per attempt and spreads the result with
// up to 20% jitter in either direction.
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > retryMaxDelay/2 {
			delay = retryMaxDelay
			break
		}
		delay *= 2
	}
	jitter := time.Duration(float64(delay) * retryJitterFraction)
	if jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(2*jitter))) - jitter
	}
	return capDelay(delay)
}

func capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > retryMaxDelay {
		return retryMaxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// summarizeContents renders part shapes for debug logs without leaking
// whole prompts or media payloads.
func summarizeContents(contents []Content) string {
	var parts []string
	for _, content := range contents {
		for _, part := range content.Parts {
			switch {
			case part.InlineData != nil:
				parts = append(parts, fmt.Sprintf("<media %s %dKB>",
					part.InlineData.MIMEType, len(part.InlineData.Data)/1024))
			default:
				parts = append(parts, fmt.Sprintf("<text %d chars>", len(part.Text)))
			}
		}
	}
	return strings.Join(parts, ", ")
}

// StripCodeFences removes a surrounding ``` or ```lang fence. Model output
// that should be bare text regularly arrives wrapped in one.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		if tag := strings.TrimSpace(body[:nl]); tag == "" || isFenceTag(tag) {
			body = body[nl+1:]
		}
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
