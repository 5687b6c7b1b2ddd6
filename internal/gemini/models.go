package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ModelInfo describes one model usable for generation.
type ModelInfo struct {
	Name        string
	DisplayName string
}

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		DisplayName                string   `json:"displayName"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

// ListModels returns the models that support generateContent, with the
// "models/" prefix stripped from their names.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if c.cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	endpoint := c.cfg.BaseURL + "/models?pageSize=200"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp, body)
	}

	var decoded listModelsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("gemini: decode model list: %w", err)
	}

	var models []ModelInfo
	for _, m := range decoded.Models {
		if !supportsGenerate(m.SupportedGenerationMethods) {
			continue
		}
		models = append(models, ModelInfo{
			Name:        strings.TrimPrefix(m.Name, "models/"),
			DisplayName: m.DisplayName,
		})
	}
	return models, nil
}

func supportsGenerate(methods []string) bool {
	for _, method := range methods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

// ResolveModel returns preferred when the API lists it, otherwise the
// first gemini-2.5 model, otherwise the first listed model.
func (c *Client) ResolveModel(ctx context.Context, preferred string) (string, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return "", err
	}
	if len(models) == 0 {
		return "", errors.New("gemini: no usable models listed")
	}
	preferred = strings.TrimSpace(strings.TrimPrefix(preferred, "models/"))
	for _, m := range models {
		if m.Name == preferred {
			return preferred, nil
		}
	}
	for _, m := range models {
		if strings.HasPrefix(m.Name, "gemini-2.5") {
			return m.Name, nil
		}
	}
	return models[0].Name, nil
}
