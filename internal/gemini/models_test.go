package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func modelListServer(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var models []any
		for _, name := range names {
			models = append(models, map[string]any{
				"name":                       "models/" + name,
				"displayName":                name,
				"supportedGenerationMethods": []string{"generateContent", "countTokens"},
			})
		}
		models = append(models, map[string]any{
			"name":                       "models/embedding-001",
			"displayName":                "Embedding",
			"supportedGenerationMethods": []string{"embedContent"},
		})
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	}))
}

func TestListModels(t *testing.T) {
	server := modelListServer(t, "gemini-2.5-flash", "gemini-2.5-pro")
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 generate-capable models, got %+v", models)
	}
	if models[0].Name != "gemini-2.5-flash" {
		t.Errorf("first model = %q, want prefix stripped", models[0].Name)
	}
}

func TestResolveModelPrefersConfigured(t *testing.T) {
	server := modelListServer(t, "gemini-2.5-flash", "gemini-2.5-pro")
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	got, err := client.ResolveModel(context.Background(), "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("ResolveModel: %v", err)
	}
	if got != "gemini-2.5-pro" {
		t.Errorf("resolved = %q", got)
	}
}

func TestResolveModelFallsBackToCurrentGeneration(t *testing.T) {
	server := modelListServer(t, "gemini-1.5-flash", "gemini-2.5-flash")
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	got, err := client.ResolveModel(context.Background(), "gemini-9.9-unreleased")
	if err != nil {
		t.Fatalf("ResolveModel: %v", err)
	}
	if got != "gemini-2.5-flash" {
		t.Errorf("resolved = %q, want the 2.5 fallback", got)
	}
}

func TestResolveModelFallsBackToFirst(t *testing.T) {
	server := modelListServer(t, "gemini-1.5-flash")
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	got, err := client.ResolveModel(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ResolveModel: %v", err)
	}
	if got != "gemini-1.5-flash" {
		t.Errorf("resolved = %q", got)
	}
}
