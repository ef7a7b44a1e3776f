package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/documind/internal/core/domain"
)

func embeddingSettings(baseURL string) domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
		BaseURL:  baseURL,
	}
}

func TestNewOpenAIEmbedding_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIEmbedding(domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewOpenAIEmbedding_Defaults(t *testing.T) {
	emb, err := NewOpenAIEmbedding(domain.EmbeddingSettings{APIKey: "sk-test"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.Model() != DefaultOpenAIEmbeddingModel {
		t.Errorf("expected default model, got %s", emb.Model())
	}
	if emb.baseURL != domain.OpenAIBaseURL {
		t.Errorf("expected default base URL, got %s", emb.baseURL)
	}
}

func TestOpenAIEmbedding_Dimensions(t *testing.T) {
	testCases := []struct {
		model      string
		override   int
		dimensions int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"unknown-model", 0, 1536},
		{"text-embedding-3-small", 512, 512},
	}

	for _, tc := range testCases {
		t.Run(tc.model, func(t *testing.T) {
			emb, err := NewOpenAIEmbedding(domain.EmbeddingSettings{APIKey: "sk-test", Model: tc.model, Dimensions: tc.override}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if emb.Dimensions() != tc.dimensions {
				t.Errorf("expected dimensions %d, got %d", tc.dimensions, emb.Dimensions())
			}
		})
	}
}

func TestOpenAIEmbedding_Embed_EmptyInput(t *testing.T) {
	emb, _ := NewOpenAIEmbedding(embeddingSettings(""), nil)

	result, err := emb.Embed(context.Background(), []string{})
	if err != nil {
		t.Errorf("unexpected error for empty input: %v", err)
	}
	if result != nil {
		t.Error("expected nil result for empty input")
	}
}

func TestOpenAIEmbedding_Embed_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embeddings" {
			t.Errorf("expected /embeddings, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Error("expected Authorization header")
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Input) != 2 || req.Model != "text-embedding-3-small" {
			t.Errorf("unexpected request %+v", req)
		}

		// Out of order on purpose
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.4,0.5,0.6]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer server.Close()

	emb, err := NewOpenAIEmbedding(embeddingSettings(server.URL), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := emb.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(result))
	}
	if result[0][0] != 0.1 || result[1][0] != 0.4 {
		t.Errorf("expected embeddings in input order, got %v", result)
	}
}

func TestOpenAIEmbedding_Embed_MissingVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedding(embeddingSettings(server.URL), nil)
	if _, err := emb.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected error when a vector is missing")
	}
}

func TestOpenAIEmbedding_Embed_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedding(embeddingSettings(server.URL), nil)
	if _, err := emb.EmbedQuery(context.Background(), "hello"); err == nil {
		t.Error("expected error for API error response")
	}
}

func TestOpenAIEmbedding_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	emb, _ := NewOpenAIEmbedding(embeddingSettings(server.URL), nil)
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
	if err := emb.Close(); err != nil {
		t.Errorf("expected no error from Close, got %v", err)
	}
}
