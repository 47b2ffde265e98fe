package embedder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaEmbedder embeds guideline chunks and profile queries through the
// Ollama /api/embed endpoint. It is safe for concurrent use.
type OllamaEmbedder struct {
	host       string
	model      string
	dimensions int
	keepAlive  string
	client     *http.Client
}

// OllamaConfig holds the settings for constructing an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the Ollama server base URL (e.g. "http://localhost:11434").
	Host string
	// Model is the embedding model name (e.g. "nomic-embed-text").
	Model string
	// Dimensions, when positive, is the vector size the index was created
	// with. Responses of any other size are rejected.
	Dimensions int
	// KeepAlive is passed through to Ollama ("5m", "-1"); empty keeps the
	// server default.
	KeepAlive string
	// HTTPClient overrides the default client (60s timeout).
	HTTPClient *http.Client
}

// NewOllamaEmbedder constructs an OllamaEmbedder from the given config.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &OllamaEmbedder{
		host:       strings.TrimRight(cfg.Host, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		keepAlive:  cfg.KeepAlive,
		client:     client,
	}
}

// Truncate cuts inputs longer than the model context instead of failing.
type ollamaEmbedRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	Truncate  bool     `json:"truncate"`
	KeepAlive string   `json:"keep_alive,omitempty"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed converts a batch of texts into their corresponding embeddings.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var result ollamaEmbedResponse
	err := postJSON(ctx, e.client, e.host+"/api/embed", nil,
		ollamaEmbedRequest{Model: e.model, Input: texts, Truncate: true, KeepAlive: e.keepAlive},
		&result,
		func() string { return result.Error },
	)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama embedder: expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	if e.dimensions > 0 {
		for i, vec := range result.Embeddings {
			if len(vec) != e.dimensions {
				return nil, fmt.Errorf("ollama embedder: model %s returned %d dimensions for input %d, index expects %d (check EMBEDDING_DIMENSIONS)",
					e.model, len(vec), i, e.dimensions)
			}
		}
	}
	return result.Embeddings, nil
}
