package embedder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.True(t, req.Truncate)

		out := ollamaEmbedResponse{}
		for range req.Input {
			out.Embeddings = append(out.Embeddings, []float32{0.1, 0.2})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL + "/", Model: "nomic-embed-text"})
	got, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOllamaEmbedder_ErrorBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"nomic-embed-text\" not found"}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	_, err := e.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestOllamaEmbedder_DimensionMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.1, 0.2, 0.3}}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text", Dimensions: 768})
	_, err := e.Embed(context.Background(), []string{"Preferred Plus requires no tobacco in 5 years."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 3 dimensions")
	assert.Contains(t, err.Error(), "expects 768")
}

func TestOpenAIEmbedder_OutOfOrderData(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[2],"index":1},{"embedding":[1],"index":0}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "text-embedding-3-small"})
	got, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, got)
}

func TestOpenAIEmbedder_Azure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/deployments/embed-prod/embeddings", r.URL.Path)
		assert.Equal(t, "2025-04-01-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "az-key", r.Header.Get("api-key"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{
		BaseURL:    srv.URL + "/openai",
		APIKey:     "az-key",
		Model:      "embed-prod",
		Azure:      true,
		APIVersion: "2025-04-01-preview",
	})
	_, err := e.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestOpenAIEmbedder_Batches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req openaiEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Input), 2)

		var out openaiEmbedResponse
		for i, in := range req.Input {
			out.Data = append(out.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(len(in))}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m", MaxBatch: 2})
	got, err := e.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}, {5}}, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIEmbedder_DuplicateIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0},{"embedding":[2],"index":0}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	_, err := e.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned twice")
}

func TestBackendAndDimensions(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("EMBEDDING_DIMENSIONS", "")
	t.Setenv("MODEL_PROVIDER", "gemini")
	assert.Equal(t, "ollama", Backend())
	assert.Equal(t, 768, DefaultDimensions("ollama"))
	assert.Equal(t, 1536, DefaultDimensions("openai"))

	t.Setenv("MODEL_PROVIDER", "azure")
	assert.Equal(t, "azure", Backend())

	t.Setenv("EMBEDDING_DIMENSIONS", "1024")
	assert.Equal(t, 1024, DefaultDimensions("ollama"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr []string
	}{
		{
			name: "ollama needs nothing",
			env:  map[string]string{"EMBEDDING_PROVIDER": "ollama"},
		},
		{
			name:    "azure reports every missing setting",
			env:     map[string]string{"EMBEDDING_PROVIDER": "azure"},
			wantErr: []string{"Azure API key", "Azure endpoint"},
		},
		{
			name: "azure inherits chat credentials",
			env: map[string]string{
				"EMBEDDING_PROVIDER":    "azure",
				"AZURE_OPENAI_API_KEY":  "key",
				"AZURE_OPENAI_ENDPOINT": "https://example.openai.azure.com",
			},
		},
		{
			name:    "openai without key",
			env:     map[string]string{"EMBEDDING_PROVIDER": "openai"},
			wantErr: []string{"OpenAI API key"},
		},
		{
			name:    "negative dimensions",
			env:     map[string]string{"EMBEDDING_PROVIDER": "ollama", "EMBEDDING_DIMENSIONS": "-1"},
			wantErr: []string{"must not be negative"},
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"EMBEDDING_PROVIDER": "cohere"},
			wantErr: []string{"unknown backend"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{
				"MODEL_PROVIDER", "EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "EMBEDDING_ENDPOINT",
				"EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS", "OPENAI_API_KEY",
				"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT",
			} {
				t.Setenv(k, tc.env[k])
			}

			err := Validate(slog.Default())
			if len(tc.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLooksLikeChatModel(t *testing.T) {
	t.Parallel()

	assert.True(t, looksLikeChatModel("gpt-4o"))
	assert.True(t, looksLikeChatModel("llama3.2"))
	assert.False(t, looksLikeChatModel("nomic-embed-text"))
	assert.False(t, looksLikeChatModel("text-embedding-3-small"))
}
