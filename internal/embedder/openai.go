package embedder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultOpenAIBatch keeps each request well under the API's per-request
// token ceiling for chunk-sized inputs.
const defaultOpenAIBatch = 256

// OpenAIConfig configures an OpenAIEmbedder. The same client speaks to both
// api.openai.com and Azure OpenAI deployments.
type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" or, on Azure,
	// "https://<resource>.openai.azure.com/openai".
	BaseURL string
	APIKey  string

	// Model is the embedding model, or the deployment name on Azure.
	Model string

	// Dimensions asks text-embedding-3 models for shortened vectors.
	// Zero keeps the model default.
	Dimensions int

	// MaxBatch caps the inputs sent per request. Zero means 256.
	MaxBatch int

	Azure      bool
	APIVersion string // Azure only

	HTTPClient *http.Client
}

// OpenAIEmbedder implements rag.Embedder over the /embeddings REST endpoint.
// It is safe for concurrent use.
type OpenAIEmbedder struct {
	url      string
	header   string
	apiKey   string
	model    string
	dims     int
	maxBatch int
	client   *http.Client
}

// NewOpenAIEmbedder builds an embedder from cfg. The request URL and auth
// header are resolved once here.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		dims:     cfg.Dimensions,
		maxBatch: cfg.MaxBatch,
		client:   cfg.HTTPClient,
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: 30 * time.Second}
	}
	if e.maxBatch <= 0 {
		e.maxBatch = defaultOpenAIBatch
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Azure {
		e.url = base + "/deployments/" + url.PathEscape(cfg.Model) +
			"/embeddings?api-version=" + url.QueryEscape(cfg.APIVersion)
		e.header = "api-key"
	} else {
		e.url = base + "/embeddings"
		e.header = "Authorization"
	}
	return e
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns one vector per text, in input order. Large inputs are split
// into several requests; any failed request fails the whole call.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.maxBatch {
		end := min(start+e.maxBatch, len(texts))
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("openai embedder: inputs %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// embedBatch places results by their reported index since the API does not
// promise to preserve order.
func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	auth := e.apiKey
	if e.header == "Authorization" {
		auth = "Bearer " + e.apiKey
	}

	var resp openaiEmbedResponse
	err := postJSON(ctx, e.client, e.url, map[string]string{e.header: auth},
		openaiEmbedRequest{Input: texts, Model: e.model, Dimensions: e.dims},
		&resp,
		func() string {
			if resp.Error != nil {
				return resp.Error.Message
			}
			return ""
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		switch {
		case d.Index < 0 || d.Index >= len(texts):
			return nil, fmt.Errorf("index %d out of range [0, %d)", d.Index, len(texts))
		case vecs[d.Index] != nil:
			return nil, fmt.Errorf("index %d returned twice", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}
