//go:build integration

package embedder

import (
	"context"
	"math"
	"os"
	"testing"
	"time"
)

// TestOllamaEmbedder_Integration embeds a client-profile query and two
// guideline excerpts against a running Ollama and checks that retrieval
// would rank the relevant excerpt first.
//
//	ollama pull nomic-embed-text
//	go test -tags=integration -run TestOllamaEmbedder_Integration ./internal/embedder/
//
// Set OLLAMA_HOST when Ollama is not on localhost:11434.
func TestOllamaEmbedder_Integration(t *testing.T) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = defaultOllamaModel
	}

	emb := NewOllamaEmbedder(&OllamaConfig{Host: host, Model: model})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	texts := []string{
		"52-year-old male, type 2 diabetes controlled with metformin, A1C 6.8, non-smoker, seeking $500,000 20-year term.",
		"Type 2 diabetics on oral medication with A1C below 7.0 may qualify for Standard rates; insulin use is rated Table 2.",
		"Applicants with a DUI in the past 5 years are rated Standard or declined.",
	}

	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		t.Fatalf("Embed() failed: %v\n\nEnsure Ollama is running and %q is pulled:\n  ollama pull %s", err, model, model)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(vecs))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			t.Fatalf("embedding[%d] is empty", i)
		}
	}

	diabetes := cosine(vecs[0], vecs[1])
	dui := cosine(vecs[0], vecs[2])
	t.Logf("model=%s dim=%d diabetes=%.3f dui=%.3f", model, len(vecs[0]), diabetes, dui)
	if diabetes <= dui {
		t.Errorf("expected the diabetes guideline to score above the DUI guideline (%.3f <= %.3f)", diabetes, dui)
	}
	if model == defaultOllamaModel && len(vecs[0]) != DefaultDimensions("ollama") {
		t.Errorf("dim %d does not match DefaultDimensions(ollama)=%d used for the Qdrant collection", len(vecs[0]), DefaultDimensions("ollama"))
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
