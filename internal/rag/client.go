package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/54b3r/carrierfit/internal/logging"
)

const (
	// DefaultEmbedTimeout bounds a single embedding call.
	DefaultEmbedTimeout = 30 * time.Second

	// DefaultQueryTimeout bounds a single vector query.
	DefaultQueryTimeout = 15 * time.Second
)

// EmbeddingClient turns one text into one vector. Failures never surface as
// errors: they are logged and reported as an empty vector, which callers
// treat as "skip this unit".
type EmbeddingClient struct {
	embedder Embedder
	timeout  time.Duration
}

// NewEmbeddingClient wraps embedder. A non-positive timeout selects
// DefaultEmbedTimeout.
func NewEmbeddingClient(embedder Embedder, timeout time.Duration) (*EmbeddingClient, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if timeout <= 0 {
		timeout = DefaultEmbedTimeout
	}
	return &EmbeddingClient{embedder: embedder, timeout: timeout}, nil
}

// Embed returns the embedding of text, or nil on any failure including a
// timeout.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) []float32 {
	log := logging.FromContext(ctx)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	vectors, err := c.embedder.Embed(callCtx, []string{text})
	if err != nil {
		log.Warn("rag: embedding failed", slog.Int("text_len", len(text)), slog.Any("error", err))
		return nil
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		log.Warn("rag: embedder returned an empty vector", slog.Int("text_len", len(text)))
		return nil
	}
	return vectors[0]
}

// IndexClient wraps a VectorStore with the failure policy of the pipeline:
// writes propagate, reads degrade to "no evidence".
type IndexClient struct {
	store   VectorStore
	timeout time.Duration
}

// NewIndexClient wraps store. A non-positive timeout selects
// DefaultQueryTimeout.
func NewIndexClient(store VectorStore, queryTimeout time.Duration) (*IndexClient, error) {
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &IndexClient{store: store, timeout: queryTimeout}, nil
}

// Upsert writes records in one call. An empty batch is a no-op.
func (c *IndexClient) Upsert(ctx context.Context, records []VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("rag: upsert of %d records failed: %w", len(records), err)
	}
	return nil
}

// Query returns the topK nearest records for vector. Errors and timeouts are
// logged and reported as an empty result.
func (c *IndexClient) Query(ctx context.Context, vector []float32, topK int) []Match {
	if len(vector) == 0 || topK <= 0 {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	matches, err := c.store.Query(callCtx, vector, topK)
	if err != nil {
		logging.FromContext(ctx).Warn("rag: vector query failed",
			slog.Int("top_k", topK),
			slog.Any("error", err),
		)
		return nil
	}
	return matches
}
