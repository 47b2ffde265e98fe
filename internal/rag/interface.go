// Package rag defines the retrieval primitives of the recommendation engine:
// vector records, similarity matches, and the embedding and vector storage
// interfaces. Concrete implementations (Qdrant, in-memory) satisfy these
// interfaces so the ingestion and recommendation layers never depend on a
// specific backend.
package rag

import (
	"context"
)

// Metadata is the payload stored alongside every vector.
type Metadata struct {
	// CarrierID is the normalized carrier identifier derived from the source key.
	CarrierID string `json:"carrierId"`

	// SourceKey is the storage key of the document the chunk came from.
	SourceKey string `json:"sourceKey"`

	// Text is the chunk text.
	Text string `json:"text"`
}

// VectorRecord is the unit stored in the vector index.
type VectorRecord struct {
	// ID is deterministic per (source key, chunk ordinal); re-upserting the
	// same id overwrites the previous record.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Metadata is returned with every query match.
	Metadata Metadata
}

// Match is a single nearest-neighbour result.
type Match struct {
	// ID is the record id of the matched vector.
	ID string

	// Metadata is the stored payload of the matched record.
	Metadata Metadata

	// Score is the similarity reported by the backend. Cosine backends
	// return values in [-1, 1]; consumers must not assume [0, 1].
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or overwrites a batch of records by id.
	Upsert(ctx context.Context, records []VectorRecord) error

	// Query returns the topK records most similar to vector, best first.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
