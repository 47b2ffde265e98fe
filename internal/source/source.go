// Package source lists and fetches the underwriting-guideline documents that
// feed ingestion. Documents are opaque blobs identified by a storage key.
package source

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Fetch for an unknown key.
var ErrNotFound = errors.New("source: document not found")

// Document describes one source document.
type Document struct {
	// Key is the storage key (a file name or relative path).
	Key string
	// Size is the byte length, or -1 when unknown before fetching.
	Size int64
	// ContentType is the MIME type when known.
	ContentType string
}

// Store lists and fetches source documents. List must return documents in a
// stable order so pagination offsets stay meaningful between runs.
type Store interface {
	List(ctx context.Context) ([]Document, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}
