// Package extract converts source documents into plain text. Extractors are
// selected by file extension; callers substitute a placeholder when
// extraction fails or yields nothing.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrUnsupported is returned when no extractor is registered for a key's
// extension.
var ErrUnsupported = errors.New("extract: unsupported document type")

// Extractor turns document bytes into plain text.
type Extractor interface {
	// Extract returns the text of data. key is the document's storage key and
	// is used only for diagnostics.
	Extract(ctx context.Context, key string, data []byte) (string, error)
}

// Registry dispatches to an Extractor by lower-cased file extension.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns a Registry with PDF (.pdf) and plain text (.txt, .md)
// extractors registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".pdf", PDF{})
	r.Register(".txt", Text{})
	r.Register(".md", Text{})
	return r
}

// Register associates ext (e.g. ".pdf") with e, replacing any existing entry.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[normalizeExt(ext)] = e
}

// Supports reports whether an extractor is registered for key's extension.
func (r *Registry) Supports(key string) bool {
	_, ok := r.byExt[normalizeExt(path.Ext(key))]
	return ok
}

// Extract dispatches on key's extension.
func (r *Registry) Extract(ctx context.Context, key string, data []byte) (string, error) {
	e, ok := r.byExt[normalizeExt(path.Ext(key))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, key)
	}
	return e.Extract(ctx, key, data)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Text passes UTF-8 text through, trimming surrounding whitespace.
type Text struct{}

// Extract returns data as a string.
func (Text) Extract(_ context.Context, _ string, data []byte) (string, error) {
	return strings.TrimSpace(strings.ToValidUTF8(string(data), "")), nil
}
