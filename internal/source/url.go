package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/54b3r/carrierfit/internal/version"
)

// maxDocumentBytes caps a single fetched document.
const maxDocumentBytes = 64 << 20

// URLStore serves an explicit list of HTTP(S) documents. The key of each
// document is the last segment of its URL path.
type URLStore struct {
	urls   map[string]string
	keys   []string
	client *http.Client
}

// NewURLStore builds a URLStore from rawURLs, preserving their order.
// Duplicate keys are rejected because they would collide in the index.
func NewURLStore(rawURLs []string, timeout time.Duration) (*URLStore, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	s := &URLStore{
		urls:   make(map[string]string, len(rawURLs)),
		client: &http.Client{Timeout: timeout},
	}
	for _, raw := range rawURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("source: invalid document URL %q", raw)
		}
		key := path.Base(u.Path)
		if key == "/" || key == "." || key == "" {
			return nil, fmt.Errorf("source: URL %q has no file name", raw)
		}
		if prev, dup := s.urls[key]; dup {
			return nil, fmt.Errorf("source: URLs %q and %q share the key %q", prev, raw, key)
		}
		s.urls[key] = raw
		s.keys = append(s.keys, key)
	}
	return s, nil
}

// List returns the configured documents in input order. Sizes are unknown
// until fetched.
func (s *URLStore) List(context.Context) ([]Document, error) {
	docs := make([]Document, 0, len(s.keys))
	for _, k := range s.keys {
		docs = append(docs, Document{Key: k, Size: -1})
	}
	return docs, nil
}

// Fetch downloads the document for key.
func (s *URLStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	raw, ok := s.urls[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("source: creating request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: http get %s: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: unexpected status %d for %s", resp.StatusCode, raw)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("source: reading body of %s: %w", raw, err)
	}
	if len(body) > maxDocumentBytes {
		return nil, fmt.Errorf("source: %s exceeds %d bytes", raw, maxDocumentBytes)
	}
	return body, nil
}
