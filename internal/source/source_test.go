package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDirStore_ListSortedAndSkipsHidden(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "sentinel-iul.pdf", "pdf")
	writeFile(t, dir, "acme-term.PDF", "pdf")
	writeFile(t, dir, "archive/banner_life.txt", "txt")
	writeFile(t, dir, ".hidden.pdf", "x")
	writeFile(t, dir, ".git/config", "x")

	s, err := NewDirStore(dir)
	require.NoError(t, err)

	docs, err := s.List(context.Background())
	require.NoError(t, err)

	keys := make([]string, 0, len(docs))
	for _, d := range docs {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []string{"acme-term.PDF", "archive/banner_life.txt", "sentinel-iul.pdf"}, keys)
	assert.Equal(t, int64(3), docs[0].Size)
}

func TestDirStore_Fetch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "archive/acme.txt", "guidelines")

	s, err := NewDirStore(dir)
	require.NoError(t, err)

	data, err := s.Fetch(context.Background(), "archive/acme.txt")
	require.NoError(t, err)
	assert.Equal(t, "guidelines", string(data))

	_, err = s.Fetch(context.Background(), "missing.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Fetch(context.Background(), "../etc/passwd")
	assert.Error(t, err)
}

func TestNewDirStore_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewDirStore("")
	assert.Error(t, err)

	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err = NewDirStore(f)
	assert.Error(t, err)
}

func TestURLStore(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/guides/acme-term.pdf" {
			_, _ = w.Write([]byte("%PDF-1.4"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s, err := NewURLStore([]string{srv.URL + "/guides/acme-term.pdf", srv.URL + "/guides/gone.pdf"}, 0)
	require.NoError(t, err)

	docs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "acme-term.pdf", docs[0].Key)

	data, err := s.Fetch(context.Background(), "acme-term.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = s.Fetch(context.Background(), "gone.pdf")
	assert.Error(t, err)

	_, err = s.Fetch(context.Background(), "unknown.pdf")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewURLStore_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewURLStore([]string{"ftp://example.com/a.pdf"}, 0)
	assert.Error(t, err)
	_, err = NewURLStore([]string{"https://example.com/"}, 0)
	assert.Error(t, err)
	_, err = NewURLStore([]string{"https://a.example.com/x/acme.pdf", "https://b.example.com/y/acme.pdf"}, 0)
	assert.Error(t, err)
}
