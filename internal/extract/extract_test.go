package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Dispatch(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	ctx := context.Background()

	got, err := r.Extract(ctx, "acme-guide.TXT", []byte("  Preferred Plus: no nicotine.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Preferred Plus: no nicotine.", got)

	got, err = r.Extract(ctx, "notes/sentinel.md", []byte("# Sentinel"))
	require.NoError(t, err)
	assert.Equal(t, "# Sentinel", got)

	_, err = r.Extract(ctx, "acme.docx", []byte("x"))
	assert.True(t, errors.Is(err, ErrUnsupported))

	assert.True(t, r.Supports("ACME.PDF"))
	assert.False(t, r.Supports("acme"))
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("csv", Text{})
	assert.True(t, r.Supports("rates.csv"))
}

func TestPDF_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := PDF{}.Extract(context.Background(), "broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)

	_, err = PDF{}.Extract(context.Background(), "empty.pdf", nil)
	assert.Error(t, err)
}
