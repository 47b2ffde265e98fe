package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Counts(t *testing.T) {
	t.Parallel()

	c := Default()
	tests := []struct {
		name   string
		length int
		want   int
	}{
		{name: "empty", length: 0, want: 0},
		{name: "single char", length: 1, want: 1},
		{name: "below stride", length: 400, want: 1},
		{name: "exactly stride", length: 462, want: 1},
		{name: "one past stride", length: 463, want: 2},
		{name: "exactly window", length: 512, want: 2},
		{name: "long", length: 5000, want: 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Len(t, c.Chunk(strings.Repeat("a", tt.length)), tt.want)
		})
	}
}

// Every character is covered and consecutive full windows share exactly the
// configured overlap.
func TestChunk_CoverageAndOverlap(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 0; i < 2000; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	text := b.String()

	c := Default()
	chunks := c.Chunk(text)
	require.NotEmpty(t, chunks)

	// Rebuild the text by appending each chunk minus its overlap.
	rebuilt := chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.Equal(t, prev[len(prev)-DefaultOverlap:], chunks[i][:DefaultOverlap], "chunk %d overlap", i)
		rebuilt += chunks[i][DefaultOverlap:]
	}
	assert.Equal(t, text, rebuilt)

	for i, ch := range chunks[:len(chunks)-1] {
		assert.Len(t, ch, DefaultSize, "chunk %d should be a full window", i)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("Preferred Plus requires no tobacco in 5 years. ", 40)
	assert.Equal(t, Default().Chunk(text), Default().Chunk(text))
}

func TestChunk_MultiByte(t *testing.T) {
	t.Parallel()

	c, err := New(4, 1)
	require.NoError(t, err)
	chunks := c.Chunk("ééééééé")
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
	}
	assert.Equal(t, []string{"éééé", "éééé", "é"}, chunks)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(0, 0)
	assert.Error(t, err)
	_, err = New(10, 10)
	assert.Error(t, err)
	_, err = New(10, -1)
	assert.Error(t, err)
	c, err := New(10, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Stride())
}
