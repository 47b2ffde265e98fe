// Package chunker splits extracted document text into overlapping
// fixed-size windows. Sizes are measured in characters (runes), so a chunk
// boundary never falls inside a multi-byte character.
package chunker

import "fmt"

const (
	// DefaultSize is the window length in characters.
	DefaultSize = 512
	// DefaultOverlap is the number of characters shared by consecutive chunks.
	DefaultOverlap = 50
)

// Chunker is a pure, deterministic text splitter.
type Chunker struct {
	size    int
	overlap int
}

// New returns a Chunker with the given window size and overlap.
// overlap must be smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Default returns a Chunker with DefaultSize and DefaultOverlap.
func Default() *Chunker {
	return &Chunker{size: DefaultSize, overlap: DefaultOverlap}
}

// Stride is the distance between the starts of consecutive chunks.
func (c *Chunker) Stride() int { return c.size - c.overlap }

// Chunk splits text into windows of at most size characters starting every
// Stride characters, stopping once a window would start at or past the end
// of the text. Empty input yields nil.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := c.Stride()
	chunks := make([]string, 0, (len(runes)+stride-1)/stride)
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
