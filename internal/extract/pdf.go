package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the plain text of every page of a PDF document.
type PDF struct{}

// Extract reads data as a PDF. Pages whose text cannot be decoded are
// skipped. Malformed documents that make the parser panic are reported as
// errors.
func (PDF) Extract(ctx context.Context, key string, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract: pdf %s: parser panic: %v", key, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: pdf %s: %w", key, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
		b.WriteByte('\n')
	}

	return strings.TrimSpace(b.String()), nil
}
