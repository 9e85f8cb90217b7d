package relnotes

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// RenderPreview converts an assembled markdown changelog into HTML for the
// local preview page. Only useful when the note sources are markdown; RST
// documents go through sphinx instead.
func RenderPreview(doc string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(doc), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
