// Package normalize converts a report's HTML into a Markdown snapshot.
// The snapshot is an optional run artifact that keeps the report's tables
// and headings readable when the flattened text loses them.
package normalize

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/rotisserie/eris"
)

// MarkdownNormalizer converts HTML to Markdown using html-to-markdown.
type MarkdownNormalizer struct{}

// New creates a MarkdownNormalizer.
func New() *MarkdownNormalizer {
	return &MarkdownNormalizer{}
}

// Normalize converts report HTML into Markdown. Empty input gives empty output.
func (n *MarkdownNormalizer) Normalize(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", eris.Wrap(err, "normalize: converting HTML to markdown")
	}
	return strings.TrimSpace(markdown), nil
}
