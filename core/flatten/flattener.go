// Package flatten implements the Flattener interface.
// It turns a report's HTML into a linear text stream by:
//  1. Joining the text of every <p> element with blank lines, or
//  2. Falling back to whole-document text with one block per line when the
//     report has no paragraphs.
package flatten

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// EmptySentinel replaces empty text when the flattened report is persisted.
const EmptySentinel = "No text found."

// noiseSelectors never carry report text.
var noiseSelectors = []string{"script", "style", "noscript", "template"}

// blockElements start a new line in the whole-document fallback.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "tbody": true,
	"td": true, "tfoot": true, "th": true, "thead": true, "tr": true, "ul": true,
}

// HTMLFlattener extracts report text with goquery.
type HTMLFlattener struct{}

// New creates an HTMLFlattener.
func New() *HTMLFlattener {
	return &HTMLFlattener{}
}

// Flatten returns the paragraph-joined text of html. Unparseable markup
// yields empty text rather than an error.
func (f *HTMLFlattener) Flatten(markup string) core.Flattened {
	if strings.TrimSpace(markup) == "" {
		return core.Flattened{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return core.Flattened{}
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() == 0 {
		return core.Flattened{Text: normalize(documentText(doc.Selection))}
	}

	parts := make([]string, 0, paragraphs.Length())
	paragraphs.Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, strings.TrimSpace(s.Text()))
	})

	return core.Flattened{
		Text:           normalize(strings.Join(parts, "\n\n")),
		ParagraphCount: paragraphs.Length(),
	}
}

// documentText walks the tree and emits text nodes, breaking lines at
// block-level elements.
func documentText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		writeNode(&b, n)
	}

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if blockElements[n.Data] {
			b.WriteByte('\n')
			defer b.WriteByte('\n')
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c)
	}
}

// normalize folds compatibility characters (e.g. non-breaking spaces) so
// downstream patterns can match them as ordinary whitespace.
func normalize(text string) string {
	return strings.TrimSpace(norm.NFKC.String(text))
}
