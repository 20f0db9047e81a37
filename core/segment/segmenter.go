// Package segment splits flattened report text into requirement sections.
package segment

import (
	"strings"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// DefaultHeaders is the section order of a standard degree-progress report.
var DefaultHeaders = []string{
	"General Education Program Requirements",
	"Major Requirements",
	"Complementary Studies Program",
	"Computer Science Requirements",
	"Electives",
	"Senior Project",
}

// Segmenter finds sections by an explicit, ordered header list.
type Segmenter struct {
	headers []string
}

// New creates a Segmenter for headers. An empty list means DefaultHeaders.
func New(headers []string) *Segmenter {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	return &Segmenter{headers: append([]string(nil), headers...)}
}

// Headers returns the configured header order.
func (s *Segmenter) Headers() []string {
	return append([]string(nil), s.headers...)
}

// Segment returns one Section per header present in text, in header-list
// order. A span runs from its header's first occurrence to the first
// occurrence of the next listed header at or after that point, or to the
// end of text. Only the immediate successor in the list bounds a span, and a
// missing header does not shift the search start of the ones after it, so
// out-of-order headers can yield overlapping spans.
func (s *Segmenter) Segment(text string) []core.Section {
	var sections []core.Section
	for i, header := range s.headers {
		start := strings.Index(text, header)
		if start == -1 {
			continue
		}

		end := len(text)
		if i+1 < len(s.headers) {
			if next := strings.Index(text[start:], s.headers[i+1]); next != -1 {
				end = start + next
			}
		}

		sections = append(sections, core.Section{
			Name: header,
			Text: text[start:end],
		})
	}
	return sections
}
