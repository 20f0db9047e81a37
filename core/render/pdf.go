// Package render: PDF renderer.
// Lays out the Markdown summary as a styled PDF using gofpdf.
// Handles headings (variable font sizes), list items and course tables.
package render

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rotisserie/eris"

	"github.com/gaurav-prasanna/auditpipe/core"
)

var (
	tableSeparator = regexp.MustCompile(`^\|[-:| ]+\|$`)
	boldMarkers    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// PDFRenderer renders a degree-progress summary as a PDF document.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render converts the record's Markdown summary into PDF bytes.
func (r *PDFRenderer) Render(rec *core.DegreeProgress) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	// Core fonts are cp1252; translate UTF-8 text before drawing it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, line := range strings.Split(Summary(rec), "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pdf.Ln(3)

		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			renderHeading(pdf, tr(strings.TrimSpace(trimmed[level:])), level)

		case tableSeparator.MatchString(trimmed):
			// Header underline; the header row is already drawn.

		case strings.HasPrefix(trimmed, "|"):
			cells := strings.Split(strings.Trim(trimmed, "|"), " | ")
			for i := range cells {
				cells[i] = strings.TrimSpace(strings.ReplaceAll(cells[i], `\|`, "|"))
			}
			renderRow(pdf, tr, cells)

		case strings.HasPrefix(trimmed, "- "):
			pdf.SetFont("Helvetica", "", 10)
			text := "- " + cleanInlineMarkdown(trimmed[2:])
			pdf.MultiCell(0, 5, tr(text), "", "L", false)

		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, tr(cleanInlineMarkdown(trimmed)), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, eris.Wrap(err, "render: writing PDF")
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for PDF output.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// columnWidths are the course table columns in mm: code, title, grade, credits.
var columnWidths = []float64{28, 110, 20, 22}

func renderRow(pdf *gofpdf.Fpdf, tr func(string) string, cells []string) {
	pdf.SetFont("Courier", "", 9)
	for i, cell := range cells {
		if i >= len(columnWidths) {
			break
		}
		w := columnWidths[i]
		// Clip long titles to the column.
		runes := []rune(cell)
		for len(runes) > 4 && pdf.GetStringWidth(tr(string(runes))) > w-2 {
			runes = runes[:len(runes)-1]
		}
		pdf.CellFormat(w, 5, tr(string(runes)), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// renderHeading sets the font size based on heading level and writes text.
func renderHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 12}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, text, "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips bold markers for PDF rendering.
func cleanInlineMarkdown(text string) string {
	return strings.TrimSpace(boldMarkers.ReplaceAllString(text, "$1"))
}
