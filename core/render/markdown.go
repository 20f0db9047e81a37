// Package render: Markdown renderer.
// Writes a human-readable degree-progress summary: advising fields, totals,
// one table per semester, in-progress courses and outstanding requirements.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// MarkdownRenderer renders a record as a Markdown summary.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render returns the Markdown summary as bytes.
func (r *MarkdownRenderer) Render(rec *core.DegreeProgress) ([]byte, error) {
	return []byte(Summary(rec)), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

// Summary builds the Markdown summary text for rec.
func Summary(rec *core.DegreeProgress) string {
	var b strings.Builder

	title := "Degree Progress"
	if rec.StudentName != nil {
		title += ": " + *rec.StudentName
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	// --- Advising fields ---
	fields := []struct {
		label string
		value string
	}{
		{"GPA", decimal(rec.GPA)},
		{"Advisor", text(rec.Advisor)},
		{"Classification", text(rec.Classification)},
		{"Major", text(rec.Major)},
		{"Program", text(rec.Program)},
		{"College", text(rec.College)},
		{"Academic standing", text(rec.AcademicStanding)},
		{"Transfer hours", integer(rec.TransferHours)},
		{"Graduation status", text(rec.GraduationStatus)},
		{"Graduation term", text(rec.GraduationTerm)},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(&b, "- **%s:** %s\n", f.label, f.value)
		}
	}

	// --- Totals ---
	b.WriteString("\n## Totals\n\n")
	fmt.Fprintf(&b, "- Completed credits: %s\n", credits(rec.TotalCompletedCredits))
	fmt.Fprintf(&b, "- Completed courses: %d\n", rec.TotalCompletedCourses)
	if rec.CurrentTerm != nil {
		fmt.Fprintf(&b, "- Current term: %s\n", *rec.CurrentTerm)
	}
	fmt.Fprintf(&b, "- Current term credits: %s\n", credits(rec.CurrentTermCredits))

	// --- Semesters ---
	if len(rec.Semesters) > 0 {
		b.WriteString("\n## Semesters\n")
		for _, s := range rec.Semesters {
			fmt.Fprintf(&b, "\n### %s (%s credits, %d courses)\n\n", s.Term, credits(s.TotalCredits), s.CourseCount)
			writeCourseTable(&b, s.Courses)
		}
	}

	if len(rec.InProgressCoursesList) > 0 {
		b.WriteString("\n## In Progress\n\n")
		writeCourseTable(&b, rec.InProgressCoursesList)
	}

	// --- Requirements ---
	var outstanding []core.Section
	for _, s := range rec.Sections {
		if len(s.RemainingRequirements) > 0 {
			outstanding = append(outstanding, s)
		}
	}
	if len(outstanding) > 0 {
		b.WriteString("\n## Still Needed\n")
		for _, s := range outstanding {
			fmt.Fprintf(&b, "\n### %s\n\n", s.Name)
			for _, req := range s.RemainingRequirements {
				fmt.Fprintf(&b, "- %s\n", req)
			}
		}
	}

	return b.String()
}

func writeCourseTable(b *strings.Builder, courses []core.CourseRecord) {
	b.WriteString("| Course | Title | Grade | Credits |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, c := range courses {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", c.Course, escapeCell(c.Title), c.Grade, credits(c.Credits))
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func credits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func decimal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func integer(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func text(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
