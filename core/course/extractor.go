package course

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/auditpipe/core"
)

var (
	termPattern      = regexp.MustCompile(`(?i)\b(SPRING|SUMMER|FALL|WINTER)\s+(\d{4})\b`)
	remainingPattern = regexp.MustCompile(`(?s)Still needed[:\s]*(.*?)(?:Course|$)`)
)

// span is a half-open byte range of scanned text.
type span struct{ start, end int }

// Scan runs the rule cascade over text. Matches are returned in rule
// priority order, then in text order. Lower-priority rules only look at text
// not covered by a higher-priority match, and skip codes a higher-priority
// rule already claimed. Repeats within one rule are all kept.
func Scan(text string) []core.CourseMatch {
	var (
		matches []core.CourseMatch
		covered []span
		claimed = make(map[string]bool)
	)

	for _, rule := range Rules {
		var found []span
		codes := make(map[string]bool)
		for _, gap := range gaps(len(text), covered) {
			for _, hit := range scanRule(rule, text, gap) {
				if claimed[hit.match.Code] {
					continue
				}
				codes[hit.match.Code] = true
				matches = append(matches, hit.match)
				found = append(found, hit.span)
			}
		}
		for code := range codes {
			claimed[code] = true
		}
		covered = merge(covered, found)
	}
	return matches
}

type hit struct {
	match core.CourseMatch
	span  span
}

// scanRule finds the non-overlapping matches of rule inside g.
func scanRule(rule Rule, text string, g span) []hit {
	var hits []hit
	cursor := g.start
	for cursor < g.end {
		loc := rule.re.FindStringSubmatchIndex(text[cursor:g.end])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += cursor
			}
		}

		m, end, next, ok := rule.build(text, loc)
		if !ok {
			cursor = next
			continue
		}
		hits = append(hits, hit{match: m, span: span{loc[0], end}})

		if end <= loc[0] {
			cursor = loc[0] + 1
		} else {
			cursor = end
		}
	}
	return hits
}

// gaps returns the parts of [0, n) not inside covered. covered must be
// sorted and non-overlapping.
func gaps(n int, covered []span) []span {
	var out []span
	pos := 0
	for _, c := range covered {
		if c.start > pos {
			out = append(out, span{pos, c.start})
		}
		if c.end > pos {
			pos = c.end
		}
	}
	if pos < n {
		out = append(out, span{pos, n})
	}
	return out
}

func merge(a, b []span) []span {
	out := append(append([]span(nil), a...), b...)
	sort.Slice(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// ExtractSection fills a section's completed courses and remaining
// requirements from its text span. Completed courses are every match of the
// cascade, not deduplicated across sections.
func ExtractSection(sec core.Section) core.Section {
	sec.CompletedCourses = Scan(sec.Text)
	sec.RemainingRequirements = RemainingRequirements(sec.Text)
	return sec
}

// RemainingRequirements returns the whitespace-collapsed text after each
// "Still needed" label, up to the next "Course" token or the end of text.
func RemainingRequirements(text string) []string {
	var out []string
	for _, m := range remainingPattern.FindAllStringSubmatch(text, -1) {
		if req := collapse(m[1]); req != "" {
			out = append(out, req)
		}
	}
	return out
}

// Term is a resolved academic term.
type Term struct {
	Semester core.Semester
	Year     int
}

// String formats the term as "SEMESTER YEAR".
func (t Term) String() string {
	return string(t.Semester) + " " + strconv.Itoa(t.Year)
}

// ParseTerm finds the first "SEASON YYYY" token in raw.
func ParseTerm(raw string) (Term, bool) {
	m := termPattern.FindStringSubmatch(raw)
	if m == nil {
		return Term{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return Term{}, false
	}
	return Term{Semester: core.Semester(strings.ToUpper(m[1])), Year: year}, true
}

// splitTerm separates a raw term column into its term text and the residue
// after it. When no term resolves, the term is nil and the whole column is
// residue.
func splitTerm(raw string) (*string, string) {
	loc := termPattern.FindStringIndex(raw)
	if loc == nil {
		return nil, raw
	}
	term := collapse(raw[:loc[1]])
	return &term, raw[loc[1]:]
}

// ToRecord applies the default step to a match: missing titles become "",
// grades are upper-cased (degraded matches default to "A"), and missing,
// unparseable or zero credits become DefaultCredits. Every defaulted field
// is listed in the record's Defaulted slice.
func ToRecord(m core.CourseMatch, source core.RecordSource) core.CourseRecord {
	rule := ruleFor(m.Tier)
	rec := core.CourseRecord{
		Course: m.Code,
		Source: source,
	}

	if m.Title != nil {
		rec.Title = *m.Title
	} else {
		rec.Title = rule.Defaults[FieldTitle]
		rec.Defaulted = append(rec.Defaulted, string(FieldTitle))
	}

	if m.Grade != nil {
		rec.Grade = strings.ToUpper(*m.Grade)
	} else {
		rec.Grade = rule.Defaults[FieldGrade]
		rec.Defaulted = append(rec.Defaulted, string(FieldGrade))
	}

	rec.Credits = parseCredits(m.Credits)
	if rec.Credits == 0 {
		rec.Credits = DefaultCredits
		rec.Defaulted = append(rec.Defaulted, string(FieldCredits))
	}

	if m.Term != nil {
		if t, ok := ParseTerm(*m.Term); ok {
			SetTerm(&rec, t)
		}
	}
	return rec
}

// SetTerm assigns semester, year and full term to rec.
func SetTerm(rec *core.CourseRecord, t Term) {
	sem, year, full := t.Semester, t.Year, t.String()
	rec.Semester = &sem
	rec.Year = &year
	rec.FullTerm = &full
}

// parseCredits reads a credits value such as "3", "(3)" or "3.0".
// Anything unparseable is zero.
func parseCredits(raw *string) float64 {
	if raw == nil {
		return 0
	}
	s := strings.Trim(*raw, "() ")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeCode(code string) string {
	return strings.ToUpper(collapse(code))
}

func optional(s string) *string {
	s = collapse(s)
	if s == "" {
		return nil
	}
	return &s
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
