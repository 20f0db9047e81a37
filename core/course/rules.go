// Package course recognizes course records in free report text.
//
// Recognition is an ordered cascade of Rules. The complete rule requires a
// code, title, grade, credits and term after their labels ("Course",
// "Title", "Grade", "Credits", "Term"); the degraded rule requires only a
// code and a title and recovers truncated mentions. Rules run in priority
// order over the same text and share a claimed-code set, so a course found
// by a higher-priority rule is never matched again by a lower one.
package course

import (
	"regexp"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// Field names a course-record field a rule can capture or default.
type Field string

const (
	FieldTitle   Field = "title"
	FieldGrade   Field = "grade"
	FieldCredits Field = "credits"
	FieldTerm    Field = "term"
)

// DefaultCredits is assumed for any course whose credits are missing,
// unparseable or zero.
const DefaultCredits = 3.0

// Rule is one tier of the course-record cascade.
type Rule struct {
	Tier core.MatchTier
	// Guarantees lists the fields every match of the rule captures from text.
	Guarantees []Field
	// Defaults holds the value applied to a field the rule leaves empty.
	Defaults map[Field]string

	re *regexp.Regexp
	// build turns submatch indices into a match ending at end. ok is false
	// when the candidate must be re-anchored at next.
	build func(text string, loc []int) (m core.CourseMatch, end, next int, ok bool)
}

// codePattern is a course-code token: letters, optional space, digits, and
// an optional letter suffix (e.g. "COSC 470", "MATH241", "ENGL 101H").
const codePattern = `[A-Za-z]{2,}\s*\d+[A-Za-z]?`

var (
	completePattern = regexp.MustCompile(`(?s)\bCourse\b\s*(` + codePattern + `)\b` +
		`.*?\bTitle\s*(.*?)\s*\bGrade\s*([A-Z]+[+-]?)(?:[^\w+-]|$)` +
		`.*?\bCredits\s*([\d().]*)` +
		`.*?\bTerm\b\s*([\w\s-]*)`)

	degradedPattern = regexp.MustCompile(`\bCourse\b\s*(` + codePattern + `)\b\s*` +
		`\bTitle\b[ \t]*([^\n]*?)[ \t]*(?:\bGrade\b|\bCourse\b|\n|$)`)

	// courseToken finds "Course <code>" tokens inside a candidate match.
	courseToken = regexp.MustCompile(`\bCourse\b\s*` + codePattern + `\b`)
)

// Rules is the cascade in priority order.
var Rules = []Rule{
	{
		Tier:       core.TierComplete,
		Guarantees: []Field{FieldGrade},
		Defaults: map[Field]string{
			FieldTitle:   "",
			FieldCredits: "3",
		},
		re:    completePattern,
		build: buildComplete,
	},
	{
		Tier:       core.TierDegraded,
		Guarantees: []Field{FieldTitle},
		Defaults: map[Field]string{
			FieldTitle:   "",
			FieldGrade:   "A",
			FieldCredits: "3",
		},
		re:    degradedPattern,
		build: buildDegraded,
	},
}

// ruleFor returns the rule that produces tier.
func ruleFor(tier core.MatchTier) Rule {
	for _, r := range Rules {
		if r.Tier == tier {
			return r
		}
	}
	return Rules[len(Rules)-1]
}

func buildComplete(text string, loc []int) (core.CourseMatch, int, int, bool) {
	codeEnd, termStart, termEnd := loc[3], loc[10], loc[11]
	if inner := courseToken.FindAllStringIndex(text[codeEnd:termStart], -1); len(inner) > 0 {
		// Another course begins before this one's term: the earlier
		// mention is truncated, so retry from the last inner token.
		return core.CourseMatch{}, 0, codeEnd + inner[len(inner)-1][0], false
	}

	// The term column runs on through any text made of words and spaces.
	// Stop it where the next complete record begins; truncated mentions
	// stay in the residue.
	if courseToken.MatchString(text[termStart:termEnd]) {
		if next := nextComplete(text, termStart, termEnd); next >= 0 {
			termEnd = next
		}
	}

	m := core.CourseMatch{
		Code:  normalizeCode(text[loc[2]:loc[3]]),
		Title: optional(text[loc[4]:loc[5]]),
		Grade: optional(text[loc[6]:loc[7]]),
		Tier:  core.TierComplete,
	}
	if credits := text[loc[8]:loc[9]]; credits != "" {
		m.Credits = &credits
	}

	m.Term, m.Residue = splitTerm(text[termStart:termEnd])
	return m, termEnd, 0, true
}

// nextComplete returns the offset of the first complete record starting in
// text[from:to], or -1. A candidate with another "Course <code>" token
// before its term is truncated, so the search resumes at the last such
// token.
func nextComplete(text string, from, to int) int {
	for from < to {
		loc := completePattern.FindStringSubmatchIndex(text[from:])
		if loc == nil || from+loc[0] >= to {
			return -1
		}
		inner := courseToken.FindAllStringIndex(text[from+loc[3]:from+loc[10]], -1)
		if len(inner) == 0 {
			return from + loc[0]
		}
		from += loc[3] + inner[len(inner)-1][0]
	}
	return -1
}

func buildDegraded(text string, loc []int) (core.CourseMatch, int, int, bool) {
	return core.CourseMatch{
		Code:  normalizeCode(text[loc[2]:loc[3]]),
		Title: optional(text[loc[4]:loc[5]]),
		Tier:  core.TierDegraded,
	}, loc[1], 0, true
}
