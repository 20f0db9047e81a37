// Package metadata implements the MetadataExtractor interface.
// Each advising field is found by a label-anchored pattern that captures the
// value following the label up to the first stop anchor: the next known
// label, a line break, an HTML tag boundary, or the end of the input.
//
// Labels are not read where they are part of a section header ("Major
// Requirements") or of a course record line ("Course MATH 113 Title College
// Algebra").
package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/segment"
)

// courseContext matches a line prefix that belongs to a course record: a
// "Course <code>" token anywhere before the label, or a course column label
// opening the line.
var courseContext = regexp.MustCompile(`(?i)\bCourse\b\s*[A-Za-z]{2,}\s*\d+|^[ \t]*(?:Title|Grade|Credits|Term)\b`)

// Strategy selects which form of the report labels are scanned in.
type Strategy string

const (
	// StrategyText scans the flattened text, case-insensitively.
	StrategyText Strategy = "text"
	// StrategyMarkup scans the lowercased raw markup, skipping tags between
	// a label and its value. GPA is never read from markup.
	StrategyMarkup Strategy = "markup"
	// StrategyAuto scans text first and fills absent fields from markup.
	StrategyAuto Strategy = "auto"
)

// ParseStrategy validates a strategy name. An empty name means StrategyText.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case "":
		return StrategyText, nil
	case StrategyText, StrategyMarkup, StrategyAuto:
		return s, nil
	default:
		return "", eris.Errorf("metadata: unknown strategy %q", name)
	}
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindDecimal
	kindInteger
)

// field binds a label to a Metadata member.
type field struct {
	label string
	kind  fieldKind
	// textOnly fields are skipped by the markup strategy.
	textOnly bool
	set      func(m *core.Metadata, raw string) bool
	isSet    func(m *core.Metadata) bool
}

var fields = []field{
	textField("Student name", func(m *core.Metadata) **string { return &m.StudentName }),
	textField("Advisor", func(m *core.Metadata) **string { return &m.Advisor }),
	{
		label:    "Overall GPA",
		kind:     kindDecimal,
		textOnly: true,
		set: func(m *core.Metadata, raw string) bool {
			v, ok := parseDecimal(raw)
			if ok {
				m.GPA = &v
			}
			return ok
		},
		isSet: func(m *core.Metadata) bool { return m.GPA != nil },
	},
	{
		label: "Transfer hours",
		kind:  kindInteger,
		set: func(m *core.Metadata, raw string) bool {
			v, ok := parseInteger(raw)
			if ok {
				m.TransferHours = &v
			}
			return ok
		},
		isSet: func(m *core.Metadata) bool { return m.TransferHours != nil },
	},
	textField("Classification", func(m *core.Metadata) **string { return &m.Classification }),
	textField("Major", func(m *core.Metadata) **string { return &m.Major }),
	textField("Program", func(m *core.Metadata) **string { return &m.Program }),
	textField("College", func(m *core.Metadata) **string { return &m.College }),
	textField("Academic standing", func(m *core.Metadata) **string { return &m.AcademicStanding }),
	textField("Graduation status", func(m *core.Metadata) **string { return &m.GraduationStatus }),
	textField("Graduation term", func(m *core.Metadata) **string { return &m.GraduationTerm }),
}

func textField(label string, ref func(*core.Metadata) **string) field {
	return field{
		label: label,
		kind:  kindText,
		set: func(m *core.Metadata, raw string) bool {
			if raw == "" {
				return false
			}
			*ref(m) = &raw
			return true
		},
		isSet: func(m *core.Metadata) bool { return *ref(m) != nil },
	}
}

// Labels returns every label the extractor recognizes, in scan order.
func Labels() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.label
	}
	return out
}

// Extractor finds advising metadata using one Strategy.
type Extractor struct {
	strategy Strategy
	text     []*regexp.Regexp
	markup   []*regexp.Regexp
	headers  *regexp.Regexp
}

// New compiles the label patterns for the given strategy. The extractor
// skips the default section headers; see Ignoring.
func New(strategy Strategy) *Extractor {
	e := (&Extractor{
		strategy: strategy,
		text:     make([]*regexp.Regexp, len(fields)),
		markup:   make([]*regexp.Regexp, len(fields)),
	}).Ignoring(segment.DefaultHeaders)
	for i, f := range fields {
		stops := stopAnchors(f.label)
		e.text[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(f.label) +
			`\b[ \t]*:?[ \t]*([\w .,&'/()-]*?)[ \t]*(?:` + stops + `|\r?\n|<|$)`)
		e.markup[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(f.label)) +
			`\b(?:\s|:|<[^>]*>)*([\w .,&'/()#;-]*?)[ \t]*(?:` + strings.ToLower(stops) + `|\r?\n|<|$)`)
	}
	return e
}

// Ignoring replaces the section headers whose text is never read as a
// label. Matching is case-insensitive. An empty list disables the check.
func (e *Extractor) Ignoring(headers []string) *Extractor {
	e.headers = nil
	var alts []string
	for _, h := range headers {
		if h = strings.TrimSpace(h); h != "" {
			alts = append(alts, regexp.QuoteMeta(h))
		}
	}
	if len(alts) > 0 {
		e.headers = regexp.MustCompile(`(?i)` + strings.Join(alts, "|"))
	}
	return e
}

// Strategy returns the strategy the extractor was built with.
func (e *Extractor) Strategy() Strategy {
	return e.strategy
}

// Extract returns the first value found for every label. It never fails;
// absent labels and unparseable numbers leave their field nil.
func (e *Extractor) Extract(text, markup string) core.Metadata {
	var m core.Metadata
	switch e.strategy {
	case StrategyMarkup:
		e.scanMarkup(&m, markup)
	case StrategyAuto:
		e.scanText(&m, text)
		e.scanMarkup(&m, markup)
	default:
		e.scanText(&m, text)
	}
	return m
}

func (e *Extractor) scanText(m *core.Metadata, text string) {
	if text == "" {
		return
	}
	text = e.maskHeaders(text)
	for i, f := range fields {
		if f.isSet(m) {
			continue
		}
		if raw, ok := firstValue(e.text[i], text, "\n"); ok {
			f.set(m, raw)
		}
	}
}

func (e *Extractor) scanMarkup(m *core.Metadata, markup string) {
	if markup == "" {
		return
	}
	lower := e.maskHeaders(strings.ToLower(markup))
	for i, f := range fields {
		if f.textOnly || f.isSet(m) {
			continue
		}
		if raw, ok := firstValue(e.markup[i], lower, "\n>"); ok {
			f.set(m, collapse(html.UnescapeString(raw)))
		}
	}
}

// maskHeaders replaces section header text with a line break so its words
// neither start nor continue a value.
func (e *Extractor) maskHeaders(s string) string {
	if e.headers == nil {
		return s
	}
	return e.headers.ReplaceAllLiteralString(s, "\n")
}

// firstValue returns the first non-empty capture of re in s whose label is
// not inside a course record. breaks lists the bytes that start a new line
// for that check.
func firstValue(re *regexp.Regexp, s, breaks string) (string, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		if inCourseRecord(s, loc[0], breaks) {
			continue
		}
		if v := collapse(s[loc[2]:loc[3]]); v != "" {
			return v, true
		}
	}
	return "", false
}

func inCourseRecord(s string, at int, breaks string) bool {
	start := strings.LastIndexAny(s[:at], breaks) + 1
	return courseContext.MatchString(s[start:at])
}

func stopAnchors(self string) string {
	var alts []string
	for _, f := range fields {
		if f.label != self {
			alts = append(alts, `\b`+regexp.QuoteMeta(f.label)+`\b`)
		}
	}
	return strings.Join(alts, "|")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseDecimal reads the leading token of raw as a number.
func parseDecimal(raw string) (float64, bool) {
	tok := leadingToken(raw)
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseInteger reads the leading token of raw as a whole number. Decimal
// forms with no fractional part (e.g. "12.0") are accepted.
func parseInteger(raw string) (int, bool) {
	tok := leadingToken(raw)
	if v, err := strconv.Atoi(tok); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func leadingToken(raw string) string {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimRight(parts[0], ",;")
}
