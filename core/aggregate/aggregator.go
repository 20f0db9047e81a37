// Package aggregate derives totals and a chronological semester breakdown
// from reconciled course records.
package aggregate

import (
	"sort"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/reconcile"
)

// Totals summarizes completed and in-progress work.
type Totals struct {
	CompletedCredits   float64
	CompletedCourses   int
	CurrentTerm        *string
	CurrentTermCourses []string
	CurrentTermCredits float64
}

// Summary is the aggregated view of one report.
type Summary struct {
	Totals
	Semesters  []core.SemesterBucket
	Completed  []core.CourseRecord
	InProgress []core.CourseRecord
}

// Aggregate computes totals, semester buckets and sorted course lists.
// Excluded transfer records contribute nothing.
func Aggregate(res reconcile.Result) Summary {
	completed := values(res.Completed)
	inProgress := values(res.InProgress)

	sort.Slice(completed, func(i, j int) bool {
		yi, yj := year(completed[i]), year(completed[j])
		if yi != yj {
			return yi < yj
		}
		return completed[i].Course < completed[j].Course
	})
	sort.Slice(inProgress, func(i, j int) bool {
		return inProgress[i].Course < inProgress[j].Course
	})

	s := Summary{
		Semesters:  Semesters(append(append([]core.CourseRecord(nil), completed...), inProgress...)),
		Completed:  completed,
		InProgress: inProgress,
	}

	for _, c := range completed {
		s.CompletedCredits += c.Credits
	}
	s.CompletedCourses = len(completed)

	s.CurrentTermCourses = make([]string, 0, len(inProgress))
	var latest *core.CourseRecord
	for i, c := range inProgress {
		s.CurrentTermCourses = append(s.CurrentTermCourses, c.Course)
		s.CurrentTermCredits += c.Credits
		if c.FullTerm != nil && (latest == nil || Less(*latest, c)) {
			latest = &inProgress[i]
		}
	}
	if latest != nil {
		term := *latest.FullTerm
		s.CurrentTerm = &term
	}

	return s
}

// Semesters groups records with a full term into buckets sorted by year,
// then semester (SPRING < SUMMER < FALL < WINTER). Each bucket's courses are
// sorted by code and its totals are computed from its members.
func Semesters(records []core.CourseRecord) []core.SemesterBucket {
	index := make(map[string]*core.SemesterBucket)
	keys := make(map[string]core.CourseRecord)
	seen := make(map[string]map[string]bool)

	for _, rec := range records {
		if rec.FullTerm == nil {
			continue
		}
		term := *rec.FullTerm
		b, ok := index[term]
		if !ok {
			b = &core.SemesterBucket{Term: term}
			index[term] = b
			keys[term] = rec
			seen[term] = make(map[string]bool)
		}
		if seen[term][rec.Course] {
			continue
		}
		seen[term][rec.Course] = true
		b.Courses = append(b.Courses, rec)
	}

	buckets := make([]core.SemesterBucket, 0, len(index))
	for _, b := range index {
		sort.Slice(b.Courses, func(i, j int) bool { return b.Courses[i].Course < b.Courses[j].Course })
		b.CourseCount = len(b.Courses)
		b.TotalCredits = 0
		for _, c := range b.Courses {
			b.TotalCredits += c.Credits
		}
		buckets = append(buckets, *b)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return Less(keys[buckets[i].Term], keys[buckets[j].Term])
	})
	return buckets
}

// Less orders records chronologically by (year, semester rank). Records
// without a term sort first.
func Less(a, b core.CourseRecord) bool {
	if ya, yb := year(a), year(b); ya != yb {
		return ya < yb
	}
	return rank(a) < rank(b)
}

func year(c core.CourseRecord) int {
	if c.Year == nil {
		return 0
	}
	return *c.Year
}

func rank(c core.CourseRecord) int {
	if c.Semester == nil {
		return 0
	}
	return c.Semester.Rank()
}

func values(m map[string]core.CourseRecord) []core.CourseRecord {
	out := make([]core.CourseRecord, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
