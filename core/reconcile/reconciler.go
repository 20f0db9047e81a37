// Package reconcile merges course matches from every section into
// mutually exclusive completed and in-progress sets keyed by course code.
//
// The first record seen for a code wins. Scan order is section order, then
// match order within a section, then a breadth-first pass over each
// record's term residue, which recovers courses a report nested inside
// another course's term column.
package reconcile

import (
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/course"
)

// Result holds the reconciled records. A code appears in at most one map.
type Result struct {
	Completed  map[string]core.CourseRecord
	InProgress map[string]core.CourseRecord
	// Excluded holds transfer-credit records. They claim their code but
	// never count toward completed or in-progress totals.
	Excluded map[string]core.CourseRecord
}

// Has reports whether code was claimed by any bucket.
func (r Result) Has(code string) bool {
	_, c := r.Completed[code]
	_, p := r.InProgress[code]
	_, x := r.Excluded[code]
	return c || p || x
}

// Reconciler deduplicates course records.
type Reconciler struct {
	logger *zap.Logger
}

// New creates a Reconciler. A nil logger uses the global zap logger.
func New(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.L()
	}
	return &Reconciler{logger: logger}
}

// pending is a record whose term residue has not been scanned yet.
type pending struct {
	record  core.CourseRecord
	residue string
}

// Reconcile builds the completed, in-progress and excluded sets from the
// course matches of sections.
func (r *Reconciler) Reconcile(sections []core.Section) Result {
	res := Result{
		Completed:  make(map[string]core.CourseRecord),
		InProgress: make(map[string]core.CourseRecord),
		Excluded:   make(map[string]core.CourseRecord),
	}

	var queue []pending
	for _, sec := range sections {
		for _, m := range sec.CompletedCourses {
			rec := course.ToRecord(m, core.SourceSection)
			r.offer(&res, rec, sec.Name)
			queue = append(queue, pending{record: rec, residue: m.Residue})
		}
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		if parent.residue == "" {
			continue
		}

		for _, m := range course.Scan(parent.residue) {
			rec := course.ToRecord(m, core.SourceEmbedded)
			if rec.FullTerm == nil && parent.record.Semester != nil && parent.record.Year != nil {
				course.SetTerm(&rec, course.Term{Semester: *parent.record.Semester, Year: *parent.record.Year})
				rec.Defaulted = append(rec.Defaulted, string(course.FieldTerm))
			}
			r.offer(&res, rec, parent.record.Course)
			queue = append(queue, pending{record: rec, residue: m.Residue})
		}
	}

	return res
}

// offer stores rec unless its code is already claimed.
func (r *Reconciler) offer(res *Result, rec core.CourseRecord, origin string) {
	if res.Has(rec.Course) {
		r.logger.Debug("reconcile: duplicate course discarded",
			zap.String("course", rec.Course),
			zap.String("origin", origin),
			zap.String("source", string(rec.Source)),
		)
		return
	}

	switch {
	case rec.IsTransfer():
		r.logger.Info("reconcile: transfer credit excluded",
			zap.String("course", rec.Course),
			zap.String("grade", rec.Grade),
		)
		res.Excluded[rec.Course] = rec
	case rec.IsInProgress():
		res.InProgress[rec.Course] = rec
	default:
		res.Completed[rec.Course] = rec
	}
}
