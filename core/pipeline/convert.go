package pipeline

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/aggregate"
	"github.com/gaurav-prasanna/auditpipe/core/course"
	"github.com/gaurav-prasanna/auditpipe/core/metadata"
	"github.com/gaurav-prasanna/auditpipe/core/reconcile"
	"github.com/gaurav-prasanna/auditpipe/core/segment"
)

// Converter turns flattened report text into a DegreeProgress record.
// It holds no per-report state and is safe for concurrent use.
type Converter struct {
	segmenter  *segment.Segmenter
	reconciler *reconcile.Reconciler
	extractors map[metadata.Strategy]core.MetadataExtractor
	strategy   metadata.Strategy
}

// NewConverter creates a Converter for the given header order. strategy is
// the metadata strategy used when a caller does not choose one.
func NewConverter(headers []string, strategy metadata.Strategy, logger *zap.Logger) *Converter {
	if strategy == "" {
		strategy = metadata.StrategyText
	}
	segmenter := segment.New(headers)
	extractors := make(map[metadata.Strategy]core.MetadataExtractor)
	for _, s := range []metadata.Strategy{metadata.StrategyText, metadata.StrategyMarkup, metadata.StrategyAuto} {
		extractors[s] = metadata.New(s).Ignoring(segmenter.Headers())
	}
	return &Converter{
		segmenter:  segmenter,
		reconciler: reconcile.New(logger),
		extractors: extractors,
		strategy:   strategy,
	}
}

// Convert runs metadata extraction, segmentation, course extraction,
// reconciliation and aggregation. markup is only read by the markup and
// auto metadata strategies. Unexpected faults are returned as errors.
func (c *Converter) Convert(text, markup string, strategy metadata.Strategy) (rec *core.DegreeProgress, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = eris.Errorf("pipeline: convert: %v", r)
		}
	}()

	if strategy == "" {
		strategy = c.strategy
	}
	extractor, ok := c.extractors[strategy]
	if !ok {
		return nil, eris.Errorf("pipeline: convert: unknown metadata strategy %q", strategy)
	}

	meta := extractor.Extract(text, markup)

	sections := c.segmenter.Segment(text)
	for i := range sections {
		sections[i] = course.ExtractSection(sections[i])
		if sections[i].CompletedCourses == nil {
			sections[i].CompletedCourses = []core.CourseMatch{}
		}
		if sections[i].RemainingRequirements == nil {
			sections[i].RemainingRequirements = []string{}
		}
	}
	if sections == nil {
		sections = []core.Section{}
	}

	summary := aggregate.Aggregate(c.reconciler.Reconcile(sections))

	return &core.DegreeProgress{
		Metadata:              meta,
		Sections:              sections,
		TotalCompletedCredits: summary.CompletedCredits,
		TotalCompletedCourses: summary.CompletedCourses,
		CurrentTerm:           summary.CurrentTerm,
		CurrentTermCourses:    summary.CurrentTermCourses,
		CurrentTermCredits:    summary.CurrentTermCredits,
		Semesters:             summary.Semesters,
		CompletedCoursesList:  summary.Completed,
		InProgressCoursesList: summary.InProgress,
	}, nil
}
