package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/flatten"
	"github.com/gaurav-prasanna/auditpipe/core/metadata"
)

type memStore struct {
	mu    sync.Mutex
	saved map[string][]byte
	fail  core.ArtifactKind
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string][]byte)}
}

func (s *memStore) Save(_ context.Context, a core.Artifact) (string, error) {
	if a.Kind == s.fail {
		return "", errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := "mem://" + a.Name + "/" + string(a.Kind)
	s.saved[loc] = a.Data
	return loc, nil
}

type panicExtractor struct{}

func (panicExtractor) Extract(string, string) core.Metadata {
	panic("boom")
}

var fixedID = uuid.MustParse("0123abcd-0000-4000-8000-000000000000")

func newTestPipeline(opts Options, store core.ArtifactStore) *Pipeline {
	now := func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return New(opts, store, zap.NewNop()).WithClock(now, func() uuid.UUID { return fixedID })
}

func report(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paragraphs {
		b.WriteString("<p>" + p + "</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestRun_ScenarioGPA(t *testing.T) {
	res, err := newTestPipeline(Options{}, newMemStore()).
		Run(context.Background(), report("Student name: Jane Doe", "Overall GPA 3.75"), "")
	require.NoError(t, err)
	require.NotNil(t, res.Record)

	require.NotNil(t, res.Record.GPA)
	assert.InDelta(t, 3.75, *res.Record.GPA, 0.0001)
	require.NotNil(t, res.Record.StudentName)
	assert.Equal(t, "Jane Doe", *res.Record.StudentName)
	assert.Equal(t, 2, res.ParagraphCount)
	assert.Empty(t, res.Record.Sections)
	assert.NotNil(t, res.Record.Sections)
}

func TestRun_ScenarioCompletedCourse(t *testing.T) {
	res, err := newTestPipeline(Options{}, newMemStore()).Run(context.Background(), report(
		"Major Requirements",
		"Course COSC 470 Title ARTIFICIAL INTELLIGENCE Grade A Credits 3 Term FALL 2024",
	), "")
	require.NoError(t, err)
	rec := res.Record

	require.Len(t, rec.CompletedCoursesList, 1)
	c := rec.CompletedCoursesList[0]
	assert.Equal(t, "COSC 470", c.Course)
	assert.Equal(t, "ARTIFICIAL INTELLIGENCE", c.Title)
	assert.Equal(t, "A", c.Grade)
	assert.InDelta(t, 3.0, c.Credits, 0.0001)
	require.NotNil(t, c.FullTerm)
	assert.Equal(t, "FALL 2024", *c.FullTerm)

	assert.InDelta(t, 3.0, rec.TotalCompletedCredits, 0.0001)
	assert.Equal(t, 1, rec.TotalCompletedCourses)
	require.Len(t, rec.Semesters, 1)
	assert.Equal(t, "FALL 2024", rec.Semesters[0].Term)
	require.Len(t, rec.Sections, 1)
	assert.Equal(t, "Major Requirements", rec.Sections[0].Name)
}

func TestRun_ScenarioInProgressCourse(t *testing.T) {
	res, err := newTestPipeline(Options{}, newMemStore()).Run(context.Background(), report(
		"Major Requirements",
		"Course COSC 470 Title ARTIFICIAL INTELLIGENCE Grade IP Credits 3 Term SPRING 2025",
	), "")
	require.NoError(t, err)
	rec := res.Record

	assert.Empty(t, rec.CompletedCoursesList)
	require.Len(t, rec.InProgressCoursesList, 1)
	assert.Equal(t, "COSC 470", rec.InProgressCoursesList[0].Course)
	assert.Zero(t, rec.TotalCompletedCredits)
	assert.Equal(t, []string{"COSC 470"}, rec.CurrentTermCourses)
	assert.InDelta(t, 3.0, rec.CurrentTermCredits, 0.0001)
	require.NotNil(t, rec.CurrentTerm)
	assert.Equal(t, "SPRING 2025", *rec.CurrentTerm)
}

func TestRun_ScenarioTransferExcluded(t *testing.T) {
	res, err := newTestPipeline(Options{}, newMemStore()).Run(context.Background(), report(
		"General Education Program Requirements",
		"Course ENGL 101 Title COMPOSITION Grade TRA Credits 3 Term FALL 2021.",
		"Course MATH 241 Title CALCULUS I Grade B Credits 4 Term FALL 2022.",
	), "")
	require.NoError(t, err)
	rec := res.Record

	for _, c := range append(rec.CompletedCoursesList, rec.InProgressCoursesList...) {
		assert.NotEqual(t, "ENGL 101", c.Course)
	}
	for _, b := range rec.Semesters {
		for _, c := range b.Courses {
			assert.NotEqual(t, "ENGL 101", c.Course)
		}
	}
	assert.Equal(t, 1, rec.TotalCompletedCourses)
	assert.InDelta(t, 4.0, rec.TotalCompletedCredits, 0.0001)
}

func TestRun_ScenarioTruncatedMentionInheritsTerm(t *testing.T) {
	res, err := newTestPipeline(Options{}, newMemStore()).Run(context.Background(), report(
		"Major Requirements",
		"Course COSC 470 Title ARTIFICIAL INTELLIGENCE Grade A Credits 3 Term FALL 2024",
		"Course MATH 331 Title APPLIED PROB",
	), "")
	require.NoError(t, err)

	var math *core.CourseRecord
	for i, c := range res.Record.CompletedCoursesList {
		if c.Course == "MATH 331" {
			math = &res.Record.CompletedCoursesList[i]
		}
	}
	require.NotNil(t, math)
	assert.Equal(t, "A", math.Grade)
	assert.InDelta(t, 3.0, math.Credits, 0.0001)
	assert.Equal(t, core.SourceEmbedded, math.Source)
	require.NotNil(t, math.FullTerm)
	assert.Equal(t, "FALL 2024", *math.FullTerm)
	assert.InDelta(t, 6.0, res.Record.TotalCompletedCredits, 0.0001)
}

func TestRun_PersistsArtifacts(t *testing.T) {
	store := newMemStore()
	res, err := newTestPipeline(Options{MarkdownSnapshot: true}, store).
		Run(context.Background(), report("Overall GPA 3.10"), "")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "20250102_030405_0123abcd", res.Run)
	assert.Equal(t, "mem://20250102_030405_0123abcd/raw", res.HTMLFile)
	assert.Equal(t, "mem://20250102_030405_0123abcd/paragraphs", res.TextFile)
	assert.Equal(t, "mem://20250102_030405_0123abcd/data", res.JSONFile)
	assert.Equal(t, "mem://20250102_030405_0123abcd/markdown", res.MarkdownFile)

	assert.Equal(t, TextHeader+"Overall GPA 3.10", string(store.saved[res.TextFile]))
	assert.Contains(t, string(store.saved[res.MarkdownFile]), "Overall GPA 3.10")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(store.saved[res.JSONFile], &decoded))
	assert.InDelta(t, 3.10, decoded["gpa"], 0.0001)
}

func TestRun_EmptyReportWritesSentinel(t *testing.T) {
	store := newMemStore()
	res, err := newTestPipeline(Options{}, store).Run(context.Background(), "", "")
	require.NoError(t, err)

	assert.Equal(t, TextHeader+flatten.EmptySentinel, string(store.saved[res.TextFile]))
	assert.Zero(t, res.ParagraphCount)
	assert.Nil(t, res.Record.GPA)
	assert.Empty(t, res.Record.CompletedCoursesList)
	assert.NotNil(t, res.Record.CompletedCoursesList)
}

func TestRun_Idempotent(t *testing.T) {
	html := report(
		"Overall GPA 3.5",
		"Major Requirements",
		"Course COSC 470 Title AI Grade A Credits 3 Term FALL 2024",
		"Course COSC 490 Title SENIOR PROJECT Grade IP Credits 3 Term SPRING 2025",
		"Course MATH 331 Title APPLIED PROB",
	)
	first, second := newMemStore(), newMemStore()

	r1, err := newTestPipeline(Options{}, first).Run(context.Background(), html, "")
	require.NoError(t, err)
	r2, err := newTestPipeline(Options{}, second).Run(context.Background(), html, "")
	require.NoError(t, err)

	assert.Equal(t, r1.Record, r2.Record)
	assert.Equal(t, first.saved[r1.JSONFile], second.saved[r2.JSONFile])
}

func TestRun_ConversionFailureIsReported(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(Options{}, store)
	p.converter.extractors[metadata.StrategyText] = panicExtractor{}

	res, err := p.Run(context.Background(), report("Overall GPA 3.5"), "")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Error(t, res.ConvertErr)
	assert.Nil(t, res.Record)
	assert.Equal(t, map[string]string{"error": res.ConvertErr.Error()}, res.Preview)
	assert.Contains(t, string(store.saved[res.JSONFile]), "boom")
}

func TestRun_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.fail = core.ArtifactText

	res, err := newTestPipeline(Options{}, store).Run(context.Background(), report("x"), "")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "paragraphs")
}

func TestConvert_UnknownStrategy(t *testing.T) {
	_, err := NewConverter(nil, "", zap.NewNop()).Convert("", "", metadata.Strategy("bogus"))
	assert.Error(t, err)
}

func TestConvert_MarkupStrategy(t *testing.T) {
	markup := report("<b>Advisor:</b> Dr. Smith")
	rec, err := NewConverter(nil, metadata.StrategyText, zap.NewNop()).
		Convert(flatten.New().Flatten(markup).Text, markup, metadata.StrategyMarkup)
	require.NoError(t, err)
	require.NotNil(t, rec.Advisor)
	assert.Equal(t, "dr. smith", *rec.Advisor)
}

func TestRun_HeaderWordsAreNotMetadata(t *testing.T) {
	res, err := newTestPipeline(Options{}, newMemStore()).Run(context.Background(), report(
		"Student name: Jane Doe",
		"Overall GPA 3.75",
		"General Education Program Requirements",
		"Course MATH 113 Title College Algebra Grade A Credits 3 Term FALL 2023",
		"Major Requirements",
		"Course COSC 470 Title ARTIFICIAL INTELLIGENCE Grade A Credits 3 Term FALL 2024",
		"Course MATH 331 Title APPLIED PROB",
	), "")
	require.NoError(t, err)
	rec := res.Record

	assert.Nil(t, rec.Major)
	assert.Nil(t, rec.Program)
	assert.Nil(t, rec.College)
	require.NotNil(t, rec.StudentName)
	assert.Equal(t, "Jane Doe", *rec.StudentName)

	codes := make([]string, 0, len(rec.CompletedCoursesList))
	for _, c := range rec.CompletedCoursesList {
		codes = append(codes, c.Course)
	}
	assert.ElementsMatch(t, []string{"MATH 113", "COSC 470", "MATH 331"}, codes)
}
