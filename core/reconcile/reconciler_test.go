package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/course"
)

func sections(texts ...string) []core.Section {
	out := make([]core.Section, len(texts))
	for i, text := range texts {
		out[i] = course.ExtractSection(core.Section{Name: "section", Text: text})
	}
	return out
}

func TestReconcile_RoutesByGrade(t *testing.T) {
	res := New(zap.NewNop()).Reconcile(sections(
		"Course COSC 470 Title AI Grade A Credits (3) Term FALL 2024.\n" +
			"Course COSC 490 Title SENIOR PROJECT Grade IP Credits (3) Term SPRING 2025.\n" +
			"Course ENGL 101 Title COMPOSITION Grade TRA Credits (3) Term FALL 2021.",
	))

	require.Contains(t, res.Completed, "COSC 470")
	require.Contains(t, res.InProgress, "COSC 490")
	require.Contains(t, res.Excluded, "ENGL 101")
	assert.NotContains(t, res.Completed, "ENGL 101")
	assert.NotContains(t, res.InProgress, "ENGL 101")
	assert.Len(t, res.Completed, 1)
	assert.Len(t, res.InProgress, 1)
}

func TestReconcile_FirstSeenWins(t *testing.T) {
	res := New(zap.NewNop()).Reconcile(sections(
		"Course COSC 470 Title AI Grade IP Credits (3) Term SPRING 2025.",
		"Course COSC 470 Title AI Grade A Credits (4) Term FALL 2024.",
	))

	require.Contains(t, res.InProgress, "COSC 470")
	assert.NotContains(t, res.Completed, "COSC 470")
	assert.InDelta(t, 3.0, res.InProgress["COSC 470"].Credits, 0.0001)
}

func TestReconcile_TransferClaimsCode(t *testing.T) {
	res := New(zap.NewNop()).Reconcile(sections(
		"Course MATH 241 Title CALCULUS I Grade TRB Credits (4) Term FALL 2020.",
		"Course MATH 241 Title CALCULUS I Grade B Credits (4) Term FALL 2022.",
	))

	assert.Contains(t, res.Excluded, "MATH 241")
	assert.NotContains(t, res.Completed, "MATH 241")
	assert.True(t, res.Has("MATH 241"))
}

func TestReconcile_EmbeddedInheritsTerm(t *testing.T) {
	res := New(zap.NewNop()).Reconcile(sections(
		"Course COSC 470 Title ARTIFICIAL INTELLIGENCE Grade A Credits 3 Term FALL 2024 Course MATH 331 Title APPLIED PROB",
	))

	require.Contains(t, res.Completed, "MATH 331")
	rec := res.Completed["MATH 331"]
	assert.Equal(t, "APPLIED PROB", rec.Title)
	assert.Equal(t, "A", rec.Grade)
	assert.InDelta(t, 3.0, rec.Credits, 0.0001)
	require.NotNil(t, rec.FullTerm)
	assert.Equal(t, "FALL 2024", *rec.FullTerm)
	assert.Equal(t, core.SourceEmbedded, rec.Source)
	assert.Contains(t, rec.Defaulted, "term")
}

func TestReconcile_SectionMatchBeatsEmbedded(t *testing.T) {
	res := New(zap.NewNop()).Reconcile(sections(
		"Course COSC 470 Title AI Grade A Credits 3 Term FALL 2024 Course MATH 331 Title APPLIED PROB",
		"Course MATH 331 Title APPLIED PROBABILITY Grade IP Credits (3) Term SPRING 2025.",
	))

	require.Contains(t, res.InProgress, "MATH 331")
	assert.NotContains(t, res.Completed, "MATH 331")
	assert.Equal(t, core.SourceSection, res.InProgress["MATH 331"].Source)
}

func TestReconcile_Empty(t *testing.T) {
	res := New(nil).Reconcile(nil)
	assert.Empty(t, res.Completed)
	assert.Empty(t, res.InProgress)
	assert.Empty(t, res.Excluded)
}

func TestReconcile_NeverInBothBuckets(t *testing.T) {
	res := New(zap.NewNop()).Reconcile(sections(
		"Course COSC 101 Title X Grade IP Credits 3 Term FALL 2024.\nCourse COSC 101 Title X Grade A Credits 3 Term FALL 2023.",
		"Course MATH 102 Title Y Grade A Credits 3 Term FALL 2023.\nCourse MATH 102 Title Y Grade IP Credits 3 Term FALL 2024.",
	))

	assert.Contains(t, res.InProgress, "COSC 101")
	assert.Contains(t, res.Completed, "MATH 102")
	for code := range res.Completed {
		assert.NotContains(t, res.InProgress, code)
		assert.NotContains(t, res.Excluded, code)
	}
	for code := range res.InProgress {
		assert.NotContains(t, res.Excluded, code)
	}
}
