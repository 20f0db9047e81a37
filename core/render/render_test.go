package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/auditpipe/core"
)

func ptr[T any](v T) *T { return &v }

func sampleRecord() *core.DegreeProgress {
	fall := core.Fall
	course := core.CourseRecord{
		Course: "COSC 470", Title: "ARTIFICIAL INTELLIGENCE", Credits: 3, Grade: "A",
		Semester: &fall, Year: ptr(2024), FullTerm: ptr("FALL 2024"), Source: core.SourceSection,
	}
	return &core.DegreeProgress{
		Metadata: core.Metadata{
			StudentName: ptr("Doe, John"),
			GPA:         ptr(3.75),
			Advisor:     ptr("Jane Smith"),
		},
		Sections: []core.Section{{
			Name:                  "Major Requirements",
			Text:                  "not serialized",
			CompletedCourses:      []core.CourseMatch{},
			RemainingRequirements: []string{"1 Class in COSC 491"},
		}},
		TotalCompletedCredits: 3,
		TotalCompletedCourses: 1,
		CurrentTermCourses:    []string{},
		Semesters: []core.SemesterBucket{{
			Term: "FALL 2024", Courses: []core.CourseRecord{course}, TotalCredits: 3, CourseCount: 1,
		}},
		CompletedCoursesList:  []core.CourseRecord{course},
		InProgressCoursesList: []core.CourseRecord{},
	}
}

func TestJSONRenderer(t *testing.T) {
	data, err := NewJSONRenderer().Render(sampleRecord())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Doe, John", out["student_name"])
	assert.Equal(t, 3.75, out["gpa"])
	assert.Nil(t, out["major"])
	assert.Contains(t, out, "transfer_hours")
	assert.Nil(t, out["current_term"])
	assert.NotContains(t, string(data), "not serialized")

	sections := out["sections"].([]any)
	require.Len(t, sections, 1)
	assert.Equal(t, "Major Requirements", sections[0].(map[string]any)["name"])
	assert.Equal(t, ".json", NewJSONRenderer().Extension())
}

func TestYAMLRenderer(t *testing.T) {
	data, err := NewYAMLRenderer().Render(sampleRecord())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, "Doe, John", out["student_name"], "metadata is inlined")
	assert.Equal(t, 3.75, out["gpa"])
	assert.Contains(t, out, "semesters")
	assert.Equal(t, ".yaml", NewYAMLRenderer().Extension())
}

func TestMarkdownRenderer(t *testing.T) {
	data, err := NewMarkdownRenderer().Render(sampleRecord())
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "# Degree Progress: Doe, John")
	assert.Contains(t, md, "- **GPA:** 3.75")
	assert.Contains(t, md, "### FALL 2024 (3 credits, 1 courses)")
	assert.Contains(t, md, "| COSC 470 | ARTIFICIAL INTELLIGENCE | A | 3 |")
	assert.Contains(t, md, "- 1 Class in COSC 491")
	assert.NotContains(t, md, "Major:")
	assert.NotContains(t, md, "## In Progress")
}

func TestPDFRenderer(t *testing.T) {
	data, err := NewPDFRenderer().Render(sampleRecord())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, ".pdf", NewPDFRenderer().Extension())
}
