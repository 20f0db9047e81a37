package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/config"
	"github.com/gaurav-prasanna/auditpipe/core/fetch"
	"github.com/gaurav-prasanna/auditpipe/core/output"
	"github.com/gaurav-prasanna/auditpipe/core/render"
	"github.com/gaurav-prasanna/auditpipe/core/segment"
)

const sampleReport = `<html><body>
<p>Student name: Jane Doe</p>
<p>Overall GPA 3.62</p>
<p>Major Requirements</p>
<p>Course COSC 470 Title ARTIFICIAL INTELLIGENCE Grade A Credits 3 Term FALL 2024</p>
</body></html>`

func resetFormatFlags(t *testing.T) {
	t.Helper()
	flagPDF, flagMarkdown, flagJSON, flagYAML = false, false, false, false
	t.Cleanup(func() { flagPDF, flagMarkdown, flagJSON, flagYAML = false, false, false, false })
}

func TestValidateFlags(t *testing.T) {
	resetFormatFlags(t)
	assert.Error(t, validateFlags())

	flagJSON = true
	assert.NoError(t, validateFlags())

	flagPDF = true
	assert.Error(t, validateFlags())
}

func TestSelectRenderer(t *testing.T) {
	resetFormatFlags(t)
	flagYAML = true

	r, err := selectRenderer()
	require.NoError(t, err)
	assert.Equal(t, ".yaml", r.Extension())
}

func TestParseKind(t *testing.T) {
	k, err := parseKind("paragraphs")
	require.NoError(t, err)
	assert.Equal(t, core.ArtifactText, k)

	_, err = parseKind("pdf")
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("https://example.edu/audit"))
	assert.False(t, isURL("reports/audit.html"))
	assert.False(t, isURL("C:/reports/audit.html"))
}

func TestCollectReports(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fall"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.html"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fall", "b.HTM"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	files, err := collectReports(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.html"),
		filepath.Join(root, "fall", "b.HTM"),
	}, files)

	_, err = collectReports(filepath.Join(root, "a.html"))
	assert.Error(t, err)
}

func testConverter(t *testing.T) (*converter, string, string) {
	t.Helper()
	artifacts, out := t.TempDir(), t.TempDir()

	e, err := initEnv(context.Background(), &config.Config{
		Artifacts: config.ArtifactsConfig{Driver: "fs", Dir: artifacts},
		Metadata:  config.MetadataConfig{Strategy: "text"},
		Sections:  config.SectionsConfig{Headers: segment.DefaultHeaders},
	})
	require.NoError(t, err)
	t.Cleanup(e.Close)

	writer, err := output.New(out)
	require.NoError(t, err)

	return &converter{
		pipeline: e.Pipeline,
		fetcher:  fetch.New(0, ""),
		renderer: render.NewJSONRenderer(),
		writer:   writer,
	}, artifacts, out
}

func TestConverter_ConvertFile(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	c, artifacts, out := testConverter(t)

	src := filepath.Join(t.TempDir(), "jdoe.html")
	require.NoError(t, os.WriteFile(src, []byte(sampleReport), 0644))

	path, err := c.convert(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "jdoe.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec core.DegreeProgress
	require.NoError(t, json.Unmarshal(data, &rec))
	require.NotNil(t, rec.GPA)
	assert.InDelta(t, 3.62, *rec.GPA, 0.0001)
	require.Len(t, rec.CompletedCoursesList, 1)
	assert.Equal(t, "COSC 470", rec.CompletedCoursesList[0].Course)

	entries, err := os.ReadDir(artifacts)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestConverter_RunAll(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	c, _, out := testConverter(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "fall"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.html"), []byte(sampleReport), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fall", "b.html"), []byte(sampleReport), 0644))

	require.NoError(t, c.runAll(context.Background(), root, 2))

	assert.FileExists(t, filepath.Join(out, "a.json"))
	assert.FileExists(t, filepath.Join(out, "fall", "b.json"))
}

func TestConverter_MissingFile(t *testing.T) {
	zap.ReplaceGlobals(zap.NewNop())
	c, _, _ := testConverter(t)

	_, err := c.convert(context.Background(), filepath.Join(t.TempDir(), "missing.html"), "")
	assert.Error(t, err)
}
