// Package core defines the pipeline interfaces for auditpipe.
// Each stage of the report pipeline is a clean, testable interface:
// fetch → flatten → extract metadata → segment → extract courses →
// reconcile → aggregate → render.
package core

import "context"

// FetchResult holds the raw HTML and response metadata from a fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	HTML       string
}

// Flattened is the linear text form of a report.
type Flattened struct {
	Text string
	// ParagraphCount is the number of <p> elements found. Zero means the
	// whole-document fallback produced Text.
	ParagraphCount int
}

// Fetcher retrieves a raw report from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Flattener converts report markup into plain text. It never fails on
// malformed input; empty input yields empty text.
type Flattener interface {
	Flatten(html string) Flattened
}

// MetadataExtractor scans a report for labeled advising fields.
// Fields that cannot be found are left nil.
type MetadataExtractor interface {
	Extract(text, markup string) Metadata
}

// Renderer converts a degree-progress record into a final output format.
type Renderer interface {
	Render(rec *DegreeProgress) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json", ".pdf").
	Extension() string
}

// ArtifactKind names one of the side artifacts persisted per run.
type ArtifactKind string

const (
	ArtifactHTML     ArtifactKind = "raw"
	ArtifactText     ArtifactKind = "paragraphs"
	ArtifactJSON     ArtifactKind = "data"
	ArtifactMarkdown ArtifactKind = "markdown"
)

// Extension returns the file extension used when the artifact is written to disk.
func (k ArtifactKind) Extension() string {
	switch k {
	case ArtifactHTML:
		return ".html"
	case ArtifactText:
		return ".txt"
	case ArtifactMarkdown:
		return ".md"
	default:
		return ".json"
	}
}

// Artifact is one persisted snapshot of a pipeline run.
type Artifact struct {
	Name string // collision-resistant base name, without extension
	Kind ArtifactKind
	Data []byte
}

// ArtifactStore persists side artifacts. Save returns a location string
// (a file path or store URI) identifying where the artifact was written.
type ArtifactStore interface {
	Save(ctx context.Context, a Artifact) (string, error)
}
