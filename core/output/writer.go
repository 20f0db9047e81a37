// Package output handles file naming and writing for auditpipe.
// Run artifacts are named degreeworks_<kind>_<timestamp>_<id>.<ext> so that
// concurrent runs never overwrite each other. Rendered reports are named
// after their source: a file path (report.html → report.json) or a URL
// (https://example.edu/audit → example_edu_audit.json).
package output

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// Writer writes artifacts and rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "output: getting working directory")
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, eris.Wrap(err, "output: creating output directory")
	}

	return &Writer{OutputDir: outputDir}, nil
}

// RunName returns a collision-resistant artifact base name: a second-resolution
// timestamp qualified by the first eight hex digits of id.
func RunName(now time.Time, id uuid.UUID) string {
	return now.Format("20060102_150405") + "_" + strings.ReplaceAll(id.String(), "-", "")[:8]
}

// ArtifactFilename returns the file name an artifact is stored under.
func ArtifactFilename(a core.Artifact) string {
	return "degreeworks_" + string(a.Kind) + "_" + a.Name + a.Kind.Extension()
}

// Save writes an artifact under OutputDir and returns its path.
func (w *Writer) Save(_ context.Context, a core.Artifact) (string, error) {
	path := filepath.Join(w.OutputDir, ArtifactFilename(a))
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", eris.Wrapf(err, "output: writing artifact %s", path)
	}
	zap.L().Debug("output: saved artifact", zap.String("path", path), zap.Int("bytes", len(a.Data)))
	return path, nil
}

// WriteReport writes rendered output for a single source.
// Filename: the source's base name or URL host/path, plus ext.
func (w *Writer) WriteReport(source string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, filenameFromSource(source)+ext)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", eris.Wrapf(err, "output: writing file %s", path)
	}
	return path, nil
}

// WriteReportUnder writes output for a file found below root, mirroring
// its relative directory structure.
// Example: root/2024/fall/jdoe.html → OutputDir/2024/fall/jdoe.json
func (w *Writer) WriteReportUnder(root, source string, data []byte, ext string) (string, error) {
	rel, err := filepath.Rel(root, source)
	if err != nil || strings.HasPrefix(rel, "..") {
		return w.WriteReport(source, data, ext)
	}

	fullPath := filepath.Join(w.OutputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+ext)

	// Ensure parent directories exist.
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", eris.Wrapf(err, "output: creating directory %s", dir)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", eris.Wrapf(err, "output: writing file %s", fullPath)
	}
	return fullPath, nil
}

// filenameFromSource converts a file path or URL into a flat filename.
// Example: https://example.edu/audit/123 → example_edu_audit_123
func filenameFromSource(source string) string {
	if parsed, err := url.Parse(source); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		parts := []string{sanitize(parsed.Host)}
		path := strings.Trim(parsed.Path, "/")
		if path != "" {
			for _, seg := range strings.Split(path, "/") {
				parts = append(parts, sanitize(seg))
			}
		}
		return strings.Join(parts, "_")
	}

	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "report"
	}
	return sanitize(base)
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
