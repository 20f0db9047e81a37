package render

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// YAMLRenderer writes the record as YAML, with the same field names as JSON.
type YAMLRenderer struct{}

// NewYAMLRenderer creates a YAMLRenderer.
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// Render marshals the record as YAML.
func (r *YAMLRenderer) Render(rec *core.DegreeProgress) ([]byte, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "render: marshaling YAML")
	}
	return data, nil
}

// Extension returns the file extension for YAML output.
func (r *YAMLRenderer) Extension() string {
	return ".yaml"
}
