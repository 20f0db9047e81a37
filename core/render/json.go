// Package render provides output renderers for degree-progress records.
// This file implements the JSON renderer, the canonical output format and
// the shape returned by the HTTP endpoint.
package render

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/gaurav-prasanna/auditpipe/core"
)

// JSONRenderer produces indented JSON.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render marshals the record. Output is deterministic for equal records.
func (r *JSONRenderer) Render(rec *core.DegreeProgress) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "render: marshaling JSON")
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}
