// Package pipeline runs one report end to end: flatten the markup, persist
// the side artifacts, convert the text into a DegreeProgress record and
// return a summary of the run.
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/flatten"
	"github.com/gaurav-prasanna/auditpipe/core/metadata"
	"github.com/gaurav-prasanna/auditpipe/core/normalize"
	"github.com/gaurav-prasanna/auditpipe/core/output"
)

// TextHeader opens every persisted text artifact.
const TextHeader = "=== Extracted Paragraphs from HTML ===\n\n"

// StatusSuccess is the Result status of a run that persisted its artifacts.
const StatusSuccess = "success"

// Options configures a Pipeline.
type Options struct {
	Headers          []string
	Strategy         metadata.Strategy
	MarkdownSnapshot bool
}

// Result summarizes one run.
type Result struct {
	Status         string `json:"status"`
	Run            string `json:"run"`
	ParagraphCount int    `json:"paragraph_count"`
	HTMLFile       string `json:"html_file"`
	TextFile       string `json:"txt_file"`
	JSONFile       string `json:"json_file"`
	MarkdownFile   string `json:"markdown_file,omitempty"`

	// Preview is the record, or {"error": msg} when conversion failed.
	Preview any `json:"json_preview"`

	Record     *core.DegreeProgress `json:"-"`
	ConvertErr error                `json:"-"`
}

// Pipeline wires the flattener, converter and artifact store together.
// It is safe for concurrent use when the store is.
type Pipeline struct {
	flattener  core.Flattener
	normalizer *normalize.MarkdownNormalizer
	converter  *Converter
	store      core.ArtifactStore
	logger     *zap.Logger

	now   func() time.Time
	newID func() uuid.UUID
}

// New creates a Pipeline writing artifacts to store.
func New(opts Options, store core.ArtifactStore, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.L()
	}
	p := &Pipeline{
		flattener: flatten.New(),
		converter: NewConverter(opts.Headers, opts.Strategy, logger),
		store:     store,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.New,
	}
	if opts.MarkdownSnapshot {
		p.normalizer = normalize.New()
	}
	return p
}

// WithClock replaces the time source and run id generator.
func (p *Pipeline) WithClock(now func() time.Time, newID func() uuid.UUID) *Pipeline {
	p.now = now
	p.newID = newID
	return p
}

// Converter returns the text-to-record stage.
func (p *Pipeline) Converter() *Converter {
	return p.converter
}

// Run processes one report. A conversion failure is reported inside the
// Result; an error is returned only when the run itself could not complete.
func (p *Pipeline) Run(ctx context.Context, markup string, strategy metadata.Strategy) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = eris.Errorf("pipeline: run: %v", r)
		}
	}()

	name := output.RunName(p.now(), p.newID())
	log := p.logger.With(zap.String("run", name))
	res = &Result{Run: name}

	if res.HTMLFile, err = p.save(ctx, name, core.ArtifactHTML, []byte(markup)); err != nil {
		return nil, err
	}

	flat := p.flattener.Flatten(markup)
	res.ParagraphCount = flat.ParagraphCount
	text := flat.Text
	if text == "" {
		text = flatten.EmptySentinel
	}
	if res.TextFile, err = p.save(ctx, name, core.ArtifactText, []byte(TextHeader+text)); err != nil {
		return nil, err
	}

	if p.normalizer != nil {
		md, nerr := p.normalizer.Normalize(markup)
		if nerr != nil {
			log.Warn("pipeline: markdown snapshot skipped", zap.Error(nerr))
		} else if res.MarkdownFile, err = p.save(ctx, name, core.ArtifactMarkdown, []byte(md)); err != nil {
			return nil, err
		}
	}

	rec, cerr := p.converter.Convert(flat.Text, markup, strategy)
	if cerr != nil {
		log.Error("pipeline: conversion failed", zap.Error(cerr))
		res.ConvertErr = cerr
		res.Preview = map[string]string{"error": cerr.Error()}
	} else {
		res.Record = rec
		res.Preview = rec
	}

	data, err := json.MarshalIndent(res.Preview, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal record")
	}
	if res.JSONFile, err = p.save(ctx, name, core.ArtifactJSON, data); err != nil {
		return nil, err
	}

	res.Status = StatusSuccess
	log.Info("pipeline: run complete",
		zap.Int("paragraphs", res.ParagraphCount),
		zap.Bool("converted", cerr == nil),
	)
	return res, nil
}

func (p *Pipeline) save(ctx context.Context, name string, kind core.ArtifactKind, data []byte) (string, error) {
	loc, err := p.store.Save(ctx, core.Artifact{Name: name, Kind: kind, Data: data})
	if err != nil {
		return "", eris.Wrapf(err, "pipeline: save %s artifact", kind)
	}
	return loc, nil
}
