package cmd

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/config"
	"github.com/gaurav-prasanna/auditpipe/core/metadata"
	"github.com/gaurav-prasanna/auditpipe/core/output"
	"github.com/gaurav-prasanna/auditpipe/core/pipeline"
	"github.com/gaurav-prasanna/auditpipe/core/store"
)

// env holds the components shared by the convert and serve commands.
type env struct {
	Pipeline *pipeline.Pipeline
	Store    core.ArtifactStore
	closers  []func() error
}

func (e *env) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			zap.L().Warn("close failed", zap.Error(err))
		}
	}
}

// initEnv opens the configured artifact store and builds the pipeline.
func initEnv(ctx context.Context, c *config.Config) (*env, error) {
	strategy, err := metadata.ParseStrategy(c.Metadata.Strategy)
	if err != nil {
		return nil, eris.Wrap(err, "metadata strategy")
	}

	e := &env{}
	st, err := openStore(ctx, c.Artifacts, e)
	if err != nil {
		return nil, err
	}
	e.Store = st

	e.Pipeline = pipeline.New(pipeline.Options{
		Headers:          c.Sections.Headers,
		Strategy:         strategy,
		MarkdownSnapshot: c.Artifacts.MarkdownSnapshot,
	}, st, zap.L())
	return e, nil
}

func openStore(ctx context.Context, c config.ArtifactsConfig, e *env) (core.ArtifactStore, error) {
	switch c.Driver {
	case "sqlite":
		s, err := store.NewSQLite(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		e.closers = append(e.closers, s.Close)
		zap.L().Debug("artifacts in sqlite", zap.String("path", c.SQLitePath))
		return s, nil
	default:
		w, err := output.New(c.Dir)
		if err != nil {
			return nil, eris.Wrap(err, "artifact directory")
		}
		zap.L().Debug("artifacts on disk", zap.String("dir", w.OutputDir))
		return w, nil
	}
}
