// Package cmd: convert command.
// This is the main command that orchestrates the pipeline:
// read or fetch → flatten → convert → render → write.
//
// It handles flag validation, renderer selection, and single-report or
// --all directory modes.
package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/auditpipe/core"
	"github.com/gaurav-prasanna/auditpipe/core/fetch"
	"github.com/gaurav-prasanna/auditpipe/core/metadata"
	"github.com/gaurav-prasanna/auditpipe/core/output"
	"github.com/gaurav-prasanna/auditpipe/core/pipeline"
	"github.com/gaurav-prasanna/auditpipe/core/render"
)

// Flag variables.
var (
	flagAll       bool
	flagPDF       bool
	flagMarkdown  bool
	flagJSON      bool
	flagYAML      bool
	flagStrategy  string
	flagOutputDir string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|url|dir>",
	Short: "Convert a degree-audit report to the specified output format",
	Long: `Convert reads a saved report (or fetches one), parses it into a degree-progress
record, and writes it in the specified output format (JSON, YAML, Markdown, or PDF).
Raw HTML, flattened text and the JSON snapshot of every run are also persisted
to the configured artifact store.

Examples:
  auditpipe convert audit.html --json
  auditpipe convert https://example.edu/audit --yaml --output_dir ./out
  auditpipe convert ./reports --all --markdown
  auditpipe convert audit.html --pdf --strategy auto`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Mode flags.
	convertCmd.Flags().BoolVar(&flagAll, "all", false, "Convert every .html report below the given directory")

	// Output format flags (mutually exclusive).
	convertCmd.Flags().BoolVar(&flagPDF, "pdf", false, "Output PDF")
	convertCmd.Flags().BoolVar(&flagMarkdown, "markdown", false, "Output Markdown")
	convertCmd.Flags().BoolVar(&flagJSON, "json", false, "Output structured JSON")
	convertCmd.Flags().BoolVar(&flagYAML, "yaml", false, "Output structured YAML")

	convertCmd.Flags().StringVar(&flagStrategy, "strategy", "", "Metadata strategy: text, markup or auto (default from config)")

	// Output directory.
	convertCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	source := args[0]

	// --- Validate flags ---
	if err := validateFlags(); err != nil {
		return err
	}

	var strategy metadata.Strategy
	if flagStrategy != "" {
		s, err := metadata.ParseStrategy(flagStrategy)
		if err != nil {
			return err
		}
		strategy = s
	}

	// Select renderer.
	renderer, err := selectRenderer()
	if err != nil {
		return err
	}

	writer, err := output.New(flagOutputDir)
	if err != nil {
		return eris.Wrap(err, "initializing output writer")
	}

	ctx := cmd.Context()
	e, err := initEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	c := &converter{
		pipeline: e.Pipeline,
		fetcher:  fetch.New(time.Duration(cfg.Fetch.TimeoutSecs)*time.Second, cfg.Fetch.UserAgent),
		renderer: renderer,
		writer:   writer,
		strategy: strategy,
	}

	if flagAll {
		return c.runAll(ctx, source, cfg.Pipeline.MaxConcurrent)
	}
	path, err := c.convert(ctx, source, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	return nil
}

// converter carries one convert invocation's components.
type converter struct {
	pipeline *pipeline.Pipeline
	fetcher  core.Fetcher
	renderer core.Renderer
	writer   *output.Writer
	strategy metadata.Strategy
}

// runAll converts every report file below root, maxConcurrent at a time.
// Individual failures are reported and do not stop the batch.
func (c *converter) runAll(ctx context.Context, root string, maxConcurrent int) error {
	files, err := collectReports(root)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Found %d reports to process\n", len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	var failed atomic.Int64
	for _, file := range files {
		g.Go(func() error {
			path, err := c.convert(gctx, file, root)
			if err != nil {
				failed.Add(1)
				fmt.Fprintf(os.Stderr, "  ✗ %s: %v\n", file, err)
				return nil
			}
			fmt.Fprintf(os.Stdout, "  ✓ Written: %s\n", path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "convert all")
	}

	if n := failed.Load(); n > 0 {
		fmt.Fprintf(os.Stderr, "\n%d/%d reports failed\n", n, len(files))
	}
	return nil
}

// convert runs a single report through the pipeline and writes the rendered
// record. root is non-empty in --all mode.
func (c *converter) convert(ctx context.Context, source, root string) (string, error) {
	// 1. Read or fetch
	markup, err := c.load(ctx, source)
	if err != nil {
		return "", err
	}

	// 2. Flatten, convert and persist artifacts
	res, err := c.pipeline.Run(ctx, markup, c.strategy)
	if err != nil {
		return "", err
	}
	if res.ConvertErr != nil {
		return "", eris.Wrapf(res.ConvertErr, "convert %s", source)
	}
	zap.L().Info("report converted",
		zap.String("source", source),
		zap.String("run", res.Run),
		zap.Int("completed", res.Record.TotalCompletedCourses),
	)

	// 3. Render to output format
	data, err := c.renderer.Render(res.Record)
	if err != nil {
		return "", eris.Wrap(err, "render")
	}

	// 4. Write
	if root != "" {
		return c.writer.WriteReportUnder(root, source, data, c.renderer.Extension())
	}
	return c.writer.WriteReport(source, data, c.renderer.Extension())
}

func (c *converter) load(ctx context.Context, source string) (string, error) {
	if isURL(source) {
		result, err := c.fetcher.Fetch(ctx, source)
		if err != nil {
			return "", eris.Wrap(err, "fetch")
		}
		return result.HTML, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", eris.Wrapf(err, "read %s", source)
	}
	return string(data), nil
}

// collectReports returns the .html and .htm files below root in walk order.
func collectReports(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, eris.Wrapf(err, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("--all requires a directory, got %s", root)
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".html", ".htm":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "walk %s", root)
	}
	return files, nil
}

func isURL(source string) bool {
	parsed, err := url.Parse(source)
	return err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// validateFlags checks that exactly one output format is chosen.
func validateFlags() error {
	formatCount := 0
	for _, set := range []bool{flagPDF, flagMarkdown, flagJSON, flagYAML} {
		if set {
			formatCount++
		}
	}

	if formatCount == 0 {
		return eris.New("exactly one output format is required: --json, --yaml, --markdown, or --pdf")
	}
	if formatCount > 1 {
		return eris.Errorf("only one output format allowed per run (got %d)", formatCount)
	}
	return nil
}

// selectRenderer creates the appropriate Renderer based on flags.
func selectRenderer() (core.Renderer, error) {
	switch {
	case flagMarkdown:
		return render.NewMarkdownRenderer(), nil
	case flagJSON:
		return render.NewJSONRenderer(), nil
	case flagYAML:
		return render.NewYAMLRenderer(), nil
	case flagPDF:
		return render.NewPDFRenderer(), nil
	default:
		return nil, eris.New("no output format selected")
	}
}
