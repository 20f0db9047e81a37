// Package api exposes the report pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/auditpipe/core/metadata"
	"github.com/gaurav-prasanna/auditpipe/core/pipeline"
)

// TestHTML is the fixed document processed by GET /testwrite.
const TestHTML = "<html><body><p>Hello World</p></body></html>"

// Runner runs the pipeline over one report.
type Runner interface {
	Run(ctx context.Context, markup string, strategy metadata.Strategy) (*pipeline.Result, error)
}

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
}

type scrapeRequest struct {
	HTML     string `json:"html"`
	Strategy string `json:"strategy"`
}

type handler struct {
	runner  Runner
	maxBody int64
	logger  *zap.Logger
}

// NewRouter builds the route table.
func NewRouter(runner Runner, opts Options, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.L()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	h := &handler{runner: runner, maxBody: opts.MaxBodyBytes, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", h.home)
	r.Get("/health", h.health)
	r.Get("/testwrite", h.testWrite)
	r.Post("/scrape", h.scrape)
	return r
}

func (h *handler) home(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Degree audit API is running!"})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) testWrite(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.Run(r.Context(), TestHTML, "")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) scrape(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Request body too large"})
			return
		}
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No HTML provided"})
		return
	}
	if req.HTML == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No HTML provided"})
		return
	}

	var strategy metadata.Strategy
	if req.Strategy != "" {
		s, err := metadata.ParseStrategy(req.Strategy)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		strategy = s
	}

	markup := DecodeHTML(req.HTML)
	h.logger.Info("api: report received",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("bytes", len(markup)),
	)

	res, err := h.runner.Run(r.Context(), markup, strategy)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": pipeline.StatusSuccess, "data": res})
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("api: pipeline failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "failed", "error": err.Error()})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("api: encoding response", zap.Int("status", status), zap.Error(err))
	}
}
