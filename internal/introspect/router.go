// Package introspect serves a bootstrap report over read-only HTTP endpoints.
package introspect

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/orm/report"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Entities  int       `json:"entities"`
	Tables    int       `json:"tables"`
}

type handlers struct {
	report *report.Report
	logger *zap.Logger
}

// NewRouter returns the introspection routes for r
func NewRouter(r *report.Report, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{report: r, logger: logger.Named("introspect")}

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(h.logRequests)
	mux.Use(conditionalGET)

	mux.Get("/health", h.health)
	mux.Get("/hierarchies", h.hierarchies)
	mux.Route("/entities", func(r chi.Router) {
		r.Get("/", h.entities)
		r.Get("/{name}", h.entity)
	})
	mux.Route("/tables", func(r chi.Router) {
		r.Get("/", h.tables)
		r.Get("/{name}", h.table)
	})
	mux.Get("/diagnostics", h.diagnostics)

	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		renderError(w, http.StatusNotFound, fmt.Errorf("no route for %s", req.URL.Path))
	})
	return mux
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		RunID:     h.report.RunID.String(),
		CreatedAt: h.report.CreatedAt,
		Entities:  len(h.report.Entities),
		Tables:    len(h.report.Tables),
	})
}

func (h *handlers) hierarchies(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, nonNil(h.report.Hierarchies))
}

func (h *handlers) entities(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, nonNil(h.report.Entities))
}

func (h *handlers) entity(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")
	entity, ok := h.report.Entity(name)
	if !ok {
		renderError(w, http.StatusNotFound, fmt.Errorf("entity %q not found", name))
		return
	}
	renderJSON(w, http.StatusOK, entity)
}

func (h *handlers) tables(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, nonNil(h.report.Tables))
}

func (h *handlers) table(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")
	table, ok := h.report.Table(name)
	if !ok {
		renderError(w, http.StatusNotFound, fmt.Errorf("table %q not found", name))
		return
	}
	renderJSON(w, http.StatusOK, table)
}

func (h *handlers) diagnostics(w http.ResponseWriter, _ *http.Request) {
	renderJSON(w, http.StatusOK, nonNil(h.report.Diagnostics))
}

func (h *handlers) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		h.logger.Debug("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(req.Context())),
		)
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func renderJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func renderError(w http.ResponseWriter, status int, err error) {
	renderJSON(w, status, ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    errorCodeFromStatus(status),
	})
}

func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_ERROR"
	}
}
