// Package server exposes the glossary as a JSON HTTP API: entity CRUD with
// soft delete and restore, the two search endpoints, index administration,
// and health/metrics.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/termdex/termdex/internal/logger"
	"github.com/termdex/termdex/internal/metrics"
	"github.com/termdex/termdex/internal/searcher"
	"github.com/termdex/termdex/internal/storage"
)

// Server exposes the glossary over HTTP.
type Server struct {
	storage  storage.Storage
	searcher *searcher.Searcher
	logger   *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(st storage.Storage, s *searcher.Searcher, logger *zap.Logger) *Server {
	return &Server{storage: st, searcher: s, logger: logger}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogging)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Post("/admin/reindex", s.reindex)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.listCategories)
		r.Post("/", s.createCategory)
		r.Get("/{id}", s.getCategory)
		r.Put("/{id}", s.updateCategory)
		r.Post("/{id}/delete", s.softDeleteCategory)
		r.Post("/{id}/restore", s.restoreCategory)
		r.Delete("/{id}", s.hardDeleteCategory)
	})

	r.Route("/terms", func(r chi.Router) {
		r.Get("/", s.searchTerms)
		r.Post("/", s.createTerm)
		r.Get("/{id}", s.getTerm)
		r.Put("/{id}", s.updateTerm)
		r.Post("/{id}/delete", s.softDeleteTerm)
		r.Post("/{id}/restore", s.restoreTerm)
		r.Delete("/{id}", s.hardDeleteTerm)
	})

	r.Route("/commands", func(r chi.Router) {
		r.Get("/", s.searchCommands)
		r.Post("/", s.createCommand)
		r.Get("/{id}", s.getCommand)
		r.Put("/{id}", s.updateCommand)
		r.Post("/{id}/delete", s.softDeleteCommand)
		r.Post("/{id}/restore", s.restoreCommand)
		r.Delete("/{id}", s.hardDeleteCommand)
		r.Get("/{id}/examples", s.listExamples)
	})

	r.Route("/examples", func(r chi.Router) {
		r.Post("/", s.createExample)
		r.Get("/{id}", s.getExample)
		r.Put("/{id}", s.updateExample)
		r.Post("/{id}/delete", s.softDeleteExample)
		r.Post("/{id}/restore", s.restoreExample)
		r.Delete("/{id}", s.hardDeleteExample)
	})

	return r
}

// requestLogging propagates X-Request-ID and puts a request-scoped logger
// in the context; one canonical log line per request.
func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// middleware.RequestID already placed request_id in context
		requestID := middleware.GetReqID(r.Context())
		if requestID != "" {
			w.Header().Set("X-Request-ID", requestID)
		}

		reqLogger := s.logger.With(zap.String("request_id", requestID))
		ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		reqLogger.Info("http_request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleStorageError maps storage sentinels to HTTP statuses. Validation
// rejections carry their messages; everything else gets a safe generic body.
func (s *Server) handleStorageError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	var ve *storage.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Errors: ve.Messages,
		})
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConstraint):
		writeError(w, http.StatusConflict, "referenced by other records")
	case errors.Is(err, storage.ErrIndexDesync):
		logger.Error("search index out of sync", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "search index out of sync")
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	stats, err := s.storage.VerifyTermIndex(r.Context())
	body := map[string]any{
		"active_terms":     stats.ActiveTerms,
		"indexed_postings": stats.IndexedPostings,
	}
	if err != nil {
		if errors.Is(err, storage.ErrIndexDesync) {
			body["status"] = "degraded"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		s.handleStorageError(w, r, err)
		return
	}
	body["status"] = "ok"
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) reindex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	indexed, err := s.storage.ReindexTerms(r.Context())
	if err != nil {
		s.handleStorageError(w, r, err)
		return
	}
	metrics.ObserveReindex()
	logpkg.FromContext(r.Context()).Info("term index rebuilt",
		zap.Int("indexed", indexed),
		zap.Duration("took", time.Since(start)))
	writeJSON(w, http.StatusOK, map[string]any{"indexed": indexed})
}
