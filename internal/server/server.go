// Package server exposes the tutoring engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"socratic/internal/metrics"
	"socratic/internal/tutor"
)

// Server holds the HTTP handlers' dependencies.
type Server struct {
	pipeline *tutor.Pipeline
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Server around the turn pipeline.
func New(pipeline *tutor.Pipeline, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: pipeline, metrics: m, logger: logger}
}

// Router builds the chi router with all routes and global middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(CORS([]string{"*"}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Post("/chat", s.handleChat)
	r.Post("/summary", s.handleSummary)
	r.Post("/session/end", s.handleEndSession)
	r.Post("/session/new-doubt", s.handleNewDoubt)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Socratic tutor running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req tutor.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	resp, err := s.pipeline.ProcessTurn(r.Context(), req)
	if err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		History []tutor.HistoryMessage `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	summary, err := s.pipeline.SummarizeHistory(r.Context(), req.History)
	if err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	result, err := s.pipeline.End(r.Context(), req.SessionID)
	if err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleNewDoubt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}

	result, err := s.pipeline.NewDoubt(r.Context(), req.SessionID, req.UserID)
	if err != nil {
		s.writeTurnError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeTurnError maps pipeline errors onto HTTP statuses: bad input is
// the caller's fault, unknown sessions are 404, anything else is a
// provider or internal failure.
func (s *Server) writeTurnError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *tutor.InputError
	if errors.As(err, &inputErr) {
		writeError(w, http.StatusBadRequest, inputErr.Error())
		return
	}
	var notFound *tutor.SessionNotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusNotFound, notFound.Error())
		return
	}

	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
