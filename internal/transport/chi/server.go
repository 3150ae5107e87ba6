// Package chi is the HTTP transport: request/response shapes, routing, and
// the mapping from domain sentinel errors to stable wire codes.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/askaws-cloud/askaws/internal/domain"
	healthuc "github.com/askaws-cloud/askaws/internal/usecase/health"
	"github.com/askaws-cloud/askaws/internal/usecase/pipeline"
)

// Wire error codes, stable across releases.
const (
	codeBadRequest      = "BAD_REQUEST"
	codeDocsUnavailable = "DOCUMENTATION_UNAVAILABLE"
	codeSessionNotFound = "SESSION_NOT_FOUND"
	codeInternalError   = "INTERNAL_ERROR"
)

// SessionReader is the transport's view of the session store.
type SessionReader interface {
	Create(ctx context.Context, preferences map[string]string) (domain.Session, error)
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	History(ctx context.Context, sessionID string) ([]domain.ConversationEntry, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the HTTP API server.
type Server struct {
	pipeline      *pipeline.Service
	sessions      SessionReader
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipe *pipeline.Service,
	sessions SessionReader,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipe,
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		docsUnavailableHandler,
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, domain.CodeEmptyQuestion),
		sentinelHandler(domain.ErrQuestionTooShort, http.StatusBadRequest, domain.CodeTooShort),
		sentinelHandler(domain.ErrQuestionTooLong, http.StatusBadRequest, domain.CodeTooLong),
		sentinelHandler(domain.ErrOffensiveContent, http.StatusBadRequest, domain.CodeOffensiveContent),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, codeSessionNotFound),
	}
	return s
}

// Register mounts all routes onto r. Middleware is applied by the caller.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/questions", s.ProcessQuestion)
		r.Post("/questions/validate", s.ValidateQuestion)
		r.Post("/questions/normalize", s.NormalizeQuestion)
		r.Post("/questions/analyze", s.AnalyzeQuestion)
		r.Post("/sessions", s.CreateSession)
		r.Get("/sessions/{session}", s.GetSession)
		r.Get("/sessions/{session}/history", s.GetHistory)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type questionRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// ProcessQuestion handles POST /api/v1/questions.
func (s *Server) ProcessQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.pipeline.ProcessQuestion(r.Context(), req.Question, req.SessionID, pipeline.Metadata{
		UserAgent: r.UserAgent(),
		Origin:    r.Header.Get("Origin"),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processResultToWire(result))
}

// ValidateQuestion handles POST /api/v1/questions/validate.
func (s *Server) ValidateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, validationToWire(s.pipeline.Validate(req.Question)))
}

// NormalizeQuestion handles POST /api/v1/questions/normalize.
func (s *Server) NormalizeQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, normalizationToWire(s.pipeline.Normalize(req.Question)))
}

// AnalyzeQuestion handles POST /api/v1/questions/analyze.
func (s *Server) AnalyzeQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analysisToWire(s.pipeline.Analyze(req.Question)))
}

type createSessionRequest struct {
	Preferences map[string]string `json:"preferences,omitempty"`
}

// CreateSession handles POST /api/v1/sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	session, err := s.sessions.Create(r.Context(), req.Preferences)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToWire(session))
}

// GetSession handles GET /api/v1/sessions/{session}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToWire(session))
}

// GetHistory handles GET /api/v1/sessions/{session}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session")
	entries, err := s.sessions.History(r.Context(), sessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]conversationEntryWire, len(entries))
	for i, e := range entries {
		items[i] = entryToWire(e)
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Items: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthToWire(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, suggestions ...string) {
	writeJSON(w, status, errorResponse{
		Code:        code,
		Message:     message,
		Suggestions: suggestions,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuestion,
		domain.ErrQuestionTooShort,
		domain.ErrQuestionTooLong,
		domain.ErrOffensiveContent,
		domain.ErrDocumentationUnavailable,
		domain.ErrSessionNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler matching a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// docsUnavailableHandler maps a dead documentation backend to 503 with a
// retry hint.
func docsUnavailableHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrDocumentationUnavailable) {
		return false
	}
	writeError(w, http.StatusServiceUnavailable, codeDocsUnavailable,
		safeDomainMessage(err),
		"The documentation backend is temporarily unreachable, retry in a moment")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
