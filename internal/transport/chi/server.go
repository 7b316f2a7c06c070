// Package chi exposes the knowledgebase over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/matkb-cloud/matkb/internal/domain"
	healthuc "github.com/matkb-cloud/matkb/internal/usecase/health"
	ingestuc "github.com/matkb-cloud/matkb/internal/usecase/ingest"
	queryuc "github.com/matkb-cloud/matkb/internal/usecase/query"
)

// maxDocumentBytes bounds the ingestion request body.
const maxDocumentBytes = 32 << 20

// Querier answers knowledgebase questions.
type Querier interface {
	Ask(ctx context.Context, req queryuc.Request) domain.Outcome
}

// Ingester stores and indexes documents.
type Ingester interface {
	Ingest(ctx context.Context, docID, text string) (ingestuc.Result, error)
}

// HealthChecker reports dependency readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Status
}

// Server is the HTTP API server.
type Server struct {
	query  Querier
	ingest Ingester
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(query Querier, ingest Ingester, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{query: query, ingest: ingest, health: health, logger: logger}
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/documents", s.handleIngest)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type queryRequest struct {
	Question string `json:"question"`
	Mode     string `json:"mode,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

type queryResponse struct {
	Summaries []string `json:"summaries"`
	Code      int      `json:"code"`
	Status    string   `json:"status"`
}

// handleQuery answers POST /api/v1/query. The pipeline never fails; even
// provider outages come back 200 with an error status code in the body.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "question is required")
		return
	}

	out := s.query.Ask(r.Context(), queryuc.Request{
		Question: req.Question,
		Mode:     queryuc.Mode(req.Mode),
		TopK:     req.TopK,
	})

	summaries := out.Summaries
	if summaries == nil {
		summaries = []string{}
	}
	writeJSON(w, http.StatusOK, queryResponse{
		Summaries: summaries,
		Code:      int(out.Code),
		Status:    out.Code.String(),
	})
}

type ingestRequest struct {
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// handleIngest answers POST /api/v1/documents.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "doc_id is required")
		return
	}

	res, err := s.ingest.Ingest(r.Context(), req.DocID, req.Text)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleHealth answers GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.health.Check(r.Context())
	status := http.StatusOK
	if !st.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	switch {
	case errors.Is(err, domain.ErrVectorDimMismatch):
		writeError(w, http.StatusBadRequest, "vector_dim_mismatch", domain.ErrVectorDimMismatch.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrProviderTransient),
		errors.Is(err, domain.ErrProviderFatal):
		writeError(w, http.StatusBadGateway, "embedding_provider_error", "embedding provider error")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", domain.ErrNotFound.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
