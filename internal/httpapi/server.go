// Package httpapi exposes the agent over HTTP: query submission, dataset
// upload and operational endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"realestate-agent/internal/agent"
	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/logger"
	"realestate-agent/internal/dataset"
)

const maxUploadBytes = 64 << 20

// QueryHandler runs one user query through the agent workflow.
type QueryHandler interface {
	HandleQuery(ctx context.Context, req agent.Request) agent.Result
}

// Server wires the agent service and dataset store into an HTTP mux.
type Server struct {
	agent  QueryHandler
	data   *dataset.Store
	logger logger.Logger
}

func NewServer(agentSvc QueryHandler, data *dataset.Store, log logger.Logger) *Server {
	return &Server{
		agent:  agentSvc,
		data:   data,
		logger: log.With(map[string]interface{}{"component": "httpapi"}),
	}
}

// Router builds the chi mux with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/dataset", s.handleDatasetUpload)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"dataset_rows": s.data.Len(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.NewValidationError("request body must be valid JSON"))
		return
	}

	result := s.agent.HandleQuery(r.Context(), req)

	status := http.StatusOK
	if result.Error != nil {
		status = statusFor(errors.ErrorCode(result.Error.Code))
	}
	writeJSON(w, status, result)
}

// handleDatasetUpload replaces the in-memory dataset with the posted CSV.
// The swap is atomic: queries in flight keep reading the old snapshot.
func (s *Server) handleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	rows, err := dataset.ParseCSV(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.data.Replace(rows)
	s.logger.Info("dataset replaced", map[string]interface{}{"rows": len(rows)})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"rows":   len(rows),
	})
}

// statusFor maps workflow error codes onto HTTP statuses. The body carries
// the precise code; the status is a coarse transport-level signal.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConfiguration:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeProviderTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(errors.CodeOf(err)),
			"message": errors.MessageFor(err),
		},
	})
}
