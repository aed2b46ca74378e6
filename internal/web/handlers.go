package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/futures_rebalancer/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (s *Server) handleExecuteOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.RebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.Execute(r.Context(), req)
	if err != nil {
		s.logger.Error("rebalance failed",
			zap.String("account", req.Account),
			zap.Error(err))
		s.writeJSON(w, statusForError(err), map[string]interface{}{
			"status":  "error",
			"account": req.Account,
			"result":  err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// statusForError maps the terminal error kind to an HTTP status.
func statusForError(err error) int {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.MarketNotFoundError
		planningErr   *domain.PlanningError
		upstreamErr   *domain.UpstreamFetchError
		batchErr      *domain.BatchExecutionError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr), errors.As(err, &planningErr):
		return http.StatusBadRequest
	case errors.As(err, &upstreamErr), errors.As(err, &batchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
