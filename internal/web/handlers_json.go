package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/usecase"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 100
	statsHistoryLimit   = 5000
)

func (s *Server) handlePositions(kind domain.LedgerKind, ledger PositionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		positions, err := ledger.Positions(r.Context())
		if err != nil {
			s.logger.Error("Failed to list positions", zap.String("ledger", string(kind)), zap.Error(err))
			http.Error(w, "Failed to list positions", http.StatusInternalServerError)
			return
		}
		if positions == nil {
			positions = []domain.Position{}
		}
		s.writeJSON(w, http.StatusOK, positions)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "position history needs the sqlite storage driver", http.StatusNotImplemented)
		return
	}

	limit, ok := parseLimit(w, r, defaultHistoryLimit)
	if !ok {
		return
	}

	history, err := s.history.ListPositionHistory(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list history", zap.Error(err))
		http.Error(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []domain.PositionHistory{}
	}
	s.writeJSON(w, http.StatusOK, history)
}

// handleHistoryStats summarizes the most recent archived positions per ledger.
func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "position history needs the sqlite storage driver", http.StatusNotImplemented)
		return
	}

	limit, ok := parseLimit(w, r, statsHistoryLimit)
	if !ok {
		return
	}

	history, err := s.history.ListPositionHistory(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to load history for stats", zap.Error(err))
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, usecase.SummarizeHistory(history))
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		http.Error(w, "symbol required", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.jobs.Assess(r.Context(), symbol))
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
