package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/logistic/internal/core"
	"github.com/JonMunkholm/logistic/internal/store"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Database: "unreachable"})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"})
}

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.kinds())
}

type logsResponse struct {
	Logs []core.RunReport `json:"logs"`
}

// handleListLogs serves GET /api/logs?kind=&limit=.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	f := store.LogFilter{Kind: r.URL.Query().Get("kind")}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, r, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		f.Limit = n
	}

	logs, err := s.logs.List(r.Context(), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if logs == nil {
		logs = []core.RunReport{}
	}
	s.writeJSON(w, http.StatusOK, logsResponse{Logs: logs})
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	report, err := s.logs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}
