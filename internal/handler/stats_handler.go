package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/stats"
)

type StatsSearcher interface {
	Search(ctx context.Context, query string) (*stats.Result, error)
}

type StatsHandler struct {
	stats StatsSearcher
	log   *zap.Logger
}

func NewStatsHandler(s StatsSearcher, log *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: s, log: log}
}

type statsError struct {
	Error  string           `json:"error"`
	Detail string           `json:"detail"`
	Logs   []stats.LogEntry `json:"logs,omitempty"`
}

// StatusFor maps a failed search onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, stats.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, stats.ErrCountryNotFound):
		return http.StatusNotFound
	case errors.Is(err, stats.ErrTimeout):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func (h *StatsHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["country"]

	res, err := h.stats.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, stats.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		body := statsError{Error: stats.FailureMessage(query), Detail: err.Error()}
		if res != nil {
			body.Logs = res.Logs
		}
		writeJSON(w, StatusFor(err), body)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
