package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/bmi"
	"github.com/yusufkecer/healthhub/internal/domain"
	"github.com/yusufkecer/healthhub/internal/middleware"
	"github.com/yusufkecer/healthhub/internal/service"
)

type MeasurementService interface {
	Assess(ctx context.Context, accountID int64, req domain.AssessRequest) (*service.AssessResult, error)
	History(ctx context.Context, accountID int64, limit int) ([]domain.Measurement, error)
}

type MeasurementHandler struct {
	measurements MeasurementService
	log          *zap.Logger
}

func NewMeasurementHandler(measurements MeasurementService, log *zap.Logger) *MeasurementHandler {
	return &MeasurementHandler{measurements: measurements, log: log}
}

func (h *MeasurementHandler) Assess(w http.ResponseWriter, r *http.Request) {
	var req domain.AssessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.measurements.Assess(r.Context(), middleware.AccountID(r.Context()), req)
	if err != nil {
		if errors.Is(err, bmi.ErrMissingFields) || errors.Is(err, bmi.ErrInvalidInput) || errors.Is(err, bmi.ErrInvalidGender) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("failed to save measurement", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save measurement")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *MeasurementHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	list, err := h.measurements.History(r.Context(), middleware.AccountID(r.Context()), limit)
	if err != nil {
		h.log.Error("failed to list measurements", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list measurements")
		return
	}
	if list == nil {
		list = []domain.Measurement{}
	}
	writeJSON(w, http.StatusOK, list)
}
