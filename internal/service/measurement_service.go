package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/bmi"
	"github.com/yusufkecer/healthhub/internal/domain"
)

const (
	RecentMeasurements = 5
	MaxHistory         = 50
)

type MeasurementStore interface {
	Create(ctx context.Context, m *domain.Measurement) (int64, error)
	ListRecent(ctx context.Context, accountID int64, limit int) ([]domain.Measurement, error)
}

type AssessResult struct {
	Assessment bmi.Assessment       `json:"assessment"`
	Saved      *domain.Measurement  `json:"saved,omitempty"`
	Recent     []domain.Measurement `json:"recent,omitempty"`
}

type MeasurementService struct {
	repo MeasurementStore
	log  *zap.Logger
	now  func() time.Time
}

func NewMeasurementService(repo MeasurementStore, log *zap.Logger) *MeasurementService {
	return &MeasurementService{repo: repo, log: log, now: time.Now}
}

// Assess computes the BMI for anyone. For a signed-in account (accountID
// non-zero) the result is also recorded and the latest records returned.
func (s *MeasurementService) Assess(ctx context.Context, accountID int64, req domain.AssessRequest) (*AssessResult, error) {
	a, err := bmi.Assess(req.Weight, req.Height, req.Gender)
	if err != nil {
		return nil, err
	}
	result := &AssessResult{Assessment: a}
	if accountID == 0 {
		return result, nil
	}

	m := &domain.Measurement{
		AccountID:  accountID,
		WeightKg:   a.WeightKg,
		HeightCm:   a.HeightCm,
		Gender:     a.Gender,
		BMI:        a.BMI,
		Category:   string(a.Category),
		MeasuredAt: s.now().UTC().Truncate(time.Second),
	}
	id, err := s.repo.Create(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	result.Saved = m

	recent, err := s.repo.ListRecent(ctx, accountID, RecentMeasurements)
	if err != nil {
		s.log.Warn("failed to load recent measurements", zap.Int64("account_id", accountID), zap.Error(err))
		recent = []domain.Measurement{*m}
	}
	result.Recent = recent
	return result, nil
}

// History clamps limit to [1, MaxHistory], defaulting to the recent count.
func (s *MeasurementService) History(ctx context.Context, accountID int64, limit int) ([]domain.Measurement, error) {
	switch {
	case limit <= 0:
		limit = RecentMeasurements
	case limit > MaxHistory:
		limit = MaxHistory
	}
	return s.repo.ListRecent(ctx, accountID, limit)
}
