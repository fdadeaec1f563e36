package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yusufkecer/healthhub/internal/bmi"
	"github.com/yusufkecer/healthhub/internal/domain"
)

type fakeMeasurements struct {
	saved   []domain.Measurement
	limit   int
	listErr error
}

func (f *fakeMeasurements) Create(_ context.Context, m *domain.Measurement) (int64, error) {
	m2 := *m
	m2.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, m2)
	return m2.ID, nil
}

func (f *fakeMeasurements) ListRecent(_ context.Context, _ int64, limit int) ([]domain.Measurement, error) {
	f.limit = limit
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []domain.Measurement{}
	for i := len(f.saved) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.saved[i])
	}
	return out, nil
}

func TestAssessAnonymousDoesNotSave(t *testing.T) {
	repo := &fakeMeasurements{}
	svc := NewMeasurementService(repo, zap.NewNop())

	res, err := svc.Assess(context.Background(), 0, domain.AssessRequest{Weight: "70", Height: "175", Gender: "male"})
	require.NoError(t, err)
	assert.Equal(t, 22.9, res.Assessment.BMI)
	assert.Equal(t, bmi.NormalWeight, res.Assessment.Category)
	assert.Nil(t, res.Saved)
	assert.Empty(t, repo.saved)
}

func TestAssessSignedInSavesAndReturnsRecent(t *testing.T) {
	repo := &fakeMeasurements{}
	svc := NewMeasurementService(repo, zap.NewNop())

	for _, w := range []string{"60", "65", "70", "75", "80", "85"} {
		_, err := svc.Assess(context.Background(), 3, domain.AssessRequest{Weight: w, Height: "175", Gender: "female"})
		require.NoError(t, err)
	}
	res, err := svc.Assess(context.Background(), 3, domain.AssessRequest{Weight: "95", Height: "175", Gender: "female"})
	require.NoError(t, err)

	require.NotNil(t, res.Saved)
	assert.Equal(t, int64(7), res.Saved.ID)
	assert.Equal(t, "Obese", res.Saved.Category)
	require.Len(t, res.Recent, RecentMeasurements)
	assert.Equal(t, 95.0, res.Recent[0].WeightKg)
}

func TestAssessInvalidInput(t *testing.T) {
	svc := NewMeasurementService(&fakeMeasurements{}, zap.NewNop())

	_, err := svc.Assess(context.Background(), 3, domain.AssessRequest{Weight: "", Height: "175", Gender: "male"})
	assert.ErrorIs(t, err, bmi.ErrMissingFields)

	_, err = svc.Assess(context.Background(), 3, domain.AssessRequest{Weight: "-70", Height: "175", Gender: "male"})
	assert.ErrorIs(t, err, bmi.ErrInvalidInput)
}

func TestAssessFallsBackWhenListFails(t *testing.T) {
	repo := &fakeMeasurements{listErr: errors.New("read replica down")}
	svc := NewMeasurementService(repo, zap.NewNop())

	res, err := svc.Assess(context.Background(), 3, domain.AssessRequest{Weight: "70", Height: "175", Gender: "male"})
	require.NoError(t, err)
	require.Len(t, res.Recent, 1)
	assert.Equal(t, res.Saved.ID, res.Recent[0].ID)
}

func TestHistoryClampsLimit(t *testing.T) {
	repo := &fakeMeasurements{}
	svc := NewMeasurementService(repo, zap.NewNop())

	for _, tc := range []struct{ in, want int }{{0, 5}, {-1, 5}, {10, 10}, {500, MaxHistory}} {
		_, err := svc.History(context.Background(), 3, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, repo.limit)
	}
}
