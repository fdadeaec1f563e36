package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yusufkecer/healthhub/internal/domain"
)

type MeasurementRepository struct {
	db *sql.DB
}

func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

func (r *MeasurementRepository) Create(ctx context.Context, m *domain.Measurement) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO bmi_measurements (user_id, weight_kg, height_cm, gender, bmi, category, measured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.AccountID, m.WeightKg, m.HeightCm, m.Gender, m.BMI, m.Category, m.MeasuredAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create measurement: %w", err)
	}
	return result.LastInsertId()
}

// ListRecent returns the newest measurements first.
func (r *MeasurementRepository) ListRecent(ctx context.Context, accountID int64, limit int) ([]domain.Measurement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, weight_kg, height_cm, gender, bmi, category, measured_at
		 FROM bmi_measurements
		 WHERE user_id = ?
		 ORDER BY measured_at DESC, id DESC
		 LIMIT ?`, accountID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	defer rows.Close()

	measurements := []domain.Measurement{}
	for rows.Next() {
		var m domain.Measurement
		if err := rows.Scan(&m.ID, &m.AccountID, &m.WeightKg, &m.HeightCm, &m.Gender, &m.BMI, &m.Category, &m.MeasuredAt); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		measurements = append(measurements, m)
	}
	return measurements, rows.Err()
}
