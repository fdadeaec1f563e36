package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yusufkecer/healthhub/internal/domain"
)

// VerificationRepository stores the one-time codes used for email
// confirmation and password reset.
type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

func (r *VerificationRepository) Create(ctx context.Context, accountID int64, purpose domain.TokenPurpose, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_tokens (account_id, purpose, token, expires_at) VALUES (?, ?, ?, ?)`,
		accountID, purpose, token, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	return nil
}

func (r *VerificationRepository) GetValid(ctx context.Context, email string, purpose domain.TokenPurpose, token string) (*domain.VerificationToken, error) {
	var t domain.VerificationToken
	var usedInt int
	err := r.db.QueryRowContext(ctx, `
		SELECT vt.id, vt.account_id, vt.purpose, vt.token, vt.expires_at, vt.used
		FROM verification_tokens vt
		JOIN accounts a ON a.id = vt.account_id
		WHERE a.email = ? AND vt.purpose = ? AND vt.token = ? AND vt.used = 0 AND vt.expires_at > UTC_TIMESTAMP()
		ORDER BY vt.id DESC
		LIMIT 1`,
		email, purpose, token,
	).Scan(&t.ID, &t.AccountID, &t.Purpose, &t.Token, &t.ExpiresAt, &usedInt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification token: %w", err)
	}
	t.Used = usedInt != 0
	return &t, nil
}

func (r *VerificationRepository) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE verification_tokens SET used = 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	return nil
}

// DeleteForAccount drops earlier codes of the same purpose so only the
// newest one can be redeemed.
func (r *VerificationRepository) DeleteForAccount(ctx context.Context, accountID int64, purpose domain.TokenPurpose) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE account_id = ? AND purpose = ?`,
		accountID, purpose,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old tokens: %w", err)
	}
	return nil
}
