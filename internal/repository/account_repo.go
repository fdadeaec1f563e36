package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/yusufkecer/healthhub/internal/domain"
)

var ErrDuplicateEmail = errors.New("email already registered")

const mysqlDuplicateEntry = 1062

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts the account and its profile row together.
func (r *AccountRepository) Create(
	ctx context.Context,
	email string,
	passwordHash string,
	confirmed bool,
	displayName string,
) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, confirmed) VALUES (?, ?, ?)`,
		email, passwordHash, confirmed,
	)
	if err != nil {
		tx.Rollback()
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return 0, ErrDuplicateEmail
		}
		return 0, fmt.Errorf("failed to create account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to read account id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (account_id, display_name) VALUES (?, ?)`,
		id, displayName,
	); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit account: %w", err)
	}
	return id, nil
}

const accountColumns = `id, email, password_hash, confirmed, created_at`

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Confirmed, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email,
	))
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id,
	))
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (r *AccountRepository) MarkConfirmed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET confirmed = TRUE WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to confirm account: %w", err)
	}
	return nil
}

func (r *AccountRepository) GetProfile(ctx context.Context, accountID int64) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT account_id, display_name, updated_at FROM profiles WHERE account_id = ?`,
		accountID,
	).Scan(&p.AccountID, &p.DisplayName, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
