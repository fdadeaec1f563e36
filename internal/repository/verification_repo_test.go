package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufkecer/healthhub/internal/domain"
)

func TestVerificationLifecycle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()
	exp := time.Now().UTC().Add(15 * time.Minute)

	mock.ExpectExec("DELETE FROM verification_tokens WHERE account_id = \\? AND purpose = \\?").
		WithArgs(int64(3), domain.PurposeResetPassword).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO verification_tokens").
		WithArgs(int64(3), domain.PurposeResetPassword, "123456", exp).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("FROM verification_tokens vt").
		WithArgs("ada@example.com", domain.PurposeResetPassword, "123456").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "purpose", "token", "expires_at", "used"}).
			AddRow(5, 3, "reset_password", "123456", exp, 0))
	mock.ExpectExec("UPDATE verification_tokens SET used = 1 WHERE id = \\?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteForAccount(ctx, 3, domain.PurposeResetPassword))
	require.NoError(t, repo.Create(ctx, 3, domain.PurposeResetPassword, "123456", exp))

	tok, err := repo.GetValid(ctx, "ada@example.com", domain.PurposeResetPassword, "123456")
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, int64(3), tok.AccountID)
	assert.False(t, tok.Used)

	require.NoError(t, repo.MarkUsed(ctx, tok.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationGetValidMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewVerificationRepository(db)

	mock.ExpectQuery("FROM verification_tokens vt").WillReturnError(sql.ErrNoRows)

	tok, err := repo.GetValid(context.Background(), "ada@example.com", domain.PurposeConfirmEmail, "000000")
	require.NoError(t, err)
	assert.Nil(t, tok)
}
