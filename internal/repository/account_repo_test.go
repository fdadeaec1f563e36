package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestAccountCreateInsertsProfile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs("ada@example.com", "hash", false).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(int64(12), "Ada").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), "ada@example.com", "hash", false, "Ada")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "ada@example.com", "hash", true, "Ada")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountGetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, email, password_hash, confirmed, created_at FROM accounts WHERE email = \\?").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "confirmed", "created_at"}).
			AddRow(3, "ada@example.com", "hash", true, created))

	a, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, int64(3), a.ID)
	assert.True(t, a.Confirmed)
	assert.Equal(t, created, a.CreatedAt)
}

func TestAccountGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM accounts WHERE id = \\?").
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	a, err := repo.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAccountUpdates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec("UPDATE accounts SET password_hash = \\? WHERE id = \\?").
		WithArgs("new", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE accounts SET confirmed = TRUE WHERE id = \\?").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), 3, "new"))
	require.NoError(t, repo.MarkConfirmed(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountGetProfile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery("FROM profiles WHERE account_id = \\?").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "display_name", "updated_at"}).
			AddRow(3, "Ada", time.Now()))

	p, err := repo.GetProfile(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Ada", p.DisplayName)
}
