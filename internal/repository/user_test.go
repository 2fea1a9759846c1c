package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addrbook/addrbook-go/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "created_at", "updated_at"}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`(?s)^INSERT INTO users \(name, email, password_hash, created_at, updated_at\) VALUES \(\?, \?, \?, \?, \?\)$`).
		WithArgs("Ada", "ada@example.com", "hash", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))

	u := &model.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))

	assert.Equal(t, int64(42), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ada@example.com' for key 'uq_users_email'"})

	err := NewUserRepository(db).Create(context.Background(), &model.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserCreateOtherError(t *testing.T) {
	db, mock := newMock(t)

	boom := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(boom)

	err := NewUserRepository(db).Create(context.Background(), &model.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, boom)
}

func TestUserGetByEmail(t *testing.T) {
	db, mock := newMock(t)

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT id, name, email, password_hash, created_at, updated_at FROM users WHERE email = \?$`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(int64(7), "Ada", "ada@example.com", "hash", now, now))

	u, err := NewUserRepository(db).GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestUserGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`FROM users WHERE id = \?`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := NewUserRepository(db).GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserList(t *testing.T) {
	db, mock := newMock(t)

	now := time.Now()
	mock.ExpectQuery(`FROM users ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(1), "A", "a@example.com", "h1", now, now).
			AddRow(int64(2), "B", "b@example.com", "h2", now, now))

	users, err := NewUserRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b@example.com", users[1].Email)
}

func TestUserUpdateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`(?s)^UPDATE users SET name = \?, email = \?, password_hash = \?, updated_at = \? WHERE id = \?$`).
		WithArgs("A", "b@example.com", "h", sqlmock.AnyArg(), int64(1)).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := NewUserRepository(db).Update(context.Background(), &model.User{ID: 1, Name: "A", Email: "b@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserDelete(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepository(db)
	assert.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrUserNotFound)
}

func TestUserLock(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(`SELECT id FROM users WHERE id = \? FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \? FOR UPDATE`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewUserRepository(db)
	assert.NoError(t, repo.Lock(context.Background(), 1))
	assert.ErrorIs(t, repo.Lock(context.Background(), 2), ErrUserNotFound)
}

func TestIsMySQLError(t *testing.T) {
	assert.False(t, isMySQLError(nil, mysqlErrDuplicateEntry))
	assert.False(t, isMySQLError(ErrUserNotFound, mysqlErrDuplicateEntry))
	assert.True(t, isMySQLError(&mysql.MySQLError{Number: 1062}, mysqlErrDuplicateEntry))
	assert.False(t, isMySQLError(&mysql.MySQLError{Number: 1452}, mysqlErrDuplicateEntry))
}
