package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/addrbook/addrbook-go/internal/model"
)

// MySQL server error numbers.
const (
	mysqlErrDuplicateEntry = 1062
	mysqlErrNoReferenced   = 1452
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and sets the generated ID and timestamps on it.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, now, now)
	if err != nil {
		if isMySQLError(err, mysqlErrDuplicateEntry) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// List retrieves all users ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// Update writes name, email and password hash of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, user.Name, user.Email, user.PasswordHash, now, user.ID); err != nil {
		if isMySQLError(err, mysqlErrDuplicateEntry) {
			return ErrDuplicateEmail
		}
		return err
	}

	user.UpdatedAt = now
	return nil
}

// Delete removes a user. Owned addresses go with it through the foreign key.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Lock takes a row lock on the user. Concurrent default-address changes for
// the same user queue up behind it.
func (r *UserRepository) Lock(ctx context.Context, id int64) error {
	var locked int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// isMySQLError reports whether err is a MySQL server error with the given number.
func isMySQLError(err error, number uint16) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == number
}
