package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/addrbook/addrbook-go/internal/model"
)

const addressColumns = `id, user_id, line1, city, country, is_default, created_at, updated_at`

// AddressRepository handles address persistence operations.
type AddressRepository struct {
	db DBTX
}

// NewAddressRepository creates a new AddressRepository.
func NewAddressRepository(db DBTX) *AddressRepository {
	return &AddressRepository{db: db}
}

// Create inserts a new address and sets the generated ID and timestamps on it.
func (r *AddressRepository) Create(ctx context.Context, addr *model.Address) error {
	query := `INSERT INTO addresses (user_id, line1, city, country, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, addr.UserID, addr.Line1, addr.City, addr.Country, addr.IsDefault, now, now)
	if err != nil {
		return mapAddressWriteError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	addr.ID = id
	addr.CreatedAt = now
	addr.UpdatedAt = now
	return nil
}

// GetByID retrieves an address by its ID.
func (r *AddressRepository) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE id = ?`
	return scanAddress(r.db.QueryRowContext(ctx, query, id))
}

// GetDefaultByUser retrieves the default address of a user.
// It returns ErrAddressNotFound when the user has none.
func (r *AddressRepository) GetDefaultByUser(ctx context.Context, userID int64) (*model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = ? AND is_default = TRUE LIMIT 1`
	return scanAddress(r.db.QueryRowContext(ctx, query, userID))
}

// List retrieves every address ordered by ID.
func (r *AddressRepository) List(ctx context.Context) ([]model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses ORDER BY id`
	return r.query(ctx, query)
}

// ListByUser retrieves the addresses of one user ordered by ID.
func (r *AddressRepository) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	query := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = ? ORDER BY id`
	return r.query(ctx, query, userID)
}

// Update writes the mutable fields of an existing address.
func (r *AddressRepository) Update(ctx context.Context, addr *model.Address) error {
	query := `UPDATE addresses SET line1 = ?, city = ?, country = ?, is_default = ?, updated_at = ? WHERE id = ?`

	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, addr.Line1, addr.City, addr.Country, addr.IsDefault, now, addr.ID); err != nil {
		return mapAddressWriteError(err)
	}

	addr.UpdatedAt = now
	return nil
}

// Delete removes an address.
func (r *AddressRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	return nil
}

// DeleteByUser removes every address of a user and returns how many were removed.
func (r *AddressRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ClearDefault unsets the default flag on the user's addresses, skipping exceptID.
// IDs start at 1, so exceptID 0 matches no row.
func (r *AddressRepository) ClearDefault(ctx context.Context, userID, exceptID int64) (int64, error) {
	query := `UPDATE addresses SET is_default = FALSE, updated_at = ?
		WHERE user_id = ? AND is_default = TRUE AND id <> ?`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID, exceptID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *AddressRepository) query(ctx context.Context, query string, args ...any) ([]model.Address, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []model.Address
	for rows.Next() {
		var a model.Address
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Line1, &a.City, &a.Country,
			&a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}

	return addrs, rows.Err()
}

func scanAddress(row *sql.Row) (*model.Address, error) {
	a := &model.Address{}
	err := row.Scan(&a.ID, &a.UserID, &a.Line1, &a.City, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	return a, nil
}

// mapAddressWriteError translates constraint violations on the addresses table.
func mapAddressWriteError(err error) error {
	switch {
	case isMySQLError(err, mysqlErrNoReferenced):
		return ErrUserNotFound
	case isMySQLError(err, mysqlErrDuplicateEntry):
		return ErrDuplicateDefault
	default:
		return err
	}
}
