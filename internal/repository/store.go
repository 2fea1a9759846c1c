package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/addrbook/addrbook-go/internal/model"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrAddressNotFound  = errors.New("address not found")
	ErrDuplicateDefault = errors.New("user already has a default address")
)

// UserStore persists user records.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	// Lock takes a write lock on the user row until the surrounding
	// transaction ends. Outside a transaction it only checks existence.
	Lock(ctx context.Context, id int64) error
}

// AddressStore persists address records scoped to a user.
type AddressStore interface {
	Create(ctx context.Context, addr *model.Address) error
	GetByID(ctx context.Context, id int64) (*model.Address, error)
	List(ctx context.Context) ([]model.Address, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Address, error)
	GetDefaultByUser(ctx context.Context, userID int64) (*model.Address, error)
	Update(ctx context.Context, addr *model.Address) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	// ClearDefault sets is_default = false on every default address of the
	// user except exceptID (0 excludes nothing) and returns the rows changed.
	ClearDefault(ctx context.Context, userID, exceptID int64) (int64, error)
}

// Repos groups the stores bound to one connection or transaction.
type Repos interface {
	Users() UserStore
	Addresses() AddressStore
}

// Store is the persistence entry point. WithTx is the unit of work: every
// store call made through tx commits or rolls back together.
type Store interface {
	Repos
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
	Ping(ctx context.Context) error
}

// SQLStore is the MySQL-backed Store.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Users() UserStore        { return NewUserRepository(s.db) }
func (s *SQLStore) Addresses() AddressStore { return NewAddressRepository(s.db) }

// WithTx runs fn with repositories bound to a single transaction.
func (s *SQLStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error {
	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, sqlRepos{db: tx})
	})
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type sqlRepos struct {
	db DBTX
}

func (r sqlRepos) Users() UserStore        { return NewUserRepository(r.db) }
func (r sqlRepos) Addresses() AddressStore { return NewAddressRepository(r.db) }
