// Package memory provides an in-process implementation of repository.Store.
//
// All access is serialized by one mutex. Transactions run against a copy of
// the data that replaces the live copy only when the callback succeeds, so a
// failed transaction leaves nothing behind.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/repository"
)

type state struct {
	users      map[int64]model.User
	addresses  map[int64]model.Address
	nextUserID int64
	nextAddrID int64
}

func newState() *state {
	return &state{
		users:     make(map[int64]model.User),
		addresses: make(map[int64]model.Address),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:      make(map[int64]model.User, len(s.users)),
		addresses:  make(map[int64]model.Address, len(s.addresses)),
		nextUserID: s.nextUserID,
		nextAddrID: s.nextAddrID,
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	for id, a := range s.addresses {
		c.addresses[id] = a
	}
	return c
}

// Store is an in-memory repository.Store.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: newState(), now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) locked(fn func(*state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Users() repository.UserStore {
	return &userStore{run: s.locked, now: s.now}
}

func (s *Store) Addresses() repository.AddressStore {
	return &addressStore{run: s.locked, now: s.now}
}

// WithTx runs fn with exclusive access to a working copy of the data.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	direct := func(f func(*state) error) error { return f(work) }

	if err := fn(ctx, txRepos{
		users:     &userStore{run: direct, now: s.now},
		addresses: &addressStore{run: direct, now: s.now},
	}); err != nil {
		return err
	}

	s.data = work
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

type txRepos struct {
	users     *userStore
	addresses *addressStore
}

func (r txRepos) Users() repository.UserStore        { return r.users }
func (r txRepos) Addresses() repository.AddressStore { return r.addresses }

type userStore struct {
	run func(func(*state) error) error
	now func() time.Time
}

func (u *userStore) Create(ctx context.Context, user *model.User) error {
	return u.run(func(st *state) error {
		if emailTaken(st, user.Email, 0) {
			return repository.ErrDuplicateEmail
		}
		st.nextUserID++
		now := u.now()
		user.ID = st.nextUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = *user
		return nil
	})
}

func (u *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var found model.User
	err := u.run(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return repository.ErrUserNotFound
		}
		found = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (u *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var found model.User
	err := u.run(func(st *state) error {
		for _, user := range st.users {
			if user.Email == email {
				found = user
				return nil
			}
		}
		return repository.ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (u *userStore) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := u.run(func(st *state) error {
		for _, user := range st.users {
			users = append(users, user)
		}
		return nil
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, err
}

func (u *userStore) Update(ctx context.Context, user *model.User) error {
	return u.run(func(st *state) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return repository.ErrUserNotFound
		}
		if emailTaken(st, user.Email, user.ID) {
			return repository.ErrDuplicateEmail
		}
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = u.now()
		st.users[user.ID] = *user
		return nil
	})
}

// Delete removes the user and, like the foreign key in MySQL, its addresses.
func (u *userStore) Delete(ctx context.Context, id int64) error {
	return u.run(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrUserNotFound
		}
		delete(st.users, id)
		for addrID, a := range st.addresses {
			if a.UserID == id {
				delete(st.addresses, addrID)
			}
		}
		return nil
	})
}

func (u *userStore) Lock(ctx context.Context, id int64) error {
	return u.run(func(st *state) error {
		if _, ok := st.users[id]; !ok {
			return repository.ErrUserNotFound
		}
		return nil
	})
}

func emailTaken(st *state, email string, exceptID int64) bool {
	for id, user := range st.users {
		if id != exceptID && user.Email == email {
			return true
		}
	}
	return false
}

type addressStore struct {
	run func(func(*state) error) error
	now func() time.Time
}

func (a *addressStore) Create(ctx context.Context, addr *model.Address) error {
	return a.run(func(st *state) error {
		if _, ok := st.users[addr.UserID]; !ok {
			return repository.ErrUserNotFound
		}
		if addr.IsDefault && hasDefault(st, addr.UserID, 0) {
			return repository.ErrDuplicateDefault
		}
		st.nextAddrID++
		now := a.now()
		addr.ID = st.nextAddrID
		addr.CreatedAt = now
		addr.UpdatedAt = now
		st.addresses[addr.ID] = *addr
		return nil
	})
}

func (a *addressStore) GetByID(ctx context.Context, id int64) (*model.Address, error) {
	var found model.Address
	err := a.run(func(st *state) error {
		addr, ok := st.addresses[id]
		if !ok {
			return repository.ErrAddressNotFound
		}
		found = addr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (a *addressStore) GetDefaultByUser(ctx context.Context, userID int64) (*model.Address, error) {
	var found model.Address
	err := a.run(func(st *state) error {
		for _, addr := range st.addresses {
			if addr.UserID == userID && addr.IsDefault {
				found = addr
				return nil
			}
		}
		return repository.ErrAddressNotFound
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (a *addressStore) List(ctx context.Context) ([]model.Address, error) {
	return a.filter(func(model.Address) bool { return true })
}

func (a *addressStore) ListByUser(ctx context.Context, userID int64) ([]model.Address, error) {
	return a.filter(func(addr model.Address) bool { return addr.UserID == userID })
}

func (a *addressStore) filter(keep func(model.Address) bool) ([]model.Address, error) {
	var addrs []model.Address
	err := a.run(func(st *state) error {
		for _, addr := range st.addresses {
			if keep(addr) {
				addrs = append(addrs, addr)
			}
		}
		return nil
	})
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].ID < addrs[j].ID })
	return addrs, err
}

func (a *addressStore) Update(ctx context.Context, addr *model.Address) error {
	return a.run(func(st *state) error {
		existing, ok := st.addresses[addr.ID]
		if !ok {
			return repository.ErrAddressNotFound
		}
		if addr.IsDefault && hasDefault(st, existing.UserID, addr.ID) {
			return repository.ErrDuplicateDefault
		}
		addr.UserID = existing.UserID
		addr.CreatedAt = existing.CreatedAt
		addr.UpdatedAt = a.now()
		st.addresses[addr.ID] = *addr
		return nil
	})
}

func (a *addressStore) Delete(ctx context.Context, id int64) error {
	return a.run(func(st *state) error {
		if _, ok := st.addresses[id]; !ok {
			return repository.ErrAddressNotFound
		}
		delete(st.addresses, id)
		return nil
	})
}

func (a *addressStore) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := a.run(func(st *state) error {
		for id, addr := range st.addresses {
			if addr.UserID == userID {
				delete(st.addresses, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (a *addressStore) ClearDefault(ctx context.Context, userID, exceptID int64) (int64, error) {
	var n int64
	err := a.run(func(st *state) error {
		now := a.now()
		for id, addr := range st.addresses {
			if addr.UserID == userID && addr.IsDefault && id != exceptID {
				addr.IsDefault = false
				addr.UpdatedAt = now
				st.addresses[id] = addr
				n++
			}
		}
		return nil
	})
	return n, err
}

// hasDefault mirrors the unique default_owner key of the MySQL schema.
func hasDefault(st *state, userID, exceptID int64) bool {
	for id, addr := range st.addresses {
		if id != exceptID && addr.UserID == userID && addr.IsDefault {
			return true
		}
	}
	return false
}
