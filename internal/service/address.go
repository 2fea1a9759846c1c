package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/repository"
)

// AddressService manages addresses and keeps at most one default address
// per user.
//
// Every write that makes an address the default runs in one transaction:
// lock the owning user row, clear the flag on the other addresses, set it on
// the target. Writes for the same user queue on the owner lock.
type AddressService struct {
	store repository.Store
}

// NewAddressService creates a new AddressService.
func NewAddressService(store repository.Store) *AddressService {
	return &AddressService{store: store}
}

// Create adds an address for an existing user. When the request marks it as
// default, the user's current default is cleared first.
func (s *AddressService) Create(ctx context.Context, req model.CreateAddressRequest) (model.AddressResponse, error) {
	addr := &model.Address{
		UserID:    req.UserID,
		Line1:     req.Line1,
		City:      req.City,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Users().Lock(ctx, addr.UserID); err != nil {
			return mapUserError(err)
		}

		if addr.IsDefault {
			if _, err := clearDefault(ctx, tx, addr.UserID, 0); err != nil {
				return err
			}
		}

		return mapAddressError(tx.Addresses().Create(ctx, addr))
	})
	if err != nil {
		return model.AddressResponse{}, err
	}

	return addr.Response(nil), nil
}

// Update merges the set fields of req into the address. Setting is_default
// to true clears the flag on the owner's other addresses first.
func (s *AddressService) Update(ctx context.Context, id int64, req model.UpdateAddressRequest) (model.AddressResponse, error) {
	makeDefault := req.IsDefault != nil && *req.IsDefault
	return s.modify(ctx, id, makeDefault, req.Apply)
}

// SetDefault makes the address the owner's only default. Calling it again on
// the same address changes nothing.
func (s *AddressService) SetDefault(ctx context.Context, id int64) (model.AddressResponse, error) {
	return s.modify(ctx, id, true, func(a *model.Address) { a.IsDefault = true })
}

func (s *AddressService) modify(ctx context.Context, id int64, makeDefault bool, apply func(*model.Address)) (model.AddressResponse, error) {
	// The owner never changes, so it is read up front and locked before any
	// address row, the same order Create uses.
	current, err := s.store.Addresses().GetByID(ctx, id)
	if err != nil {
		return model.AddressResponse{}, mapAddressError(err)
	}
	ownerID := current.UserID

	var addr *model.Address
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Users().Lock(ctx, ownerID); err != nil {
			return mapUserError(err)
		}

		a, err := tx.Addresses().GetByID(ctx, id)
		if err != nil {
			return mapAddressError(err)
		}

		if makeDefault {
			if _, err := clearDefault(ctx, tx, ownerID, id); err != nil {
				return err
			}
		}

		apply(a)
		if err := tx.Addresses().Update(ctx, a); err != nil {
			return mapAddressError(err)
		}

		addr = a
		return nil
	})
	if err != nil {
		return model.AddressResponse{}, err
	}

	return addr.Response(nil), nil
}

// Remove deletes an address. Removing the default leaves the owner with none.
func (s *AddressService) Remove(ctx context.Context, id int64) error {
	return mapAddressError(s.store.Addresses().Delete(ctx, id))
}

// Get returns one address with its owner embedded.
func (s *AddressService) Get(ctx context.Context, id int64) (model.AddressResponse, error) {
	addr, err := s.store.Addresses().GetByID(ctx, id)
	if err != nil {
		return model.AddressResponse{}, mapAddressError(err)
	}

	owners := newOwnerCache(s.store.Users())
	owner, err := owners.get(ctx, addr.UserID)
	if err != nil {
		return model.AddressResponse{}, err
	}

	return addr.Response(owner), nil
}

// List returns every address with its owner embedded.
func (s *AddressService) List(ctx context.Context) ([]model.AddressResponse, error) {
	addrs, err := s.store.Addresses().List(ctx)
	if err != nil {
		return nil, err
	}

	return s.withOwners(ctx, addrs)
}

// ListByUser returns the addresses of an existing user.
func (s *AddressService) ListByUser(ctx context.Context, userID int64) ([]model.AddressResponse, error) {
	if _, err := s.store.Users().GetByID(ctx, userID); err != nil {
		return nil, mapUserError(err)
	}

	addrs, err := s.store.Addresses().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.withOwners(ctx, addrs)
}

// GetDefaultForUser returns the user's default address, or nil when there is
// none. The user is not checked for existence; an unknown user simply has
// no default.
func (s *AddressService) GetDefaultForUser(ctx context.Context, userID int64) (*model.AddressResponse, error) {
	addr, err := s.store.Addresses().GetDefaultByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAddressNotFound) {
			return nil, nil
		}
		return nil, err
	}

	owners := newOwnerCache(s.store.Users())
	owner, err := owners.get(ctx, addr.UserID)
	if err != nil {
		return nil, err
	}

	resp := addr.Response(owner)
	return &resp, nil
}

func (s *AddressService) withOwners(ctx context.Context, addrs []model.Address) ([]model.AddressResponse, error) {
	owners := newOwnerCache(s.store.Users())

	result := make([]model.AddressResponse, len(addrs))
	for i := range addrs {
		owner, err := owners.get(ctx, addrs[i].UserID)
		if err != nil {
			return nil, err
		}
		result[i] = addrs[i].Response(owner)
	}

	return result, nil
}

func clearDefault(ctx context.Context, tx repository.Repos, userID, exceptID int64) (int64, error) {
	cleared, err := tx.Addresses().ClearDefault(ctx, userID, exceptID)
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		slog.Debug("cleared default address", "user_id", userID, "count", cleared)
	}
	return cleared, nil
}

func mapAddressError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAddressNotFound):
		return ErrAddressNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return ErrUserNotFound
	default:
		return err
	}
}

// ownerCache looks each user up once per call.
type ownerCache struct {
	users repository.UserStore
	seen  map[int64]*model.User
}

func newOwnerCache(users repository.UserStore) *ownerCache {
	return &ownerCache{users: users, seen: make(map[int64]*model.User)}
}

func (c *ownerCache) get(ctx context.Context, id int64) (*model.User, error) {
	if u, ok := c.seen[id]; ok {
		return u, nil
	}

	u, err := c.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err)
	}

	c.seen[id] = u
	return u, nil
}
