package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/addrbook/addrbook-go/internal/crypto"
	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/repository"
)

// UserService handles the user resource. It only ever returns the public
// projection of a user.
type UserService struct {
	store  repository.Store
	hasher *crypto.PasswordHasher
}

// NewUserService creates a new UserService.
func NewUserService(store repository.Store, hasher *crypto.PasswordHasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

// Create adds a user with a hashed password.
func (s *UserService) Create(ctx context.Context, req model.RegisterRequest) (model.PublicUser, error) {
	if req.Email == "" {
		return model.PublicUser{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.PublicUser{}, ErrPasswordRequired
	}

	user, err := createUser(ctx, s.store.Users(), s.hasher, req.Name, req.Email, req.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]model.PublicUser, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, err
	}

	return model.PublicUsers(users), nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (model.PublicUser, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, mapUserError(err)
	}

	return user.Public(), nil
}

// Update merges the set fields into the user. A new password is re-hashed.
func (s *UserService) Update(ctx context.Context, id int64, req model.UpdateUserRequest) (model.PublicUser, error) {
	var hash string
	if req.Password != nil {
		h, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return model.PublicUser{}, err
		}
		hash = h
	}

	var updated *model.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return mapUserError(err)
		}

		if req.Name != nil {
			user.Name = *req.Name
		}
		if req.Email != nil {
			user.Email = *req.Email
		}
		if hash != "" {
			user.PasswordHash = hash
		}

		if err := tx.Users().Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return ErrEmailTaken
			}
			return err
		}

		updated = user
		return nil
	})
	if err != nil {
		return model.PublicUser{}, err
	}

	return updated.Public(), nil
}

// Delete removes a user together with every address it owns.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		if err := tx.Users().Lock(ctx, id); err != nil {
			return mapUserError(err)
		}

		removed, err := tx.Addresses().DeleteByUser(ctx, id)
		if err != nil {
			return err
		}

		if err := tx.Users().Delete(ctx, id); err != nil {
			return mapUserError(err)
		}

		slog.Info("user deleted", "user_id", id, "addresses_removed", removed)
		return nil
	})
}
