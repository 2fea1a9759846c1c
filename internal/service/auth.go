package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/addrbook/addrbook-go/internal/crypto"
	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/repository"
)

// AuthService handles registration, login and profile lookups.
type AuthService struct {
	store  repository.Store
	hasher *crypto.PasswordHasher
	tokens *crypto.TokenIssuer

	// dummyHash is verified when the email is unknown so that both login
	// failure paths cost one hash computation.
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repository.Store, hasher *crypto.PasswordHasher, tokens *crypto.TokenIssuer) (*AuthService, error) {
	dummy, err := hasher.Hash("addrbook-dummy-password")
	if err != nil {
		return nil, err
	}

	return &AuthService{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	if req.Email == "" {
		return model.AuthResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.AuthResponse{}, ErrPasswordRequired
	}

	// Early rejection; the unique index decides races.
	_, err := s.store.Users().GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return model.AuthResponse{}, ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResponse{}, err
	}

	user, err := createUser(ctx, s.store.Users(), s.hasher, req.Name, req.Email, req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	slog.Info("user registered", "user_id", user.ID)
	return s.authResponse(user)
}

// Login authenticates a user and returns an auth token. Unknown emails and
// wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.hasher.Verify(req.Password, s.dummyHash)
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// GetProfile retrieves a user by ID and returns its public view.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (model.PublicUser, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, mapUserError(err)
	}

	return user.Public(), nil
}

func (s *AuthService) authResponse(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(crypto.Identity{UserID: user.ID, Email: user.Email})
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  user.Public(),
	}, nil
}

// createUser hashes the password and inserts the user. It is shared by
// registration and the users resource.
func createUser(ctx context.Context, users repository.UserStore, hasher *crypto.PasswordHasher, name, email, password string) (*model.User, error) {
	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

func mapUserError(err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}
