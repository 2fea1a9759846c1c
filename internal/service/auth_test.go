package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/repository/memory"
)

func TestRegister(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(t, store)

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.NotZero(t, resp.User.ID)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	claims, err := testTokens().Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)

	stored, err := store.Users().GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
}

func TestRegister_EmptyEmail(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())

	_, err := svc.Register(context.Background(), model.RegisterRequest{Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailRequired)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRegister_EmptyPassword(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())

	_, err := svc.Register(context.Background(), model.RegisterRequest{Email: "test@example.com"})
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())
	req := model.RegisterRequest{Email: "ada@example.com", Password: "password123"}

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_ConcurrentSameEmail(t *testing.T) {
	store := memory.NewStore()
	svc := newTestAuthService(t, store)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), model.RegisterRequest{Email: "race@example.com", Password: "password123"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)

	users, err := store.Users().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())

	reg, err := svc.Register(context.Background(), model.RegisterRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resp.User.ID)

	claims, err := testTokens().Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, reg.User.ID, claims.UserID)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())
	_, err := svc.Register(context.Background(), model.RegisterRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	_, unknown := svc.Login(context.Background(), model.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	_, wrong := svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "wrong-password"})

	for _, err := range []error{unknown, wrong} {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.ErrorIs(t, err, ErrUnauthorized)
		assert.NotErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, unknown.Error(), wrong.Error())
	assert.Equal(t, "invalid credentials", unknown.Error())
}

func TestGetProfile(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())
	reg, err := svc.Register(context.Background(), model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)

	profile, err := svc.GetProfile(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)

	_, err = svc.GetProfile(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthResponsesNeverContainHash(t *testing.T) {
	svc := newTestAuthService(t, memory.NewStore())

	reg, err := svc.Register(context.Background(), model.RegisterRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "password123"})
	require.NoError(t, err)
	profile, err := svc.GetProfile(context.Background(), reg.User.ID)
	require.NoError(t, err)

	for _, v := range []any{reg, login, profile} {
		body, err := json.Marshal(v)
		require.NoError(t, err)
		assert.NotContains(t, string(body), "argon2id")
		assert.NotContains(t, string(body), "password")
	}
}
