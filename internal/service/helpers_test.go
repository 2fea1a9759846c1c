package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/addrbook/addrbook-go/internal/crypto"
	"github.com/addrbook/addrbook-go/internal/model"
	"github.com/addrbook/addrbook-go/internal/repository/memory"
)

const testSecret = "test-secret"

func testHasher() *crypto.PasswordHasher {
	return crypto.NewPasswordHasher(crypto.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func testTokens() *crypto.TokenIssuer {
	return crypto.NewTokenIssuer(testSecret, "addrbook", time.Hour)
}

func newTestAuthService(t *testing.T, store *memory.Store) *AuthService {
	t.Helper()
	svc, err := NewAuthService(store, testHasher(), testTokens())
	require.NoError(t, err)
	return svc
}

func seedUser(t *testing.T, store *memory.Store, email string) model.PublicUser {
	t.Helper()
	u, err := NewUserService(store, testHasher()).Create(context.Background(), model.RegisterRequest{
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func seedAddress(t *testing.T, svc *AddressService, userID int64, isDefault bool) model.AddressResponse {
	t.Helper()
	a, err := svc.Create(context.Background(), model.CreateAddressRequest{
		UserID:    userID,
		Line1:     "1 Main St",
		City:      "Porto",
		Country:   "PT",
		IsDefault: isDefault,
	})
	require.NoError(t, err)
	return a
}

// defaultIDs returns the ids of the user's addresses flagged as default.
func defaultIDs(t *testing.T, store *memory.Store, userID int64) []int64 {
	t.Helper()
	addrs, err := store.Addresses().ListByUser(context.Background(), userID)
	require.NoError(t, err)

	var ids []int64
	for _, a := range addrs {
		if a.IsDefault {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func boolPtr(b bool) *bool      { return &b }
func strPtr(s string) *string { return &s }
