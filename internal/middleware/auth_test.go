package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/addrbook/addrbook-go/internal/crypto"
)

func TestJWTAuth(t *testing.T) {
	tokens := crypto.NewTokenIssuer("test-secret", "addrbook", time.Hour)
	valid, err := tokens.Issue(crypto.Identity{UserID: 7, Email: "ada@example.com"})
	require.NoError(t, err)

	other := crypto.NewTokenIssuer("other-secret", "addrbook", time.Hour)
	forged, err := other.Issue(crypto.Identity{UserID: 7, Email: "ada@example.com"})
	require.NoError(t, err)

	var gotClaims *crypto.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		gotClaims = claims
		w.WriteHeader(http.StatusNoContent)
	})
	h := JWTAuth(tokens)(next)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"valid token", "Bearer " + valid, http.StatusNoContent, ""},
		{"missing header", "", http.StatusUnauthorized, "missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization format"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "invalid authorization format"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "invalid or expired token"},
		{"other secret", "Bearer " + forged, http.StatusUnauthorized, "invalid or expired token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.message == "" {
				require.NotNil(t, gotClaims)
				assert.Equal(t, int64(7), gotClaims.UserID)
				assert.Equal(t, "ada@example.com", gotClaims.Email)
				return
			}

			assert.Nil(t, gotClaims)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := UserIDFromContext(req.Context())
	assert.False(t, ok)
}
