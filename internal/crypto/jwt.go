package crypto

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identity is the user data embedded in an issued token.
type Identity struct {
	UserID int64
	Email  string
}

// Claims represents the JWT claims carried by a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// TokenIssuer mints and validates HS256 bearer tokens with a process-wide
// secret. Rotating the secret invalidates every outstanding token.
type TokenIssuer struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret, issuer string, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Issue creates a signed token for the given identity.
func (ti *TokenIssuer) Issue(id Identity) (string, error) {
	now := ti.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ti.issuer,
			Subject:   strconv.FormatInt(id.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: id.UserID,
		Email:  id.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate parses and verifies a token string, returning its claims.
// Every failure collapses to ErrInvalidToken.
func (ti *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return ti.secret, nil
	},
		jwt.WithIssuer(ti.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
