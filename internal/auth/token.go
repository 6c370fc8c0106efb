package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/intega/platform/internal/models"
)

// ErrInvalidToken indicates an access token that is malformed, forged or expired.
var ErrInvalidToken = errors.New("invalid access token")

const tokenIssuer = "intega"

type accessClaims struct {
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies HS256 access tokens.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner returns a signer using the shared secret. Secrets shorter
// than 32 bytes are rejected.
func NewTokenSigner(secret string) (*TokenSigner, error) {
	if len(secret) < 32 {
		return nil, errors.New("auth: signing secret must be at least 32 bytes")
	}
	return &TokenSigner{secret: []byte(secret)}, nil
}

// Sign issues a token for the principal valid for ttl from now.
func (s *TokenSigner) Sign(p Principal, now time.Time, ttl time.Duration) (string, error) {
	claims := accessClaims{
		UserType: string(p.UserType),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses the token and checks signature, issuer and expiry against now.
func (s *TokenSigner) Verify(token string, now time.Time) (Principal, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrInvalidToken
	}

	userType := models.UserType(claims.UserType)
	if claims.Subject == "" || !userType.Valid() {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.Subject, UserType: userType}, nil
}
