package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/intega/platform/internal/models"
)

var (
	// ErrSessionNotFound means the refresh token was never issued, was revoked
	// or has already been rotated.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired means the refresh grant outlived its TTL.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// SessionStore keeps refresh grants keyed by token digest.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	// Take removes and returns the session for a digest. Two concurrent
	// takes of the same digest succeed at most once.
	Take(ctx context.Context, tokenHash string) (Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

// Session is a refresh grant. The raw token is only ever seen by the client.
type Session struct {
	TokenHash string
	UserID    string
	UserType  models.UserType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the grant is unusable at now.
func (s Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// Principal identifies the caller behind a verified access token.
type Principal struct {
	UserID   string
	UserType models.UserType
}

// HashToken returns the digest under which a refresh token is stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Manager signs access tokens and rotates refresh grants.
type Manager struct {
	accessTTL  time.Duration
	refreshTTL time.Duration

	tokens *TokenSigner
	store  SessionStore
	now    func() time.Time
}

// NewManager panics on a nil signer or store.
func NewManager(accessTTL, refreshTTL time.Duration, signer *TokenSigner, store SessionStore) *Manager {
	if store == nil || signer == nil {
		panic("auth: NewManager needs a token signer and a session store")
	}
	return &Manager{
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		tokens:     signer,
		store:      store,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Issue starts a session for the principal.
func (m *Manager) Issue(ctx context.Context, p Principal) (models.SessionTokens, error) {
	switch {
	case p.UserID == "":
		return models.SessionTokens{}, errors.New("issue session: missing user id")
	case !p.UserType.Valid():
		return models.SessionTokens{}, fmt.Errorf("issue session: unknown user type %q", p.UserType)
	}

	now := m.now()
	access, err := m.tokens.Sign(p, now, m.accessTTL)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refresh, err := newRefreshToken()
	if err != nil {
		return models.SessionTokens{}, err
	}

	session := Session{
		TokenHash: HashToken(refresh),
		UserID:    p.UserID,
		UserType:  p.UserType,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.refreshTTL),
	}
	if err := m.store.Save(ctx, session); err != nil {
		return models.SessionTokens{}, fmt.Errorf("save session: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  now.Add(m.accessTTL),
		RefreshToken:     refresh,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh consumes a refresh token and issues a new pair for the same user.
// A token can be exchanged once; replaying it yields ErrSessionNotFound.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	if refreshToken == "" {
		return models.SessionTokens{}, ErrSessionNotFound
	}
	session, err := m.store.Take(ctx, HashToken(refreshToken))
	if err != nil {
		return models.SessionTokens{}, err
	}
	if session.Expired(m.now()) {
		return models.SessionTokens{}, ErrRefreshTokenExpired
	}
	return m.Issue(ctx, Principal{UserID: session.UserID, UserType: session.UserType})
}

// Verify validates an access token and returns the principal it names.
func (m *Manager) Verify(accessToken string) (Principal, error) {
	return m.tokens.Verify(accessToken, m.now())
}

// Revoke ends the session behind a refresh token. Unknown tokens are ignored;
// a store failure is returned so the grant is not silently left alive.
func (m *Manager) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := m.store.Delete(ctx, HashToken(refreshToken))
	if err == nil || errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return fmt.Errorf("revoke session: %w", err)
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
