package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/intega/platform/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T, accessTTL, refreshTTL time.Duration) (*Manager, *MemorySessionStore) {
	t.Helper()
	signer, err := NewTokenSigner(testSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	store := NewMemorySessionStore()
	return NewManager(accessTTL, refreshTTL, signer, store), store
}

func TestManagerIssueAndRefresh(t *testing.T) {
	manager, store := newTestManager(t, time.Minute, time.Hour)
	principal := Principal{UserID: "user-1", UserType: models.UserCompany}

	tokens, err := manager.Issue(context.Background(), principal)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	got, err := manager.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != principal {
		t.Fatalf("expected %+v got %+v", principal, got)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if n := store.Active("user-1"); n != 1 {
		t.Fatalf("expected rotation to leave one session, got %d", n)
	}

	again, err := manager.Verify(refreshed.AccessToken)
	if err != nil || again.UserType != models.UserCompany {
		t.Fatalf("refreshed token should keep the user type: %+v %v", again, err)
	}

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected reuse of a rotated token to fail, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)
	if _, err := manager.Issue(context.Background(), Principal{UserType: models.UserStudent}); err == nil {
		t.Fatal("expected error for empty user id")
	}
	if _, err := manager.Issue(context.Background(), Principal{UserID: "u", UserType: "ADMIN"}); err == nil {
		t.Fatal("expected error for unknown user type")
	}
}

func TestManagerRefreshExpired(t *testing.T) {
	manager, store := newTestManager(t, time.Minute, time.Hour)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return base }
	store.now = manager.now

	if _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), Principal{UserID: "user-1", UserType: models.UserStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if store.Active("user-1") != 1 {
		t.Fatal("expected the issued session to be active")
	}

	manager.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected a grant to expire exactly at its TTL, got %v", err)
	}
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired grant to be consumed, got %v", err)
	}
}

func TestManagerRevoke(t *testing.T) {
	manager, store := newTestManager(t, time.Minute, time.Hour)
	tokens, err := manager.Issue(context.Background(), Principal{UserID: "user-1", UserType: models.UserSchool})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := manager.Revoke(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.Active("user-1") != 0 {
		t.Fatal("expected token to be revoked")
	}
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
	if err := manager.Revoke(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("revoking an unknown token must succeed, got %v", err)
	}
	if err := manager.Revoke(context.Background(), ""); err != nil {
		t.Fatalf("revoking an empty token must succeed, got %v", err)
	}
}

type unavailableStore struct {
	*MemorySessionStore
	err error
}

func (s unavailableStore) Delete(context.Context, string) error { return s.err }

func TestManagerRevokeReportsStoreFailure(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	down := errors.New("redis: connection refused")
	manager := NewManager(time.Minute, time.Hour, signer, unavailableStore{MemorySessionStore: NewMemorySessionStore(), err: down})
	tokens, err := manager.Issue(context.Background(), Principal{UserID: "user-1", UserType: models.UserStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := manager.Revoke(context.Background(), tokens.RefreshToken); !errors.Is(err, down) {
		t.Fatalf("expected store failure to surface, got %v", err)
	}
}

func TestRefreshTokenIsStoredAsDigest(t *testing.T) {
	manager, store := newTestManager(t, time.Minute, time.Hour)
	tokens, err := manager.Issue(context.Background(), Principal{UserID: "user-1", UserType: models.UserStudent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := store.Take(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("raw token must not be a store key, got %v", err)
	}
	session, err := store.Take(context.Background(), HashToken(tokens.RefreshToken))
	if err != nil {
		t.Fatalf("take by digest: %v", err)
	}
	if session.UserID != "user-1" || !session.ExpiresAt.Equal(tokens.RefreshExpiresAt) {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestConcurrentRefreshRotatesOnce(t *testing.T) {
	manager, _ := newTestManager(t, time.Minute, time.Hour)
	tokens, err := manager.Issue(context.Background(), Principal{UserID: "user-1", UserType: models.UserCompany})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	const callers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	if got := successes.Load(); got != 1 {
		t.Fatalf("expected exactly one rotation, got %d", got)
	}
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := signer.Sign(Principal{UserID: "u1", UserType: models.UserStudent}, now, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]struct {
		token string
		at    time.Time
	}{
		"expired":   {token, now.Add(2 * time.Minute)},
		"garbage":   {"not-a-token", now},
		"truncated": {token[:len(token)-4], now},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := signer.Verify(tc.token, tc.at); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken got %v", err)
			}
		})
	}

	other, err := NewTokenSigner(strings.Repeat("x", 32))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if _, err := other.Verify(token, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
}

func TestNewTokenSignerRequiresLongSecret(t *testing.T) {
	if _, err := NewTokenSigner("short"); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected mismatch got %v", err)
	}
}
