package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/logging"
	"github.com/intega/platform/internal/models"
)

// SessionCookieName names the cookie that carries the access token for
// browser-style clients.
const SessionCookieName = "intega_session"

type principalKey struct{}

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(accessToken string) (auth.Principal, error)
}

// WithPrincipal stores the authenticated caller on the context.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok && p.UserID != ""
}

// Authenticate requires a valid access token from either the Authorization
// bearer header or the session cookie. The header wins when both are present.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := accessToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rejected access token", "error", err)
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = logging.With(ctx, "user_id", principal.UserID, "user_type", string(principal.UserType))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireType allows only callers whose user type is listed.
func RequireType(types ...models.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(types, principal.UserType) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func accessToken(r *http.Request) (string, bool) {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

// Chain applies middleware so that the first argument is the outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
