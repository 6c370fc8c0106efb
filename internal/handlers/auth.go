package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/logging"
	"github.com/intega/platform/internal/middleware"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users        UserStore
	Sessions     SessionManager
	CookieSecure bool
	NowFunc      func() time.Time
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req form.Login
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "email", req.Email, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to verify credentials")
			return
		}
		logger.Warn("login unknown email", "email", req.Email)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issue(w, r, user, http.StatusOK)
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req form.SignUp
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(req.Username),
		Email:     req.Email,
		Password:  hashed,
		Type:      models.UserType(req.UserType),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		respondStoreError(ctx, w, err, "user")
		return
	}

	h.issue(w, r, user, http.StatusCreated)
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "unable to refresh session")
			return
		}
		logging.FromContext(ctx).Error("refresh failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	h.setCookie(w, tokens)
	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout revokes the refresh token, if any, and clears the session cookie.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()
	var revokeErr error
	if token := strings.TrimSpace(req.RefreshToken); token != "" {
		revokeErr = h.Sessions.Revoke(ctx, token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	if revokeErr != nil {
		logging.FromContext(ctx).Error("logout failed", "error", revokeErr)
		respondError(ctx, w, http.StatusInternalServerError, "unable to end session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	user, err := h.Users.FindByID(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "user")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, user)
}

func (h AuthHandler) issue(w http.ResponseWriter, r *http.Request, user models.User, status int) {
	ctx := r.Context()
	tokens, err := h.Sessions.Issue(ctx, auth.Principal{UserID: user.ID, UserType: user.Type})
	if err != nil {
		logging.FromContext(ctx).Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}
	h.setCookie(w, tokens)
	respondJSON(ctx, w, status, authResponse{Tokens: tokens, User: &user})
}

func (h AuthHandler) setCookie(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
	User   *models.User         `json:"user,omitempty"`
}

func (h AuthHandler) now() time.Time { return nowFrom(h.NowFunc) }

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now().UTC()
}
