package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/logging"
	"github.com/intega/platform/internal/middleware"
	"github.com/intega/platform/internal/repositories"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, errorResponse{Error: message})
}

// respondStoreError maps repository sentinels onto HTTP statuses. Unknown
// errors are logged and reported as 500.
func respondStoreError(ctx context.Context, w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, what+" not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, what+" conflicts with an existing record")
	default:
		logging.FromContext(ctx).Error("store operation failed", "entity", what, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
// It writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return validate(w, r, dst)
}

func validate(w http.ResponseWriter, r *http.Request, v any) bool {
	err := form.Validate(v)
	if err == nil {
		return true
	}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		respondJSON(r.Context(), w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
		return false
	}
	respondError(r.Context(), w, http.StatusBadRequest, err.Error())
	return false
}

// principal returns the authenticated caller. Routes needing it are wrapped
// in middleware.Authenticate, so a missing principal is a wiring bug.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondError(r.Context(), w, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}
