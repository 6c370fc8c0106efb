package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
)

// DocumentRequestHandler serves requests for administrative documents from
// students to schools.
type DocumentRequestHandler struct {
	Requests     DocumentRequestStore
	Users        UserLookup
	Applications ApplicationStore
	NowFunc      func() time.Time
}

// List handles GET /api/v1/document-requests. Students see their own
// requests, schools the ones addressed to them.
func (h DocumentRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var q repositories.DocumentRequestQuery
	if p.UserType == models.UserSchool {
		q.SchoolID = p.UserID
	} else {
		q.StudentID = p.UserID
	}
	items, err := h.Requests.List(r.Context(), q)
	if err != nil {
		respondStoreError(r.Context(), w, err, "document requests")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(items))
}

// Create handles POST /api/v1/document-requests.
func (h DocumentRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.DocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	school, err := h.Users.FindByID(ctx, req.SchoolID)
	if err != nil {
		respondStoreError(ctx, w, err, "school")
		return
	}
	if school.Type != models.UserSchool {
		respondError(ctx, w, http.StatusBadRequest, "requests must be addressed to a school")
		return
	}

	var applicationID *string
	if req.ApplicationID != "" {
		application, err := h.Applications.FindByID(ctx, req.ApplicationID)
		if err != nil {
			respondStoreError(ctx, w, err, "application")
			return
		}
		if application.StudentID != p.UserID {
			respondError(ctx, w, http.StatusForbidden, "application belongs to another student")
			return
		}
		applicationID = &application.ID
	}

	now := nowFrom(h.NowFunc)
	request := models.DocumentRequest{
		ID:            uuid.NewString(),
		StudentID:     p.UserID,
		SchoolID:      school.ID,
		ApplicationID: applicationID,
		RequestType:   models.DocumentRequestType(req.RequestType),
		Message:       strings.TrimSpace(req.Message),
		Status:        models.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Requests.Create(ctx, request); err != nil {
		respondStoreError(ctx, w, err, "document request")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, request)
}

// Resolve handles PATCH /api/v1/document-requests/{id}/status.
func (h DocumentRequestHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.DocumentRequestResolve
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next := models.DocumentRequestStatus(req.Status)

	request, err := h.Requests.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "document request")
		return
	}
	if request.SchoolID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "request is addressed to another school")
		return
	}
	if request.Status == next {
		respondJSON(ctx, w, http.StatusOK, request)
		return
	}
	if !request.Status.CanTransition(next) {
		respondError(ctx, w, http.StatusConflict, "cannot move request from "+string(request.Status)+" to "+string(next))
		return
	}

	now := nowFrom(h.NowFunc)
	if err := h.Requests.UpdateStatus(ctx, request.ID, request.Status, next, now); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "request status changed, reload and retry")
			return
		}
		respondStoreError(ctx, w, err, "document request")
		return
	}
	request.Status = next
	request.UpdatedAt = now
	respondJSON(ctx, w, http.StatusOK, request)
}
