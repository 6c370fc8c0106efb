package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/logging"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
)

// ApplicationHandler serves student applications and the company review flow.
type ApplicationHandler struct {
	Applications ApplicationStore
	Internships  InternshipStore
	NowFunc      func() time.Time
}

// Create handles POST /api/v1/applications.
func (h ApplicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.Application
	if !decodeAndValidate(w, r, &req) {
		return
	}

	internship, err := h.Internships.FindByID(ctx, req.InternshipID)
	if err != nil {
		respondStoreError(ctx, w, err, "internship")
		return
	}
	if !internship.Visible() {
		respondError(ctx, w, http.StatusConflict, "internship is not open for applications")
		return
	}

	now := nowFrom(h.NowFunc)
	application := models.Application{
		ID:           uuid.NewString(),
		InternshipID: internship.ID,
		StudentID:    p.UserID,
		CoverLetter:  strings.TrimSpace(req.CoverLetter),
		Status:       models.ApplicationPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Applications.Create(ctx, application); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "already applied to this internship")
			return
		}
		respondStoreError(ctx, w, err, "application")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, application)
}

// ListStudent handles GET /api/v1/applications/student.
func (h ApplicationHandler) ListStudent(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	items, err := h.Applications.ListByStudent(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "applications")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(items))
}

// ListCompany handles GET /api/v1/applications/company.
func (h ApplicationHandler) ListCompany(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	items, err := h.Applications.ListByCompany(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "applications")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(items))
}

// UpdateStatus handles PATCH /api/v1/applications/{id}/status. Setting the
// current status again succeeds without a write.
func (h ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.ApplicationStatus
	if !decodeAndValidate(w, r, &req) {
		return
	}
	next := models.ApplicationStatus(req.Status)

	application, err := h.Applications.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "application")
		return
	}
	internship, err := h.Internships.FindByID(ctx, application.InternshipID)
	if err != nil {
		respondStoreError(ctx, w, err, "internship")
		return
	}
	if internship.CompanyID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "application belongs to another company")
		return
	}

	if application.Status == next {
		respondJSON(ctx, w, http.StatusOK, application)
		return
	}
	if !application.Status.CanTransition(next) {
		respondError(ctx, w, http.StatusConflict, "cannot move application from "+string(application.Status)+" to "+string(next))
		return
	}

	now := nowFrom(h.NowFunc)
	if err := h.Applications.UpdateStatus(ctx, application.ID, application.Status, next, now); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "application status changed, reload and retry")
			return
		}
		respondStoreError(ctx, w, err, "application")
		return
	}
	logging.FromContext(ctx).Info("application status changed", "applicationId", application.ID, "from", application.Status, "to", next)
	application.Status = next
	application.UpdatedAt = now
	respondJSON(ctx, w, http.StatusOK, application)
}
