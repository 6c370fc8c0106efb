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

// InternshipHandler serves the internship catalog and its review workflow.
type InternshipHandler struct {
	Internships  InternshipStore
	Partnerships PartnershipStore
	NowFunc      func() time.Time
}

// List handles GET /api/v1/internships: the approved, active catalog.
func (h InternshipHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, repositories.InternshipQuery{Status: models.InternshipApproved, ActiveOnly: true})
}

// ListCompany handles GET /api/v1/internships/company.
func (h InternshipHandler) ListCompany(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	h.list(w, r, repositories.InternshipQuery{CompanyID: p.UserID})
}

// ListSchool handles GET /api/v1/internships/school.
func (h InternshipHandler) ListSchool(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	h.list(w, r, repositories.InternshipQuery{PartneredSchoolID: p.UserID})
}

func (h InternshipHandler) list(w http.ResponseWriter, r *http.Request, q repositories.InternshipQuery) {
	items, err := h.Internships.List(r.Context(), q)
	if err != nil {
		respondStoreError(r.Context(), w, err, "internships")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(items))
}

// Create handles POST /api/v1/internships.
func (h InternshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.Internship
	if !decodeAndValidate(w, r, &req) {
		return
	}

	now := nowFrom(h.NowFunc)
	internship := models.Internship{
		ID:            uuid.NewString(),
		CompanyID:     p.UserID,
		Title:         strings.TrimSpace(req.Title),
		Description:   strings.TrimSpace(req.Description),
		Location:      strings.TrimSpace(req.Location),
		DurationWeeks: req.DurationWeeks,
		Skills:        normalizeSkills(req.Skills),
		Status:        models.InternshipPending,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.Internships.Create(r.Context(), internship); err != nil {
		respondStoreError(r.Context(), w, err, "internship")
		return
	}
	respondJSON(r.Context(), w, http.StatusCreated, internship)
}

// Review handles PATCH /api/v1/internships/{id}/status. Only a school with an
// active partnership with the company may decide, and only once.
func (h InternshipHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.InternshipReview
	if !decodeAndValidate(w, r, &req) {
		return
	}

	internship, err := h.Internships.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "internship")
		return
	}

	partnered, err := h.Partnerships.IsActive(ctx, p.UserID, internship.CompanyID)
	if err != nil {
		respondStoreError(ctx, w, err, "partnership")
		return
	}
	if !partnered {
		respondError(ctx, w, http.StatusForbidden, "no active partnership with this company")
		return
	}

	if internship.Status != models.InternshipPending {
		respondError(ctx, w, http.StatusConflict, "internship has already been reviewed")
		return
	}

	now := nowFrom(h.NowFunc)
	next := models.InternshipStatus(req.Status)
	if err := h.Internships.UpdateStatus(ctx, internship.ID, models.InternshipPending, next, now); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "internship has already been reviewed")
			return
		}
		respondStoreError(ctx, w, err, "internship")
		return
	}
	internship.Status = next
	internship.UpdatedAt = now
	logging.FromContext(ctx).Info("internship reviewed", "internshipId", internship.ID, "status", internship.Status)
	respondJSON(ctx, w, http.StatusOK, internship)
}

// SetActive handles PATCH /api/v1/internships/{id}/active.
func (h InternshipHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.InternshipActive
	if !decodeAndValidate(w, r, &req) {
		return
	}

	internship, err := h.Internships.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "internship")
		return
	}
	if internship.CompanyID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "internship belongs to another company")
		return
	}

	now := nowFrom(h.NowFunc)
	if err := h.Internships.SetActive(ctx, internship.ID, *req.IsActive, now); err != nil {
		respondStoreError(ctx, w, err, "internship")
		return
	}
	internship.IsActive = *req.IsActive
	internship.UpdatedAt = now
	respondJSON(ctx, w, http.StatusOK, internship)
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup || skill == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
