package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
)

// PartnershipHandler lets schools manage partnerships with companies.
type PartnershipHandler struct {
	Partnerships PartnershipStore
	Users        UserLookup
	NowFunc      func() time.Time
}

// List handles GET /api/v1/partnerships.
func (h PartnershipHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	items, err := h.Partnerships.ListForUser(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "partnerships")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(items))
}

// Create handles POST /api/v1/partnerships.
func (h PartnershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.Partnership
	if !decodeAndValidate(w, r, &req) {
		return
	}

	company, err := h.Users.FindByID(ctx, req.CompanyID)
	if err != nil {
		respondStoreError(ctx, w, err, "company")
		return
	}
	if company.Type != models.UserCompany {
		respondError(ctx, w, http.StatusBadRequest, "partnerships are formed with companies")
		return
	}

	partnership := models.Partnership{
		ID:        uuid.NewString(),
		SchoolID:  p.UserID,
		CompanyID: company.ID,
		Status:    models.PartnershipActive,
		StartDate: nowFrom(h.NowFunc),
	}
	if err := h.Partnerships.Create(ctx, partnership); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "partnership already exists")
			return
		}
		respondStoreError(ctx, w, err, "partnership")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, partnership)
}

// SetStatus handles PATCH /api/v1/partnerships/{id}/status.
func (h PartnershipHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.PartnershipStatus
	if !decodeAndValidate(w, r, &req) {
		return
	}

	partnership, err := h.Partnerships.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "partnership")
		return
	}
	if partnership.SchoolID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "partnership belongs to another school")
		return
	}

	status := models.PartnershipStatus(req.Status)
	if err := h.Partnerships.SetStatus(ctx, partnership.ID, status); err != nil {
		respondStoreError(ctx, w, err, "partnership")
		return
	}
	partnership.Status = status
	respondJSON(ctx, w, http.StatusOK, partnership)
}
