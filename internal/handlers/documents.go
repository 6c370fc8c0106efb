package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/documents"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/logging"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/storage"
)

// multipartOverhead allows for form boundaries and the type field on top of
// the file itself.
const multipartOverhead = 64 << 10

// DocumentHandler serves uploads, sharing and forwarding of documents.
type DocumentHandler struct {
	Documents      DocumentStore
	Users          UserLookup
	Ingestor       DocumentIngestor
	Objects        ObjectOpener
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Upload handles POST /api/v1/documents as multipart/form-data with a file
// part and a type field. Bytes are persisted in the background; the document
// is returned with a pending storage status.
func (h DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(ctx, w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		respondError(ctx, w, http.StatusBadRequest, "invalid file part")
		return
	}
	req := form.DocumentUpload{Type: strings.TrimSpace(r.FormValue("type"))}
	if header != nil {
		req.File = header.Filename
	}
	if !validate(w, r, req) {
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "unable to read file")
		return
	}
	if int64(len(data)) > h.MaxUploadBytes {
		respondError(ctx, w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
		return
	}

	doc := models.Document{
		ID:            uuid.NewString(),
		OwnerID:       p.UserID,
		Name:          header.Filename,
		Type:          req.Type,
		Size:          int64(len(data)),
		StorageStatus: models.StoragePending,
		CreatedAt:     nowFrom(h.NowFunc),
	}
	if err := h.Documents.Create(ctx, doc); err != nil {
		respondStoreError(ctx, w, err, "document")
		return
	}

	upload := documents.Upload{
		DocumentID:  doc.ID,
		Filename:    doc.Name,
		ContentType: storage.ContentType(doc.Name),
		Data:        data,
	}
	if err := h.Ingestor.Enqueue(ctx, upload); err != nil {
		logger.Error("enqueue document upload", "documentId", doc.ID, "error", err)
		if markErr := h.Documents.MarkFailed(ctx, doc.ID); markErr != nil {
			logger.Error("mark document failed", "documentId", doc.ID, "error", markErr)
		}
		respondError(ctx, w, http.StatusServiceUnavailable, "document storage is unavailable")
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, doc)
}

// List handles GET /api/v1/documents.
func (h DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	docs, err := h.Documents.ListByOwner(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "documents")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(docs))
}

// Content handles GET /api/v1/documents/{id}/content for the owner and
// anyone the document was shared or forwarded to.
func (h DocumentHandler) Content(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}

	doc, err := h.Documents.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "document")
		return
	}
	allowed, err := h.Documents.CanAccess(ctx, doc.ID, p.UserID)
	if err != nil {
		respondStoreError(ctx, w, err, "document")
		return
	}
	if !allowed {
		respondError(ctx, w, http.StatusForbidden, "document is not shared with you")
		return
	}
	if doc.StorageStatus != models.StorageReady {
		respondError(ctx, w, http.StatusConflict, "document is "+doc.StorageStatus.Label())
		return
	}

	body, err := h.Objects.Open(ctx, doc.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(ctx, w, http.StatusNotFound, "document content not found")
			return
		}
		logging.FromContext(ctx).Error("open document content", "documentId", doc.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to read document")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", storage.ContentType(doc.Name))
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(doc.Name, `"`, "")+`"`)
	if doc.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(ctx).Warn("stream document content", "documentId", doc.ID, "error", err)
	}
}

// Share handles POST /api/v1/documents/{id}/share. The share references the
// document; nothing is copied.
func (h DocumentHandler) Share(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		RecipientID string `json:"recipientId"`
	}
	if !decodeAndValidate(w, r, &body) {
		return
	}
	req := form.ShareExisting{DocumentID: r.PathValue("id"), RecipientID: body.RecipientID}
	if !validate(w, r, req) {
		return
	}

	doc, err := h.Documents.FindByID(ctx, req.DocumentID)
	if err != nil {
		respondStoreError(ctx, w, err, "document")
		return
	}
	if doc.OwnerID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "only the owner can share a document")
		return
	}
	if req.RecipientID == p.UserID {
		respondError(ctx, w, http.StatusBadRequest, "cannot share a document with yourself")
		return
	}
	if _, err := h.Users.FindByID(ctx, req.RecipientID); err != nil {
		respondStoreError(ctx, w, err, "recipient")
		return
	}

	share := models.SharedDocument{
		ID:          uuid.NewString(),
		DocumentID:  doc.ID,
		OwnerID:     doc.OwnerID,
		RecipientID: req.RecipientID,
		SharedAt:    nowFrom(h.NowFunc),
		Document:    doc,
	}
	if err := h.Documents.Share(ctx, share); err != nil {
		respondStoreError(ctx, w, err, "share")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, share)
}

// ListShared handles GET /api/v1/documents/shared.
func (h DocumentHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	shares, err := h.Documents.ListSharedWith(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "shared documents")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(shares))
}

// Forward handles POST /api/v1/documents/shared/{id}/forward. A share can be
// forwarded to one company, once.
func (h DocumentHandler) Forward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.Forward
	if !decodeAndValidate(w, r, &req) {
		return
	}

	share, err := h.Documents.FindShare(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "share")
		return
	}
	if share.RecipientID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "only the recipient can forward a document")
		return
	}
	if share.Forwarded() {
		respondError(ctx, w, http.StatusConflict, "document has already been forwarded")
		return
	}

	company, err := h.Users.FindByID(ctx, req.CompanyID)
	if err != nil {
		respondStoreError(ctx, w, err, "company")
		return
	}
	if company.Type != models.UserCompany {
		respondError(ctx, w, http.StatusBadRequest, "documents can only be forwarded to a company")
		return
	}

	now := nowFrom(h.NowFunc)
	if err := h.Documents.Forward(ctx, share.ID, company.ID, now); err != nil {
		respondStoreError(ctx, w, err, "share")
		return
	}
	share.ForwardedToCompanyID = &company.ID
	share.ForwardedAt = &now
	respondJSON(ctx, w, http.StatusOK, share)
}
