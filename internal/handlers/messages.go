package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/models"
)

// MessageHandler serves direct messaging between users.
type MessageHandler struct {
	Messages MessageStore
	Users    UserLookup
	NowFunc  func() time.Time
}

// Conversations handles GET /api/v1/messages/conversations.
func (h MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	convs, err := h.Messages.ListConversations(r.Context(), p.UserID)
	if err != nil {
		respondStoreError(r.Context(), w, err, "conversations")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(convs))
}

// Thread handles GET /api/v1/messages/with/{peerId}, oldest first.
func (h MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	msgs, err := h.Messages.ListBetween(r.Context(), p.UserID, r.PathValue("peerId"))
	if err != nil {
		respondStoreError(r.Context(), w, err, "messages")
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, nonNil(msgs))
}

// Send handles POST /api/v1/messages.
func (h MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req form.Message
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.ReceiverID == p.UserID {
		respondError(ctx, w, http.StatusBadRequest, "cannot message yourself")
		return
	}
	if _, err := h.Users.FindByID(ctx, req.ReceiverID); err != nil {
		respondStoreError(ctx, w, err, "receiver")
		return
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   p.UserID,
		ReceiverID: req.ReceiverID,
		Content:    strings.TrimSpace(req.Content),
		CreatedAt:  nowFrom(h.NowFunc),
	}
	if err := h.Messages.Create(ctx, msg); err != nil {
		respondStoreError(ctx, w, err, "message")
		return
	}
	respondJSON(ctx, w, http.StatusCreated, msg)
}

// MarkRead handles PATCH /api/v1/messages/{id}/read. Only the receiver may
// mark a message read.
func (h MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	msg, err := h.Messages.FindByID(ctx, r.PathValue("id"))
	if err != nil {
		respondStoreError(ctx, w, err, "message")
		return
	}
	if msg.ReceiverID != p.UserID {
		respondError(ctx, w, http.StatusForbidden, "only the receiver can mark a message read")
		return
	}
	if !msg.IsRead {
		if err := h.Messages.MarkRead(ctx, msg.ID); err != nil {
			respondStoreError(ctx, w, err, "message")
			return
		}
		msg.IsRead = true
	}
	respondJSON(ctx, w, http.StatusOK, msg)
}
