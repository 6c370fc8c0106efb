package handlers

import (
	"context"
	"io"
	"time"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/documents"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
}

// SessionManager issues, refreshes and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, principal auth.Principal) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Verify(accessToken string) (auth.Principal, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// InternshipStore captures internship persistence.
type InternshipStore interface {
	Create(ctx context.Context, internship models.Internship) error
	FindByID(ctx context.Context, id string) (models.Internship, error)
	List(ctx context.Context, q repositories.InternshipQuery) ([]models.Internship, error)
	UpdateStatus(ctx context.Context, id string, from, to models.InternshipStatus, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}

// ApplicationStore captures application persistence.
type ApplicationStore interface {
	Create(ctx context.Context, application models.Application) error
	FindByID(ctx context.Context, id string) (models.Application, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Application, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) error
}

// DocumentStore captures document and share persistence.
type DocumentStore interface {
	Create(ctx context.Context, doc models.Document) error
	FindByID(ctx context.Context, id string) (models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
	MarkFailed(ctx context.Context, id string) error
	Share(ctx context.Context, share models.SharedDocument) error
	FindShare(ctx context.Context, id string) (models.SharedDocument, error)
	ListSharedWith(ctx context.Context, recipientID string) ([]models.SharedDocument, error)
	Forward(ctx context.Context, shareID, companyID string, at time.Time) error
	CanAccess(ctx context.Context, documentID, userID string) (bool, error)
}

// DocumentIngestor schedules background persistence of uploaded bytes.
type DocumentIngestor interface {
	Enqueue(ctx context.Context, upload documents.Upload) error
}

// ObjectOpener streams stored document bytes.
type ObjectOpener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// DocumentRequestStore captures document request persistence.
type DocumentRequestStore interface {
	Create(ctx context.Context, request models.DocumentRequest) error
	FindByID(ctx context.Context, id string) (models.DocumentRequest, error)
	List(ctx context.Context, q repositories.DocumentRequestQuery) ([]models.DocumentRequest, error)
	UpdateStatus(ctx context.Context, id string, from, to models.DocumentRequestStatus, at time.Time) error
}

// PartnershipStore captures partnership persistence.
type PartnershipStore interface {
	Create(ctx context.Context, partnership models.Partnership) error
	FindByID(ctx context.Context, id string) (models.Partnership, error)
	ListForUser(ctx context.Context, userID string) ([]models.Partnership, error)
	SetStatus(ctx context.Context, id string, status models.PartnershipStatus) error
	IsActive(ctx context.Context, schoolID, companyID string) (bool, error)
}

// MessageStore captures message persistence.
type MessageStore interface {
	Create(ctx context.Context, message models.Message) error
	FindByID(ctx context.Context, id string) (models.Message, error)
	ListBetween(ctx context.Context, userID, peerID string) ([]models.Message, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	MarkRead(ctx context.Context, id string) error
}

// UserLookup resolves users referenced by id in request bodies.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}
