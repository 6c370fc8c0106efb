package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/intega/platform/internal/models"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint
	// or a one-shot state change has already happened.
	ErrConflict = errors.New("record conflict")
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// InternshipQuery narrows internship listings. Zero fields are ignored.
type InternshipQuery struct {
	CompanyID string
	// PartneredSchoolID restricts results to companies with an active
	// partnership with this school.
	PartneredSchoolID string
	Status            models.InternshipStatus
	ActiveOnly        bool
}

// InternshipRepository exposes data access for internships.
type InternshipRepository interface {
	Create(ctx context.Context, internship models.Internship) error
	FindByID(ctx context.Context, id string) (models.Internship, error)
	List(ctx context.Context, q InternshipQuery) ([]models.Internship, error)
	// UpdateStatus moves id from one status to another; ErrConflict when the
	// stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to models.InternshipStatus, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}

// ApplicationRepository exposes data access for applications.
type ApplicationRepository interface {
	Create(ctx context.Context, application models.Application) error
	FindByID(ctx context.Context, id string) (models.Application, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Application, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.Application, error)
	// UpdateStatus moves id from one status to another; ErrConflict when the
	// stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) error
}

// DocumentRepository exposes data access for documents and their shares.
type DocumentRepository interface {
	Create(ctx context.Context, doc models.Document) error
	FindByID(ctx context.Context, id string) (models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Document, error)
	MarkStored(ctx context.Context, id, path string, size int64) error
	MarkFailed(ctx context.Context, id string) error

	Share(ctx context.Context, share models.SharedDocument) error
	FindShare(ctx context.Context, id string) (models.SharedDocument, error)
	ListSharedWith(ctx context.Context, recipientID string) ([]models.SharedDocument, error)
	// Forward records the one-time forward of a share; ErrConflict if already forwarded.
	Forward(ctx context.Context, shareID, companyID string, at time.Time) error
	// CanAccess reports whether the user owns, received, or was forwarded the document.
	CanAccess(ctx context.Context, documentID, userID string) (bool, error)
}

// DocumentRequestQuery narrows document request listings.
type DocumentRequestQuery struct {
	StudentID string
	SchoolID  string
}

// DocumentRequestRepository exposes data access for document requests.
type DocumentRequestRepository interface {
	Create(ctx context.Context, request models.DocumentRequest) error
	FindByID(ctx context.Context, id string) (models.DocumentRequest, error)
	List(ctx context.Context, q DocumentRequestQuery) ([]models.DocumentRequest, error)
	// UpdateStatus moves id from one status to another; ErrConflict when the
	// stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to models.DocumentRequestStatus, at time.Time) error
}

// PartnershipRepository exposes data access for school/company partnerships.
type PartnershipRepository interface {
	Create(ctx context.Context, partnership models.Partnership) error
	FindByID(ctx context.Context, id string) (models.Partnership, error)
	ListForUser(ctx context.Context, userID string) ([]models.Partnership, error)
	SetStatus(ctx context.Context, id string, status models.PartnershipStatus) error
	IsActive(ctx context.Context, schoolID, companyID string) (bool, error)
}

// MessageRepository exposes data access for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, message models.Message) error
	FindByID(ctx context.Context, id string) (models.Message, error)
	ListBetween(ctx context.Context, userID, peerID string) ([]models.Message, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	MarkRead(ctx context.Context, id string) error
}
