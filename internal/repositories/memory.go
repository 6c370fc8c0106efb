package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/intega/platform/internal/models"
)

// MemoryStore keeps every entity in process memory. It enforces the same
// uniqueness and reference rules as the SQL schema so handlers behave alike
// on both backends.
type MemoryStore struct {
	mu           sync.RWMutex
	users        []models.User
	internships  []models.Internship
	applications []models.Application
	documents    []models.Document
	shares       []models.SharedDocument
	requests     []models.DocumentRequest
	partnerships []models.Partnership
	messages     []models.Message
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Users returns a UserRepository view of the store.
func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s: s} }

// Internships returns an InternshipRepository view of the store.
func (s *MemoryStore) Internships() *MemoryInternshipRepository {
	return &MemoryInternshipRepository{s: s}
}

// Applications returns an ApplicationRepository view of the store.
func (s *MemoryStore) Applications() *MemoryApplicationRepository {
	return &MemoryApplicationRepository{s: s}
}

// Documents returns a DocumentRepository view of the store.
func (s *MemoryStore) Documents() *MemoryDocumentRepository { return &MemoryDocumentRepository{s: s} }

// DocumentRequests returns a DocumentRequestRepository view of the store.
func (s *MemoryStore) DocumentRequests() *MemoryDocumentRequestRepository {
	return &MemoryDocumentRequestRepository{s: s}
}

// Partnerships returns a PartnershipRepository view of the store.
func (s *MemoryStore) Partnerships() *MemoryPartnershipRepository {
	return &MemoryPartnershipRepository{s: s}
}

// Messages returns a MessageRepository view of the store.
func (s *MemoryStore) Messages() *MemoryMessageRepository { return &MemoryMessageRepository{s: s} }

func (s *MemoryStore) userIndex(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) internshipIndex(id string) int {
	for i := range s.internships {
		if s.internships[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) documentIndex(id string) int {
	for i := range s.documents {
		if s.documents[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) activePartnership(schoolID, companyID string) bool {
	for _, p := range s.partnerships {
		if p.SchoolID == schoolID && p.CompanyID == companyID && p.Status == models.PartnershipActive {
			return true
		}
	}
	return false
}

// newestFirst walks items from the most recently inserted backwards.
func newestFirst[T any](items []T, keep func(T) bool) []T {
	var out []T
	for i := len(items) - 1; i >= 0; i-- {
		if keep(items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// MemoryUserRepository implements UserRepository on a MemoryStore.
type MemoryUserRepository struct{ s *MemoryStore }

// Create stores the user; emails are unique case-insensitively.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.ID == user.ID || strings.EqualFold(existing.Email, user.Email) {
			return ErrConflict
		}
	}
	r.s.users = append(r.s.users, user)
	return nil
}

// FindByEmail looks a user up by email.
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindByID looks a user up by id.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.s.userIndex(id); i >= 0 {
		return r.s.users[i], nil
	}
	return models.User{}, ErrNotFound
}

// Update replaces the stored user.
func (r *MemoryUserRepository) Update(_ context.Context, user models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.userIndex(user.ID)
	if i < 0 {
		return ErrNotFound
	}
	for _, existing := range r.s.users {
		if existing.ID != user.ID && strings.EqualFold(existing.Email, user.Email) {
			return ErrConflict
		}
	}
	user.Type = r.s.users[i].Type
	user.CreatedAt = r.s.users[i].CreatedAt
	r.s.users[i] = user
	return nil
}

// MemoryInternshipRepository implements InternshipRepository on a MemoryStore.
type MemoryInternshipRepository struct{ s *MemoryStore }

// Create stores the internship.
func (r *MemoryInternshipRepository) Create(_ context.Context, in models.Internship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.internshipIndex(in.ID) >= 0 {
		return ErrConflict
	}
	if r.s.userIndex(in.CompanyID) < 0 {
		return ErrNotFound
	}
	in.Skills = append([]string(nil), in.Skills...)
	r.s.internships = append(r.s.internships, in)
	return nil
}

// FindByID loads one internship.
func (r *MemoryInternshipRepository) FindByID(_ context.Context, id string) (models.Internship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.s.internshipIndex(id); i >= 0 {
		return r.s.internships[i], nil
	}
	return models.Internship{}, ErrNotFound
}

// List returns internships matching the query, newest first.
func (r *MemoryInternshipRepository) List(_ context.Context, q InternshipQuery) ([]models.Internship, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.internships, func(in models.Internship) bool {
		if q.CompanyID != "" && in.CompanyID != q.CompanyID {
			return false
		}
		if q.PartneredSchoolID != "" && !r.s.activePartnership(q.PartneredSchoolID, in.CompanyID) {
			return false
		}
		if q.Status != "" && in.Status != q.Status {
			return false
		}
		if q.ActiveOnly && !in.IsActive {
			return false
		}
		return true
	}), nil
}

// UpdateStatus records a review decision.
func (r *MemoryInternshipRepository) UpdateStatus(_ context.Context, id string, from, to models.InternshipStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.internshipIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	if r.s.internships[i].Status != from {
		return ErrConflict
	}
	r.s.internships[i].Status = to
	r.s.internships[i].UpdatedAt = at
	return nil
}

// SetActive toggles visibility.
func (r *MemoryInternshipRepository) SetActive(_ context.Context, id string, active bool, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.internshipIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	r.s.internships[i].IsActive = active
	r.s.internships[i].UpdatedAt = at
	return nil
}

// MemoryApplicationRepository implements ApplicationRepository on a MemoryStore.
type MemoryApplicationRepository struct{ s *MemoryStore }

// Create stores the application; one per student and internship.
func (r *MemoryApplicationRepository) Create(_ context.Context, app models.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.internshipIndex(app.InternshipID) < 0 || r.s.userIndex(app.StudentID) < 0 {
		return ErrNotFound
	}
	for _, existing := range r.s.applications {
		if existing.ID == app.ID || (existing.InternshipID == app.InternshipID && existing.StudentID == app.StudentID) {
			return ErrConflict
		}
	}
	r.s.applications = append(r.s.applications, app)
	return nil
}

// FindByID loads one application.
func (r *MemoryApplicationRepository) FindByID(_ context.Context, id string) (models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, app := range r.s.applications {
		if app.ID == id {
			return app, nil
		}
	}
	return models.Application{}, ErrNotFound
}

// ListByStudent returns the student's applications, newest first.
func (r *MemoryApplicationRepository) ListByStudent(_ context.Context, studentID string) ([]models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.applications, func(app models.Application) bool {
		return app.StudentID == studentID
	}), nil
}

// ListByCompany returns applications to the company's internships, newest first.
func (r *MemoryApplicationRepository) ListByCompany(_ context.Context, companyID string) ([]models.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.applications, func(app models.Application) bool {
		i := r.s.internshipIndex(app.InternshipID)
		return i >= 0 && r.s.internships[i].CompanyID == companyID
	}), nil
}

// UpdateStatus stores a new status.
func (r *MemoryApplicationRepository) UpdateStatus(_ context.Context, id string, from, to models.ApplicationStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.applications {
		if r.s.applications[i].ID == id {
			if r.s.applications[i].Status != from {
				return ErrConflict
			}
			r.s.applications[i].Status = to
			r.s.applications[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

// MemoryDocumentRepository implements DocumentRepository on a MemoryStore.
type MemoryDocumentRepository struct{ s *MemoryStore }

// Create stores document metadata.
func (r *MemoryDocumentRepository) Create(_ context.Context, doc models.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.documentIndex(doc.ID) >= 0 {
		return ErrConflict
	}
	if r.s.userIndex(doc.OwnerID) < 0 {
		return ErrNotFound
	}
	r.s.documents = append(r.s.documents, doc)
	return nil
}

// FindByID loads document metadata.
func (r *MemoryDocumentRepository) FindByID(_ context.Context, id string) (models.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.s.documentIndex(id); i >= 0 {
		return r.s.documents[i], nil
	}
	return models.Document{}, ErrNotFound
}

// ListByOwner returns the owner's documents, newest first.
func (r *MemoryDocumentRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.documents, func(doc models.Document) bool {
		return doc.OwnerID == ownerID
	}), nil
}

// MarkStored records the storage key and size.
func (r *MemoryDocumentRepository) MarkStored(_ context.Context, id, path string, size int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.documentIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	r.s.documents[i].Path = path
	r.s.documents[i].Size = size
	r.s.documents[i].StorageStatus = models.StorageReady
	return nil
}

// MarkFailed flags the document as not stored.
func (r *MemoryDocumentRepository) MarkFailed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.documentIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	r.s.documents[i].StorageStatus = models.StorageFailed
	return nil
}

// Share stores a share record.
func (r *MemoryDocumentRepository) Share(_ context.Context, share models.SharedDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.documentIndex(share.DocumentID) < 0 || r.s.userIndex(share.RecipientID) < 0 {
		return ErrNotFound
	}
	for _, existing := range r.s.shares {
		if existing.ID == share.ID {
			return ErrConflict
		}
	}
	share.Document = models.Document{}
	r.s.shares = append(r.s.shares, share)
	return nil
}

// withDocument attaches the current document metadata; callers hold the lock.
func (r *MemoryDocumentRepository) withDocument(share models.SharedDocument) models.SharedDocument {
	if i := r.s.documentIndex(share.DocumentID); i >= 0 {
		share.Document = r.s.documents[i]
	}
	return share
}

// FindShare loads a share with its document.
func (r *MemoryDocumentRepository) FindShare(_ context.Context, id string) (models.SharedDocument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, share := range r.s.shares {
		if share.ID == id {
			return r.withDocument(share), nil
		}
	}
	return models.SharedDocument{}, ErrNotFound
}

// ListSharedWith returns shares received or forwarded to the user, newest first.
func (r *MemoryDocumentRepository) ListSharedWith(_ context.Context, recipientID string) ([]models.SharedDocument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	shares := newestFirst(r.s.shares, func(share models.SharedDocument) bool {
		return share.RecipientID == recipientID ||
			(share.ForwardedToCompanyID != nil && *share.ForwardedToCompanyID == recipientID)
	})
	for i := range shares {
		shares[i] = r.withDocument(shares[i])
	}
	return shares, nil
}

// Forward sets the forward target once.
func (r *MemoryDocumentRepository) Forward(_ context.Context, shareID, companyID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userIndex(companyID) < 0 {
		return ErrNotFound
	}
	for i := range r.s.shares {
		if r.s.shares[i].ID != shareID {
			continue
		}
		if r.s.shares[i].Forwarded() {
			return ErrConflict
		}
		company := companyID
		forwardedAt := at
		r.s.shares[i].ForwardedToCompanyID = &company
		r.s.shares[i].ForwardedAt = &forwardedAt
		return nil
	}
	return ErrNotFound
}

// CanAccess reports whether the user owns, received, or was forwarded the document.
func (r *MemoryDocumentRepository) CanAccess(_ context.Context, documentID, userID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i := r.s.documentIndex(documentID); i >= 0 && r.s.documents[i].OwnerID == userID {
		return true, nil
	}
	for _, share := range r.s.shares {
		if share.DocumentID != documentID {
			continue
		}
		if share.RecipientID == userID || (share.ForwardedToCompanyID != nil && *share.ForwardedToCompanyID == userID) {
			return true, nil
		}
	}
	return false, nil
}

// MemoryDocumentRequestRepository implements DocumentRequestRepository on a MemoryStore.
type MemoryDocumentRequestRepository struct{ s *MemoryStore }

// Create stores a document request.
func (r *MemoryDocumentRequestRepository) Create(_ context.Context, req models.DocumentRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userIndex(req.StudentID) < 0 || r.s.userIndex(req.SchoolID) < 0 {
		return ErrNotFound
	}
	for _, existing := range r.s.requests {
		if existing.ID == req.ID {
			return ErrConflict
		}
	}
	r.s.requests = append(r.s.requests, req)
	return nil
}

// FindByID loads one request.
func (r *MemoryDocumentRequestRepository) FindByID(_ context.Context, id string) (models.DocumentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return models.DocumentRequest{}, ErrNotFound
}

// List returns requests matching the query, newest first.
func (r *MemoryDocumentRequestRepository) List(_ context.Context, q DocumentRequestQuery) ([]models.DocumentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.requests, func(req models.DocumentRequest) bool {
		if q.StudentID != "" && req.StudentID != q.StudentID {
			return false
		}
		if q.SchoolID != "" && req.SchoolID != q.SchoolID {
			return false
		}
		return true
	}), nil
}

// UpdateStatus stores the resolution.
func (r *MemoryDocumentRequestRepository) UpdateStatus(_ context.Context, id string, from, to models.DocumentRequestStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.requests {
		if r.s.requests[i].ID == id {
			if r.s.requests[i].Status != from {
				return ErrConflict
			}
			r.s.requests[i].Status = to
			r.s.requests[i].UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

// MemoryPartnershipRepository implements PartnershipRepository on a MemoryStore.
type MemoryPartnershipRepository struct{ s *MemoryStore }

// Create stores a partnership; the school/company pair is unique.
func (r *MemoryPartnershipRepository) Create(_ context.Context, p models.Partnership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userIndex(p.SchoolID) < 0 || r.s.userIndex(p.CompanyID) < 0 {
		return ErrNotFound
	}
	for _, existing := range r.s.partnerships {
		if existing.ID == p.ID || (existing.SchoolID == p.SchoolID && existing.CompanyID == p.CompanyID) {
			return ErrConflict
		}
	}
	r.s.partnerships = append(r.s.partnerships, p)
	return nil
}

// FindByID loads one partnership.
func (r *MemoryPartnershipRepository) FindByID(_ context.Context, id string) (models.Partnership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.partnerships {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Partnership{}, ErrNotFound
}

// ListForUser returns partnerships involving the user, newest first.
func (r *MemoryPartnershipRepository) ListForUser(_ context.Context, userID string) ([]models.Partnership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return newestFirst(r.s.partnerships, func(p models.Partnership) bool {
		return p.SchoolID == userID || p.CompanyID == userID
	}), nil
}

// SetStatus activates or deactivates a partnership.
func (r *MemoryPartnershipRepository) SetStatus(_ context.Context, id string, status models.PartnershipStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.partnerships {
		if r.s.partnerships[i].ID == id {
			r.s.partnerships[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

// IsActive reports whether an active partnership exists.
func (r *MemoryPartnershipRepository) IsActive(_ context.Context, schoolID, companyID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.activePartnership(schoolID, companyID), nil
}

// MemoryMessageRepository implements MessageRepository on a MemoryStore.
type MemoryMessageRepository struct{ s *MemoryStore }

// Create stores a message.
func (r *MemoryMessageRepository) Create(_ context.Context, m models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.userIndex(m.SenderID) < 0 || r.s.userIndex(m.ReceiverID) < 0 {
		return ErrNotFound
	}
	for _, existing := range r.s.messages {
		if existing.ID == m.ID {
			return ErrConflict
		}
	}
	r.s.messages = append(r.s.messages, m)
	return nil
}

// FindByID loads one message.
func (r *MemoryMessageRepository) FindByID(_ context.Context, id string) (models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Message{}, ErrNotFound
}

// ListBetween returns the thread between two users, oldest first.
func (r *MemoryMessageRepository) ListBetween(_ context.Context, userID, peerID string) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Message
	for _, m := range r.s.messages {
		if (m.SenderID == userID && m.ReceiverID == peerID) || (m.SenderID == peerID && m.ReceiverID == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListConversations summarises the user's threads.
func (r *MemoryMessageRepository) ListConversations(_ context.Context, userID string) ([]models.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var mine []models.Message
	for _, m := range r.s.messages {
		if m.SenderID == userID || m.ReceiverID == userID {
			mine = append(mine, m)
		}
	}
	return buildConversations(userID, mine), nil
}

// MarkRead flags the message as read.
func (r *MemoryMessageRepository) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.messages {
		if r.s.messages[i].ID == id {
			r.s.messages[i].IsRead = true
			return nil
		}
	}
	return ErrNotFound
}

var _ UserRepository = (*MemoryUserRepository)(nil)
var _ InternshipRepository = (*MemoryInternshipRepository)(nil)
var _ ApplicationRepository = (*MemoryApplicationRepository)(nil)
var _ DocumentRepository = (*MemoryDocumentRepository)(nil)
var _ DocumentRequestRepository = (*MemoryDocumentRequestRepository)(nil)
var _ PartnershipRepository = (*MemoryPartnershipRepository)(nil)
var _ MessageRepository = (*MemoryMessageRepository)(nil)
