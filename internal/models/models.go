package models

import "time"

// User represents an account within the Intega platform.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Type      UserType  `json:"userType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Internship is a position posted by a company. Students only see it once a
// partnered school has approved it and the company keeps it active.
type Internship struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"companyId"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Location      string           `json:"location"`
	DurationWeeks int              `json:"durationWeeks"`
	Skills        []string         `json:"skills"`
	Status        InternshipStatus `json:"status"`
	IsActive      bool             `json:"isActive"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Visible reports whether students may browse and apply to the internship.
func (i Internship) Visible() bool {
	return i.Status == InternshipApproved && i.IsActive
}

// Application is a student's submission against one internship.
type Application struct {
	ID           string            `json:"id"`
	InternshipID string            `json:"internshipId"`
	StudentID    string            `json:"studentId"`
	CoverLetter  string            `json:"coverLetter,omitempty"`
	Status       ApplicationStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Document is an uploaded file owned by a single user. The bytes live in
// object storage under Path once StorageStatus is ready.
type Document struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"ownerId"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	Path          string        `json:"path"`
	Size          int64         `json:"size"`
	StorageStatus StorageStatus `json:"storageStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// SharedDocument makes a document visible to a recipient by reference. The
// recipient may forward it to a company exactly once.
type SharedDocument struct {
	ID                   string     `json:"id"`
	DocumentID           string     `json:"documentId"`
	OwnerID              string     `json:"ownerId"`
	RecipientID          string     `json:"recipientId"`
	ForwardedToCompanyID *string    `json:"forwardedToCompanyId"`
	SharedAt             time.Time  `json:"sharedAt"`
	ForwardedAt          *time.Time `json:"forwardedAt,omitempty"`
	Document             Document   `json:"document"`
}

// Forwarded reports whether the share has already been forwarded.
func (s SharedDocument) Forwarded() bool {
	return s.ForwardedToCompanyID != nil && *s.ForwardedToCompanyID != ""
}

// DocumentRequest is a student-initiated ask to a school for an administrative document.
type DocumentRequest struct {
	ID            string                `json:"id"`
	StudentID     string                `json:"studentId"`
	SchoolID      string                `json:"schoolId"`
	ApplicationID *string               `json:"applicationId,omitempty"`
	RequestType   DocumentRequestType   `json:"requestType"`
	Message       string                `json:"message"`
	Status        DocumentRequestStatus `json:"status"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// Partnership links a school and a company. An active partnership lets the
// school review the company's internships.
type Partnership struct {
	ID        string            `json:"id"`
	SchoolID  string            `json:"schoolId"`
	CompanyID string            `json:"companyId"`
	Status    PartnershipStatus `json:"status"`
	StartDate time.Time         `json:"startDate"`
}

// Message is a direct message between two users.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Conversation is derived from the messages exchanged with a peer; it is never stored.
type Conversation struct {
	PeerID      string  `json:"peerId"`
	LastMessage Message `json:"lastMessage"`
	UnreadCount int     `json:"unreadCount"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
