package form

// SignUp registers a new account.
type SignUp struct {
	Username        string `json:"username" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	UserType        string `json:"userType" validate:"required,oneof=STUDENT COMPANY SCHOOL"`
}

// Login authenticates an existing account.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Internship is the company's posting form.
type Internship struct {
	Title         string   `json:"title" validate:"required,min=3,max=120"`
	Description   string   `json:"description" validate:"required,min=10,max=5000"`
	Location      string   `json:"location" validate:"required,max=120"`
	DurationWeeks int      `json:"durationWeeks" validate:"required,min=1,max=52"`
	Skills        []string `json:"skills" validate:"max=20,dive,required,max=40"`
}

// InternshipReview is a school's decision on a pending internship.
type InternshipReview struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// InternshipActive toggles whether a company's internship is open. The flag
// is a pointer so an omitted value is rejected instead of closing the listing.
type InternshipActive struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// Application is a student's submission.
type Application struct {
	InternshipID string `json:"internshipId" validate:"required,uuid"`
	CoverLetter  string `json:"coverLetter" validate:"max=5000"`
}

// ApplicationStatus moves an application through review.
type ApplicationStatus struct {
	Status string `json:"status" validate:"required,oneof=pending reviewing interviewing accepted rejected"`
}

// DocumentShare uploads a local file and shares it in one step. File is the
// path of the selected file and must be set.
type DocumentShare struct {
	File        string `json:"file" validate:"required"`
	Type        string `json:"type" validate:"required,max=60"`
	RecipientID string `json:"recipientId" validate:"required,uuid"`
}

// DocumentUpload stores a document without sharing it.
type DocumentUpload struct {
	File string `json:"file" validate:"required"`
	Type string `json:"type" validate:"required,max=60"`
}

// ShareExisting shares an already uploaded document.
type ShareExisting struct {
	DocumentID  string `json:"documentId" validate:"required,uuid"`
	RecipientID string `json:"recipientId" validate:"required,uuid"`
}

// Forward sends a received document on to a company.
type Forward struct {
	CompanyID string `json:"companyId" validate:"required,uuid"`
}

// DocumentRequest asks a school for an administrative document.
type DocumentRequest struct {
	SchoolID      string `json:"schoolId" validate:"required,uuid"`
	ApplicationID string `json:"applicationId" validate:"omitempty,uuid"`
	RequestType   string `json:"requestType" validate:"required,oneof=internship_agreement attendance_certificate transcript recommendation_letter other"`
	Message       string `json:"message" validate:"max=2000"`
}

// DocumentRequestResolve is the school's answer to a request.
type DocumentRequestResolve struct {
	Status string `json:"status" validate:"required,oneof=in_progress completed rejected"`
}

// Partnership links the calling school with a company.
type Partnership struct {
	CompanyID string `json:"companyId" validate:"required,uuid"`
}

// PartnershipStatus toggles a partnership.
type PartnershipStatus struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// Message is a direct message to another user.
type Message struct {
	ReceiverID string `json:"receiverId" validate:"required,uuid"`
	Content    string `json:"content" validate:"required,max=2000"`
}
