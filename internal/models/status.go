package models

import "strings"

// UnknownLabel is displayed for any status value outside its enumeration.
const UnknownLabel = "Unknown"

// UserType distinguishes the three kinds of tenant on the platform.
type UserType string

const (
	UserStudent UserType = "STUDENT"
	UserCompany UserType = "COMPANY"
	UserSchool  UserType = "SCHOOL"
)

// InternshipStatus tracks the school review of an internship.
type InternshipStatus string

const (
	InternshipPending  InternshipStatus = "pending"
	InternshipApproved InternshipStatus = "approved"
	InternshipRejected InternshipStatus = "rejected"
)

// ApplicationStatus is set by the company that owns the internship.
type ApplicationStatus string

const (
	ApplicationPending      ApplicationStatus = "pending"
	ApplicationReviewing    ApplicationStatus = "reviewing"
	ApplicationInterviewing ApplicationStatus = "interviewing"
	ApplicationAccepted     ApplicationStatus = "accepted"
	ApplicationRejected     ApplicationStatus = "rejected"
)

// StorageStatus tracks asynchronous persistence of uploaded document bytes.
type StorageStatus string

const (
	StoragePending StorageStatus = "pending"
	StorageReady   StorageStatus = "ready"
	StorageFailed  StorageStatus = "failed"
)

// DocumentRequestType enumerates administrative documents a school can produce.
type DocumentRequestType string

const (
	RequestInternshipAgreement   DocumentRequestType = "internship_agreement"
	RequestAttendanceCertificate DocumentRequestType = "attendance_certificate"
	RequestTranscript            DocumentRequestType = "transcript"
	RequestRecommendationLetter  DocumentRequestType = "recommendation_letter"
	RequestOther                 DocumentRequestType = "other"
)

// DocumentRequestStatus tracks the school's handling of a request.
type DocumentRequestStatus string

const (
	RequestPending    DocumentRequestStatus = "pending"
	RequestInProgress DocumentRequestStatus = "in_progress"
	RequestCompleted  DocumentRequestStatus = "completed"
	RequestRejected   DocumentRequestStatus = "rejected"
)

// PartnershipStatus toggles a school/company relationship.
type PartnershipStatus string

const (
	PartnershipActive   PartnershipStatus = "active"
	PartnershipInactive PartnershipStatus = "inactive"
)

var userTypeLabels = map[UserType]string{
	UserStudent: "Student",
	UserCompany: "Company",
	UserSchool:  "School",
}

var internshipLabels = map[InternshipStatus]string{
	InternshipPending:  "Pending review",
	InternshipApproved: "Approved",
	InternshipRejected: "Rejected",
}

var applicationLabels = map[ApplicationStatus]string{
	ApplicationPending:      "Pending",
	ApplicationReviewing:    "Under review",
	ApplicationInterviewing: "Interviewing",
	ApplicationAccepted:     "Accepted",
	ApplicationRejected:     "Rejected",
}

var storageLabels = map[StorageStatus]string{
	StoragePending: "Uploading",
	StorageReady:   "Ready",
	StorageFailed:  "Upload failed",
}

var requestTypeLabels = map[DocumentRequestType]string{
	RequestInternshipAgreement:   "Internship agreement",
	RequestAttendanceCertificate: "Attendance certificate",
	RequestTranscript:            "Transcript",
	RequestRecommendationLetter:  "Recommendation letter",
	RequestOther:                 "Other",
}

var requestStatusLabels = map[DocumentRequestStatus]string{
	RequestPending:    "Pending",
	RequestInProgress: "In progress",
	RequestCompleted:  "Completed",
	RequestRejected:   "Rejected",
}

var partnershipLabels = map[PartnershipStatus]string{
	PartnershipActive:   "Active",
	PartnershipInactive: "Inactive",
}

func labelOf[K ~string](labels map[K]string, value K) string {
	if label, ok := labels[value]; ok {
		return label
	}
	return UnknownLabel
}

func parseEnum[K ~string](labels map[K]string, raw string, fold func(string) string) (K, bool) {
	value := K(fold(strings.TrimSpace(raw)))
	_, ok := labels[value]
	return value, ok
}

// Valid reports whether the user type is one of the known values.
func (t UserType) Valid() bool { _, ok := userTypeLabels[t]; return ok }

// Label returns the display label for the user type.
func (t UserType) Label() string { return labelOf(userTypeLabels, t) }

// ParseUserType normalises raw input; the boolean is false for unknown values.
func ParseUserType(raw string) (UserType, bool) {
	return parseEnum(userTypeLabels, raw, strings.ToUpper)
}

func (s InternshipStatus) Valid() bool   { _, ok := internshipLabels[s]; return ok }
func (s InternshipStatus) Label() string { return labelOf(internshipLabels, s) }

func ParseInternshipStatus(raw string) (InternshipStatus, bool) {
	return parseEnum(internshipLabels, raw, strings.ToLower)
}

func (s ApplicationStatus) Valid() bool   { _, ok := applicationLabels[s]; return ok }
func (s ApplicationStatus) Label() string { return labelOf(applicationLabels, s) }

// Final reports whether no further transition is allowed.
func (s ApplicationStatus) Final() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	status, ok := parseEnum(applicationLabels, raw, strings.ToLower)
	if !ok {
		// Older clients used these spellings.
		switch status {
		case "review", "in_review":
			return ApplicationReviewing, true
		case "interview":
			return ApplicationInterviewing, true
		}
	}
	return status, ok
}

// CanTransition reports whether a company may move an application from one status to another.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	switch s {
	case ApplicationPending:
		return next == ApplicationReviewing || next == ApplicationInterviewing || next == ApplicationAccepted || next == ApplicationRejected
	case ApplicationReviewing:
		return next == ApplicationInterviewing || next == ApplicationAccepted || next == ApplicationRejected
	case ApplicationInterviewing:
		return next == ApplicationAccepted || next == ApplicationRejected
	default:
		return false
	}
}

func (s StorageStatus) Valid() bool   { _, ok := storageLabels[s]; return ok }
func (s StorageStatus) Label() string { return labelOf(storageLabels, s) }

func (t DocumentRequestType) Valid() bool   { _, ok := requestTypeLabels[t]; return ok }
func (t DocumentRequestType) Label() string { return labelOf(requestTypeLabels, t) }

func ParseDocumentRequestType(raw string) (DocumentRequestType, bool) {
	return parseEnum(requestTypeLabels, raw, strings.ToLower)
}

func (s DocumentRequestStatus) Valid() bool   { _, ok := requestStatusLabels[s]; return ok }
func (s DocumentRequestStatus) Label() string { return labelOf(requestStatusLabels, s) }

func ParseDocumentRequestStatus(raw string) (DocumentRequestStatus, bool) {
	return parseEnum(requestStatusLabels, raw, strings.ToLower)
}

// CanTransition reports whether a school may move a request to next.
func (s DocumentRequestStatus) CanTransition(next DocumentRequestStatus) bool {
	switch s {
	case RequestPending:
		return next == RequestInProgress || next == RequestCompleted || next == RequestRejected
	case RequestInProgress:
		return next == RequestCompleted || next == RequestRejected
	default:
		return false
	}
}

func (s PartnershipStatus) Valid() bool   { _, ok := partnershipLabels[s]; return ok }
func (s PartnershipStatus) Label() string { return labelOf(partnershipLabels, s) }

func ParsePartnershipStatus(raw string) (PartnershipStatus, bool) {
	return parseEnum(partnershipLabels, raw, strings.ToLower)
}
