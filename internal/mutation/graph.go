package mutation

import "github.com/intega/platform/internal/query"

// Kind names a write the client can perform.
type Kind string

const (
	SignUp                 Kind = "sign_up"
	Login                  Kind = "login"
	Logout                 Kind = "logout"
	CreateInternship       Kind = "create_internship"
	ReviewInternship       Kind = "review_internship"
	ToggleInternship       Kind = "toggle_internship"
	Apply                  Kind = "apply"
	UpdateApplication      Kind = "update_application_status"
	UploadDocument         Kind = "upload_document"
	ShareDocument          Kind = "share_document"
	ForwardDocument        Kind = "forward_document"
	CreateDocumentRequest  Kind = "create_document_request"
	ResolveDocumentRequest Kind = "resolve_document_request"
	CreatePartnership      Kind = "create_partnership"
	SetPartnershipStatus   Kind = "set_partnership_status"
	SendMessage            Kind = "send_message"
	MarkMessageRead        Kind = "mark_message_read"
)

// All in a graph entry clears the whole cache.
const All = "*"

// Kinds lists every known mutation kind.
func Kinds() []Kind {
	return []Kind{
		SignUp, Login, Logout,
		CreateInternship, ReviewInternship, ToggleInternship,
		Apply, UpdateApplication,
		UploadDocument, ShareDocument, ForwardDocument,
		CreateDocumentRequest, ResolveDocumentRequest,
		CreatePartnership, SetPartnershipStatus,
		SendMessage, MarkMessageRead,
	}
}

// Graph maps each mutation kind to the query key templates it invalidates.
type Graph map[Kind][]string

// DefaultGraph is the invalidation graph used by the API client.
func DefaultGraph() Graph {
	return Graph{
		SignUp: {All},
		Login:  {All},
		Logout: {All},

		CreateInternship: {query.KeyCompanyInternships, query.KeySchoolInternships},
		ReviewInternship: {query.KeySchoolInternships, query.KeyInternships, query.KeyCompanyInternships},
		ToggleInternship: {query.KeyCompanyInternships, query.KeyInternships},

		Apply:             {query.KeyStudentApplications, query.KeyCompanyApplications},
		UpdateApplication: {query.KeyCompanyApplications, query.KeyStudentApplications},

		UploadDocument:  {query.KeyDocuments},
		ShareDocument:   {query.KeyDocuments, query.KeySharedDocuments},
		ForwardDocument: {query.KeySharedDocuments},

		CreateDocumentRequest:  {query.KeyDocumentRequests},
		ResolveDocumentRequest: {query.KeyDocumentRequests},

		CreatePartnership:    {query.KeyPartnerships, query.KeySchoolInternships},
		SetPartnershipStatus: {query.KeyPartnerships, query.KeySchoolInternships},

		SendMessage:     {query.KeyConversation, query.KeyConversations},
		MarkMessageRead: {query.KeyConversation, query.KeyConversations},
	}
}
