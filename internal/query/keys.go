package query

import "strings"

// Query keys shared by the client and the invalidation graph. Parameterised
// keys use {name} placeholders.
const (
	KeyMe                  = "/auth/me"
	KeyInternships         = "/internships"
	KeyCompanyInternships  = "/internships/company"
	KeySchoolInternships   = "/internships/school"
	KeyStudentApplications = "/applications/student"
	KeyCompanyApplications = "/applications/company"
	KeyDocuments           = "/documents"
	KeySharedDocuments     = "/documents/shared"
	KeyDocumentRequests    = "/document-requests"
	KeyPartnerships        = "/partnerships"
	KeyConversations       = "/messages/conversations"
	KeyConversation        = "/messages/with/{peerId}"
)

// RegisteredKeys lists every key template the client reads.
func RegisteredKeys() []string {
	return []string{
		KeyMe,
		KeyInternships,
		KeyCompanyInternships,
		KeySchoolInternships,
		KeyStudentApplications,
		KeyCompanyApplications,
		KeyDocuments,
		KeySharedDocuments,
		KeyDocumentRequests,
		KeyPartnerships,
		KeyConversations,
		KeyConversation,
	}
}

// Resolve substitutes {name} placeholders in template with params. When a
// parameter is missing it returns the prefix preceding the first unresolved
// placeholder and false.
func Resolve(template string, params map[string]string) (string, bool) {
	var b strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), true
		}
		name := rest[open+1 : open+end]
		value := params[name]
		b.WriteString(rest[:open])
		if value == "" {
			return b.String(), false
		}
		b.WriteString(value)
		rest = rest[open+end+1:]
	}
}
