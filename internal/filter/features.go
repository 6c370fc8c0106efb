package filter

import "github.com/intega/platform/internal/models"

// InternshipFilter narrows the internship catalog.
type InternshipFilter struct {
	Query      string
	Skills     []string
	Location   string
	Status     models.InternshipStatus
	MinWeeks   int
	MaxWeeks   int
	ActiveOnly bool
}

// Apply filters internships.
func (f InternshipFilter) Apply(items []models.Internship) []models.Internship {
	return Apply(items,
		Text(f.Query,
			func(i models.Internship) string { return i.Title },
			func(i models.Internship) string { return i.Description },
			func(i models.Internship) string { return i.Location },
		),
		Tags(f.Skills, func(i models.Internship) []string { return i.Skills }),
		Text(f.Location, func(i models.Internship) string { return i.Location }),
		Equal(f.Status, func(i models.Internship) models.InternshipStatus { return i.Status }),
		Range(f.MinWeeks, f.MaxWeeks, func(i models.Internship) int { return i.DurationWeeks }),
		When(f.ActiveOnly, func(i models.Internship) bool { return i.IsActive }),
	)
}

// ApplicationFilter narrows application lists.
type ApplicationFilter struct {
	Query  string
	Status models.ApplicationStatus
}

// Apply filters applications.
func (f ApplicationFilter) Apply(items []models.Application) []models.Application {
	return Apply(items,
		Text(f.Query,
			func(a models.Application) string { return a.CoverLetter },
			func(a models.Application) string { return a.InternshipID },
		),
		Equal(f.Status, func(a models.Application) models.ApplicationStatus { return a.Status }),
	)
}

// DocumentRequestFilter narrows document requests.
type DocumentRequestFilter struct {
	Status models.DocumentRequestStatus
	Type   models.DocumentRequestType
}

// Apply filters document requests.
func (f DocumentRequestFilter) Apply(items []models.DocumentRequest) []models.DocumentRequest {
	return Apply(items,
		Equal(f.Status, func(r models.DocumentRequest) models.DocumentRequestStatus { return r.Status }),
		Equal(f.Type, func(r models.DocumentRequest) models.DocumentRequestType { return r.RequestType }),
	)
}

// MessageFilter narrows a message thread.
type MessageFilter struct {
	UnreadOnly bool
	Query      string
}

// Apply filters messages.
func (f MessageFilter) Apply(items []models.Message) []models.Message {
	return Apply(items,
		When(f.UnreadOnly, func(m models.Message) bool { return !m.IsRead }),
		Text(f.Query, func(m models.Message) string { return m.Content }),
	)
}
