package handlers

import (
	"net/http"

	"github.com/intega/platform/internal/middleware"
	"github.com/intega/platform/internal/models"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users        UserStore
	Sessions     SessionManager
	Internships  InternshipStore
	Applications ApplicationStore
	Documents    DocumentStore
	Requests     DocumentRequestStore
	Partnerships PartnershipStore
	Messages     MessageStore

	Ingestor DocumentIngestor
	Objects  ObjectOpener
	Database Pinger

	LoginLimiter   middleware.RateLimiter
	MessageLimiter middleware.RateLimiter

	MaxUploadBytes int64
	CookieSecure   bool
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	authH := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, CookieSecure: deps.CookieSecure}
	internships := InternshipHandler{Internships: deps.Internships, Partnerships: deps.Partnerships}
	applications := ApplicationHandler{Applications: deps.Applications, Internships: deps.Internships}
	docs := DocumentHandler{
		Documents:      deps.Documents,
		Users:          deps.Users,
		Ingestor:       deps.Ingestor,
		Objects:        deps.Objects,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	requests := DocumentRequestHandler{Requests: deps.Requests, Users: deps.Users, Applications: deps.Applications}
	partnerships := PartnershipHandler{Partnerships: deps.Partnerships, Users: deps.Users}
	messages := MessageHandler{Messages: deps.Messages, Users: deps.Users}

	authenticated := middleware.Authenticate(deps.Sessions)
	as := func(types ...models.UserType) func(http.HandlerFunc) http.Handler {
		return func(h http.HandlerFunc) http.Handler {
			if len(types) == 0 {
				return middleware.Chain(h, authenticated)
			}
			return middleware.Chain(h, authenticated, middleware.RequireType(types...))
		}
	}
	anyone := as()
	student := as(models.UserStudent)
	company := as(models.UserCompany)
	school := as(models.UserSchool)

	mux.HandleFunc("GET /healthz", health.Handle)

	const v1 = "/api/v1"
	mux.HandleFunc("POST "+v1+"/auth/signup", authH.SignUp)
	mux.Handle("POST "+v1+"/auth/login", middleware.Limit(deps.LoginLimiter, "login")(http.HandlerFunc(authH.Login)))
	mux.HandleFunc("POST "+v1+"/auth/refresh", authH.Refresh)
	mux.HandleFunc("POST "+v1+"/auth/logout", authH.Logout)
	mux.Handle("GET "+v1+"/auth/me", anyone(authH.Me))

	mux.Handle("GET "+v1+"/internships", anyone(internships.List))
	mux.Handle("GET "+v1+"/internships/company", company(internships.ListCompany))
	mux.Handle("GET "+v1+"/internships/school", school(internships.ListSchool))
	mux.Handle("POST "+v1+"/internships", company(internships.Create))
	mux.Handle("PATCH "+v1+"/internships/{id}/status", school(internships.Review))
	mux.Handle("PATCH "+v1+"/internships/{id}/active", company(internships.SetActive))

	mux.Handle("GET "+v1+"/applications/student", student(applications.ListStudent))
	mux.Handle("GET "+v1+"/applications/company", company(applications.ListCompany))
	mux.Handle("POST "+v1+"/applications", student(applications.Create))
	mux.Handle("PATCH "+v1+"/applications/{id}/status", company(applications.UpdateStatus))

	mux.Handle("POST "+v1+"/documents", anyone(docs.Upload))
	mux.Handle("GET "+v1+"/documents", anyone(docs.List))
	mux.Handle("GET "+v1+"/documents/shared", anyone(docs.ListShared))
	mux.Handle("GET "+v1+"/documents/{id}/content", anyone(docs.Content))
	mux.Handle("POST "+v1+"/documents/{id}/share", anyone(docs.Share))
	mux.Handle("POST "+v1+"/documents/shared/{id}/forward", anyone(docs.Forward))

	mux.Handle("GET "+v1+"/document-requests", as(models.UserStudent, models.UserSchool)(requests.List))
	mux.Handle("POST "+v1+"/document-requests", student(requests.Create))
	mux.Handle("PATCH "+v1+"/document-requests/{id}/status", school(requests.Resolve))

	mux.Handle("GET "+v1+"/partnerships", as(models.UserSchool, models.UserCompany)(partnerships.List))
	mux.Handle("POST "+v1+"/partnerships", school(partnerships.Create))
	mux.Handle("PATCH "+v1+"/partnerships/{id}/status", school(partnerships.SetStatus))

	mux.Handle("GET "+v1+"/messages/conversations", anyone(messages.Conversations))
	mux.Handle("GET "+v1+"/messages/with/{peerId}", anyone(messages.Thread))
	mux.Handle("POST "+v1+"/messages", middleware.Chain(http.HandlerFunc(messages.Send),
		authenticated, middleware.Limit(deps.MessageLimiter, "messages")))
	mux.Handle("PATCH "+v1+"/messages/{id}/read", anyone(messages.MarkRead))
}
