package handlers

import (
	"net/http"
	"testing"

	"github.com/intega/platform/internal/models"
)

func approvedInternship(t *testing.T, env *testEnv, company account) models.Internship {
	t.Helper()
	school := env.signUp(t, "school-"+company.ID[:8], models.UserSchool)
	internship := createInternship(t, env, company)
	partner(t, env, school, company)
	rec := env.do(t, http.MethodPatch, "/api/v1/internships/"+internship.ID+"/status", school.Token, map[string]string{"status": "approved"})
	expectStatus(t, rec, http.StatusOK)
	return decode[models.Internship](t, rec)
}

func TestApplicationWorkflow(t *testing.T) {
	env := newTestEnv(t)
	company := env.signUp(t, "acme", models.UserCompany)
	student := env.signUp(t, "ada", models.UserStudent)

	pending := createInternship(t, env, company)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/applications", student.Token, map[string]string{"internshipId": pending.ID}), http.StatusConflict)

	internship := approvedInternship(t, env, company)
	rec := env.do(t, http.MethodPost, "/api/v1/applications", student.Token, map[string]string{
		"internshipId": internship.ID,
		"coverLetter":  "I write Go every day.",
	})
	expectStatus(t, rec, http.StatusCreated)
	application := decode[models.Application](t, rec)
	if application.Status != models.ApplicationPending || application.StudentID != student.ID {
		t.Fatalf("unexpected application %+v", application)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/applications", student.Token, map[string]string{"internshipId": internship.ID}), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/applications", company.Token, map[string]string{"internshipId": internship.ID}), http.StatusForbidden)

	mine := decode[[]models.Application](t, env.do(t, http.MethodGet, "/api/v1/applications/student", student.Token, nil))
	received := decode[[]models.Application](t, env.do(t, http.MethodGet, "/api/v1/applications/company", company.Token, nil))
	if len(mine) != 1 || len(received) != 1 {
		t.Fatalf("expected application on both sides, got student=%d company=%d", len(mine), len(received))
	}

	path := "/api/v1/applications/" + application.ID + "/status"
	other := env.signUp(t, "globex", models.UserCompany)
	expectStatus(t, env.do(t, http.MethodPatch, path, other.Token, map[string]string{"status": "accepted"}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPatch, path, company.Token, map[string]string{"status": "hired"}), http.StatusBadRequest)

	rec = env.do(t, http.MethodPatch, path, company.Token, map[string]string{"status": "accepted"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Application](t, rec); got.Status != models.ApplicationAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}

	expectStatus(t, env.do(t, http.MethodPatch, path, company.Token, map[string]string{"status": "accepted"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPatch, path, company.Token, map[string]string{"status": "rejected"}), http.StatusConflict)

	mine = decode[[]models.Application](t, env.do(t, http.MethodGet, "/api/v1/applications/student", student.Token, nil))
	if mine[0].Status != models.ApplicationAccepted {
		t.Fatalf("student should see the accepted status, got %s", mine[0].Status)
	}
}
