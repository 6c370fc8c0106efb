package handlers

import (
	"net/http"
	"testing"

	"github.com/intega/platform/internal/models"
)

func TestDocumentRequestWorkflow(t *testing.T) {
	env := newTestEnv(t)
	student := env.signUp(t, "ada", models.UserStudent)
	school := env.signUp(t, "sorbonne", models.UserSchool)
	otherSchool := env.signUp(t, "epita", models.UserSchool)
	company := env.signUp(t, "acme", models.UserCompany)

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/document-requests", student.Token, map[string]string{
		"schoolId": company.ID, "requestType": "transcript",
	}), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/document-requests", student.Token, map[string]string{
		"schoolId": school.ID, "requestType": "diploma",
	}), http.StatusBadRequest)

	rec := env.do(t, http.MethodPost, "/api/v1/document-requests", student.Token, map[string]string{
		"schoolId":    school.ID,
		"requestType": "internship_agreement",
		"message":     "Needed before June",
	})
	expectStatus(t, rec, http.StatusCreated)
	request := decode[models.DocumentRequest](t, rec)
	if request.Status != models.RequestPending || request.ApplicationID != nil {
		t.Fatalf("unexpected request %+v", request)
	}

	mine := decode[[]models.DocumentRequest](t, env.do(t, http.MethodGet, "/api/v1/document-requests", student.Token, nil))
	addressed := decode[[]models.DocumentRequest](t, env.do(t, http.MethodGet, "/api/v1/document-requests", school.Token, nil))
	notMine := decode[[]models.DocumentRequest](t, env.do(t, http.MethodGet, "/api/v1/document-requests", otherSchool.Token, nil))
	if len(mine) != 1 || len(addressed) != 1 || len(notMine) != 0 {
		t.Fatalf("unexpected listings: student=%d school=%d other=%d", len(mine), len(addressed), len(notMine))
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/document-requests", company.Token, nil), http.StatusForbidden)

	path := "/api/v1/document-requests/" + request.ID + "/status"
	expectStatus(t, env.do(t, http.MethodPatch, path, otherSchool.Token, map[string]string{"status": "completed"}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPatch, path, school.Token, map[string]string{"status": "in_progress"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPatch, path, school.Token, map[string]string{"status": "completed"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPatch, path, school.Token, map[string]string{"status": "rejected"}), http.StatusConflict)
}
