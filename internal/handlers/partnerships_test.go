package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/intega/platform/internal/models"
)

func TestPartnershipLifecycle(t *testing.T) {
	env := newTestEnv(t)
	school := env.signUp(t, "sorbonne", models.UserSchool)
	rival := env.signUp(t, "polytech", models.UserSchool)
	company := env.signUp(t, "acme", models.UserCompany)
	student := env.signUp(t, "ada", models.UserStudent)

	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/partnerships", company.Token, map[string]string{"companyId": company.ID}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/partnerships", school.Token, map[string]string{"companyId": student.ID}), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/partnerships", school.Token, map[string]string{"companyId": uuid.NewString()}), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodPost, "/api/v1/partnerships", school.Token, map[string]string{"companyId": "acme"}), http.StatusBadRequest)

	partnership := partner(t, env, school, company)
	if partnership.Status != models.PartnershipActive || partnership.SchoolID != school.ID {
		t.Fatalf("expected active partnership for the school, got %+v", partnership)
	}

	for _, who := range []account{school, company} {
		list := decode[[]models.Partnership](t, env.do(t, http.MethodGet, "/api/v1/partnerships", who.Token, nil))
		if len(list) != 1 || list[0].ID != partnership.ID {
			t.Fatalf("expected both sides to see the partnership, got %+v", list)
		}
	}
	if list := decode[[]models.Partnership](t, env.do(t, http.MethodGet, "/api/v1/partnerships", rival.Token, nil)); len(list) != 0 {
		t.Fatalf("expected unrelated school to see nothing, got %+v", list)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/partnerships", student.Token, nil), http.StatusForbidden)

	internship := createInternship(t, env, company)
	statusPath := "/api/v1/partnerships/" + partnership.ID + "/status"

	expectStatus(t, env.do(t, http.MethodPatch, statusPath, rival.Token, map[string]string{"status": "inactive"}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPatch, statusPath, school.Token, map[string]string{"status": "paused"}), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPatch, "/api/v1/partnerships/"+uuid.NewString()+"/status", school.Token, map[string]string{"status": "inactive"}), http.StatusNotFound)

	rec := env.do(t, http.MethodPatch, statusPath, school.Token, map[string]string{"status": "inactive"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[models.Partnership](t, rec); got.Status != models.PartnershipInactive {
		t.Fatalf("expected inactive, got %s", got.Status)
	}

	pending := decode[[]models.Internship](t, env.do(t, http.MethodGet, "/api/v1/internships/school", school.Token, nil))
	if len(pending) != 0 {
		t.Fatalf("inactive partnership must hide the company's internships, got %+v", pending)
	}
	expectStatus(t, env.do(t, http.MethodPatch, "/api/v1/internships/"+internship.ID+"/status", school.Token, map[string]string{"status": "approved"}), http.StatusForbidden)

	expectStatus(t, env.do(t, http.MethodPatch, statusPath, school.Token, map[string]string{"status": "active"}), http.StatusOK)
	pending = decode[[]models.Internship](t, env.do(t, http.MethodGet, "/api/v1/internships/school", school.Token, nil))
	if len(pending) != 1 || pending[0].ID != internship.ID {
		t.Fatalf("expected reactivated partnership to expose the internship, got %+v", pending)
	}
}
