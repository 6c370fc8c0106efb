package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/intega/platform/internal/models"
)

func uploadReady(t *testing.T, env *testEnv, owner account, name string, contents []byte) models.Document {
	t.Helper()
	rec := env.upload(t, owner.Token, name, "cv", contents)
	expectStatus(t, rec, http.StatusAccepted)
	doc := decode[models.Document](t, rec)
	if doc.StorageStatus != models.StoragePending {
		t.Fatalf("expected pending storage status, got %s", doc.StorageStatus)
	}

	waitForCondition(t, func() bool {
		stored, err := env.store.Documents().FindByID(context.Background(), doc.ID)
		return err == nil && stored.StorageStatus == models.StorageReady
	}, 2*time.Second)

	stored, _ := env.store.Documents().FindByID(context.Background(), doc.ID)
	return stored
}

func TestDocumentShareAndForward(t *testing.T) {
	env := newTestEnv(t)
	student := env.signUp(t, "ada", models.UserStudent)
	school := env.signUp(t, "sorbonne", models.UserSchool)
	company := env.signUp(t, "acme", models.UserCompany)
	stranger := env.signUp(t, "eve", models.UserStudent)

	doc := uploadReady(t, env, student, "transcript.pdf", []byte("%PDF-1.7 grades"))
	if doc.Size != int64(len("%PDF-1.7 grades")) || doc.Path == "" {
		t.Fatalf("unexpected stored document %+v", doc)
	}

	listed := decode[[]models.Document](t, env.do(t, http.MethodGet, "/api/v1/documents", student.Token, nil))
	if len(listed) != 1 {
		t.Fatalf("expected one document, got %d", len(listed))
	}

	content := "/api/v1/documents/" + doc.ID + "/content"
	rec := env.do(t, http.MethodGet, content, student.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "%PDF-1.7 grades" || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content %q (%s)", rec.Body.String(), rec.Header().Get("Content-Type"))
	}
	expectStatus(t, env.do(t, http.MethodGet, content, school.Token, nil), http.StatusForbidden)

	sharePath := "/api/v1/documents/" + doc.ID + "/share"
	expectStatus(t, env.do(t, http.MethodPost, sharePath, school.Token, map[string]string{"recipientId": student.ID}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPost, sharePath, student.Token, map[string]string{"recipientId": student.ID}), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodPost, sharePath, student.Token, map[string]string{"recipientId": "not-a-uuid"}), http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, sharePath, student.Token, map[string]string{"recipientId": school.ID})
	expectStatus(t, rec, http.StatusCreated)
	share := decode[models.SharedDocument](t, rec)

	received := decode[[]models.SharedDocument](t, env.do(t, http.MethodGet, "/api/v1/documents/shared", school.Token, nil))
	if len(received) != 1 || received[0].Document.ID != doc.ID {
		t.Fatalf("expected shared document with embedded document, got %+v", received)
	}
	expectStatus(t, env.do(t, http.MethodGet, content, school.Token, nil), http.StatusOK)

	forwardPath := "/api/v1/documents/shared/" + share.ID + "/forward"
	expectStatus(t, env.do(t, http.MethodPost, forwardPath, stranger.Token, map[string]string{"companyId": company.ID}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPost, forwardPath, school.Token, map[string]string{"companyId": stranger.ID}), http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, forwardPath, school.Token, map[string]string{"companyId": company.ID})
	expectStatus(t, rec, http.StatusOK)
	if forwarded := decode[models.SharedDocument](t, rec); !forwarded.Forwarded() {
		t.Fatalf("expected share to be marked forwarded, got %+v", forwarded)
	}
	expectStatus(t, env.do(t, http.MethodPost, forwardPath, school.Token, map[string]string{"companyId": company.ID}), http.StatusConflict)

	expectStatus(t, env.do(t, http.MethodGet, content, company.Token, nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, content, stranger.Token, nil), http.StatusForbidden)
}

func TestDocumentUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	student := env.signUp(t, "ada", models.UserStudent)

	rec := env.upload(t, student.Token, "", "cv", nil)
	expectStatus(t, rec, http.StatusBadRequest)
	if body := decode[errorResponse](t, rec); body.Fields["file"] == "" {
		t.Fatalf("expected a file error, got %+v", body)
	}

	rec = env.upload(t, student.Token, "cv.pdf", "", []byte("x"))
	expectStatus(t, rec, http.StatusBadRequest)

	big := make([]byte, 2<<10)
	expectStatus(t, env.upload(t, student.Token, "big.pdf", "cv", big), http.StatusRequestEntityTooLarge)

	docs, err := env.store.Documents().ListByOwner(context.Background(), student.ID)
	if err != nil || len(docs) != 0 {
		t.Fatalf("rejected uploads must not create documents: %v %v", docs, err)
	}
}

func TestDocumentContentNotReady(t *testing.T) {
	env := newTestEnv(t)
	student := env.signUp(t, "ada", models.UserStudent)

	doc := models.Document{ID: "9b2f6f0e-3d0c-4a7e-8d8b-3f4f5a6b7c8d", OwnerID: student.ID, Name: "cv.pdf", Type: "cv", StorageStatus: models.StorageFailed, CreatedAt: time.Now()}
	if err := env.store.Documents().Create(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/documents/"+doc.ID+"/content", student.Token, nil), http.StatusConflict)
	expectStatus(t, env.do(t, http.MethodGet, "/api/v1/documents/missing/content", student.Token, nil), http.StatusNotFound)
}
