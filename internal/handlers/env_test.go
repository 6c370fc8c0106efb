package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/documents"
	"github.com/intega/platform/internal/middleware"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/repositories"
	"github.com/intega/platform/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	handler http.Handler
	store   *repositories.MemoryStore
	objects *storage.LocalStorage
}

type envOption func(*Dependencies)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	signer, err := auth.NewTokenSigner(testSecret)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	manager := auth.NewManager(15*time.Minute, time.Hour, signer, auth.NewMemorySessionStore())

	objects, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	store := repositories.NewMemoryStore()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ingestor := documents.NewIngestor(objects, store.Documents(), documents.IngestorConfig{Key: storage.DocumentKey}, logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = ingestor.Shutdown(ctx)
	})

	deps := Dependencies{
		Users:          store.Users(),
		Sessions:       manager,
		Internships:    store.Internships(),
		Applications:   store.Applications(),
		Documents:      store.Documents(),
		Requests:       store.DocumentRequests(),
		Partnerships:   store.Partnerships(),
		Messages:       store.Messages(),
		Ingestor:       ingestor,
		Objects:        objects,
		MaxUploadBytes: 1 << 10,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)
	return &testEnv{
		handler: middleware.RequestLogger(logger)(mux),
		store:   store,
		objects: objects,
	}
}

type account struct {
	ID    string
	Token string
}

func (e *testEnv) signUp(t *testing.T, username string, userType models.UserType) account {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "password123",
		"confirmPassword": "password123",
		"userType":        string(userType),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201 got %d: %s", username, rec.Code, rec.Body.String())
	}
	resp := decode[authResponse](t, rec)
	return account{ID: resp.User.ID, Token: resp.Tokens.AccessToken}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, token, filename, docType string, contents []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if docType != "" {
		if err := mw.WriteField("type", docType); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(contents); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, strings.TrimSpace(rec.Body.String()))
	}
}

func waitForCondition(t *testing.T, predicate func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if predicate() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
