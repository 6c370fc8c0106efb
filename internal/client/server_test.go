package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/documents"
	"github.com/intega/platform/internal/form"
	"github.com/intega/platform/internal/handlers"
	"github.com/intega/platform/internal/middleware"
	"github.com/intega/platform/internal/models"
	"github.com/intega/platform/internal/mutation"
	"github.com/intega/platform/internal/repositories"
	"github.com/intega/platform/internal/storage"
)

type testServer struct {
	url      string
	store    *repositories.MemoryStore
	requests atomic.Int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	signer, err := auth.NewTokenSigner("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	manager := auth.NewManager(15*time.Minute, time.Hour, signer, auth.NewMemorySessionStore())

	objects, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	store := repositories.NewMemoryStore()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ingestor := documents.NewIngestor(objects, store.Documents(), documents.IngestorConfig{Key: storage.DocumentKey}, logger)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Dependencies{
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
		MaxUploadBytes: 1 << 20,
	})

	ts := &testServer{store: store}
	api := middleware.RequestLogger(logger)(mux)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.requests.Add(1)
		api.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = ingestor.Shutdown(ctx)
	})
	ts.url = srv.URL
	return ts
}

type recorder struct {
	mu    sync.Mutex
	notes []mutation.Notification
}

func (r *recorder) Notify(n mutation.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []mutation.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mutation.Notification(nil), r.notes...)
}

func (ts *testServer) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(ts.url, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// account signs up a fresh user on its own client.
func (ts *testServer) account(t *testing.T, username string, userType models.UserType, opts ...Option) (*Client, models.User) {
	t.Helper()
	c := ts.client(t, opts...)
	user, err := c.SignUp(context.Background(), form.SignUp{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
		UserType:        string(userType),
	})
	require.NoError(t, err)
	return c, user
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
