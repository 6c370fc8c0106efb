package documents

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type storageStub struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (s *storageStub) Save(_ context.Context, key, _ string, r io.Reader) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]byte)
	}
	s.saved[key] = data
	return nil
}

type updaterStub struct {
	mu       sync.Mutex
	stored   map[string]string
	sizes    map[string]int64
	failed   []string
	storeErr error
}

func (u *updaterStub) MarkStored(_ context.Context, id, path string, size int64) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.storeErr != nil {
		return u.storeErr
	}
	if u.stored == nil {
		u.stored = make(map[string]string)
		u.sizes = make(map[string]int64)
	}
	u.stored[id] = path
	u.sizes[id] = size
	return nil
}

func (u *updaterStub) MarkFailed(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failed = append(u.failed, id)
	return nil
}

func (u *updaterStub) snapshot() (int, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.stored), len(u.failed)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shutdown(t *testing.T, ing *Ingestor) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ing.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestIngestorStoresDocument(t *testing.T) {
	storage := &storageStub{}
	updater := &updaterStub{}
	ing := NewIngestor(storage, updater, IngestorConfig{
		Workers: 2,
		Key:     func(id, name string) string { return id + "/" + name },
	}, discardLogger())

	if err := ing.Enqueue(context.Background(), Upload{DocumentID: "doc-1", Filename: "cv.pdf", Data: []byte("pdf-bytes")}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	shutdown(t, ing)

	if string(storage.saved["doc-1/cv.pdf"]) != "pdf-bytes" {
		t.Fatalf("expected bytes under derived key, got %v", storage.saved)
	}
	if updater.stored["doc-1"] != "doc-1/cv.pdf" || updater.sizes["doc-1"] != int64(len("pdf-bytes")) {
		t.Fatalf("unexpected stored record: %v %v", updater.stored, updater.sizes)
	}
}

func TestIngestorMarksFailures(t *testing.T) {
	cases := []struct {
		name    string
		storage *storageStub
		updater *updaterStub
	}{
		{"storage error", &storageStub{err: errors.New("bucket unavailable")}, &updaterStub{}},
		{"status update error", &storageStub{}, &updaterStub{storeErr: errors.New("db down")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ing := NewIngestor(tc.storage, tc.updater, IngestorConfig{}, discardLogger())
			if err := ing.Enqueue(context.Background(), Upload{DocumentID: "doc-2", Data: []byte("x")}); err != nil {
				t.Fatalf("enqueue: %v", err)
			}
			shutdown(t, ing)

			stored, failed := tc.updater.snapshot()
			if stored != 0 || failed != 1 {
				t.Fatalf("expected one failure and no success, got stored=%d failed=%d", stored, failed)
			}
		})
	}
}

func TestIngestorRejectsAfterShutdown(t *testing.T) {
	ing := NewIngestor(&storageStub{}, &updaterStub{}, IngestorConfig{}, discardLogger())
	shutdown(t, ing)

	if err := ing.Enqueue(context.Background(), Upload{DocumentID: "late"}); !errors.Is(err, ErrIngestorClosed) {
		t.Fatalf("expected ErrIngestorClosed, got %v", err)
	}
	// A second shutdown is a no-op.
	shutdown(t, ing)
}

func TestIngestorEnqueueHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ing := NewIngestor(&storageStub{}, &updaterStub{}, IngestorConfig{}, discardLogger())
	defer shutdown(t, ing)

	if err := ing.Enqueue(ctx, Upload{DocumentID: "doc"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
