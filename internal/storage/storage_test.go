package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/intega/platform/internal/config"
)

func TestDocumentKey(t *testing.T) {
	cases := []struct {
		id, name, want string
	}{
		{"ab12", "My CV.PDF", "documents/ab/ab12_My_CV.pdf"},
		{"cd34", "../../etc/passwd", "documents/cd/cd34_passwd"},
		{"x", "", "documents/x/x_file"},
	}
	for _, tc := range cases {
		if got := DocumentKey(tc.id, tc.name); got != tc.want {
			t.Fatalf("DocumentKey(%q, %q) = %q, want %q", tc.id, tc.name, got, tc.want)
		}
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType("transcript.PDF"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := ContentType("blob"); got != "application/octet-stream" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	ctx := context.Background()
	key := DocumentKey("ab12", "cv.pdf")

	if err := store.Save(ctx, key, "application/pdf", strings.NewReader("hello")); err != nil {
		t.Fatalf("save: %v", err)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil || string(data) != "hello" {
		t.Fatalf("unexpected contents %q (%v)", data, err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("deleting a missing object should succeed: %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	if err := store.Save(context.Background(), "../outside", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected escaping key to be rejected")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Backend: config.StorageLocal, LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := store.(*LocalStorage); !ok {
		t.Fatalf("expected local storage, got %T", store)
	}
	if _, err := New(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Fatal("expected unknown backend error")
	}
	if _, err := New(context.Background(), config.StorageConfig{Backend: config.StorageS3}); err == nil {
		t.Fatal("expected missing bucket error")
	}
}

// TestS3StorageRoundTrip runs against a real S3-compatible endpoint such as
// MinIO when INTEGA_S3_TEST_ENDPOINT is set.
func TestS3StorageRoundTrip(t *testing.T) {
	endpoint := os.Getenv("INTEGA_S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("INTEGA_S3_TEST_ENDPOINT not set")
	}
	ctx := context.Background()
	store, err := NewS3Storage(ctx, config.StorageConfig{
		Bucket:          os.Getenv("INTEGA_S3_TEST_BUCKET"),
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     os.Getenv("INTEGA_S3_TEST_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("INTEGA_S3_TEST_SECRET_ACCESS_KEY"),
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("new s3 storage: %v", err)
	}

	key := DocumentKey("s3test", "hello.txt")
	if err := store.Save(ctx, key, "text/plain", bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Fatalf("unexpected contents %q", data)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
}
