package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/intega/platform/internal/config"
)

// ErrObjectNotFound indicates no object is stored under the key.
var ErrObjectNotFound = errors.New("object not found")

// Storage persists document bytes under opaque keys.
type Storage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New selects the backend named by the configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.StorageLocal:
		return NewLocalStorage(cfg.LocalDir)
	case config.StorageS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// DocumentKey derives the storage key for a document's bytes. Keys are
// sharded by the first two characters of the id.
func DocumentKey(documentID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		base = "file"
	}
	shard := documentID
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return fmt.Sprintf("documents/%s/%s_%s%s", shard, documentID, base, ext)
}

// ContentType guesses a MIME type from the file extension.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
