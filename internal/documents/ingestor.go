package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/intega/platform/internal/logging"
)

// ObjectSaver persists document bytes under a key.
type ObjectSaver interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) error
}

// StatusUpdater records the outcome of persisting a document.
type StatusUpdater interface {
	MarkStored(ctx context.Context, id, path string, size int64) error
	MarkFailed(ctx context.Context, id string) error
}

// KeyFunc derives the storage key for a document.
type KeyFunc func(documentID, filename string) string

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
	Timeout   time.Duration
	Key       KeyFunc
}

// Upload is a document whose bytes are waiting to be persisted.
type Upload struct {
	DocumentID  string
	Filename    string
	ContentType string
	Data        []byte
}

// ErrIngestorClosed is returned by Enqueue after Shutdown.
var ErrIngestorClosed = errors.New("document ingestor closed")

// Ingestor asynchronously writes uploaded documents to object storage and
// flips their storage status to ready or failed.
type Ingestor struct {
	storage ObjectSaver
	updater StatusUpdater
	logger  *slog.Logger
	timeout time.Duration
	key     KeyFunc

	jobs   chan Upload
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewIngestor starts the worker pool.
func NewIngestor(storage ObjectSaver, updater StatusUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Key == nil {
		cfg.Key = func(id, _ string) string { return id }
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	ing := &Ingestor{
		storage: storage,
		updater: updater,
		logger:  logger,
		timeout: cfg.Timeout,
		key:     cfg.Key,
		jobs:    make(chan Upload, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}
	return ing
}

// Enqueue schedules persistence of the upload. It blocks while the queue is
// full until ctx is done.
func (i *Ingestor) Enqueue(ctx context.Context, upload Upload) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return ErrIngestorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return ErrIngestorClosed
	case i.jobs <- upload:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued uploads to finish.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()
	// Drain the queue even after cancellation so every accepted upload gets
	// a terminal status.
	for job := range i.jobs {
		i.handle(job)
	}
}

func (i *Ingestor) handle(job Upload) {
	ctx := logging.WithLogger(context.Background(), i.logger)
	ctx, span := logging.StartSpan(ctx, "documents.ingest", slog.String("document_id", job.DocumentID))

	if i.storage == nil || i.updater == nil {
		span.Finish(errors.New("document ingestor missing dependencies"))
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	key := i.key(job.DocumentID, job.Filename)
	span.Annotate(slog.String("storage_key", key), slog.Int("bytes", len(job.Data)))
	if err := i.storage.Save(saveCtx, key, job.ContentType, bytes.NewReader(job.Data)); err != nil {
		i.recordFailure(ctx, job.DocumentID)
		span.Finish(err)
		return
	}

	if err := i.recordSuccess(ctx, job.DocumentID, key, int64(len(job.Data))); err != nil {
		i.recordFailure(ctx, job.DocumentID)
		span.Finish(err)
		return
	}
	span.Finish(nil)
}

func (i *Ingestor) recordFailure(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkFailed(ctx, id); err != nil {
		logging.FromContext(ctx).Error("record document failure", "error", err)
	}
}

func (i *Ingestor) recordSuccess(ctx context.Context, id, key string, size int64) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	return i.updater.MarkStored(ctx, id, key, size)
}
