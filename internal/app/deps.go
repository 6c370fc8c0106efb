package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/intega/platform/internal/auth"
	"github.com/intega/platform/internal/config"
	"github.com/intega/platform/internal/db"
	"github.com/intega/platform/internal/documents"
	"github.com/intega/platform/internal/handlers"
	"github.com/intega/platform/internal/middleware"
	"github.com/intega/platform/internal/repositories"
	"github.com/intega/platform/internal/storage"
)

// cleanupFunc releases resources acquired while building dependencies.
type cleanupFunc func(ctx context.Context) error

// stores groups the repositories backing one store selection.
type stores struct {
	Users        handlers.UserStore
	Internships  handlers.InternshipStore
	Applications handlers.ApplicationStore
	Documents    interface {
		handlers.DocumentStore
		documents.StatusUpdater
	}
	Requests     handlers.DocumentRequestStore
	Partnerships handlers.PartnershipStore
	Messages     handlers.MessageStore
	Sessions     auth.SessionStore
}

func postgresStores(pool db.Pool) stores {
	return stores{
		Users:        repositories.NewPostgresUserRepository(pool),
		Internships:  repositories.NewPostgresInternshipRepository(pool),
		Applications: repositories.NewPostgresApplicationRepository(pool),
		Documents:    repositories.NewPostgresDocumentRepository(pool),
		Requests:     repositories.NewPostgresDocumentRequestRepository(pool),
		Partnerships: repositories.NewPostgresPartnershipRepository(pool),
		Messages:     repositories.NewPostgresMessageRepository(pool),
		Sessions:     repositories.NewPostgresSessionStore(pool),
	}
}

func memoryStores(store *repositories.MemoryStore) stores {
	return stores{
		Users:        store.Users(),
		Internships:  store.Internships(),
		Applications: store.Applications(),
		Documents:    store.Documents(),
		Requests:     store.DocumentRequests(),
		Partnerships: store.Partnerships(),
		Messages:     store.Messages(),
		Sessions:     auth.NewMemorySessionStore(),
	}
}

// openStores connects the configured store. The returned pool is nil for the
// memory store.
func openStores(ctx context.Context, cfg config.Config) (stores, *pgxpool.Pool, error) {
	if cfg.Store == config.StoreMemory {
		return memoryStores(repositories.NewMemoryStore()), nil, nil
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL, int32(cfg.DatabaseMaxConns))
	if err != nil {
		return stores{}, nil, err
	}
	return postgresStores(pool), pool, nil
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	var closers []cleanupFunc
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (handlers.Dependencies, cleanupFunc, error) {
		_ = cleanup(ctx)
		return handlers.Dependencies{}, nil, err
	}

	st, pool, err := openStores(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	var pinger handlers.Pinger
	if pool != nil {
		pinger = pool
		closers = append(closers, func(context.Context) error { pool.Close(); return nil })
	}

	signer, err := auth.NewTokenSigner(cfg.JWTSecret)
	if err != nil {
		return fail(err)
	}
	sessions := auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, signer, st.Sessions)

	loginLimiter, messageLimiter, closeLimiters, err := buildLimiters(cfg.RateLimit)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeLimiters)

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fail(fmt.Errorf("configure document storage: %w", err))
	}

	ingestor := documents.NewIngestor(objects, st.Documents, documents.IngestorConfig{
		Workers:   cfg.Ingest.Workers,
		QueueSize: cfg.Ingest.QueueSize,
		Timeout:   cfg.Ingest.Timeout,
		Key:       storage.DocumentKey,
	}, logger)
	closers = append(closers, ingestor.Shutdown)

	return handlers.Dependencies{
		Users:          st.Users,
		Sessions:       sessions,
		Internships:    st.Internships,
		Applications:   st.Applications,
		Documents:      st.Documents,
		Requests:       st.Requests,
		Partnerships:   st.Partnerships,
		Messages:       st.Messages,
		Ingestor:       ingestor,
		Objects:        objects,
		Database:       pinger,
		LoginLimiter:   loginLimiter,
		MessageLimiter: messageLimiter,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		CookieSecure:   cfg.CookieSecure,
	}, cleanup, nil
}

func buildLimiters(cfg config.RateLimitConfig) (login, messages middleware.RateLimiter, closeFn cleanupFunc, err error) {
	noop := func(context.Context) error { return nil }
	switch cfg.Backend {
	case config.LimiterRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		return middleware.NewRedisLimiter(client, cfg.LoginRequests, cfg.LoginWindow, "intega:ratelimit:login"),
			middleware.NewRedisLimiter(client, cfg.MessageLimit, cfg.MessageWindow, "intega:ratelimit:messages"),
			func(context.Context) error { return client.Close() },
			nil
	default:
		return middleware.NewKeyRateLimiter(cfg.LoginRequests, cfg.LoginWindow, cfg.LoginRequests, 3*cfg.LoginWindow),
			middleware.NewKeyRateLimiter(cfg.MessageLimit, cfg.MessageWindow, cfg.MessageLimit, 3*cfg.MessageWindow),
			noop,
			nil
	}
}
