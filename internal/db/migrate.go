package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// Migrations exposes the embedded goose migration files.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(fmt.Sprintf("db: embedded migrations: %v", err))
	}
	return sub
}

// Migrate runs a goose command ("up", "down" or "status") against the pool,
// writing a line per migration to out.
func Migrate(ctx context.Context, pool *pgxpool.Pool, command string, out io.Writer) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations())
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	switch command {
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, status := range statuses {
			mark := " "
			if status.State == goose.StateApplied {
				mark = "x"
			}
			fmt.Fprintf(out, "[%s] %s\n", mark, status.Source.Path)
		}
		return nil
	case "up", "":
		return withRetry(ctx, out, "up", func() error {
			results, err := provider.Up(ctx)
			for _, result := range results {
				fmt.Fprintf(out, "applied migration %s\n", result.Source.Path)
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no migrations to apply")
			}
			return nil
		})
	case "down":
		return withRetry(ctx, out, "down", func() error {
			result, err := provider.Down(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "rolled back migration %s\n", result.Source.Path)
			return nil
		})
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

func withRetry(ctx context.Context, out io.Writer, name string, fn func() error) error {
	var attempt int
	for attempt = 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			timer.Stop()
		}

		err := fn()
		if err == nil {
			return nil
		}
		if shouldRetryMigration(err) && attempt < migrationMaxRetries-1 {
			fmt.Fprintf(out, "transient error running migrate %s (attempt %d/%d): %v\n", name, attempt+1, migrationMaxRetries, err)
			continue
		}
		return fmt.Errorf("migrate %s: %w", name, err)
	}

	return fmt.Errorf("migrate %s: exceeded max retries (%d)", name, attempt)
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgErrorCodes[pgErr.Code]; ok {
			return true
		}
	}

	return errors.Is(err, pgx.ErrTxClosed)
}
