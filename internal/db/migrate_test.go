package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestEmbeddedMigrationsArePresent(t *testing.T) {
	entries, err := fs.ReadDir(Migrations(), ".")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one migration")
	}

	contents, err := fs.ReadFile(Migrations(), entries[0].Name())
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(contents), "-- +goose Up") {
		t.Fatalf("migration %s is missing goose annotations", entries[0].Name())
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"other", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := shouldRetryMigration(tc.err); got != tc.want {
				t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	var out bytes.Buffer
	attempts := 0
	err := withRetry(context.Background(), &out, "up", func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if !strings.Contains(out.String(), "transient error") {
		t.Fatalf("expected retry to be reported, got %q", out.String())
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	permanent := errors.New("syntax error")
	err := withRetry(context.Background(), &bytes.Buffer{}, "up", func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}
