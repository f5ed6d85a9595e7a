//go:build integration

// Package dbtest starts a throwaway PostgreSQL container with the Reeled schema applied.
package dbtest

import (
	"context"
	"database/sql"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// SkipIfNoDocker skips the test when no Docker daemon answers.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(ctx, "docker", "info").Run(); err != nil {
		t.Skip("Skipping test: Docker not available")
	}
}

// schemaPath locates migrations/000001_init.up.sql relative to this file.
func schemaPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations", "000001_init.up.sql")
}

// NewPostgres starts a container, applies the schema and returns an open pool.
// The container is terminated when the test finishes.
func NewPostgres(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfNoDocker(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("reeled"),
		postgres.WithUsername("reeled"),
		postgres.WithPassword("reeled"),
		postgres.WithInitScripts(schemaPath()),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if err := conn.PingContext(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	return conn
}

// Exec runs a fixture statement and fails the test on error.
func Exec(t *testing.T, conn *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := conn.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("fixture %q failed: %v", query, err)
	}
}
