// Package testutil starts throwaway PostgreSQL containers for integration tests.
//
// Usage:
//
//	pg, err := testutil.NewPostgresContainer(ctx)
//	if err != nil { ... }
//	defer pg.Terminate(ctx)
//
//	if err := pg.RunMigrations(ctx); err != nil { ... }
//	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with migration support.
type PostgresContainer struct {
	*postgres.PostgresContainer

	migrationsDir string
}

// MigrationsDir returns db/migrations resolved from this file's location.
func MigrationsDir() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "db", "migrations"), nil
}

// NewPostgresContainer starts PostgreSQL 18 (alpine) with a test database.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	migrationsDir, err := MigrationsDir()
	if err != nil {
		return nil, err
	}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("goodforgood_test"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithSQLDriver("pgx"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		migrationsDir:     migrationsDir,
	}, nil
}

// RunMigrations applies every goose migration to the container database.
func (p *PostgresContainer) RunMigrations(ctx context.Context) error {
	db, err := p.DB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, p.migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Terminate stops and removes the container.
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(p.PostgresContainer)
}

// DB opens a database/sql handle to the container. The caller closes it.
func (p *PostgresContainer) DB(ctx context.Context) (*sql.DB, error) {
	connStr, err := p.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// NewPoolFromConnStr creates a small pool suited to tests.
func NewPoolFromConnStr(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	cfg.MaxConns = 5
	return pgxpool.NewWithConfig(ctx, cfg)
}
