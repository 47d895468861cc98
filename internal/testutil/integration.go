//go:build integration

package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// resetTables lists every application table cleared between tests. Child
// tables come first so the list also reads as a safe delete order.
var resetTables = []string{
	"audit_logs",
	"sessions",
	"meeting_attachments",
	"meeting_decisions",
	"meeting_attendees",
	"meetings",
	"donations",
	"expenses",
	"activities",
	"workshop_resources",
	"links",
	"members",
}

var (
	mu   sync.Mutex
	pool *pgxpool.Pool
)

// RunIntegrationTests starts one PostgreSQL container for the package, runs
// m and tears the container down. Call it from TestMain:
//
//	func TestMain(m *testing.M) {
//	    os.Exit(testutil.RunIntegrationTests(m, testutil.WithMigrations(), testutil.SkipIfNoDocker()))
//	}
func RunIntegrationTests(m *testing.M, opts ...Option) int {
	cfg := applyOptions(opts)
	ctx := context.Background()

	pg, err := NewPostgresContainer(ctx)
	if err != nil {
		if cfg.SkipIfNoDocker {
			// TestMain cannot skip, so say loudly that nothing ran.
			fmt.Fprintf(os.Stderr, "\nSKIPPED: integration tests need a container runtime: %v\n"+
				"No tests were executed. This is NOT a passing run.\n\n", err)
			return 0
		}
		fmt.Fprintf(os.Stderr, "failed to create postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := pg.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
		}
	}()

	if cfg.RunMigrations {
		if err := pg.RunMigrations(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
			return 1
		}
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		return 1
	}
	p, err := NewPoolFromConnStr(ctx, connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		return 1
	}
	defer p.Close()

	mu.Lock()
	pool = p
	mu.Unlock()
	defer func() {
		mu.Lock()
		pool = nil
		mu.Unlock()
	}()

	return m.Run()
}

// GetPool returns the package's shared pool. It is nil outside
// RunIntegrationTests.
func GetPool() *pgxpool.Pool {
	mu.Lock()
	defer mu.Unlock()
	return pool
}

// Reset empties every application table. Register it with t.Cleanup at the
// top of each test that writes. Tests using Reset must not call t.Parallel.
func Reset(t *testing.T) {
	t.Helper()

	p := GetPool()
	if p == nil {
		t.Fatal("Reset called outside RunIntegrationTests")
	}
	stmt := "TRUNCATE " + strings.Join(resetTables, ", ") + " CASCADE"
	if _, err := p.Exec(context.Background(), stmt); err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}
