package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/Black-And-White-Club/comp-rounds/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// TestEnvironment holds a migrated Postgres for integration tests.
type TestEnvironment struct {
	Ctx         context.Context
	PgContainer *postgres.PostgresContainer
	DB          *bun.DB
	DSN         string
}

// NewTestEnvironment starts Postgres, runs every migration and registers
// cleanup on t.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	ctx := context.Background()

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("failed to setup postgres container: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	env := &TestEnvironment{Ctx: ctx, PgContainer: pgContainer, DB: db, DSN: dsn}
	t.Cleanup(env.Cleanup)

	if err := RunMigrations(ctx, db, dsn); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return env
}

// Reset empties every table between tests.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	if err := CleanupDatabase(env.Ctx, env.DB); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

// Cleanup closes the database and terminates the container.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(env.Ctx); err != nil {
			fmt.Printf("failed to terminate postgres container: %v\n", err)
		}
	}
}
