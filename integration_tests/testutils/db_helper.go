package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	competitionmigrations "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// RunMigrations applies the River queue schema and the competition migrations.
func RunMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	migrator := migrate.NewMigrator(db, competitionmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	if err := runRiverMigrations(ctx, pgConnStr); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run competition migrations: %w", err)
	}
	if group.ID == 0 {
		log.Println("No competition migrations to run")
	} else {
		log.Printf("Ran competition migrations group #%d", group.ID)
	}
	return nil
}

// runRiverMigrations runs River queue system migrations
func runRiverMigrations(ctx context.Context, pgConnStr string) error {
	config, err := pgxpool.ParseConfig(pgConnStr)
	if err != nil {
		return fmt.Errorf("failed to parse DSN for River migrations: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}

var appTables = []string{"round_groups", "results", "rounds", "competitions", "users"}

// CleanupDatabase truncates the competition tables and the River job table.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(appTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		if !strings.Contains(err.Error(), "does not exist") {
			return fmt.Errorf("failed to cleanup river jobs: %w", err)
		}
	}
	return nil
}
