package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/comp-rounds/app/modules/competition"
	"github.com/Black-And-White-Club/comp-rounds/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel/trace"
)

// App owns the database connection and the competition module.
type App struct {
	Config            *config.Config
	Logger            *slog.Logger
	DB                *bun.DB
	CompetitionModule *competition.Module
}

// NewApp connects to Postgres and builds the competition module.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer) (*App, error) {
	pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	db := bun.NewDB(pgdb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	module, err := competition.NewCompetitionModule(ctx, cfg, logger, tracer, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize competition module: %w", err)
	}

	return &App{
		Config:            cfg,
		Logger:            logger,
		DB:                db,
		CompetitionModule: module,
	}, nil
}

// Run blocks until ctx is canceled or the API stops.
func (app *App) Run(ctx context.Context) error {
	return app.CompetitionModule.Run(ctx)
}

// Close shuts the module down before closing the database.
func (app *App) Close() error {
	moduleErr := app.CompetitionModule.Close()
	dbErr := app.DB.Close()
	if dbErr != nil {
		dbErr = fmt.Errorf("failed to close database: %w", dbErr)
	}
	return errors.Join(moduleErr, dbErr)
}
