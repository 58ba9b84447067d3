package competitionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating competition tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL DEFAULT '',
					email TEXT NOT NULL DEFAULT '',
					email_verified BOOLEAN NOT NULL DEFAULT FALSE,
					site_admin BOOLEAN NOT NULL DEFAULT FALSE
				);
			`); err != nil {
				return fmt.Errorf("failed to create users table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competitions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					competition_name TEXT NOT NULL,
					wca_competition_id TEXT UNIQUE,
					organizers TEXT[] NOT NULL DEFAULT '{}',
					staff TEXT[] NOT NULL DEFAULT '{}',
					listed BOOLEAN NOT NULL DEFAULT FALSE,
					start_date TIMESTAMPTZ,
					number_of_days INTEGER NOT NULL DEFAULT 1,
					calendar_start_minutes INTEGER NOT NULL DEFAULT 0,
					calendar_end_minutes INTEGER NOT NULL DEFAULT 1440,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create competitions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS rounds (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					event_code TEXT,
					nth_round INTEGER NOT NULL DEFAULT 0,
					round_code TEXT NOT NULL DEFAULT '',
					format_code TEXT NOT NULL DEFAULT '',
					soft_cutoff JSONB,
					title TEXT NOT NULL DEFAULT '',
					nth_day INTEGER NOT NULL DEFAULT 0,
					start_minutes INTEGER NOT NULL DEFAULT 0,
					duration_minutes INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_rounds_competition_event ON rounds(competition_id, event_code, nth_round);
			`); err != nil {
				return fmt.Errorf("failed to create rounds table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS results (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
					user_id TEXT NOT NULL,
					position INTEGER,
					solves JSONB,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_results_round_user ON results(round_id, user_id);
			`); err != nil {
				return fmt.Errorf("failed to create results table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS round_groups (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					round_id UUID NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
					label TEXT NOT NULL,
					scramble_program TEXT NOT NULL DEFAULT '',
					scrambles TEXT[] NOT NULL DEFAULT '{}',
					extra_scrambles TEXT[] NOT NULL DEFAULT '{}',
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_round_groups_round_label ON round_groups(round_id, label);
			`); err != nil {
				return fmt.Errorf("failed to create round_groups table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping competition tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS round_groups;
				DROP TABLE IF EXISTS results;
				DROP TABLE IF EXISTS rounds;
				DROP TABLE IF EXISTS competitions;
				DROP TABLE IF EXISTS users;
			`); err != nil {
				return fmt.Errorf("failed to drop competition tables: %w", err)
			}
			return nil
		})
	})
}
