package competitiondb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CountResults counts the results recorded in a round.
func (r *Impl) CountResults(ctx context.Context, db bun.IDB, roundID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Result)(nil)).
		Where("round_id = ?", roundID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

// ListResults returns the results of a round by ascending position.
func (r *Impl) ListResults(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]*Result, error) {
	db = r.resolveDB(db)
	var results []*Result
	err := db.NewSelect().
		Model(&results).
		Where("round_id = ?", roundID).
		OrderExpr("position ASC NULLS LAST").
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	return results, nil
}

// DeleteResults removes the results of the given users from a round.
func (r *Impl) DeleteResults(ctx context.Context, db bun.IDB, roundID uuid.UUID, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*Result)(nil)).
		Where("round_id = ?", roundID).
		Where("user_id IN (?)", bun.In(userIDs)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	return nil
}

// InsertResults bulk inserts results, generating ids when unset.
func (r *Impl) InsertResults(ctx context.Context, db bun.IDB, results []*Result) error {
	if len(results) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	for _, res := range results {
		if res.ID == uuid.Nil {
			res.ID = uuid.New()
		}
	}
	if _, err := db.NewInsert().Model(&results).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert results: %w", err)
	}
	return nil
}
