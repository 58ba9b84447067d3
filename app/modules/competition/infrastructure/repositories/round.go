package competitiondb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetRound retrieves a round by id.
func (r *Impl) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*Round, error) {
	db = r.resolveDB(db)
	round := new(Round)
	err := db.NewSelect().
		Model(round).
		Where("id = ?", roundID).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to get round")
	}
	return round, nil
}

// ListEventRounds returns every round of one event in ordinal order.
func (r *Impl) ListEventRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) ([]*Round, error) {
	db = r.resolveDB(db)
	var rounds []*Round
	err := db.NewSelect().
		Model(&rounds).
		Where("competition_id = ?", competitionID).
		Where("event_code = ?", eventCode).
		OrderExpr("nth_round ASC").
		OrderExpr("(soft_cutoff IS NOT NULL) ASC").
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list event rounds: %w", err)
	}
	return rounds, nil
}

// ListCompetitionRounds returns all rounds of a competition, event rounds grouped by event.
func (r *Impl) ListCompetitionRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]*Round, error) {
	db = r.resolveDB(db)
	var rounds []*Round
	err := db.NewSelect().
		Model(&rounds).
		Where("competition_id = ?", competitionID).
		OrderExpr("event_code ASC NULLS LAST").
		OrderExpr("nth_round ASC").
		OrderExpr("nth_day ASC, start_minutes ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list competition rounds: %w", err)
	}
	return rounds, nil
}

// CountEventRounds counts the rounds of one event.
func (r *Impl) CountEventRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Round)(nil)).
		Where("competition_id = ?", competitionID).
		Where("event_code = ?", eventCode).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count event rounds: %w", err)
	}
	return count, nil
}

// GetNthRound retrieves the round of an event at the given ordinal.
func (r *Impl) GetNthRound(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string, nthRound int) (*Round, error) {
	db = r.resolveDB(db)
	round := new(Round)
	err := db.NewSelect().
		Model(round).
		Where("competition_id = ?", competitionID).
		Where("event_code = ?", eventCode).
		Where("nth_round = ?", nthRound).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to get round by ordinal")
	}
	return round, nil
}

// GetLastEventRound retrieves the tail round of an event.
func (r *Impl) GetLastEventRound(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) (*Round, error) {
	db = r.resolveDB(db)
	round := new(Round)
	err := db.NewSelect().
		Model(round).
		Where("competition_id = ?", competitionID).
		Where("event_code = ?", eventCode).
		OrderExpr("nth_round DESC").
		OrderExpr("(soft_cutoff IS NOT NULL) DESC").
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to get last event round")
	}
	return round, nil
}

// InsertRound inserts a round, generating its id when unset.
func (r *Impl) InsertRound(ctx context.Context, db bun.IDB, round *Round) error {
	db = r.resolveDB(db)
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(round).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// UpdateRoundPosition writes the ordinal and code of a round.
func (r *Impl) UpdateRoundPosition(ctx context.Context, db bun.IDB, roundID uuid.UUID, nthRound int, roundCode string) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Round)(nil)).
		Set("nth_round = ?", nthRound).
		Set("round_code = ?", roundCode).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", roundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update round position: %w", err)
	}
	return requireRows(res)
}

// UpdateRoundFields sets the given columns of a round.
func (r *Impl) UpdateRoundFields(ctx context.Context, db bun.IDB, roundID uuid.UUID, columns map[string]any) error {
	db = r.resolveDB(db)
	q := db.NewUpdate().Model((*Round)(nil)).Where("id = ?", roundID)
	return execFieldUpdate(ctx, q, columns, "round")
}

// DeleteRound removes a round row.
func (r *Impl) DeleteRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*Round)(nil)).
		Where("id = ?", roundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}
	return requireRows(res)
}
