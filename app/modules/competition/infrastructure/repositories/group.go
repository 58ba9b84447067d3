package competitiondb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetGroup retrieves a group by its natural key.
func (r *Impl) GetGroup(ctx context.Context, db bun.IDB, roundID uuid.UUID, label string) (*Group, error) {
	db = r.resolveDB(db)
	group := new(Group)
	err := db.NewSelect().
		Model(group).
		Where("round_id = ?", roundID).
		Where("label = ?", label).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to get group")
	}
	return group, nil
}

// InsertGroup inserts a group, generating its id when unset.
func (r *Impl) InsertGroup(ctx context.Context, db bun.IDB, group *Group) error {
	db = r.resolveDB(db)
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	if _, err := insertGroupQuery(db, group).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// ReplaceGroup overwrites every column of an existing group.
func (r *Impl) ReplaceGroup(ctx context.Context, db bun.IDB, group *Group) error {
	db = r.resolveDB(db)
	res, err := replaceGroupQuery(db, group).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to replace group: %w", err)
	}
	return requireRows(res)
}

// DeleteGroupsByRound removes every group of a round.
func (r *Impl) DeleteGroupsByRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*Group)(nil)).
		Where("round_id = ?", roundID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete groups: %w", err)
	}
	return nil
}

// The scramble columns are NOT NULL, and bun writes a nil slice as NULL.
func normalizeGroup(group *Group) {
	if group.Scrambles == nil {
		group.Scrambles = []string{}
	}
	if group.ExtraScrambles == nil {
		group.ExtraScrambles = []string{}
	}
	group.UpdatedAt = time.Now()
}

func insertGroupQuery(db bun.IDB, group *Group) *bun.InsertQuery {
	normalizeGroup(group)
	return db.NewInsert().Model(group)
}

func replaceGroupQuery(db bun.IDB, group *Group) *bun.UpdateQuery {
	normalizeGroup(group)
	return db.NewUpdate().Model(group).WherePK()
}
