package competitiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new competition repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func notFoundOr(err error, format string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", err)
}

// GetUser retrieves a user by id.
func (r *Impl) GetUser(ctx context.Context, db bun.IDB, userID string) (*User, error) {
	db = r.resolveDB(db)
	user := new(User)
	err := db.NewSelect().
		Model(user).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to get user")
	}
	return user, nil
}

// GetCompetition retrieves a competition by id.
func (r *Impl) GetCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*Competition, error) {
	db = r.resolveDB(db)
	competition := new(Competition)
	err := db.NewSelect().
		Model(competition).
		Where("id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "failed to get competition")
	}
	return competition, nil
}

// GetCompetitionByRef retrieves a competition by id or WCA competition id.
func (r *Impl) GetCompetitionByRef(ctx context.Context, db bun.IDB, ref string) (*Competition, error) {
	db = r.resolveDB(db)
	competition := new(Competition)
	q := db.NewSelect().Model(competition)
	if id, err := uuid.Parse(ref); err == nil {
		q = q.Where("id = ? OR wca_competition_id = ?", id, ref)
	} else {
		q = q.Where("wca_competition_id = ?", ref)
	}
	if err := q.Limit(1).Scan(ctx); err != nil {
		return nil, notFoundOr(err, "failed to get competition by ref")
	}
	return competition, nil
}

// CreateCompetition inserts a competition.
func (r *Impl) CreateCompetition(ctx context.Context, db bun.IDB, competition *Competition) error {
	db = r.resolveDB(db)
	if competition.ID == uuid.Nil {
		competition.ID = uuid.New()
	}
	if competition.Organizers == nil {
		competition.Organizers = []string{}
	}
	if competition.Staff == nil {
		competition.Staff = []string{}
	}
	if _, err := db.NewInsert().Model(competition).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}
	return nil
}

// UpdateCompetitionFields sets the given columns.
func (r *Impl) UpdateCompetitionFields(ctx context.Context, db bun.IDB, competitionID uuid.UUID, columns map[string]any) error {
	db = r.resolveDB(db)
	q := db.NewUpdate().Model((*Competition)(nil)).Where("id = ?", competitionID)
	return execFieldUpdate(ctx, q, columns, "competition")
}

// DeleteCompetition removes the competition and everything that hangs off it.
func (r *Impl) DeleteCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error {
	db = r.resolveDB(db)
	if _, err := db.NewDelete().Model((*Group)(nil)).Where("competition_id = ?", competitionID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete groups: %w", err)
	}
	if _, err := db.NewDelete().Model((*Result)(nil)).Where("competition_id = ?", competitionID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	if _, err := db.NewDelete().Model((*Round)(nil)).Where("competition_id = ?", competitionID).Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete rounds: %w", err)
	}
	res, err := db.NewDelete().Model((*Competition)(nil)).Where("id = ?", competitionID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete competition: %w", err)
	}
	return requireRows(res)
}

// LockEvent serializes writers of one (competition, event) pair across processes
// for the lifetime of the surrounding transaction.
func (r *Impl) LockEvent(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) error {
	db = r.resolveDB(db)
	key := competitionID.String() + "/" + eventCode
	if _, err := db.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", key); err != nil {
		return fmt.Errorf("failed to lock event %s: %w", key, err)
	}
	return nil
}

// execFieldUpdate applies a column map to an update query in a stable column order.
func execFieldUpdate(ctx context.Context, q *bun.UpdateQuery, columns map[string]any, entity string) error {
	if len(columns) == 0 {
		return nil
	}
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := columns[name]
		if list, ok := value.([]string); ok {
			value = pgdialect.Array(list)
		}
		q = q.Set("? = ?", bun.Ident(name), value)
	}
	q = q.Set("updated_at = ?", time.Now())

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", entity, err)
	}
	return requireRows(res)
}

func requireRows(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
