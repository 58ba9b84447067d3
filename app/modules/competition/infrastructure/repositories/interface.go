package competitiondb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for competition persistence.
// Every method accepts an optional bun.IDB so callers can run it inside a
// transaction; a nil db falls back to the repository's own connection.
//
// Error semantics:
//   - ErrNotFound: record does not exist
//   - Other errors: infrastructure failures
type Repository interface {
	// GetUser retrieves the identity record of an actor.
	GetUser(ctx context.Context, db bun.IDB, userID string) (*User, error)

	// GetCompetition retrieves a competition by primary id.
	GetCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*Competition, error)
	// GetCompetitionByRef retrieves a competition by primary id or public WCA id.
	GetCompetitionByRef(ctx context.Context, db bun.IDB, ref string) (*Competition, error)
	CreateCompetition(ctx context.Context, db bun.IDB, competition *Competition) error
	// UpdateCompetitionFields sets columns; a nil value clears the column.
	UpdateCompetitionFields(ctx context.Context, db bun.IDB, competitionID uuid.UUID, columns map[string]any) error
	// DeleteCompetition removes a competition with all of its rounds, results and groups.
	DeleteCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error

	// LockEvent takes a transaction scoped lock on one event of a competition.
	LockEvent(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) error

	GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*Round, error)
	// ListEventRounds returns rounds of an event ordered by nth_round, rounds
	// without a soft cutoff first on ties.
	ListEventRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) ([]*Round, error)
	ListCompetitionRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]*Round, error)
	CountEventRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) (int, error)
	GetNthRound(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string, nthRound int) (*Round, error)
	GetLastEventRound(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) (*Round, error)
	InsertRound(ctx context.Context, db bun.IDB, round *Round) error
	UpdateRoundPosition(ctx context.Context, db bun.IDB, roundID uuid.UUID, nthRound int, roundCode string) error
	// UpdateRoundFields sets columns; a nil value clears the column.
	UpdateRoundFields(ctx context.Context, db bun.IDB, roundID uuid.UUID, columns map[string]any) error
	DeleteRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) error

	CountResults(ctx context.Context, db bun.IDB, roundID uuid.UUID) (int, error)
	// ListResults returns results ordered by ascending position, unplaced last.
	ListResults(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]*Result, error)
	DeleteResults(ctx context.Context, db bun.IDB, roundID uuid.UUID, userIDs []string) error
	InsertResults(ctx context.Context, db bun.IDB, results []*Result) error

	GetGroup(ctx context.Context, db bun.IDB, roundID uuid.UUID, label string) (*Group, error)
	InsertGroup(ctx context.Context, db bun.IDB, group *Group) error
	// ReplaceGroup overwrites every column of the group with the given id.
	ReplaceGroup(ctx context.Context, db bun.IDB, group *Group) error
	DeleteGroupsByRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) error
}
