package competitionservice

import (
	"context"
	"encoding/json"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
)

// Service is the round progression and advancement engine of a competition.
// Every method takes the acting user's id explicitly; an empty id is an
// unauthenticated caller.
type Service interface {
	// Authorize fails unless actorID may manage the referenced competition.
	Authorize(ctx context.Context, actorID, competitionRef string) error

	CreateCompetition(ctx context.Context, actorID, name string) (uuid.UUID, error)
	GetCompetition(ctx context.Context, competitionRef string) (*competitiondb.Competition, error)
	UpdateCompetition(ctx context.Context, actorID, competitionRef string, fields map[string]json.RawMessage) (*competitiondb.Competition, error)
	DeleteCompetition(ctx context.Context, actorID, competitionRef string) error

	AddRound(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (*competitiondb.Round, error)
	AddNonEventRound(ctx context.Context, actorID string, competitionID uuid.UUID, input NonEventRound) (*competitiondb.Round, error)
	RemoveRound(ctx context.Context, actorID string, roundID uuid.UUID) error
	RefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error)
	UpdateRound(ctx context.Context, actorID string, roundID uuid.UUID, fields map[string]json.RawMessage) (*competitiondb.Round, error)
	ListRounds(ctx context.Context, competitionID uuid.UUID) ([]*competitiondb.Round, error)
	GetRound(ctx context.Context, roundID uuid.UUID) (*competitiondb.Round, error)

	AdvanceCompetitorsFromRound(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (*AdvanceOutcome, error)
	ListResults(ctx context.Context, roundID uuid.UUID) ([]*competitiondb.Result, error)

	PutGroup(ctx context.Context, actorID string, group *competitiondb.Group) (*competitiondb.Group, error)
}

// NonEventRound describes a free-form schedule entry such as lunch or registration.
type NonEventRound struct {
	Title           string `json:"title"`
	StartMinutes    int    `json:"startMinutes"`
	DurationMinutes int    `json:"durationMinutes"`
	NthDay          int    `json:"nthDay"`
}

// AdvanceOutcome reports the roster changes applied to the next round.
type AdvanceOutcome struct {
	SourceRoundID uuid.UUID `json:"sourceRoundId"`
	NextRoundID   uuid.UUID `json:"nextRoundId"`
	Added         []string  `json:"added"`
	Removed       []string  `json:"removed"`
}
