// Package competitionevents defines the topics and payloads the competition
// module publishes after a committed change.
package competitionevents

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoundAdded          = "competition.round.added.v1"
	RoundRemoved        = "competition.round.removed.v1"
	RoundCodesRefreshed = "competition.round_codes.refreshed.v1"
	CompetitorsAdvanced = "competition.competitors.advanced.v1"
	GroupPut            = "competition.group.put.v1"
	CompetitionDeleted  = "competition.deleted.v1"
)

// CorrelationIDMetadataKey is the message metadata key carrying the request correlation id.
const CorrelationIDMetadataKey = "correlation_id"

// RoundCode is one round's position after a refresh.
type RoundCode struct {
	RoundID   uuid.UUID `json:"round_id"`
	NthRound  int       `json:"nth_round"`
	RoundCode string    `json:"round_code"`
}

type RoundAddedPayload struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	RoundID       uuid.UUID `json:"round_id"`
	EventCode     string    `json:"event_code,omitempty"`
	RoundCode     string    `json:"round_code,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type RoundRemovedPayload struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	RoundID       uuid.UUID `json:"round_id"`
	EventCode     string    `json:"event_code,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type RoundCodesRefreshedPayload struct {
	CompetitionID uuid.UUID   `json:"competition_id"`
	EventCode     string      `json:"event_code"`
	Rounds        []RoundCode `json:"rounds"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

type CompetitorsAdvancedPayload struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	SourceRoundID uuid.UUID `json:"source_round_id"`
	NextRoundID   uuid.UUID `json:"next_round_id"`
	Added         []string  `json:"added"`
	Removed       []string  `json:"removed"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type GroupPutPayload struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	RoundID       uuid.UUID `json:"round_id"`
	GroupID       uuid.UUID `json:"group_id"`
	Label         string    `json:"label"`
	Replaced      bool      `json:"replaced"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type CompetitionDeletedPayload struct {
	CompetitionID uuid.UUID `json:"competition_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}
