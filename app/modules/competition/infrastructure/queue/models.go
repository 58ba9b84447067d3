package competitionqueue

import (
	"github.com/google/uuid"
)

// RefreshRoundCodesJob recomputes the codes of one event's rounds. Only fields
// tagged unique take part in River's by-args deduplication.
type RefreshRoundCodesJob struct {
	ActorID       string    `json:"actor_id" river:"unique"`
	CompetitionID uuid.UUID `json:"competition_id" river:"unique"`
	EventCode     string    `json:"event_code" river:"unique"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Kind returns the job type identifier for River
func (RefreshRoundCodesJob) Kind() string { return "competition_refresh_round_codes" }

// AdvanceCompetitorsJob reconciles the roster of the round after RoundID.
type AdvanceCompetitorsJob struct {
	ActorID         string    `json:"actor_id" river:"unique"`
	RoundID         uuid.UUID `json:"round_id" river:"unique"`
	CompetitorCount int       `json:"competitor_count" river:"unique"`
	CorrelationID   string    `json:"correlation_id,omitempty"`
}

// Kind returns the job type identifier for River
func (AdvanceCompetitorsJob) Kind() string { return "competition_advance_competitors" }

// JobInfo represents information about an enqueued job.
type JobInfo struct {
	ID         int64  `json:"id"`
	Kind       string `json:"kind"`
	State      string `json:"state"`
	Duplicate  bool   `json:"duplicate"`
	EnqueuedAt string `json:"enqueued_at"`
}
