package competitiondb

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Competition is a multi-event competition.
type Competition struct {
	bun.BaseModel        `bun:"table:competitions,alias:c"`
	ID                   uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CompetitionName      string    `bun:"competition_name,notnull" json:"competitionName"`
	WCACompetitionID     *string   `bun:"wca_competition_id,unique" json:"wcaCompetitionId,omitempty"`
	Organizers           []string  `bun:"organizers,array" json:"organizers"`
	Staff                []string  `bun:"staff,array" json:"staff"`
	Listed               bool      `bun:"listed,notnull" json:"listed"`
	StartDate            time.Time `bun:"start_date,nullzero" json:"startDate"`
	NumberOfDays         int       `bun:"number_of_days,notnull,default:1" json:"numberOfDays"`
	CalendarStartMinutes int       `bun:"calendar_start_minutes,notnull,default:0" json:"calendarStartMinutes"`
	CalendarEndMinutes   int       `bun:"calendar_end_minutes,notnull,default:1440" json:"calendarEndMinutes"`
	CreatedAt            time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt            time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// HasOrganizer reports whether userID is listed as an organizer.
func (c *Competition) HasOrganizer(userID string) bool {
	return slices.Contains(c.Organizers, userID)
}

// SoftCutoff is a round policy where only competitors under Time continue past
// the first attempts of FormatCode.
type SoftCutoff struct {
	Time       int    `json:"time"`
	FormatCode string `json:"formatCode"`
}

// RoundState is the lifecycle state of a persisted round.
type RoundState string

const (
	// RoundStateProvisional marks an event round inserted but not yet given a code.
	RoundStateProvisional RoundState = "PROVISIONAL"
	// RoundStateActive marks a round with a canonical code.
	RoundStateActive RoundState = "ACTIVE"
)

// Round is one competitive stage of an event, or a free-form schedule entry
// when EventCode is nil.
type Round struct {
	bun.BaseModel   `bun:"table:rounds,alias:r"`
	ID              uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	CompetitionID   uuid.UUID   `bun:"competition_id,type:uuid,notnull" json:"competitionId"`
	EventCode       *string     `bun:"event_code" json:"eventCode,omitempty"`
	NthRound        int         `bun:"nth_round,notnull,default:0" json:"nthRound"`
	RoundCode       string      `bun:"round_code" json:"roundCode"`
	FormatCode      string      `bun:"format_code" json:"formatCode"`
	SoftCutoff      *SoftCutoff `bun:"soft_cutoff,type:jsonb" json:"softCutoff,omitempty"`
	Title           string      `bun:"title" json:"title,omitempty"`
	NthDay          int         `bun:"nth_day,notnull,default:0" json:"nthDay"`
	StartMinutes    int         `bun:"start_minutes,notnull,default:0" json:"startMinutes"`
	DurationMinutes int         `bun:"duration_minutes,notnull,default:0" json:"durationMinutes"`
	CreatedAt       time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time   `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// IsEventRound reports whether the round belongs to a canonical event.
func (r *Round) IsEventRound() bool {
	return r.EventCode != nil && *r.EventCode != ""
}

// Event returns the event code, or "" for non-event rounds.
func (r *Round) Event() string {
	if r.EventCode == nil {
		return ""
	}
	return *r.EventCode
}

// HasSoftCutoff reports whether a soft cutoff is configured.
func (r *Round) HasSoftCutoff() bool {
	return r.SoftCutoff != nil
}

// State derives the lifecycle state. Non-event rounds are always active.
func (r *Round) State() RoundState {
	if r.IsEventRound() && r.RoundCode == "" {
		return RoundStateProvisional
	}
	return RoundStateActive
}

// Result is one competitor's entry in a round.
type Result struct {
	bun.BaseModel `bun:"table:results,alias:res"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CompetitionID uuid.UUID `bun:"competition_id,type:uuid,notnull" json:"competitionId"`
	RoundID       uuid.UUID `bun:"round_id,type:uuid,notnull" json:"roundId"`
	UserID        string    `bun:"user_id,notnull" json:"userId"`
	Position      *int      `bun:"position" json:"position"`
	Solves        []int     `bun:"solves,type:jsonb" json:"solves,omitempty"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Group is a scheduling subdivision of a round, keyed by (RoundID, Label).
type Group struct {
	bun.BaseModel   `bun:"table:round_groups,alias:g"`
	ID              uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	CompetitionID   uuid.UUID `bun:"competition_id,type:uuid,notnull" json:"competitionId"`
	RoundID         uuid.UUID `bun:"round_id,type:uuid,notnull" json:"roundId"`
	Label           string    `bun:"label,notnull" json:"label"`
	ScrambleProgram string    `bun:"scramble_program" json:"scrambleProgram"`
	Scrambles       []string  `bun:"scrambles,array" json:"scrambles"`
	ExtraScrambles  []string  `bun:"extra_scrambles,array" json:"extraScrambles,omitempty"`
	UpdatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// User is the identity record consulted for permission checks.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            string `bun:"id,pk" json:"id"`
	Name          string `bun:"name" json:"name"`
	Email         string `bun:"email" json:"email"`
	EmailVerified bool   `bun:"email_verified,notnull" json:"emailVerified"`
	SiteAdmin     bool   `bun:"site_admin,notnull" json:"siteAdmin"`
}
