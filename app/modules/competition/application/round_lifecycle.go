package competitionservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	competitionevents "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/events"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AddRound appends a round to an event and recomputes the codes of every
// round of that event.
func (s *CompetitionService) AddRound(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (*competitiondb.Round, error) {
	unlock := s.locks.Lock(competitionID, eventCode)
	defer unlock()

	var refreshed []*competitiondb.Round
	round, err := operation(s, ctx, "AddRound", competitionID.String(), func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Round], error) {
		round, rounds, err := s.addRoundLogic(ctx, db, actorID, competitionID, eventCode)
		if err != nil {
			return failOr[*competitiondb.Round](err)
		}
		refreshed = rounds
		return succeed(round), nil
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	s.publish(ctx, competitionevents.RoundAdded, competitionevents.RoundAddedPayload{
		CompetitionID: competitionID,
		RoundID:       round.ID,
		EventCode:     eventCode,
		RoundCode:     round.RoundCode,
		OccurredAt:    now,
	})
	s.publishRefreshed(ctx, competitionID, eventCode, refreshed)
	return round, nil
}

func (s *CompetitionService) addRoundLogic(ctx context.Context, db bun.IDB, actorID string, competitionID uuid.UUID, eventCode string) (*competitiondb.Round, []*competitiondb.Round, error) {
	competition, err := s.authorize(ctx, db, actorID, competitionID.String())
	if err != nil {
		return nil, nil, err
	}
	formatCode, ok := s.rules.DefaultFormat(eventCode)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrEventUnrecognized, eventCode)
	}

	if err := s.repo.LockEvent(ctx, db, competition.ID, eventCode); err != nil {
		return nil, nil, err
	}

	count, err := s.repo.CountEventRounds(ctx, db, competition.ID, eventCode)
	if err != nil {
		return nil, nil, err
	}
	maxRounds := s.rules.MaxRoundsPerEvent()
	if count >= maxRounds {
		return nil, nil, fmt.Errorf("%w: %s already has %d rounds", ErrTooManyRounds, eventCode, count)
	}

	// Provisional until the refresh below assigns its ordinal and code.
	round := &competitiondb.Round{
		CompetitionID: competition.ID,
		EventCode:     &eventCode,
		NthRound:      maxRounds - 1,
		FormatCode:    formatCode,
	}
	if err := s.repo.InsertRound(ctx, db, round); err != nil {
		return nil, nil, err
	}

	rounds, err := s.refreshRoundCodesLogic(ctx, db, competition.ID, eventCode)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range rounds {
		if r.ID == round.ID {
			return r, rounds, nil
		}
	}
	return nil, nil, fmt.Errorf("inserted round %s missing after refresh", round.ID)
}

// AddNonEventRound schedules a free-form entry that has no event, ordinal or code.
func (s *CompetitionService) AddNonEventRound(ctx context.Context, actorID string, competitionID uuid.UUID, input NonEventRound) (*competitiondb.Round, error) {
	round, err := operation(s, ctx, "AddNonEventRound", competitionID.String(), func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Round], error) {
		competition, err := s.authorize(ctx, db, actorID, competitionID.String())
		if err != nil {
			return failOr[*competitiondb.Round](err)
		}
		title := strings.TrimSpace(input.Title)
		if title == "" {
			return failOr[*competitiondb.Round](fmt.Errorf("%w: title must be nonempty", ErrInvalidArgument))
		}
		if input.StartMinutes < 0 || input.DurationMinutes < 0 || input.NthDay < 0 {
			return failOr[*competitiondb.Round](fmt.Errorf("%w: schedule values must not be negative", ErrInvalidArgument))
		}

		round := &competitiondb.Round{
			CompetitionID:   competition.ID,
			Title:           title,
			NthDay:          input.NthDay,
			StartMinutes:    input.StartMinutes,
			DurationMinutes: input.DurationMinutes,
		}
		if err := s.repo.InsertRound(ctx, db, round); err != nil {
			return resultOf[*competitiondb.Round]{}, err
		}
		return succeed(round), nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, competitionevents.RoundAdded, competitionevents.RoundAddedPayload{
		CompetitionID: round.CompetitionID,
		RoundID:       round.ID,
		OccurredAt:    s.clock.Now(),
	})
	return round, nil
}

type removedRound struct {
	round  *competitiondb.Round
	rounds []*competitiondb.Round
}

// RemoveRound deletes a round with its groups. Event rounds must be the last
// round of their event and hold no results.
func (s *CompetitionService) RemoveRound(ctx context.Context, actorID string, roundID uuid.UUID) error {
	unlock := s.lockRoundEvent(ctx, roundID)
	defer unlock()

	removed, err := operation(s, ctx, "RemoveRound", roundID.String(), func(ctx context.Context, db bun.IDB) (resultOf[removedRound], error) {
		removed, err := s.removeRoundLogic(ctx, db, actorID, roundID)
		if err != nil {
			return failOr[removedRound](err)
		}
		return succeed(removed), nil
	})
	if err != nil {
		return err
	}

	round := removed.round
	s.publish(ctx, competitionevents.RoundRemoved, competitionevents.RoundRemovedPayload{
		CompetitionID: round.CompetitionID,
		RoundID:       round.ID,
		EventCode:     round.Event(),
		OccurredAt:    s.clock.Now(),
	})
	if round.IsEventRound() {
		s.publishRefreshed(ctx, round.CompetitionID, round.Event(), removed.rounds)
	}
	return nil
}

func (s *CompetitionService) removeRoundLogic(ctx context.Context, db bun.IDB, actorID string, roundID uuid.UUID) (removedRound, error) {
	round, err := s.getRound(ctx, db, roundID)
	if err != nil {
		return removedRound{}, err
	}
	if _, err := s.authorize(ctx, db, actorID, round.CompetitionID.String()); err != nil {
		return removedRound{}, err
	}

	if round.IsEventRound() {
		if err := s.repo.LockEvent(ctx, db, round.CompetitionID, round.Event()); err != nil {
			return removedRound{}, err
		}
		last, err := s.repo.GetLastEventRound(ctx, db, round.CompetitionID, round.Event())
		if err != nil {
			return removedRound{}, fmt.Errorf("failed to find last round: %w", err)
		}
		if last.ID != round.ID {
			return removedRound{}, fmt.Errorf("%w: round %s is not the last round of %s", ErrCannotRemove, round.ID, round.Event())
		}
		count, err := s.repo.CountResults(ctx, db, round.ID)
		if err != nil {
			return removedRound{}, err
		}
		if count > 0 {
			return removedRound{}, fmt.Errorf("%w: round %s has %d results", ErrCannotRemove, round.ID, count)
		}
	}

	if err := s.repo.DeleteGroupsByRound(ctx, db, round.ID); err != nil {
		return removedRound{}, err
	}
	if err := s.repo.DeleteRound(ctx, db, round.ID); err != nil {
		return removedRound{}, err
	}

	removed := removedRound{round: round}
	if round.IsEventRound() {
		removed.rounds, err = s.refreshRoundCodesLogic(ctx, db, round.CompetitionID, round.Event())
		if err != nil {
			return removedRound{}, err
		}
	}
	return removed, nil
}

// RefreshRoundCodes renumbers the rounds of an event and recomputes their codes.
// Running it again without an intervening change writes nothing.
func (s *CompetitionService) RefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error) {
	unlock := s.locks.Lock(competitionID, eventCode)
	defer unlock()

	rounds, err := operation(s, ctx, "RefreshRoundCodes", competitionID.String()+"/"+eventCode, func(ctx context.Context, db bun.IDB) (resultOf[[]*competitiondb.Round], error) {
		competition, err := s.authorize(ctx, db, actorID, competitionID.String())
		if err != nil {
			return failOr[[]*competitiondb.Round](err)
		}
		if !s.rules.IsEventRecognized(eventCode) {
			return failOr[[]*competitiondb.Round](fmt.Errorf("%w: %q", ErrEventUnrecognized, eventCode))
		}
		if err := s.repo.LockEvent(ctx, db, competition.ID, eventCode); err != nil {
			return resultOf[[]*competitiondb.Round]{}, err
		}
		rounds, err := s.refreshRoundCodesLogic(ctx, db, competition.ID, eventCode)
		if err != nil {
			return failOr[[]*competitiondb.Round](err)
		}
		return succeed(rounds), nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRefreshed(ctx, competitionID, eventCode, rounds)
	return rounds, nil
}

// refreshRoundCodesLogic assumes the caller holds the event lock.
func (s *CompetitionService) refreshRoundCodesLogic(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error) {
	rounds, err := s.repo.ListEventRounds(ctx, db, competitionID, eventCode)
	if err != nil {
		return nil, err
	}
	if len(rounds) > s.rules.MaxRoundsPerEvent() {
		return nil, fmt.Errorf("%w: %s has %d rounds", ErrTooManyRounds, eventCode, len(rounds))
	}

	rewritten := 0
	for i, round := range rounds {
		code, err := s.rules.AssignCode(i, i == len(rounds)-1, round.HasSoftCutoff())
		if err != nil {
			return nil, err
		}
		if round.NthRound == i && round.RoundCode == string(code) {
			continue
		}
		if err := s.repo.UpdateRoundPosition(ctx, db, round.ID, i, string(code)); err != nil {
			return nil, err
		}
		round.NthRound = i
		round.RoundCode = string(code)
		rewritten++
	}

	if rewritten > 0 {
		s.logger.InfoContext(ctx, "Round codes refreshed",
			attr.String("competition_id", competitionID.String()),
			attr.String("event_code", eventCode),
			attr.Int("rewritten", rewritten),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordRoundCodesRefreshed(ctx, eventCode, rewritten)
	}
	return rounds, nil
}

func (s *CompetitionService) publishRefreshed(ctx context.Context, competitionID uuid.UUID, eventCode string, rounds []*competitiondb.Round) {
	codes := make([]competitionevents.RoundCode, 0, len(rounds))
	for _, r := range rounds {
		codes = append(codes, competitionevents.RoundCode{RoundID: r.ID, NthRound: r.NthRound, RoundCode: r.RoundCode})
	}
	s.publish(ctx, competitionevents.RoundCodesRefreshed, competitionevents.RoundCodesRefreshedPayload{
		CompetitionID: competitionID,
		EventCode:     eventCode,
		Rounds:        codes,
		OccurredAt:    s.clock.Now(),
	})
}

// UpdateRound sets or clears allow-listed round fields. A JSON null clears the
// field. Changing the soft cutoff of an event round recomputes its codes.
func (s *CompetitionService) UpdateRound(ctx context.Context, actorID string, roundID uuid.UUID, fields map[string]json.RawMessage) (*competitiondb.Round, error) {
	unlock := s.lockRoundEvent(ctx, roundID)
	defer unlock()

	return operation(s, ctx, "UpdateRound", roundID.String(), func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Round], error) {
		round, err := s.updateRoundLogic(ctx, db, actorID, roundID, fields)
		if err != nil {
			return failOr[*competitiondb.Round](err)
		}
		return succeed(round), nil
	})
}

func (s *CompetitionService) updateRoundLogic(ctx context.Context, db bun.IDB, actorID string, roundID uuid.UUID, fields map[string]json.RawMessage) (*competitiondb.Round, error) {
	round, err := s.getRound(ctx, db, roundID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, db, actorID, round.CompetitionID.String()); err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(fields))
	if !FilterRoundFields(names) {
		return nil, fmt.Errorf("%w: round fields %v", ErrForbidden, names)
	}

	columns, err := s.roundColumns(round, fields)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return round, nil
	}

	_, cutoffChanged := fields["softCutoff"]
	if cutoffChanged && round.IsEventRound() {
		if err := s.repo.LockEvent(ctx, db, round.CompetitionID, round.Event()); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateRoundFields(ctx, db, round.ID, columns); err != nil {
		return nil, err
	}
	if cutoffChanged && round.IsEventRound() {
		if _, err := s.refreshRoundCodesLogic(ctx, db, round.CompetitionID, round.Event()); err != nil {
			return nil, err
		}
	}
	return s.repo.GetRound(ctx, db, round.ID)
}

// roundColumns validates each field and maps it onto its column.
func (s *CompetitionService) roundColumns(round *competitiondb.Round, fields map[string]json.RawMessage) (map[string]any, error) {
	columns := make(map[string]any, len(fields))
	for name, raw := range fields {
		switch name {
		case "formatCode":
			var format string
			if err := decodeField(name, raw, &format); err != nil {
				return nil, err
			}
			if round.IsEventRound() && !s.rules.FormatAllowed(round.Event(), format) {
				return nil, fmt.Errorf("%w: %q for %s", ErrFormatUnrecognized, format, round.Event())
			}
			columns["format_code"] = format
		case "title":
			var title string
			if err := decodeField(name, raw, &title); err != nil {
				return nil, err
			}
			columns["title"] = title
		case "nthDay", "startMinutes", "durationMinutes":
			var v int
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if v < 0 {
				return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidArgument, name)
			}
			columns[columnName(name)] = v
		case "softCutoff":
			var cutoff *competitiondb.SoftCutoff
			if err := decodeField(name, raw, &cutoff); err != nil {
				return nil, err
			}
			if cutoff == nil {
				columns["soft_cutoff"] = nil
				continue
			}
			if cutoff.Time <= 0 {
				return nil, fmt.Errorf("%w: soft cutoff time must be positive", ErrInvalidArgument)
			}
			if round.IsEventRound() && !s.rules.FormatAllowed(round.Event(), cutoff.FormatCode) {
				return nil, fmt.Errorf("%w: soft cutoff format %q", ErrFormatUnrecognized, cutoff.FormatCode)
			}
			encoded, err := json.Marshal(cutoff)
			if err != nil {
				return nil, err
			}
			columns["soft_cutoff"] = string(encoded)
		}
	}
	return columns, nil
}

// ListRounds returns every round of a competition.
func (s *CompetitionService) ListRounds(ctx context.Context, competitionID uuid.UUID) ([]*competitiondb.Round, error) {
	return operation(s, ctx, "ListRounds", competitionID.String(), func(ctx context.Context, db bun.IDB) (resultOf[[]*competitiondb.Round], error) {
		if _, err := s.repo.GetCompetition(ctx, db, competitionID); err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return failOr[[]*competitiondb.Round](fmt.Errorf("competition %s: %w", competitionID, ErrNotFound))
			}
			return resultOf[[]*competitiondb.Round]{}, err
		}
		rounds, err := s.repo.ListCompetitionRounds(ctx, db, competitionID)
		if err != nil {
			return resultOf[[]*competitiondb.Round]{}, err
		}
		return succeed(rounds), nil
	})
}

// GetRound returns one round.
func (s *CompetitionService) GetRound(ctx context.Context, roundID uuid.UUID) (*competitiondb.Round, error) {
	return operation(s, ctx, "GetRound", roundID.String(), func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Round], error) {
		round, err := s.getRound(ctx, db, roundID)
		if err != nil {
			return failOr[*competitiondb.Round](err)
		}
		return succeed(round), nil
	})
}

func (s *CompetitionService) getRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*competitiondb.Round, error) {
	round, err := s.repo.GetRound(ctx, db, roundID)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return nil, fmt.Errorf("round %s: %w", roundID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}
