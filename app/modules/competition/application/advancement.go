package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitionevents "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/events"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AdvanceCompetitorsFromRound makes the roster of the next round equal to the
// top competitorCount finishers of roundID. Competitors already in the next
// round keep their result untouched; re-running with the same count writes nothing.
func (s *CompetitionService) AdvanceCompetitorsFromRound(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (*AdvanceOutcome, error) {
	unlock := s.lockRoundEvent(ctx, roundID)
	defer unlock()

	var competitionID uuid.UUID
	var eventCode string
	outcome, err := operation(s, ctx, "AdvanceCompetitorsFromRound", roundID.String(), func(ctx context.Context, db bun.IDB) (resultOf[*AdvanceOutcome], error) {
		outcome, next, err := s.advanceLogic(ctx, db, actorID, competitorCount, roundID)
		if err != nil {
			return failOr[*AdvanceOutcome](err)
		}
		competitionID = next.CompetitionID
		eventCode = next.Event()
		return succeed(outcome), nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCompetitorsAdvanced(ctx, eventCode, len(outcome.Added), len(outcome.Removed))
	}
	if len(outcome.Added) > 0 || len(outcome.Removed) > 0 {
		s.publish(ctx, competitionevents.CompetitorsAdvanced, competitionevents.CompetitorsAdvancedPayload{
			CompetitionID: competitionID,
			SourceRoundID: outcome.SourceRoundID,
			NextRoundID:   outcome.NextRoundID,
			Added:         outcome.Added,
			Removed:       outcome.Removed,
			OccurredAt:    s.clock.Now(),
		})
	}
	return outcome, nil
}

func (s *CompetitionService) advanceLogic(ctx context.Context, db bun.IDB, actorID string, competitorCount int, roundID uuid.UUID) (*AdvanceOutcome, *competitiondb.Round, error) {
	source, err := s.getRound(ctx, db, roundID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.authorize(ctx, db, actorID, source.CompetitionID.String()); err != nil {
		return nil, nil, err
	}
	if source.IsEventRound() {
		if err := s.repo.LockEvent(ctx, db, source.CompetitionID, source.Event()); err != nil {
			return nil, nil, err
		}
	}

	ranked, err := s.repo.ListResults(ctx, db, source.ID)
	if err != nil {
		return nil, nil, err
	}
	if competitorCount < 0 {
		return nil, nil, fmt.Errorf("%w: cannot advance a negative number of competitors", ErrInvalidCount)
	}
	if competitorCount > len(ranked) {
		return nil, nil, fmt.Errorf("%w: cannot advance %d of %d competitors", ErrInvalidCount, competitorCount, len(ranked))
	}

	if !source.IsEventRound() {
		return nil, nil, fmt.Errorf("%w: round %s has no event", ErrNoNextRound, source.ID)
	}
	next, err := s.repo.GetNthRound(ctx, db, source.CompetitionID, source.Event(), source.NthRound+1)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: after round %s", ErrNoNextRound, source.ID)
		}
		return nil, nil, err
	}

	desired := make([]string, 0, competitorCount)
	for _, r := range ranked[:competitorCount] {
		desired = append(desired, r.UserID)
	}

	current, err := s.repo.ListResults(ctx, db, next.ID)
	if err != nil {
		return nil, nil, err
	}
	actual := make([]string, 0, len(current))
	for _, r := range current {
		actual = append(actual, r.UserID)
	}

	diff := Reconcile(desired, actual)
	outcome := &AdvanceOutcome{
		SourceRoundID: source.ID,
		NextRoundID:   next.ID,
		Added:         orEmpty(diff.Add),
		Removed:       orEmpty(diff.Remove),
	}
	if diff.Empty() {
		return outcome, next, nil
	}

	if err := s.repo.DeleteResults(ctx, db, next.ID, diff.Remove); err != nil {
		return nil, nil, err
	}
	added := make([]*competitiondb.Result, 0, len(diff.Add))
	for _, userID := range diff.Add {
		added = append(added, &competitiondb.Result{
			CompetitionID: next.CompetitionID,
			RoundID:       next.ID,
			UserID:        userID,
		})
	}
	if err := s.repo.InsertResults(ctx, db, added); err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "Competitors advanced",
		attr.String("source_round_id", source.ID.String()),
		attr.String("next_round_id", next.ID.String()),
		attr.Int("added", len(diff.Add)),
		attr.Int("removed", len(diff.Remove)),
	)
	return outcome, next, nil
}

// ListResults returns the results of a round by ascending position.
func (s *CompetitionService) ListResults(ctx context.Context, roundID uuid.UUID) ([]*competitiondb.Result, error) {
	return operation(s, ctx, "ListResults", roundID.String(), func(ctx context.Context, db bun.IDB) (resultOf[[]*competitiondb.Result], error) {
		if _, err := s.getRound(ctx, db, roundID); err != nil {
			return failOr[[]*competitiondb.Result](err)
		}
		results, err := s.repo.ListResults(ctx, db, roundID)
		if err != nil {
			return resultOf[[]*competitiondb.Result]{}, err
		}
		return succeed(results), nil
	})
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
