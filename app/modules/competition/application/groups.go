package competitionservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	competitionevents "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/events"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/uptrace/bun"
)

type putGroupResult struct {
	group    *competitiondb.Group
	replaced bool
}

// PutGroup inserts a group or fully overwrites the one with the same round and label.
func (s *CompetitionService) PutGroup(ctx context.Context, actorID string, group *competitiondb.Group) (*competitiondb.Group, error) {
	if group == nil {
		return nil, fmt.Errorf("%w: group is required", ErrInvalidArgument)
	}

	put, err := operation(s, ctx, "PutGroup", group.RoundID.String()+"/"+group.Label, func(ctx context.Context, db bun.IDB) (resultOf[putGroupResult], error) {
		put, err := s.putGroupLogic(ctx, db, actorID, group)
		if err != nil {
			return failOr[putGroupResult](err)
		}
		return succeed(put), nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, competitionevents.GroupPut, competitionevents.GroupPutPayload{
		CompetitionID: put.group.CompetitionID,
		RoundID:       put.group.RoundID,
		GroupID:       put.group.ID,
		Label:         put.group.Label,
		Replaced:      put.replaced,
		OccurredAt:    s.clock.Now(),
	})
	return put.group, nil
}

func (s *CompetitionService) putGroupLogic(ctx context.Context, db bun.IDB, actorID string, group *competitiondb.Group) (putGroupResult, error) {
	if _, err := s.authorize(ctx, db, actorID, group.CompetitionID.String()); err != nil {
		return putGroupResult{}, err
	}

	round, err := s.repo.GetRound(ctx, db, group.RoundID)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return putGroupResult{}, fmt.Errorf("%w: round %s does not exist", ErrInvalidRound, group.RoundID)
		}
		return putGroupResult{}, err
	}
	if round.CompetitionID != group.CompetitionID {
		return putGroupResult{}, fmt.Errorf("%w: round %s belongs to another competition", ErrInvalidRound, round.ID)
	}
	if strings.TrimSpace(group.Label) == "" {
		return putGroupResult{}, fmt.Errorf("%w: group label must be nonempty", ErrInvalidArgument)
	}

	existing, err := s.repo.GetGroup(ctx, db, group.RoundID, group.Label)
	if err != nil && !errors.Is(err, competitiondb.ErrNotFound) {
		return putGroupResult{}, err
	}

	stored := *group
	if existing != nil {
		s.logger.WarnContext(ctx, "Clobbering existing group",
			attr.String("group_id", existing.ID.String()),
			attr.String("round_id", existing.RoundID.String()),
			attr.String("label", existing.Label),
			attr.Any("existing", existing),
		)
		stored.ID = existing.ID
		if err := s.repo.ReplaceGroup(ctx, db, &stored); err != nil {
			return putGroupResult{}, err
		}
		return putGroupResult{group: &stored, replaced: true}, nil
	}

	if err := s.repo.InsertGroup(ctx, db, &stored); err != nil {
		return putGroupResult{}, err
	}
	return putGroupResult{group: &stored}, nil
}
