package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/uptrace/bun"
)

var competitionFields = []string{
	"competitionName",
	"organizers",
	"staff",
	"startDate",
	"numberOfDays",
	"calendarStartMinutes",
	"calendarEndMinutes",
}

var siteAdminCompetitionFields = []string{
	"listed",
	"wcaCompetitionId",
}

var roundFields = []string{
	"formatCode",
	"nthDay",
	"startMinutes",
	"durationMinutes",
	"title",
	"softCutoff",
}

// Authorize fails unless actorID may manage the referenced competition.
func (s *CompetitionService) Authorize(ctx context.Context, actorID, competitionRef string) error {
	_, err := operation(s, ctx, "Authorize", competitionRef, func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Competition], error) {
		competition, err := s.authorize(ctx, db, actorID, competitionRef)
		if err != nil {
			return failOr[*competitiondb.Competition](err)
		}
		return succeed(competition), nil
	})
	return err
}

// authorize resolves competitionRef by id or WCA id and checks that actorID
// is a site admin or one of its organizers.
func (s *CompetitionService) authorize(ctx context.Context, db bun.IDB, actorID, competitionRef string) (*competitiondb.Competition, error) {
	if actorID == "" {
		return nil, ErrUnauthenticated
	}

	competition, err := s.repo.GetCompetitionByRef(ctx, db, competitionRef)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return nil, fmt.Errorf("competition %s: %w", competitionRef, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to resolve competition: %w", err)
	}

	if competition.HasOrganizer(actorID) {
		return competition, nil
	}

	admin, err := s.isSiteAdmin(ctx, db, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, ErrForbidden
	}
	return competition, nil
}

func (s *CompetitionService) isSiteAdmin(ctx context.Context, db bun.IDB, actorID string) (bool, error) {
	user, err := s.repo.GetUser(ctx, db, actorID)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return user.SiteAdmin, nil
}

// FilterCompetitionFields reports whether every proposed field is one actorID
// may change on a competition. Site admins get the extended list.
func (s *CompetitionService) FilterCompetitionFields(ctx context.Context, db bun.IDB, actorID string, fields []string) (bool, error) {
	if allowed(fields, competitionFields) {
		return true, nil
	}
	admin, err := s.isSiteAdmin(ctx, db, actorID)
	if err != nil {
		return false, err
	}
	if !admin {
		return false, nil
	}
	return allowed(fields, competitionFields, siteAdminCompetitionFields), nil
}

// FilterRoundFields reports whether every proposed field may change on a round.
func FilterRoundFields(fields []string) bool {
	return allowed(fields, roundFields)
}

func allowed(fields []string, lists ...[]string) bool {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, f := range list {
			set[f] = struct{}{}
		}
	}
	for _, f := range fields {
		if _, ok := set[f]; !ok {
			return false
		}
	}
	return true
}
