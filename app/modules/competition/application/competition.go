package competitionservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode"

	competitionevents "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/events"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const minutesPerDay = 24 * 60

// CreateCompetition creates an unlisted competition organized by actorID.
func (s *CompetitionService) CreateCompetition(ctx context.Context, actorID, name string) (uuid.UUID, error) {
	return operation(s, ctx, "CreateCompetition", actorID, func(ctx context.Context, db bun.IDB) (resultOf[uuid.UUID], error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return failOr[uuid.UUID](ErrInvalidCompetitionName)
		}
		if actorID == "" {
			return failOr[uuid.UUID](ErrUnauthenticated)
		}

		user, err := s.repo.GetUser(ctx, db, actorID)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return failOr[uuid.UUID](ErrUnauthenticated)
			}
			return resultOf[uuid.UUID]{}, err
		}
		if !user.EmailVerified {
			return failOr[uuid.UUID](fmt.Errorf("%w: must verify email", ErrForbidden))
		}

		competition := &competitiondb.Competition{
			CompetitionName:      name,
			Organizers:           []string{actorID},
			Staff:                []string{},
			Listed:               false,
			StartDate:            s.clock.Now().UTC(),
			NumberOfDays:         1,
			CalendarStartMinutes: 0,
			CalendarEndMinutes:   minutesPerDay,
		}
		if err := s.repo.CreateCompetition(ctx, db, competition); err != nil {
			return resultOf[uuid.UUID]{}, err
		}
		return succeed(competition.ID), nil
	})
}

// GetCompetition resolves a competition by id or WCA id.
func (s *CompetitionService) GetCompetition(ctx context.Context, competitionRef string) (*competitiondb.Competition, error) {
	return operation(s, ctx, "GetCompetition", competitionRef, func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Competition], error) {
		competition, err := s.repo.GetCompetitionByRef(ctx, db, competitionRef)
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return failOr[*competitiondb.Competition](fmt.Errorf("competition %s: %w", competitionRef, ErrNotFound))
			}
			return resultOf[*competitiondb.Competition]{}, err
		}
		return succeed(competition), nil
	})
}

// UpdateCompetition sets or clears allow-listed competition fields. A JSON
// null clears the field.
func (s *CompetitionService) UpdateCompetition(ctx context.Context, actorID, competitionRef string, fields map[string]json.RawMessage) (*competitiondb.Competition, error) {
	return operation(s, ctx, "UpdateCompetition", competitionRef, func(ctx context.Context, db bun.IDB) (resultOf[*competitiondb.Competition], error) {
		competition, err := s.authorize(ctx, db, actorID, competitionRef)
		if err != nil {
			return failOr[*competitiondb.Competition](err)
		}

		names := slices.Sorted(maps.Keys(fields))
		ok, err := s.FilterCompetitionFields(ctx, db, actorID, names)
		if err != nil {
			return resultOf[*competitiondb.Competition]{}, err
		}
		if !ok {
			return failOr[*competitiondb.Competition](fmt.Errorf("%w: competition fields %v", ErrForbidden, names))
		}

		columns, err := s.competitionColumns(fields)
		if err != nil {
			return failOr[*competitiondb.Competition](err)
		}
		if err := s.repo.UpdateCompetitionFields(ctx, db, competition.ID, columns); err != nil {
			return resultOf[*competitiondb.Competition]{}, err
		}

		updated, err := s.repo.GetCompetition(ctx, db, competition.ID)
		if err != nil {
			return resultOf[*competitiondb.Competition]{}, err
		}
		return succeed(updated), nil
	})
}

func (s *CompetitionService) competitionColumns(fields map[string]json.RawMessage) (map[string]any, error) {
	columns := make(map[string]any, len(fields))
	for name, raw := range fields {
		column := columnName(name)
		switch name {
		case "competitionName":
			var v string
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if strings.TrimSpace(v) == "" {
				return nil, ErrInvalidCompetitionName
			}
			columns[column] = strings.TrimSpace(v)
		case "organizers", "staff":
			var v []string
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if v == nil {
				v = []string{}
			}
			columns[column] = v
		case "startDate":
			var v *string
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if v == nil {
				columns[column] = nil
				continue
			}
			date, err := s.dates.Parse(*v, s.clock)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
			}
			columns[column] = date
		case "numberOfDays":
			var v int
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if v < 1 {
				return nil, fmt.Errorf("%w: numberOfDays must be at least 1", ErrInvalidArgument)
			}
			columns[column] = v
		case "calendarStartMinutes", "calendarEndMinutes":
			var v int
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if v < 0 || v > minutesPerDay {
				return nil, fmt.Errorf("%w: %s must be within a day", ErrInvalidArgument, name)
			}
			columns[column] = v
		case "listed":
			var v bool
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			columns[column] = v
		case "wcaCompetitionId":
			var v *string
			if err := decodeField(name, raw, &v); err != nil {
				return nil, err
			}
			if v != nil && strings.TrimSpace(*v) == "" {
				v = nil
			}
			columns[column] = v
		}
	}
	return columns, nil
}

// DeleteCompetition removes a competition with all of its rounds, results and groups.
func (s *CompetitionService) DeleteCompetition(ctx context.Context, actorID, competitionRef string) error {
	deleted, err := operation(s, ctx, "DeleteCompetition", competitionRef, func(ctx context.Context, db bun.IDB) (resultOf[uuid.UUID], error) {
		competition, err := s.authorize(ctx, db, actorID, competitionRef)
		if err != nil {
			return failOr[uuid.UUID](err)
		}
		if err := s.repo.DeleteCompetition(ctx, db, competition.ID); err != nil {
			return resultOf[uuid.UUID]{}, err
		}
		return succeed(competition.ID), nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, competitionevents.CompetitionDeleted, competitionevents.CompetitionDeletedPayload{
		CompetitionID: deleted,
		OccurredAt:    s.clock.Now(),
	})
	return nil
}

// decodeField decodes one JSON field; "null" leaves target at its zero value.
func decodeField(name string, raw json.RawMessage, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrInvalidArgument, name, err)
	}
	return nil
}

// columnName maps a camelCase field name onto its snake_case column.
func columnName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
