package competitionhandlers

import (
	"context"
	"encoding/json"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
	competitionqueue "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/queue"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
)

// FakeService is a programmable competitionservice.Service. Unset funcs
// return zero values.
type FakeService struct {
	trace []string

	AuthorizeFunc                   func(ctx context.Context, actorID, competitionRef string) error
	CreateCompetitionFunc           func(ctx context.Context, actorID, name string) (uuid.UUID, error)
	GetCompetitionFunc              func(ctx context.Context, competitionRef string) (*competitiondb.Competition, error)
	UpdateCompetitionFunc           func(ctx context.Context, actorID, competitionRef string, fields map[string]json.RawMessage) (*competitiondb.Competition, error)
	DeleteCompetitionFunc           func(ctx context.Context, actorID, competitionRef string) error
	AddRoundFunc                    func(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (*competitiondb.Round, error)
	AddNonEventRoundFunc            func(ctx context.Context, actorID string, competitionID uuid.UUID, input competitionservice.NonEventRound) (*competitiondb.Round, error)
	RemoveRoundFunc                 func(ctx context.Context, actorID string, roundID uuid.UUID) error
	RefreshRoundCodesFunc           func(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error)
	UpdateRoundFunc                 func(ctx context.Context, actorID string, roundID uuid.UUID, fields map[string]json.RawMessage) (*competitiondb.Round, error)
	ListRoundsFunc                  func(ctx context.Context, competitionID uuid.UUID) ([]*competitiondb.Round, error)
	GetRoundFunc                    func(ctx context.Context, roundID uuid.UUID) (*competitiondb.Round, error)
	AdvanceCompetitorsFromRoundFunc func(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (*competitionservice.AdvanceOutcome, error)
	ListResultsFunc                 func(ctx context.Context, roundID uuid.UUID) ([]*competitiondb.Result, error)
	PutGroupFunc                    func(ctx context.Context, actorID string, group *competitiondb.Group) (*competitiondb.Group, error)
}

func (f *FakeService) record(step string) { f.trace = append(f.trace, step) }

func (f *FakeService) Trace() []string { return f.trace }

func (f *FakeService) Authorize(ctx context.Context, actorID, competitionRef string) error {
	f.record("Authorize")
	if f.AuthorizeFunc != nil {
		return f.AuthorizeFunc(ctx, actorID, competitionRef)
	}
	return nil
}

func (f *FakeService) CreateCompetition(ctx context.Context, actorID, name string) (uuid.UUID, error) {
	f.record("CreateCompetition")
	if f.CreateCompetitionFunc != nil {
		return f.CreateCompetitionFunc(ctx, actorID, name)
	}
	return uuid.Nil, nil
}

func (f *FakeService) GetCompetition(ctx context.Context, competitionRef string) (*competitiondb.Competition, error) {
	f.record("GetCompetition")
	if f.GetCompetitionFunc != nil {
		return f.GetCompetitionFunc(ctx, competitionRef)
	}
	return &competitiondb.Competition{}, nil
}

func (f *FakeService) UpdateCompetition(ctx context.Context, actorID, competitionRef string, fields map[string]json.RawMessage) (*competitiondb.Competition, error) {
	f.record("UpdateCompetition")
	if f.UpdateCompetitionFunc != nil {
		return f.UpdateCompetitionFunc(ctx, actorID, competitionRef, fields)
	}
	return &competitiondb.Competition{}, nil
}

func (f *FakeService) DeleteCompetition(ctx context.Context, actorID, competitionRef string) error {
	f.record("DeleteCompetition")
	if f.DeleteCompetitionFunc != nil {
		return f.DeleteCompetitionFunc(ctx, actorID, competitionRef)
	}
	return nil
}

func (f *FakeService) AddRound(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (*competitiondb.Round, error) {
	f.record("AddRound")
	if f.AddRoundFunc != nil {
		return f.AddRoundFunc(ctx, actorID, competitionID, eventCode)
	}
	return &competitiondb.Round{}, nil
}

func (f *FakeService) AddNonEventRound(ctx context.Context, actorID string, competitionID uuid.UUID, input competitionservice.NonEventRound) (*competitiondb.Round, error) {
	f.record("AddNonEventRound")
	if f.AddNonEventRoundFunc != nil {
		return f.AddNonEventRoundFunc(ctx, actorID, competitionID, input)
	}
	return &competitiondb.Round{}, nil
}

func (f *FakeService) RemoveRound(ctx context.Context, actorID string, roundID uuid.UUID) error {
	f.record("RemoveRound")
	if f.RemoveRoundFunc != nil {
		return f.RemoveRoundFunc(ctx, actorID, roundID)
	}
	return nil
}

func (f *FakeService) RefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error) {
	f.record("RefreshRoundCodes")
	if f.RefreshRoundCodesFunc != nil {
		return f.RefreshRoundCodesFunc(ctx, actorID, competitionID, eventCode)
	}
	return nil, nil
}

func (f *FakeService) UpdateRound(ctx context.Context, actorID string, roundID uuid.UUID, fields map[string]json.RawMessage) (*competitiondb.Round, error) {
	f.record("UpdateRound")
	if f.UpdateRoundFunc != nil {
		return f.UpdateRoundFunc(ctx, actorID, roundID, fields)
	}
	return &competitiondb.Round{}, nil
}

func (f *FakeService) ListRounds(ctx context.Context, competitionID uuid.UUID) ([]*competitiondb.Round, error) {
	f.record("ListRounds")
	if f.ListRoundsFunc != nil {
		return f.ListRoundsFunc(ctx, competitionID)
	}
	return nil, nil
}

func (f *FakeService) GetRound(ctx context.Context, roundID uuid.UUID) (*competitiondb.Round, error) {
	f.record("GetRound")
	if f.GetRoundFunc != nil {
		return f.GetRoundFunc(ctx, roundID)
	}
	return &competitiondb.Round{ID: roundID}, nil
}

func (f *FakeService) AdvanceCompetitorsFromRound(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (*competitionservice.AdvanceOutcome, error) {
	f.record("AdvanceCompetitorsFromRound")
	if f.AdvanceCompetitorsFromRoundFunc != nil {
		return f.AdvanceCompetitorsFromRoundFunc(ctx, actorID, competitorCount, roundID)
	}
	return &competitionservice.AdvanceOutcome{}, nil
}

func (f *FakeService) ListResults(ctx context.Context, roundID uuid.UUID) ([]*competitiondb.Result, error) {
	f.record("ListResults")
	if f.ListResultsFunc != nil {
		return f.ListResultsFunc(ctx, roundID)
	}
	return nil, nil
}

func (f *FakeService) PutGroup(ctx context.Context, actorID string, group *competitiondb.Group) (*competitiondb.Group, error) {
	f.record("PutGroup")
	if f.PutGroupFunc != nil {
		return f.PutGroupFunc(ctx, actorID, group)
	}
	return group, nil
}

var _ competitionservice.Service = (*FakeService)(nil)

// FakeQueue records enqueued jobs.
type FakeQueue struct {
	Refreshes []uuid.UUID
	Advances  []uuid.UUID
}

func (q *FakeQueue) EnqueueRefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (competitionqueue.JobInfo, error) {
	q.Refreshes = append(q.Refreshes, competitionID)
	return competitionqueue.JobInfo{ID: int64(len(q.Refreshes)), Kind: competitionqueue.RefreshRoundCodesJob{}.Kind()}, nil
}

func (q *FakeQueue) EnqueueAdvanceCompetitors(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (competitionqueue.JobInfo, error) {
	q.Advances = append(q.Advances, roundID)
	return competitionqueue.JobInfo{ID: int64(len(q.Advances)), Kind: competitionqueue.AdvanceCompetitorsJob{}.Kind()}, nil
}

var _ Enqueuer = (*FakeQueue)(nil)
