package competitionservice

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	competitionmetrics "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/metrics"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/comp-rounds/app/modules/ruleset"
	"github.com/Black-And-White-Club/comp-rounds/integration_tests/testutils"
	"github.com/ThreeDotsLabs/watermill/message"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

type fixture struct {
	repo        *FakeCompetitionRepo
	svc         *CompetitionService
	gen         *testutils.TestDataGenerator
	organizer   *competitiondb.User
	competition *competitiondb.Competition
}

func newTestService(repo competitiondb.Repository, publisher message.Publisher) *CompetitionService {
	return NewCompetitionService(
		repo,
		ruleset.Default(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		competitionmetrics.NewNoop(),
		nil,
		nil,
		publisher,
	).WithClock(fixedClock{t: testNow})
}

// newFixture seeds one competition with one organizer.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := NewFakeCompetitionRepo()
	gen := testutils.NewTestDataGenerator(42)

	organizer := gen.GenerateUser()
	repo.AddUser(organizer)
	competition := repo.AddCompetition(gen.GenerateCompetition(organizer.ID))

	return &fixture{
		repo:        repo,
		svc:         newTestService(repo, nil),
		gen:         gen,
		organizer:   organizer,
		competition: competition,
	}
}

// seedEventRounds stores n rounds of eventCode with ordinals 0..n-1.
func (f *fixture) seedEventRounds(eventCode string, n int) []*competitiondb.Round {
	rounds := make([]*competitiondb.Round, n)
	for i := range rounds {
		rounds[i] = f.repo.AddRoundRow(f.gen.GenerateEventRound(f.competition.ID, eventCode, i, ""))
	}
	return rounds
}

// seedRanked stores placed results for userIDs in order.
func (f *fixture) seedRanked(round *competitiondb.Round, userIDs ...string) {
	for _, r := range f.gen.GenerateRankedResults(round, userIDs) {
		f.repo.AddResultRow(r)
	}
}

func (f *fixture) eventCodes(eventCode string) (ordinals []int, codes []string) {
	for _, r := range f.repo.EventRounds(f.competition.ID, eventCode) {
		ordinals = append(ordinals, r.NthRound)
		codes = append(codes, r.RoundCode)
	}
	return ordinals, codes
}

func (f *fixture) ctx() context.Context {
	return context.Background()
}

func ptr[T any](v T) *T { return &v }
