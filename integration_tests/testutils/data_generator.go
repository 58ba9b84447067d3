package testutils

import (
	"time"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// TestDataGenerator provides methods to create competition fixtures.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	faker := gofakeit.New(uint64(s))

	return &TestDataGenerator{
		faker: faker,
		seed:  s,
	}
}

// Seed returns the seed the generator was built with.
func (g *TestDataGenerator) Seed() int64 {
	return g.seed
}

// GenerateUser creates a user with a verified email.
func (g *TestDataGenerator) GenerateUser() *competitiondb.User {
	return &competitiondb.User{
		ID:            g.faker.LetterN(17),
		Name:          g.faker.Name(),
		Email:         g.faker.Email(),
		EmailVerified: true,
	}
}

// GenerateUsers creates a specified number of test users
func (g *TestDataGenerator) GenerateUsers(count int) []*competitiondb.User {
	users := make([]*competitiondb.User, count)
	for i := range users {
		users[i] = g.GenerateUser()
	}
	return users
}

// GenerateCompetition creates an unlisted competition organized by organizerID.
func (g *TestDataGenerator) GenerateCompetition(organizerID string) *competitiondb.Competition {
	start := g.faker.DateRange(
		time.Now().AddDate(0, 1, 0),
		time.Now().AddDate(0, 6, 0),
	)
	return &competitiondb.Competition{
		ID:                   uuid.New(),
		CompetitionName:      g.faker.City() + " Open " + start.Format("2006"),
		Organizers:           []string{organizerID},
		Staff:                []string{},
		StartDate:            start.UTC().Truncate(24 * time.Hour),
		NumberOfDays:         g.faker.Number(1, 3),
		CalendarStartMinutes: 8 * 60,
		CalendarEndMinutes:   20 * 60,
	}
}

// GenerateEventRound creates a round of eventCode at the given ordinal.
func (g *TestDataGenerator) GenerateEventRound(competitionID uuid.UUID, eventCode string, nthRound int, roundCode string) *competitiondb.Round {
	return &competitiondb.Round{
		ID:              uuid.New(),
		CompetitionID:   competitionID,
		EventCode:       &eventCode,
		NthRound:        nthRound,
		RoundCode:       roundCode,
		FormatCode:      "a",
		NthDay:          g.faker.Number(0, 1),
		StartMinutes:    g.faker.Number(9, 17) * 60,
		DurationMinutes: g.faker.RandomInt([]int{30, 45, 60, 90}),
	}
}

// GenerateRankedResults creates one placed result per user in order.
func (g *TestDataGenerator) GenerateRankedResults(round *competitiondb.Round, userIDs []string) []*competitiondb.Result {
	results := make([]*competitiondb.Result, len(userIDs))
	for i, userID := range userIDs {
		position := i + 1
		solves := make([]int, 5)
		for j := range solves {
			solves[j] = g.faker.Number(700, 2500)
		}
		results[i] = &competitiondb.Result{
			ID:            uuid.New(),
			CompetitionID: round.CompetitionID,
			RoundID:       round.ID,
			UserID:        userID,
			Position:      &position,
			Solves:        solves,
		}
	}
	return results
}

// GenerateGroup creates a group of round with scrambles.
func (g *TestDataGenerator) GenerateGroup(round *competitiondb.Round, label string) *competitiondb.Group {
	scrambles := make([]string, 5)
	for i := range scrambles {
		scrambles[i] = g.faker.Regex("([RLUDFB]['2]? ){12}[RLUDFB]")
	}
	return &competitiondb.Group{
		CompetitionID:   round.CompetitionID,
		RoundID:         round.ID,
		Label:           label,
		ScrambleProgram: "TNoodle-" + g.faker.AppVersion(),
		Scrambles:       scrambles,
		ExtraScrambles:  []string{g.faker.Regex("([RLUDFB]['2]? ){12}[RLUDFB]")},
	}
}
