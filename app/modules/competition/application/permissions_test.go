package competitionservice

import (
	"context"
	"errors"
	"testing"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture) (actorID, ref string)
		wantErr error
	}{
		{
			name: "organizer by id",
			setup: func(f *fixture) (string, string) {
				return f.organizer.ID, f.competition.ID.String()
			},
		},
		{
			name: "organizer by wca id",
			setup: func(f *fixture) (string, string) {
				f.competition.WCACompetitionID = ptr("BerkeleyOpen2026")
				return f.organizer.ID, "BerkeleyOpen2026"
			},
		},
		{
			name: "organizer who is also a site admin",
			setup: func(f *fixture) (string, string) {
				f.organizer.SiteAdmin = true
				f.repo.AddUser(f.organizer)
				return f.organizer.ID, f.competition.ID.String()
			},
		},
		{
			name: "site admin who is not an organizer",
			setup: func(f *fixture) (string, string) {
				admin := f.gen.GenerateUser()
				admin.SiteAdmin = true
				f.repo.AddUser(admin)
				return admin.ID, f.competition.ID.String()
			},
		},
		{
			name: "stranger is forbidden",
			setup: func(f *fixture) (string, string) {
				stranger := f.gen.GenerateUser()
				f.repo.AddUser(stranger)
				return stranger.ID, f.competition.ID.String()
			},
			wantErr: ErrForbidden,
		},
		{
			name: "unknown user is forbidden",
			setup: func(f *fixture) (string, string) {
				return "ghost", f.competition.ID.String()
			},
			wantErr: ErrForbidden,
		},
		{
			name: "missing actor",
			setup: func(f *fixture) (string, string) {
				return "", f.competition.ID.String()
			},
			wantErr: ErrUnauthenticated,
		},
		{
			name: "unknown competition",
			setup: func(f *fixture) (string, string) {
				return f.organizer.ID, "NoSuchCompetition2026"
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actorID, ref := tt.setup(f)

			err := f.svc.Authorize(context.Background(), actorID, ref)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Empty(t, f.repo.Writes())
		})
	}
}

func TestAuthorizeInfrastructureError(t *testing.T) {
	f := newFixture(t)
	f.repo.GetCompetitionByRefFunc = func(ctx context.Context, db bun.IDB, ref string) (*competitiondb.Competition, error) {
		return nil, errors.New("connection reset")
	}

	err := f.svc.Authorize(context.Background(), f.organizer.ID, f.competition.ID.String())

	assert.Error(t, err)
	assert.False(t, IsDomainError(err))
}

func TestFilterCompetitionFields(t *testing.T) {
	tests := []struct {
		name      string
		siteAdmin bool
		fields    []string
		want      bool
	}{
		{name: "organizer edits schedule", fields: []string{"competitionName", "startDate", "numberOfDays"}, want: true},
		{name: "organizer edits staff", fields: []string{"organizers", "staff"}, want: true},
		{name: "organizer cannot list", fields: []string{"listed"}, want: false},
		{name: "organizer cannot reassign wca id", fields: []string{"competitionName", "wcaCompetitionId"}, want: false},
		{name: "admin can list", siteAdmin: true, fields: []string{"listed", "wcaCompetitionId"}, want: true},
		{name: "admin cannot touch unknown fields", siteAdmin: true, fields: []string{"listed", "_id"}, want: false},
		{name: "no fields", fields: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.organizer.SiteAdmin = tt.siteAdmin
			f.repo.AddUser(f.organizer)

			got, err := f.svc.FilterCompetitionFields(context.Background(), nil, f.organizer.ID, tt.fields)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterRoundFields(t *testing.T) {
	assert.True(t, FilterRoundFields([]string{"formatCode", "nthDay", "startMinutes", "durationMinutes", "title", "softCutoff"}))
	assert.False(t, FilterRoundFields([]string{"title", "nthRound"}))
	assert.False(t, FilterRoundFields([]string{"roundCode"}))
	assert.False(t, FilterRoundFields([]string{"competitionId"}))
}
