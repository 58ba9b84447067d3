package competitionqueue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
	competitionmetrics "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/metrics"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	refreshErr    error
	advanceErr    error
	correlationID string
	calls         []string
}

func (f *fakeEngine) RefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error) {
	f.calls = append(f.calls, "RefreshRoundCodes:"+actorID+":"+eventCode)
	f.correlationID = competitionservice.CorrelationID(ctx)
	return nil, f.refreshErr
}

func (f *fakeEngine) AdvanceCompetitorsFromRound(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (*competitionservice.AdvanceOutcome, error) {
	f.calls = append(f.calls, "AdvanceCompetitorsFromRound:"+actorID)
	f.correlationID = competitionservice.CorrelationID(ctx)
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	return &competitionservice.AdvanceOutcome{Added: []string{"B"}}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshRoundCodesWorker(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCancel bool
		wantErr    bool
	}{
		{name: "success"},
		{name: "domain failure cancels", err: competitionservice.ErrTooManyRounds, wantErr: true, wantCancel: true},
		{name: "infrastructure failure retries", err: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{refreshErr: tt.err}
			worker := NewRefreshRoundCodesWorker(discardLogger(), engine)
			job := &river.Job[RefreshRoundCodesJob]{
				JobRow: &rivertype.JobRow{ID: 7, Attempt: 1},
				Args:   RefreshRoundCodesJob{ActorID: "org", CompetitionID: uuid.New(), EventCode: "333", CorrelationID: "req-9"},
			}

			err := worker.Work(context.Background(), job)

			assert.Equal(t, []string{"RefreshRoundCodes:org:333"}, engine.calls)
			assert.Equal(t, "req-9", engine.correlationID)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var cancel *rivertype.JobCancelError
			assert.Equal(t, tt.wantCancel, errors.As(err, &cancel))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestAdvanceCompetitorsWorker(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCancel bool
		wantErr    bool
	}{
		{name: "success"},
		{name: "no next round cancels", err: competitionservice.ErrNoNextRound, wantErr: true, wantCancel: true},
		{name: "forbidden cancels", err: competitionservice.ErrForbidden, wantErr: true, wantCancel: true},
		{name: "infrastructure failure retries", err: errors.New("deadlock detected"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{advanceErr: tt.err}
			worker := NewAdvanceCompetitorsWorker(discardLogger(), engine)
			job := &river.Job[AdvanceCompetitorsJob]{
				JobRow: &rivertype.JobRow{ID: 8, Attempt: 2},
				Args:   AdvanceCompetitorsJob{ActorID: "org", RoundID: uuid.New(), CompetitorCount: 3},
			}

			err := worker.Work(context.Background(), job)

			assert.Equal(t, []string{"AdvanceCompetitorsFromRound:org"}, engine.calls)
			assert.Empty(t, engine.correlationID)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cancel *rivertype.JobCancelError
			assert.Equal(t, tt.wantCancel, errors.As(err, &cancel))
		})
	}
}

type fakeInserter struct {
	args []river.JobArgs
	opts []*river.InsertOpts
	err  error
}

func (f *fakeInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.args = append(f.args, args)
	f.opts = append(f.opts, opts)
	return &rivertype.JobInsertResult{
		Job: &rivertype.JobRow{
			ID:        int64(len(f.args)),
			Kind:      args.Kind(),
			State:     rivertype.JobStateAvailable,
			CreatedAt: time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC),
		},
		UniqueSkippedAsDuplicate: len(f.args) > 1,
	}, nil
}

func newTestQueue(inserter jobInserter) *Service {
	return &Service{inserter: inserter, logger: discardLogger(), metrics: competitionmetrics.NewNoop()}
}

func TestEnqueue(t *testing.T) {
	inserter := &fakeInserter{}
	svc := newTestQueue(inserter)
	ctx := competitionservice.WithCorrelationID(context.Background(), "req-1")
	competitionID := uuid.New()

	info, err := svc.EnqueueRefreshRoundCodes(ctx, "org", competitionID, "333")
	require.NoError(t, err)
	assert.Equal(t, JobInfo{ID: 1, Kind: "competition_refresh_round_codes", State: "available", EnqueuedAt: "2026-10-14T12:00:00Z"}, info)

	roundID := uuid.New()
	info, err = svc.EnqueueAdvanceCompetitors(ctx, "org", 4, roundID)
	require.NoError(t, err)
	assert.True(t, info.Duplicate)

	require.Len(t, inserter.args, 2)
	assert.Equal(t, RefreshRoundCodesJob{ActorID: "org", CompetitionID: competitionID, EventCode: "333", CorrelationID: "req-1"}, inserter.args[0])
	assert.Equal(t, AdvanceCompetitorsJob{ActorID: "org", RoundID: roundID, CompetitorCount: 4, CorrelationID: "req-1"}, inserter.args[1])
	for _, opts := range inserter.opts {
		assert.Equal(t, QueueName, opts.Queue)
		assert.True(t, opts.UniqueOpts.ByArgs)
	}
}

func uniqueFields(args river.JobArgs) []string {
	var fields []string
	typ := reflect.TypeOf(args)
	for i := range typ.NumField() {
		if typ.Field(i).Tag.Get("river") == "unique" {
			fields = append(fields, typ.Field(i).Name)
		}
	}
	return fields
}

func TestJobUniquenessIgnoresCorrelationID(t *testing.T) {
	tests := []struct {
		name string
		args river.JobArgs
		want []string
	}{
		{
			name: "refresh round codes",
			args: RefreshRoundCodesJob{},
			want: []string{"ActorID", "CompetitionID", "EventCode"},
		},
		{
			name: "advance competitors",
			args: AdvanceCompetitorsJob{},
			want: []string{"ActorID", "RoundID", "CompetitorCount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, uniqueFields(tt.args))
		})
	}
}

func TestEnqueueFailure(t *testing.T) {
	svc := newTestQueue(&fakeInserter{err: errors.New("pool closed")})

	_, err := svc.EnqueueAdvanceCompetitors(context.Background(), "org", 1, uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "competition_advance_competitors")
}
