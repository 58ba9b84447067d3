package competitionqueue

import (
	"context"
	"log/slog"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// RoundEngine is the part of the competition service the workers drive.
type RoundEngine interface {
	RefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error)
	AdvanceCompetitorsFromRound(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (*competitionservice.AdvanceOutcome, error)
}

// RefreshRoundCodesWorker runs RefreshRoundCodesJob.
type RefreshRoundCodesWorker struct {
	river.WorkerDefaults[RefreshRoundCodesJob]
	engine RoundEngine
	logger *slog.Logger
}

func NewRefreshRoundCodesWorker(logger *slog.Logger, engine RoundEngine) *RefreshRoundCodesWorker {
	return &RefreshRoundCodesWorker{engine: engine, logger: logger}
}

func (w *RefreshRoundCodesWorker) Work(ctx context.Context, job *river.Job[RefreshRoundCodesJob]) error {
	args := job.Args
	ctx = withJobCorrelation(ctx, args.CorrelationID)
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.String("competition_id", args.CompetitionID.String()),
		attr.String("event_code", args.EventCode),
	)

	rounds, err := w.engine.RefreshRoundCodes(ctx, args.ActorID, args.CompetitionID, args.EventCode)
	if err != nil {
		return settle(logger, job.Attempt, err)
	}
	logger.InfoContext(ctx, "Refreshed round codes", attr.Int("rounds", len(rounds)))
	return nil
}

// AdvanceCompetitorsWorker runs AdvanceCompetitorsJob.
type AdvanceCompetitorsWorker struct {
	river.WorkerDefaults[AdvanceCompetitorsJob]
	engine RoundEngine
	logger *slog.Logger
}

func NewAdvanceCompetitorsWorker(logger *slog.Logger, engine RoundEngine) *AdvanceCompetitorsWorker {
	return &AdvanceCompetitorsWorker{engine: engine, logger: logger}
}

func (w *AdvanceCompetitorsWorker) Work(ctx context.Context, job *river.Job[AdvanceCompetitorsJob]) error {
	args := job.Args
	ctx = withJobCorrelation(ctx, args.CorrelationID)
	logger := w.logger.With(
		attr.Int64("job_id", job.ID),
		attr.String("round_id", args.RoundID.String()),
		attr.Int("competitor_count", args.CompetitorCount),
	)

	outcome, err := w.engine.AdvanceCompetitorsFromRound(ctx, args.ActorID, args.CompetitorCount, args.RoundID)
	if err != nil {
		return settle(logger, job.Attempt, err)
	}
	logger.InfoContext(ctx, "Advanced competitors",
		attr.Int("added", len(outcome.Added)),
		attr.Int("removed", len(outcome.Removed)),
	)
	return nil
}

// settle cancels jobs that failed for a domain reason and hands every other
// error back to River for a retry.
func settle(logger *slog.Logger, attempt int, err error) error {
	if competitionservice.IsDomainError(err) {
		logger.Warn("Cancelling job after domain failure", attr.Error(err))
		return river.JobCancel(err)
	}
	logger.Error("Job failed, will retry", attr.Int("attempt", attempt), attr.Error(err))
	return err
}

func withJobCorrelation(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return competitionservice.WithCorrelationID(ctx, id)
}
