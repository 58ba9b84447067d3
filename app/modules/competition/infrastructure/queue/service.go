package competitionqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

// QueueName is the River queue dedicated to competition jobs.
const QueueName = "competition"

// Metrics is the subset of the competition metrics the queue records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService enqueues the idempotent competition operations for background retry.
type QueueService interface {
	EnqueueRefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (JobInfo, error)
	EnqueueAdvanceCompetitors(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (JobInfo, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

type jobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// Service handles job scheduling for the competition module using River
type Service struct {
	client   *river.Client[pgx.Tx]
	inserter jobInserter
	pool     *pgxpool.Pool
	logger   *slog.Logger
	metrics  Metrics
}

// Config sizes the River client.
type Config struct {
	MaxWorkers  int
	MaxAttempts int
}

// NewService creates a River client on its own pgx pool and registers the
// competition workers against engine.
func NewService(ctx context.Context, dsn string, cfg Config, engine RoundEngine, logger *slog.Logger, metrics Metrics) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_competition_queue_service"),
		attr.String("component", "river_queue"),
	)
	ctxLogger.Info("Initializing competition queue service")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewRefreshRoundCodesWorker(ctxLogger, engine))
	river.AddWorker(workers, NewAdvanceCompetitorsWorker(ctxLogger, engine))

	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueName: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:     workers,
		MaxAttempts: cfg.MaxAttempts,
		Logger:      logger,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	ctxLogger.Info("Competition queue service initialized successfully")
	return &Service{
		client:   client,
		inserter: client,
		pool:     pool,
		logger:   ctxLogger,
		metrics:  metrics,
	}, nil
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.Info("Competition queue service started")
	return nil
}

// Stop stops the River client and closes its pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.Info("Competition queue service stopped")
	return nil
}

// EnqueueRefreshRoundCodes schedules a round code refresh. Identical pending
// jobs are collapsed into one.
func (s *Service) EnqueueRefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (JobInfo, error) {
	return s.enqueue(ctx, "enqueue_refresh_round_codes", RefreshRoundCodesJob{
		ActorID:       actorID,
		CompetitionID: competitionID,
		EventCode:     eventCode,
		CorrelationID: competitionservice.CorrelationID(ctx),
	})
}

// EnqueueAdvanceCompetitors schedules an advancement. Identical pending jobs
// are collapsed into one.
func (s *Service) EnqueueAdvanceCompetitors(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (JobInfo, error) {
	return s.enqueue(ctx, "enqueue_advance_competitors", AdvanceCompetitorsJob{
		ActorID:         actorID,
		RoundID:         roundID,
		CompetitorCount: competitorCount,
		CorrelationID:   competitionservice.CorrelationID(ctx),
	})
}

func (s *Service) enqueue(ctx context.Context, operation string, args river.JobArgs) (JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, "river")
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operation, "river", time.Since(start))
	}()

	res, err := s.inserter.Insert(ctx, args, &river.InsertOpts{
		Queue: QueueName,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enqueue job", attr.String("kind", args.Kind()), attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, operation, "river")
		return JobInfo{}, fmt.Errorf("failed to enqueue %s job: %w", args.Kind(), err)
	}

	s.metrics.RecordOperationSuccess(ctx, operation, "river")
	info := JobInfo{
		ID:         res.Job.ID,
		Kind:       res.Job.Kind,
		State:      string(res.Job.State),
		Duplicate:  res.UniqueSkippedAsDuplicate,
		EnqueuedAt: res.Job.CreatedAt.Format(time.RFC3339),
	}
	s.logger.InfoContext(ctx, "Enqueued job",
		attr.Int64("job_id", info.ID),
		attr.String("kind", info.Kind),
		attr.Bool("duplicate", info.Duplicate),
	)
	return info, nil
}
