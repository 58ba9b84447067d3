package competitionservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	competitionmetrics "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/metrics"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	competitiontime "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/time_utils"
	"github.com/Black-And-White-Club/comp-rounds/app/modules/ruleset"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "CompetitionService"

// CompetitionService implements the Service interface.
type CompetitionService struct {
	repo      competitiondb.Repository
	rules     *ruleset.Ruleset
	logger    *slog.Logger
	metrics   competitionmetrics.CompetitionMetrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher message.Publisher
	locks     *eventLocks
	dates     *competitiontime.StartDateParser
	clock     competitiontime.Clock
}

// NewCompetitionService creates a new CompetitionService. A nil publisher
// disables event publication; a nil db runs operations without a transaction.
func NewCompetitionService(
	repo competitiondb.Repository,
	rules *ruleset.Ruleset,
	logger *slog.Logger,
	metrics competitionmetrics.CompetitionMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	publisher message.Publisher,
) *CompetitionService {
	if logger == nil {
		logger = slog.Default()
	}
	if rules == nil {
		rules = ruleset.Default()
	}
	return &CompetitionService{
		repo:      repo,
		rules:     rules,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		publisher: publisher,
		locks:     newEventLocks(),
		dates:     competitiontime.NewStartDateParser(),
		clock:     competitiontime.RealClock{},
	}
}

// WithClock overrides the clock used for timestamps and relative dates.
func (s *CompetitionService) WithClock(clock competitiontime.Clock) *CompetitionService {
	s.clock = clock
	return s
}

// lockRoundEvent takes the in-process lock of the event owning roundID. A
// lookup failure takes no lock; the operation itself reports the error.
func (s *CompetitionService) lockRoundEvent(ctx context.Context, roundID uuid.UUID) func() {
	round, err := s.repo.GetRound(ctx, nil, roundID)
	if err != nil {
		return func() {}
	}
	return s.locks.Lock(round.CompetitionID, round.Event())
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *CompetitionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction. Domain failures
// roll the transaction back so a failed operation never leaves partial writes.
func runInTx[S any](
	s *CompetitionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (results.OperationResult[S, error], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, error]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr != nil {
			return txErr
		}
		if result.IsFailure() {
			return errRollback
		}
		return nil
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}

	return result, err
}

var errRollback = errors.New("rollback domain failure")

// unwrap converts an operation result into the plain (value, error) pair
// returned by the public methods.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	if result.Success == nil {
		return zero, nil
	}
	return *result.Success, nil
}

// operation runs a transactional logic function under telemetry.
func operation[S any](
	s *CompetitionService,
	ctx context.Context,
	name, identifier string,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, error], error),
) (S, error) {
	result, err := withTelemetry(s, ctx, name, identifier, func(ctx context.Context) (results.OperationResult[S, error], error) {
		return runInTx(s, ctx, fn)
	})
	return unwrap(result, err)
}

// resultOf is the operation result shape every service operation returns.
type resultOf[S any] = results.OperationResult[S, error]

func succeed[S any](s S) resultOf[S] {
	return results.SuccessResult[S, error](s)
}
