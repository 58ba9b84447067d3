package competitionmetrics

import (
	"context"
	"time"
)

// NoOpMetrics discards every measurement.
type NoOpMetrics struct{}

// NewNoop returns a CompetitionMetrics that records nothing.
func NewNoop() CompetitionMetrics {
	return &NoOpMetrics{}
}

func (n *NoOpMetrics) RecordOperationAttempt(ctx context.Context, operation, service string) {}
func (n *NoOpMetrics) RecordOperationSuccess(ctx context.Context, operation, service string) {}
func (n *NoOpMetrics) RecordOperationFailure(ctx context.Context, operation, service string) {}
func (n *NoOpMetrics) RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration) {
}
func (n *NoOpMetrics) RecordRoundCodesRefreshed(ctx context.Context, eventCode string, rewritten int) {
}
func (n *NoOpMetrics) RecordCompetitorsAdvanced(ctx context.Context, eventCode string, added, removed int) {
}
