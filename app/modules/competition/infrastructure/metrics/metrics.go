// Package competitionmetrics records service level metrics for the competition module.
package competitionmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CompetitionMetrics is the metrics surface used by the competition service.
type CompetitionMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	RecordRoundCodesRefreshed(ctx context.Context, eventCode string, rewritten int)
	RecordCompetitorsAdvanced(ctx context.Context, eventCode string, added, removed int)
}

type prometheusMetrics struct {
	attempts   *prometheus.CounterVec
	successes  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rewritten  *prometheus.CounterVec
	advanced   *prometheus.CounterVec
	eliminated *prometheus.CounterVec
}

// NewPrometheus registers the competition collectors on registry.
func NewPrometheus(registry prometheus.Registerer) (CompetitionMetrics, error) {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "competition",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "competition",
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "competition",
			Name:      "operation_failure_total",
			Help:      "Service operations that failed with an infrastructure error or panic.",
		}, []string{"operation", "service"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "competition",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		rewritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "competition",
			Name:      "round_codes_rewritten_total",
			Help:      "Rounds whose ordinal or code changed during a refresh.",
		}, []string{"event"}),
		advanced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "competition",
			Name:      "competitors_advanced_total",
			Help:      "Competitors added to a next round roster.",
		}, []string{"event"}),
		eliminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "competition",
			Name:      "competitors_withdrawn_total",
			Help:      "Competitors removed from a next round roster.",
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.successes, m.failures, m.duration, m.rewritten, m.advanced, m.eliminated} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.duration.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordRoundCodesRefreshed(_ context.Context, eventCode string, rewritten int) {
	m.rewritten.WithLabelValues(eventCode).Add(float64(rewritten))
}

func (m *prometheusMetrics) RecordCompetitorsAdvanced(_ context.Context, eventCode string, added, removed int) {
	m.advanced.WithLabelValues(eventCode).Add(float64(added))
	m.eliminated.WithLabelValues(eventCode).Add(float64(removed))
}
