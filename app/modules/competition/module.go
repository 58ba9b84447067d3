package competition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
	competitionhandlers "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/handlers"
	competitionmetrics "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/metrics"
	competitionqueue "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/queue"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/comp-rounds/app/modules/ruleset"
	"github.com/Black-And-White-Club/comp-rounds/config"
	watermillutil "github.com/Black-And-White-Club/comp-rounds/internal/watermill"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	nc "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Module represents the competition module.
type Module struct {
	Service    competitionservice.Service
	Router     http.Handler
	logger     *slog.Logger
	config     *config.Config
	queue      *competitionqueue.Service
	publisher  *watermillutil.NatsPublisher
	server     *http.Server
	cancelFunc context.CancelFunc
}

// NewCompetitionModule wires the repository, service, background queue and
// HTTP API of the competition module.
func NewCompetitionModule(ctx context.Context, cfg *config.Config, logger *slog.Logger, tracer trace.Tracer, db *bun.DB) (*Module, error) {
	logger.Info("competition.NewCompetitionModule called")

	rules := ruleset.Default()
	if cfg.Ruleset.Path != "" {
		loaded, err := ruleset.Load(cfg.Ruleset.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load ruleset: %w", err)
		}
		rules = loaded
	}

	registry := prometheus.NewRegistry()
	metrics, err := competitionmetrics.NewPrometheus(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register competition metrics: %w", err)
	}

	module := &Module{
		logger: logger,
		config: cfg,
	}

	var publisher message.Publisher
	if cfg.NATS.URL != "" {
		natsPublisher, err := newNatsPublisher(cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		module.publisher = natsPublisher
		publisher = natsPublisher
	} else {
		logger.Warn("NATS URL not configured, competition events are disabled")
	}

	repo := competitiondb.NewRepository(db)
	service := competitionservice.NewCompetitionService(repo, rules, logger, metrics, tracer, db, publisher)
	module.Service = service

	var enqueuer competitionhandlers.Enqueuer
	if cfg.Queue.Enabled {
		queue, err := competitionqueue.NewService(ctx, cfg.Postgres.DSN, competitionqueue.Config{
			MaxWorkers:  cfg.Queue.MaxWorkers,
			MaxAttempts: cfg.Queue.MaxAttempts,
		}, service, logger, metrics)
		if err != nil {
			module.closePublisher()
			return nil, fmt.Errorf("failed to create competition queue: %w", err)
		}
		module.queue = queue
		enqueuer = queue
	}

	handlers := competitionhandlers.NewCompetitionHandlers(service, enqueuer, logger)
	verifier := competitionhandlers.NewTokenVerifier(cfg.JWT.Secret)
	limiter := competitionhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.Burst)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	competitionhandlers.Mount(router, handlers, verifier, limiter)
	module.Router = router

	return module, nil
}

func newNatsPublisher(cfg config.NATSConfig, logger *slog.Logger) (*watermillutil.NatsPublisher, error) {
	var opts []nc.Option
	if cfg.NKeySeed != "" {
		opt, err := watermillutil.NKeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, fmt.Errorf("failed to load NATS nkey: %w", err)
		}
		opts = append(opts, opt)
	}
	publisher, err := watermillutil.NewPublisher(cfg.URL, watermill.NewSlogLogger(logger), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}
	return publisher, nil
}

// Run starts the background queue and serves the HTTP API until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	m.logger.Info("Starting competition module", attr.String("addr", m.config.HTTP.Addr))

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			return fmt.Errorf("failed to start competition queue: %w", err)
		}
	}

	m.server = &http.Server{
		Addr:              m.config.HTTP.Addr,
		Handler:           m.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("competition API stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("Failed to shut down competition API", attr.Error(err))
	}
	m.logger.Info("Competition module goroutine stopped")
	return nil
}

// Close stops the queue and releases the event publisher.
func (m *Module) Close() error {
	m.logger.Info("Stopping competition module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	var errs []error
	if m.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.queue.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop competition queue: %w", err))
		}
	}
	if err := m.closePublisher(); err != nil {
		errs = append(errs, err)
	}

	m.logger.Info("Competition module stopped")
	return errors.Join(errs...)
}

func (m *Module) closePublisher() error {
	if m.publisher == nil {
		return nil
	}
	if err := m.publisher.Close(); err != nil {
		return fmt.Errorf("failed to close NATS publisher: %w", err)
	}
	return nil
}
