package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/infrastructure/events"
	mongoRepo "github.com/paklog/workload-planning-service/internal/infrastructure/mongodb"
	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	idempotencyMongo "github.com/paklog/workload-planning-service/pkg/idempotency/mongodb"
	"github.com/paklog/workload-planning-service/pkg/kafka"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/mongodb"
	"github.com/paklog/workload-planning-service/pkg/outbox"
	outboxMongo "github.com/paklog/workload-planning-service/pkg/outbox/mongodb"
	"github.com/paklog/workload-planning-service/pkg/resilience"
	"github.com/paklog/workload-planning-service/pkg/tracing"
)

const serviceName = "workload-planning-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loadConfig(), logger); err != nil {
		logger.WithError(err).Error("API stopped with error")
		stop()
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, config *Config, logger *logging.Logger) error {
	logger.Info("Starting API", "addr", config.ServerAddr, "eventDelivery", config.EventDelivery)

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = config.OTLPEndpoint
	tracingConfig.Environment = config.Environment
	tracingConfig.Enabled = config.TracingEnabled
	if tp, err := tracing.Initialize(ctx, tracingConfig); err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	} else {
		defer flushTraces(tp, logger)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))

	mongoClient, err := connectMongo(ctx, config.MongoDB, logger)
	if err != nil {
		return err
	}
	defer mongoClient.Close(context.Background())

	db := mongoClient.Database()
	forecasts := mongoRepo.NewForecastRepository(db, m, logger)
	plans := mongoRepo.NewPlanRepository(db, m, logger)
	outboxRepo := outboxMongo.NewOutboxRepository(db)
	keys := idempotencyMongo.NewStore(db)
	ensureIndexes(ctx, logger, map[string]func(context.Context) error{
		"forecasts":   forecasts.EnsureIndexes,
		"plans":       plans.EnsureIndexes,
		"outbox":      outboxRepo.EnsureIndexes,
		"idempotency": keys.EnsureIndexes,
	})

	producer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer producer.Close()

	sink, err := events.NewDeliverySink(config.EventDelivery, outboxRepo, producer,
		cloudevents.NewEventFactory(cloudevents.SourceWorkloadPlanning), logger)
	if err != nil {
		return fmt.Errorf("event delivery: %w", err)
	}

	if config.EventDelivery == events.DeliveryOutbox {
		relay := outbox.NewPublisher(outboxRepo, producer, logger, m, &outbox.PublisherConfig{
			PollInterval: config.OutboxPollInterval,
			BatchSize:    outbox.DefaultPublisherConfig().BatchSize,
		})
		if err := relay.Start(ctx); err != nil {
			return fmt.Errorf("start outbox relay: %w", err)
		}
		defer relay.Stop()
	}

	srv := &http.Server{
		Addr: config.ServerAddr,
		Handler: newRouter(routerDeps{
			Service:     application.NewPlanningService(forecasts, plans, sink, logger, application.WithMetrics(m)),
			Logger:      logger,
			Metrics:     m,
			Readiness:   func() error { return mongoClient.HealthCheck(ctx) },
			Tracing:     config.TracingEnabled,
			Idempotency: keys,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return serve(ctx, srv, logger)
}

func connectMongo(ctx context.Context, config *mongodb.Config, logger *logging.Logger) (*mongodb.Client, error) {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.WithError(err).Warn("MongoDB not reachable yet", "attempt", attempt, "retryIn", wait)
	}

	var client *mongodb.Client
	err := resilience.Retry(ctx, retry, func() (err error) {
		client, err = mongodb.NewClient(ctx, config)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	logger.Info("Connected to MongoDB", "database", config.Database)
	return client, nil
}

// ensureIndexes logs index failures and carries on.
func ensureIndexes(ctx context.Context, logger *logging.Logger, ensure map[string]func(context.Context) error) {
	for collection, fn := range ensure {
		if err := fn(ctx); err != nil {
			logger.WithError(err).Warn("Failed to ensure indexes", "collection", collection)
		}
	}
}

func serve(ctx context.Context, srv *http.Server, logger *logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func flushTraces(tp *tracing.TracerProvider, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("Failed to flush traces")
	}
}
