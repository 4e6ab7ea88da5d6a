package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paklog/workload-planning-service/internal/activities"
	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/infrastructure/events"
	mongoRepo "github.com/paklog/workload-planning-service/internal/infrastructure/mongodb"
	"github.com/paklog/workload-planning-service/internal/workflows"
	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/kafka"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/mongodb"
	"github.com/paklog/workload-planning-service/pkg/outbox"
	outboxMongo "github.com/paklog/workload-planning-service/pkg/outbox/mongodb"
	"github.com/paklog/workload-planning-service/pkg/resilience"
	"github.com/paklog/workload-planning-service/pkg/temporal"
)

const serviceName = "workload-planning-worker"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting workload planning worker")

	config := loadConfig()
	ctx := context.Background()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, wait time.Duration) {
		logger.WithError(err).Warn("MongoDB not reachable yet", "attempt", attempt, "retryIn", wait)
	}

	var mongoClient *mongodb.Client
	err := resilience.Retry(ctx, retry, func() error {
		var connErr error
		mongoClient, connErr = mongodb.NewClient(ctx, config.MongoDB)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	db := mongoClient.Database()
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	producer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer producer.Close()

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceWorkloadWorker)
	sink, err := events.NewDeliverySink(config.EventDelivery, outboxRepo, producer, eventFactory, logger)
	if err != nil {
		logger.WithError(err).Error("Invalid event delivery configuration")
		os.Exit(1)
	}

	// The API relays the outbox by default; a worker deployed alone can relay it itself
	if config.EventDelivery == events.DeliveryOutbox && config.RelayOutbox {
		outboxPublisher := outbox.NewPublisher(outboxRepo, producer, logger, m, outbox.DefaultPublisherConfig())
		if err := outboxPublisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			os.Exit(1)
		}
		defer outboxPublisher.Stop()
		logger.Info("Outbox publisher started")
	}

	service := application.NewPlanningService(
		mongoRepo.NewForecastRepository(db, m, logger),
		mongoRepo.NewPlanRepository(db, m, logger),
		sink,
		logger,
		application.WithMetrics(m),
	)

	temporalClient, err := temporal.NewClient(ctx, config.Temporal, logger, m)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort, "namespace", config.Temporal.Namespace)

	w, err := temporalClient.NewWorker(temporal.DefaultWorkerOptions(temporal.TaskQueues.WorkloadPlanning))
	if err != nil {
		logger.WithError(err).Error("Failed to create worker")
		os.Exit(1)
	}

	w.RegisterWorkflow(workflows.DailyPlanningWorkflow)
	w.RegisterActivity(activities.NewPlanningActivities(service, m))

	metricsServer := &http.Server{
		Addr:         config.MetricsAddr,
		Handler:      m.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", "error", err)
		}
	}()

	go func() {
		if err := w.Run(nil); err != nil {
			logger.Error("Worker error", "error", err)
			os.Exit(1)
		}
	}()
	logger.Info("Worker started", "taskQueue", temporal.TaskQueues.WorkloadPlanning, "metricsAddr", config.MetricsAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server forced to shutdown", "error", err)
	}

	logger.Info("Worker stopped")
}

// Config holds worker configuration
type Config struct {
	Temporal      *temporal.Config
	MongoDB       *mongodb.Config
	Kafka         *kafka.Config
	EventDelivery string
	RelayOutbox   bool
	MetricsAddr   string
}

func loadConfig() *Config {
	temporalConfig := temporal.DefaultConfig()
	temporalConfig.HostPort = getEnv("TEMPORAL_HOST", temporalConfig.HostPort)
	temporalConfig.Namespace = getEnv("TEMPORAL_NAMESPACE", temporalConfig.Namespace)

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)
	mongoConfig.AppName = serviceName

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092"))
	kafkaConfig.ClientID = serviceName

	return &Config{
		Temporal:      temporalConfig,
		MongoDB:       mongoConfig,
		Kafka:         kafkaConfig,
		EventDelivery: getEnv("EVENT_DELIVERY", events.DeliveryOutbox),
		RelayOutbox:   getEnv("OUTBOX_RELAY_ENABLED", "false") == "true",
		MetricsAddr:   getEnv("METRICS_ADDR", ":9021"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
