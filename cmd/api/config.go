package main

import (
	"os"
	"time"

	"github.com/paklog/workload-planning-service/internal/infrastructure/events"
	"github.com/paklog/workload-planning-service/pkg/kafka"
	"github.com/paklog/workload-planning-service/pkg/mongodb"
)

type Config struct {
	ServerAddr    string
	Environment   string
	MongoDB       *mongodb.Config
	Kafka         *kafka.Config
	EventDelivery string
	// OutboxPollInterval falls back to one second when unset or invalid.
	OutboxPollInterval time.Duration
	OTLPEndpoint       string
	TracingEnabled     bool
}

func loadConfig() *Config {
	config := &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8020"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		MongoDB:            mongodb.DefaultConfig(),
		Kafka:              kafka.DefaultConfig(),
		EventDelivery:      getEnv("EVENT_DELIVERY", events.DeliveryOutbox),
		OutboxPollInterval: time.Second,
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled:     getEnv("TRACING_ENABLED", "true") == "true",
	}

	config.MongoDB.URI = getEnv("MONGODB_URI", config.MongoDB.URI)
	config.MongoDB.Database = getEnv("MONGODB_DATABASE", config.MongoDB.Database)
	config.MongoDB.AppName = serviceName

	config.Kafka.Brokers = kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092"))
	config.Kafka.ClientID = serviceName

	if d, err := time.ParseDuration(os.Getenv("OUTBOX_POLL_INTERVAL")); err == nil && d > 0 {
		config.OutboxPollInterval = d
	}
	return config
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
