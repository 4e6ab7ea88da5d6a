package kafka

import (
	"context"
	"log/slog"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/resilience"
)

// CircuitBreakerProducer stops publishing to Kafka while the brokers keep failing
type CircuitBreakerProducer struct {
	producer EventPublisher
	breaker  *resilience.Breaker
}

// NewCircuitBreakerProducer wraps producer with the "kafka-producer" breaker
func NewCircuitBreakerProducer(producer EventPublisher, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultBreakerConfig("kafka-producer")
	config.HalfOpenRequests = 5

	var slogLogger *slog.Logger
	if logger != nil {
		slogLogger = logger.WithComponent("kafka").Logger
	}

	var observer resilience.StateObserver
	if m != nil {
		observer = m
	}

	return &CircuitBreakerProducer{
		producer: producer,
		breaker:  resilience.NewBreaker(config, slogLogger, observer),
	}
}

// PublishEvent publishes through the breaker. An open circuit returns resilience.ErrCircuitOpen
// and leaves outbox entries unpublished for the next poll.
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	return p.breaker.Do(ctx, func(ctx context.Context) error {
		return p.producer.PublishEvent(ctx, topic, event)
	})
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer creates a fully configured Kafka producer with instrumentation and circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	instrumented := NewInstrumentedProducer(NewProducer(config), m, logger)
	return NewCircuitBreakerProducer(instrumented, m, logger)
}
