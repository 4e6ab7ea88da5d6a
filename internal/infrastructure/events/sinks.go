package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/kafka"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/outbox"
)

// OutboxSink stores planning events in the transactional outbox. The outbox
// publisher relays them to Kafka.
type OutboxSink struct {
	repo    outbox.Repository
	factory *cloudevents.EventFactory
	topic   string
}

// NewOutboxSink creates a sink writing to the workload events topic
func NewOutboxSink(repo outbox.Repository, factory *cloudevents.EventFactory) *OutboxSink {
	return &OutboxSink{repo: repo, factory: factory, topic: kafka.Topics.WorkloadEvents}
}

// Publish implements domain.EventSink
func (s *OutboxSink) Publish(ctx context.Context, event domain.PlanningEvent) error {
	ce := s.factory.CreatePlanningEvent(ctx, event.Type, event.SubjectID, event.Fields, event.OccurredAt)

	outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(event.SubjectID, event.AggregateType(), s.topic, ce)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	if err := s.repo.Save(ctx, outboxEvent); err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}
	return nil
}

// KafkaSink publishes planning events straight to Kafka
type KafkaSink struct {
	producer kafka.EventPublisher
	factory  *cloudevents.EventFactory
	topic    string
}

// NewKafkaSink creates a sink publishing to the workload events topic
func NewKafkaSink(producer kafka.EventPublisher, factory *cloudevents.EventFactory) *KafkaSink {
	return &KafkaSink{producer: producer, factory: factory, topic: kafka.Topics.WorkloadEvents}
}

// Publish implements domain.EventSink
func (s *KafkaSink) Publish(ctx context.Context, event domain.PlanningEvent) error {
	ce := s.factory.CreatePlanningEvent(ctx, event.Type, event.SubjectID, event.Fields, event.OccurredAt)
	return s.producer.PublishEvent(ctx, s.topic, ce)
}

// LogSink writes planning events to the structured log. It never fails.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink logging through logger
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent("event-sink")}
}

// Publish implements domain.EventSink
func (s *LogSink) Publish(ctx context.Context, event domain.PlanningEvent) error {
	s.logger.Event(ctx, event.Type, event.Fields)
	return nil
}

// MemorySink keeps published events in memory
type MemorySink struct {
	mu     sync.Mutex
	events []domain.PlanningEvent
}

// NewMemorySink creates an empty MemorySink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish implements domain.EventSink
func (s *MemorySink) Publish(_ context.Context, event domain.PlanningEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the events published so far
func (s *MemorySink) Events() []domain.PlanningEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PlanningEvent, len(s.events))
	copy(out, s.events)
	return out
}

// CountByType tallies published events by type
func (s *MemorySink) CountByType() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range s.events {
		counts[e.Type]++
	}
	return counts
}

// Multi fans an event out to every sink and returns the first error
type Multi []domain.EventSink

// Publish implements domain.EventSink
func (m Multi) Publish(ctx context.Context, event domain.PlanningEvent) error {
	var first error
	for _, sink := range m {
		if err := sink.Publish(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Delivery modes accepted by NewDeliverySink
const (
	DeliveryOutbox = "outbox"
	DeliveryDirect = "direct"
	DeliveryLog    = "log"
)

// NewDeliverySink builds the sink for a delivery mode. Every mode also logs the event.
// The outbox mode needs repo and direct needs producer.
func NewDeliverySink(
	mode string,
	repo outbox.Repository,
	producer kafka.EventPublisher,
	factory *cloudevents.EventFactory,
	logger *logging.Logger,
) (domain.EventSink, error) {
	logSink := NewLogSink(logger)

	switch mode {
	case DeliveryOutbox, "":
		if repo == nil {
			return nil, fmt.Errorf("outbox delivery requires an outbox repository")
		}
		return Multi{NewOutboxSink(repo, factory), logSink}, nil
	case DeliveryDirect:
		if producer == nil {
			return nil, fmt.Errorf("direct delivery requires a Kafka producer")
		}
		return Multi{NewKafkaSink(producer, factory), logSink}, nil
	case DeliveryLog:
		return logSink, nil
	default:
		return nil, fmt.Errorf("unknown event delivery mode %q", mode)
	}
}
