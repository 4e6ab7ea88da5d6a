package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
)

// DefaultMaxRetries is how many failed relays an event survives before it is parked
const DefaultMaxRetries = 10

// OutboxEvent is a serialized CloudEvent waiting to be relayed to Kafka.
// Its ID is the CloudEvent ID, so a relayed duplicate can be dropped by consumers.
type OutboxEvent struct {
	ID            string          `bson:"_id" json:"id"`
	AggregateID   string          `bson:"aggregateId" json:"aggregateId"`
	AggregateType string          `bson:"aggregateType" json:"aggregateType"`
	EventType     string          `bson:"eventType" json:"eventType"`
	Topic         string          `bson:"topic" json:"topic"`
	Payload       json.RawMessage `bson:"payload" json:"payload"`
	CreatedAt     time.Time       `bson:"createdAt" json:"createdAt"`
	PublishedAt   *time.Time      `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	RetryCount    int             `bson:"retryCount" json:"retryCount"`
	MaxRetries    int             `bson:"maxRetries" json:"maxRetries"`
	LastError     string          `bson:"lastError,omitempty" json:"lastError,omitempty"`
}

// NewOutboxEventFromCloudEvent serializes ce for the given aggregate (a forecast or a plan)
func NewOutboxEventFromCloudEvent(aggregateID, aggregateType, topic string, ce *cloudevents.WMSCloudEvent) (*OutboxEvent, error) {
	if ce == nil {
		return nil, fmt.Errorf("outbox: nil cloud event for %s %s", aggregateType, aggregateID)
	}

	payload, err := json.Marshal(ce)
	if err != nil {
		return nil, fmt.Errorf("outbox: encode %s: %w", ce.Type, err)
	}

	createdAt := ce.Time.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &OutboxEvent{
		ID:            ce.ID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     ce.Type,
		Topic:         topic,
		Payload:       payload,
		CreatedAt:     createdAt,
		MaxRetries:    DefaultMaxRetries,
	}, nil
}

// IsPublished reports whether the relay has delivered the event
func (e *OutboxEvent) IsPublished() bool {
	return e.PublishedAt != nil
}

// ShouldRetry reports whether the relay should still pick the event up
func (e *OutboxEvent) ShouldRetry() bool {
	return !e.IsPublished() && e.RetryCount < e.MaxRetries
}

// ToCloudEvent decodes the stored payload
func (e *OutboxEvent) ToCloudEvent() (*cloudevents.WMSCloudEvent, error) {
	var ce cloudevents.WMSCloudEvent
	if err := json.Unmarshal(e.Payload, &ce); err != nil {
		return nil, fmt.Errorf("outbox: decode event %s: %w", e.ID, err)
	}
	return &ce, nil
}
