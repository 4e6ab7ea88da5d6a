package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/logging"
)

type memoryRepo struct {
	events []*OutboxEvent
}

func (r *memoryRepo) Save(_ context.Context, event *OutboxEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *memoryRepo) FindUnpublished(_ context.Context, limit int) ([]*OutboxEvent, error) {
	var out []*OutboxEvent
	for _, e := range r.events {
		if e.ShouldRetry() && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) MarkPublished(_ context.Context, eventID string) error {
	now := time.Now()
	for _, e := range r.events {
		if e.ID == eventID {
			e.PublishedAt = &now
			return nil
		}
	}
	return errors.New("not found")
}

func (r *memoryRepo) IncrementRetry(_ context.Context, eventID string, msg string) error {
	for _, e := range r.events {
		if e.ID == eventID {
			e.RetryCount++
			e.LastError = msg
			return nil
		}
	}
	return errors.New("not found")
}

func (r *memoryRepo) CountPending(ctx context.Context) (int64, error) {
	events, _ := r.FindUnpublished(ctx, len(r.events))
	return int64(len(events)), nil
}

type stubProducer struct {
	PublishFn func(topic string, event *cloudevents.WMSCloudEvent) error
	sent      []*cloudevents.WMSCloudEvent
}

func (p *stubProducer) PublishEvent(_ context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(topic, event); err != nil {
			return err
		}
	}
	p.sent = append(p.sent, event)
	return nil
}

func (p *stubProducer) Close() error { return nil }

func newOutboxEvent(t *testing.T, planID string) *OutboxEvent {
	t.Helper()
	ce := cloudevents.NewEventFactory(cloudevents.SourceWorkloadPlanning).
		CreatePlanningEvent(context.Background(), "workload.plan.created", planID, map[string]string{"planId": planID}, time.Time{})
	event, err := NewOutboxEventFromCloudEvent(planID, "WorkloadPlan", "wms.workload.events", ce)
	require.NoError(t, err)
	return event
}

func TestPublisherRelaysAndMarksPublished(t *testing.T) {
	repo := &memoryRepo{}
	require.NoError(t, repo.Save(context.Background(), newOutboxEvent(t, "P-1")))
	require.NoError(t, repo.Save(context.Background(), newOutboxEvent(t, "P-2")))

	producer := &stubProducer{}
	pub := NewPublisher(repo, producer, logging.Discard(), nil, nil)

	assert.Equal(t, 2, pub.ProcessOnce(context.Background()))
	require.Len(t, producer.sent, 2)
	assert.Equal(t, "plan/P-1", producer.sent[0].Subject)
	assert.Equal(t, cloudevents.WorkloadPlanCreated, producer.sent[0].Type)

	for _, e := range repo.events {
		assert.True(t, e.IsPublished())
	}
	assert.Zero(t, pub.ProcessOnce(context.Background()))
	assert.Equal(t, PublisherStats{Published: 2}, pub.Stats())
}

func TestPublisherRecordsRetryOnFailure(t *testing.T) {
	repo := &memoryRepo{}
	event := newOutboxEvent(t, "P-1")
	event.MaxRetries = 2
	require.NoError(t, repo.Save(context.Background(), event))

	producer := &stubProducer{PublishFn: func(string, *cloudevents.WMSCloudEvent) error {
		return errors.New("broker down")
	}}
	pub := NewPublisher(repo, producer, logging.Discard(), nil, nil)

	assert.Zero(t, pub.ProcessOnce(context.Background()))
	assert.Equal(t, 1, event.RetryCount)
	assert.Contains(t, event.LastError, "broker down")

	pub.ProcessOnce(context.Background())
	assert.False(t, event.ShouldRetry())

	// Exhausted events are no longer picked up.
	pub.ProcessOnce(context.Background())
	assert.Equal(t, 2, event.RetryCount)
	assert.Equal(t, int64(2), pub.Stats().Failed)
}

func TestPublisherStartStop(t *testing.T) {
	repo := &memoryRepo{}
	require.NoError(t, repo.Save(context.Background(), newOutboxEvent(t, "P-1")))

	pub := NewPublisher(repo, &stubProducer{}, logging.Discard(), nil,
		&PublisherConfig{PollInterval: 5 * time.Millisecond, BatchSize: 10})

	require.NoError(t, pub.Start(context.Background()))
	assert.ErrorIs(t, pub.Start(context.Background()), ErrPublisherRunning)
	assert.True(t, pub.IsRunning())

	assert.Eventually(t, func() bool { return pub.Stats().Published == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, pub.Stop())
	assert.False(t, pub.IsRunning())
	assert.ErrorIs(t, pub.Stop(), ErrPublisherStopped)
}

func TestOutboxEventRoundTrip(t *testing.T) {
	event := newOutboxEvent(t, "P-9")
	assert.Equal(t, cloudevents.WorkloadPlanCreated, event.EventType)
	assert.Equal(t, DefaultMaxRetries, event.MaxRetries)

	ce, err := event.ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, "plan/P-9", ce.Subject)
	assert.Equal(t, ce.ID, event.ID)
}

func TestNewOutboxEventRejectsNil(t *testing.T) {
	_, err := NewOutboxEventFromCloudEvent("P-1", "WorkloadPlan", "wms.workload.events", nil)
	assert.Error(t, err)
}
