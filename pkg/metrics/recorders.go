package metrics

import (
	"strconv"
	"time"
)

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Inc()
	}
}

func (m *Metrics) DecrementHTTPRequestsInFlight() {
	if m != nil {
		m.HTTPRequestsInFlight.Dec()
	}
}

func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.KafkaEventsPublished.WithLabelValues(topic, eventType, outcome(success)).Inc()
	m.KafkaPublishDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.MongoDBOperations.WithLabelValues(collection, operation, outcome(success)).Inc()
	m.MongoDBOperationDuration.WithLabelValues(collection, operation).Observe(duration.Seconds())
}

func (m *Metrics) SetOutboxPending(count int) {
	if m != nil {
		m.OutboxPending.Set(float64(count))
	}
}

// RecordOutboxRelay counts one relay attempt.
func (m *Metrics) RecordOutboxRelay(success bool) {
	if m != nil {
		m.OutboxPublished.WithLabelValues(outcome(success)).Inc()
	}
}

func (m *Metrics) RecordWorkflowStarted(workflowType string) {
	if m != nil {
		m.WorkflowsStarted.WithLabelValues(workflowType).Inc()
	}
}

func (m *Metrics) RecordWorkflowCompleted(workflowType string, success bool) {
	if m != nil {
		m.WorkflowsCompleted.WithLabelValues(workflowType, outcome(success)).Inc()
	}
}

func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.ActivitiesCompleted.WithLabelValues(activityType, outcome(success)).Inc()
	m.ActivityDuration.WithLabelValues(activityType).Observe(duration.Seconds())
}

func (m *Metrics) RecordForecastGenerated(period, model string) {
	if m != nil {
		m.ForecastsGenerated.WithLabelValues(period, model).Inc()
	}
}

// RecordPlanTransition counts a plan reaching status.
func (m *Metrics) RecordPlanTransition(status string) {
	if m != nil {
		m.PlanTransitions.WithLabelValues(status).Inc()
	}
}

// RecordWorkerAllocated counts a shift assignment. source is "manual" or "optimizer".
func (m *Metrics) RecordWorkerAllocated(source, category string) {
	if m != nil {
		m.WorkersAllocated.WithLabelValues(source, category).Inc()
	}
}

func (m *Metrics) ObservePlanUtilization(staffingStatus string, utilization float64) {
	if m != nil {
		m.PlanUtilization.WithLabelValues(staffingStatus).Observe(utilization)
	}
}

func (m *Metrics) RecordEventPublishFailure(eventType string) {
	if m != nil {
		m.EventPublishFailures.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	if m != nil {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	}
}

func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	if m != nil {
		m.CircuitBreakerTrips.WithLabelValues(name).Inc()
	}
}

// RecordIdempotency counts one keyed request. outcome is new, replay,
// mismatch, in_flight or error.
func (m *Metrics) RecordIdempotency(outcome string) {
	if m != nil {
		m.IdempotentRequests.WithLabelValues(outcome).Inc()
	}
}
