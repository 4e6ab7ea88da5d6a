// Package metrics exposes the Prometheus collectors of the planning service.
// Every collector carries a constant service label, so the API and the
// worker can share a scrape job.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	ioBuckets       = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	activityBuckets = []float64{.01, .05, .1, .5, 1, 5, 10, 30}
	// Utilization is required over available hours, so values above 100 are
	// understaffed plans.
	utilizationBuckets = []float64{25, 50, 70, 85, 95, 100, 110, 125, 150, 200}
)

// Metrics holds the collectors. Every method is a no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec

	OutboxPending   prometheus.Gauge
	OutboxPublished *prometheus.CounterVec

	WorkflowsStarted    *prometheus.CounterVec
	WorkflowsCompleted  *prometheus.CounterVec
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	ForecastsGenerated   *prometheus.CounterVec
	PlanTransitions      *prometheus.CounterVec
	WorkersAllocated     *prometheus.CounterVec
	PlanUtilization      *prometheus.HistogramVec
	EventPublishFailures *prometheus.CounterVec

	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec

	IdempotentRequests *prometheus.CounterVec
}

type Config struct {
	ServiceName string
	Namespace   string
}

func DefaultConfig(serviceName string) *Config {
	return &Config{ServiceName: serviceName, Namespace: "wms"}
}

// New builds a Metrics backed by its own registry, with the Go and process
// collectors included.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := factory{
		auto: promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": config.ServiceName}, registry)),
		ns:   config.Namespace,
	}

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal:    f.counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		HTTPRequestDuration:  f.histogram("http_request_duration_seconds", "HTTP request duration in seconds", httpBuckets, "method", "path"),
		HTTPRequestsInFlight: f.gauge("http_requests_in_flight", "Number of HTTP requests currently being processed"),

		KafkaEventsPublished: f.counter("kafka_events_published_total", "Total number of Kafka events published", "topic", "event_type", "status"),
		KafkaPublishDuration: f.histogram("kafka_publish_duration_seconds", "Kafka publish duration in seconds", ioBuckets[:9], "topic"),

		MongoDBOperations:        f.counter("mongodb_operations_total", "Total number of MongoDB operations", "collection", "operation", "status"),
		MongoDBOperationDuration: f.histogram("mongodb_operation_duration_seconds", "MongoDB operation duration in seconds", ioBuckets, "collection", "operation"),

		OutboxPending:   f.gauge("outbox_pending_events", "Number of outbox events waiting to be relayed"),
		OutboxPublished: f.counter("outbox_events_relayed_total", "Total number of outbox events relayed to Kafka", "status"),

		WorkflowsStarted:    f.counter("temporal_workflows_started_total", "Total number of Temporal workflows started", "workflow_type"),
		WorkflowsCompleted:  f.counter("temporal_workflows_completed_total", "Total number of Temporal workflows completed", "workflow_type", "status"),
		ActivitiesCompleted: f.counter("temporal_activities_completed_total", "Total number of Temporal activities completed", "activity_type", "status"),
		ActivityDuration:    f.histogram("temporal_activity_duration_seconds", "Temporal activity duration in seconds", activityBuckets, "activity_type"),

		ForecastsGenerated:   f.counter("workload_forecasts_generated_total", "Total number of demand forecasts generated", "period", "model"),
		PlanTransitions:      f.counter("workload_plan_transitions_total", "Total number of workload plan status transitions", "status"),
		WorkersAllocated:     f.counter("workload_workers_allocated_total", "Total number of shift assignments made, by source", "source", "category"),
		PlanUtilization:      f.histogram("workload_plan_utilization_percent", "Plan utilization percentage after optimization", utilizationBuckets, "staffing_status"),
		EventPublishFailures: f.counter("workload_event_publish_failures_total", "Planning events the event sink rejected", "event_type"),

		CircuitBreakerState: f.auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: f.ns,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),
		CircuitBreakerTrips: f.counter("circuit_breaker_trips_total", "Total number of circuit breaker trips", "name"),

		IdempotentRequests: f.counter("http_idempotent_requests_total", "Requests carrying an Idempotency-Key, by outcome", "outcome"),
	}
}

type factory struct {
	auto promauto.Factory
	ns   string
}

func (f factory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	return f.auto.NewCounterVec(prometheus.CounterOpts{Namespace: f.ns, Name: name, Help: help}, labels)
}

func (f factory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.auto.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.ns, Name: name, Help: help, Buckets: buckets}, labels)
}

func (f factory) gauge(name, help string) prometheus.Gauge {
	return f.auto.NewGauge(prometheus.GaugeOpts{Namespace: f.ns, Name: name, Help: help})
}

// Handler serves the registry in the OpenMetrics format when asked for it.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
