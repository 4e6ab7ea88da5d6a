package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/tracing"
)

// InstrumentedProducer adds a producer span, publish metrics and a debug log
// line around another publisher.
type InstrumentedProducer struct {
	next    EventPublisher
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

func NewInstrumentedProducer(next EventPublisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		next:    next,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("kafka-producer"),
	}
}

// PublishEvent stamps the span's W3C trace context onto the event before
// handing it on, so consumers continue the same trace.
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(eventAttributes(topic, event)...),
	)
	defer span.End()

	if headers := tracing.Headers(ctx); headers.Get("traceparent") != "" {
		event.TraceParent = headers.Get("traceparent")
		event.TraceState = headers.Get("tracestate")
	}

	err := p.next.PublishEvent(ctx, topic, event)
	elapsed := time.Since(start)

	p.metrics.RecordKafkaPublish(topic, event.Type, err == nil, elapsed)
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, event.Type, err == nil, elapsed)
	}
	tracing.RecordResult(span, err)
	return err
}

func (p *InstrumentedProducer) Close() error {
	return p.next.Close()
}

func eventAttributes(topic string, event *cloudevents.WMSCloudEvent) []attribute.KeyValue {
	attrs := tracing.KafkaPublishAttributes(topic)
	attrs = append(attrs,
		attribute.String("messaging.kafka.event_type", event.Type),
		attribute.String("messaging.message_id", event.ID),
	)
	if event.WarehouseID != "" {
		attrs = append(attrs, attribute.String("wms.warehouse_id", event.WarehouseID))
	}
	if event.CorrelationID != "" {
		attrs = append(attrs, attribute.String("wms.correlation_id", event.CorrelationID))
	}
	return attrs
}
