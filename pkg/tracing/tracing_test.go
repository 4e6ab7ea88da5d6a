package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitializeDisabled(t *testing.T) {
	cfg := DefaultConfig("workload-planning-service")
	cfg.Enabled = false

	tp, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestRecordResult(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	ctx, ok := tracer.Start(context.Background(), "ok")
	assert.NotEmpty(t, TraceID(ctx))
	RecordResult(ok, nil)
	ok.End()

	_, failed := tracer.Start(context.Background(), "fail")
	RecordResult(failed, errors.New("boom"))
	failed.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "boom", spans[1].Status().Description)
	assert.Empty(t, TraceID(context.Background()))
}

func TestSpanAttributes(t *testing.T) {
	mongo := MongoAttributes("workload_planning", "workload_plans", "findOne")
	assert.Contains(t, mongo, attribute.String("db.mongodb.collection", "workload_plans"))
	assert.Contains(t, mongo, attribute.String("db.system", "mongodb"))

	kafka := KafkaPublishAttributes("wms.workload.events")
	assert.Contains(t, kafka, attribute.String("messaging.destination.name", "wms.workload.events"))
	assert.Contains(t, kafka, attribute.String("messaging.operation", "publish"))
}

func TestSampler(t *testing.T) {
	cfg := DefaultConfig("workload-planning-service")
	assert.Contains(t, cfg.sampler().Description(), "AlwaysOnSampler")

	cfg.SampleRate = 0
	assert.Equal(t, "AlwaysOffSampler", cfg.sampler().Description())

	cfg.SampleRate = 0.25
	assert.Contains(t, cfg.sampler().Description(), "TraceIDRatioBased{0.25}")
}

func TestTraceContextRoundTrip(t *testing.T) {
	_, err := Initialize(context.Background(), &Config{ServiceName: "test"})
	require.NoError(t, err)

	provider := sdktrace.NewTracerProvider()
	ctx, span := provider.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	headers := Headers(ctx)
	require.Contains(t, headers.Keys(), "traceparent")

	extracted := FromHeaders(context.Background(), headers)
	assert.Equal(t, TraceID(ctx), TraceID(extracted))
}
