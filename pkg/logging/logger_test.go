package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(&Config{Level: level, ServiceName: "svc", Environment: "test", Version: "1", Output: &buf}), &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &record))
	return record
}

func TestLevelParsing(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, LevelDebug.slogLevel())
	assert.Equal(t, slog.LevelWarn, LevelWarn.slogLevel())
	assert.Equal(t, slog.LevelError, LevelError.slogLevel())
	assert.Equal(t, slog.LevelInfo, LogLevel("loud").slogLevel())
}

func TestLoggerCarriesServiceAndContextIDs(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	logger.WithContext(ctx).WithComponent("planner").WithError(errors.New("boom")).Info("hello")

	record := lastRecord(t, buf)
	assert.Equal(t, "svc", record["service"])
	assert.Equal(t, "req-1", record["requestId"])
	assert.Equal(t, "corr-1", record["correlationId"])
	assert.Equal(t, "planner", record["component"])
	assert.Equal(t, "boom", record["error"])
	assert.NotContains(t, record, "traceId")
	assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
}

func TestHTTPRequestLevels(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.HTTPRequest(context.Background(), "GET", "/x", 503, time.Millisecond, "127.0.0.1", "test")
	assert.Equal(t, "ERROR", lastRecord(t, buf)["level"])

	logger.HTTPRequest(context.Background(), "GET", "/x", 404, time.Millisecond, "127.0.0.1", "test")
	assert.Equal(t, "WARN", lastRecord(t, buf)["level"])
}

func TestOutcomeHelpersHideSuccessBelowDebug(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.KafkaPublish(context.Background(), "topic", "workload.plan.created", true, time.Millisecond)
	assert.Empty(t, buf.String())

	logger.DatabaseQuery(context.Background(), "workload_plans", "save", time.Millisecond, false, 0)
	record := lastRecord(t, buf)
	assert.Equal(t, "Database query", record["msg"])
	assert.Equal(t, "workload_plans", record["collection"])
}

func TestEventLogsFields(t *testing.T) {
	logger, buf := newBufferLogger(LevelInfo)

	logger.Event(context.Background(), "workload.plan.approved", map[string]string{"planId": "P-1", "approvedBy": "ops"})

	record := lastRecord(t, buf)
	assert.Equal(t, "workload.plan.approved", record["eventType"])
	assert.Equal(t, "P-1", record["planId"])
	assert.Equal(t, "ops", record["approvedBy"])
}

func TestDiscardDropsRecords(t *testing.T) {
	assert.NotPanics(t, func() { Discard().WithComponent("x").Error("ignored") })
}
