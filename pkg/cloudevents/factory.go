package cloudevents

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey int

const (
	correlationKey contextKey = iota
	workflowKey
)

// ContextWithCorrelationID makes the factory stamp correlationID on events
// built from ctx.
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationKey, correlationID)
}

// ContextWithWorkflowID does the same for the Temporal workflow ID.
func ContextWithWorkflowID(ctx context.Context, workflowID string) context.Context {
	return context.WithValue(ctx, workflowKey, workflowID)
}

func stringFrom(ctx context.Context, key contextKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// EventFactory stamps one source on every event it builds.
type EventFactory struct {
	source string
	now    func() time.Time
}

func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source, now: time.Now}
}

// CreateEvent builds a JSON event with a fresh UUID and the correlation
// and workflow IDs found in ctx.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data interface{}) *WMSCloudEvent {
	return &WMSCloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Source:          f.source,
		Type:            eventType,
		Subject:         subject,
		Time:            f.now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   stringFrom(ctx, correlationKey),
		WorkflowID:      stringFrom(ctx, workflowKey),
	}
}

// CreatePlanningEvent wraps the flat fields of a planning event. Forecast
// events get the subject "forecast/<id>", all others "plan/<id>". The
// warehouse extension comes from the warehouseId field.
func (f *EventFactory) CreatePlanningEvent(ctx context.Context, planningType, subjectID string, fields map[string]string, occurredAt time.Time) *WMSCloudEvent {
	subject := "plan/" + subjectID
	if strings.HasPrefix(planningType, "workload.forecast.") {
		subject = "forecast/" + subjectID
	}

	event := f.CreateEvent(ctx, TypeForPlanningEvent(planningType), subject, fields)
	if !occurredAt.IsZero() {
		event.Time = occurredAt.UTC()
	}
	event.WarehouseID = fields["warehouseId"]
	return event
}

// TypeForPlanningEvent prefixes a planning event type with "wms.".
func TypeForPlanningEvent(planningType string) string {
	return "wms." + planningType
}
