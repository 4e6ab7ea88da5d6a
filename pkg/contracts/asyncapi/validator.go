// Package asyncapi validates CloudEvent payloads against the message schemas
// of the service's AsyncAPI document.
package asyncapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

var (
	errMissingType = errors.New("event type is required")
	errMissingData = errors.New("event data is required")
)

// CloudEvent is the envelope as read from JSON. Only Type and Data are
// checked.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	Type            string      `json:"type"`
	Source          string      `json:"source"`
	Subject         string      `json:"subject,omitempty"`
	ID              string      `json:"id"`
	Time            string      `json:"time,omitempty"`
	DataContentType string      `json:"datacontenttype,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// document is the slice of an AsyncAPI 3 file the validator needs.
type document struct {
	Components struct {
		Schemas map[string]interface{} `yaml:"schemas"`
	} `yaml:"components"`
}

// eventTypes maps a schema name, minus any Data or Event suffix, to the
// CloudEvent type whose payload it describes.
var eventTypes = map[string]string{
	"ForecastGenerated": "wms.workload.forecast.generated",
	"PlanCreated":       "wms.workload.plan.created",
	"WorkerAssigned":    "wms.workload.worker.assigned",
	"WorkerRemoved":     "wms.workload.worker.removed",
	"PlanOptimized":     "wms.workload.plan.optimized",
	"PlanApproved":      "wms.workload.plan.approved",
	"PlanPublished":     "wms.workload.plan.published",
	"PlanCancelled":     "wms.workload.plan.cancelled",
}

type entry struct {
	compiled *jsonschema.Schema
	raw      interface{}
}

type EventValidator struct {
	compiler *jsonschema.Compiler
	byType   map[string]entry
}

func NewEventValidator(path string) (*EventValidator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read AsyncAPI document: %w", err)
	}
	return NewEventValidatorFromBytes(data)
}

// NewEventValidatorFromBytes compiles every component schema that names a
// known event type. Other schemas are skipped.
func NewEventValidatorFromBytes(data []byte) (*EventValidator, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse AsyncAPI document: %w", err)
	}

	v := &EventValidator{compiler: jsonschema.NewCompiler(), byType: map[string]entry{}}
	for name, schema := range doc.Components.Schemas {
		eventType, ok := eventTypes[strings.TrimSuffix(strings.TrimSuffix(name, "Data"), "Event")]
		if !ok {
			continue
		}
		// yaml.v3 decodes to map[string]interface{}, which encodes back to JSON.
		raw, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("encode schema %s: %w", name, err)
		}
		if err := v.add("asyncapi://schemas/"+name, eventType, raw); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}
	return v, nil
}

func (v *EventValidator) add(uri, eventType string, schemaJSON []byte) error {
	raw, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("parse schema JSON: %w", err)
	}
	if err := v.compiler.AddResource(uri, raw); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := v.compiler.Compile(uri)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	v.byType[eventType] = entry{compiled: compiled, raw: raw}
	return nil
}

// ValidateEvent checks event.Data against the schema registered for
// event.Type.
func (v *EventValidator) ValidateEvent(event CloudEvent) error {
	if event.Type == "" {
		return errMissingType
	}
	e, ok := v.byType[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if event.Data == nil {
		return errMissingData
	}

	// Typed payloads are normalised to plain JSON values first.
	encoded, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("decode event data: %w", err)
	}

	if err := e.compiled.Validate(instance); err != nil {
		return fmt.Errorf("%s: validation failed: %w", event.Type, err)
	}
	return nil
}

func (v *EventValidator) ValidateEventJSON(data []byte) error {
	var event CloudEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("parse CloudEvent: %w", err)
	}
	return v.ValidateEvent(event)
}

// SupportedEventTypes lists the event types with a schema, sorted.
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.byType))
	for t := range v.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.byType[eventType]
	return ok
}

// GetSchema returns the uncompiled schema for eventType.
func (v *EventValidator) GetSchema(eventType string) (interface{}, bool) {
	e, ok := v.byType[eventType]
	return e.raw, ok
}

// RegisterSchema adds or replaces the schema for eventType.
func (v *EventValidator) RegisterSchema(eventType string, schemaJSON []byte) error {
	return v.add("custom://schemas/"+eventType, eventType, schemaJSON)
}
