package kafka

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
)

// encodeMessage renders event in the CloudEvents Kafka binding, structured
// mode: the whole envelope is the value and the core attributes repeat as
// ce- headers. The subject is the key, so every event of one plan lands on
// the same partition.
func encodeMessage(event *cloudevents.WMSCloudEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	headers := []kafka.Header{
		header("ce-specversion", event.SpecVersion),
		header("ce-type", event.Type),
		header("ce-source", event.Source),
		header("ce-id", event.ID),
		header("ce-time", event.Time.Format(time.RFC3339)),
		header("content-type", event.DataContentType),
	}

	optional := event.ExtensionHeaders()
	if event.TraceParent != "" {
		optional["traceparent"] = event.TraceParent
		optional["tracestate"] = event.TraceState
	}
	names := make([]string, 0, len(optional))
	for name := range optional {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if optional[name] != "" {
			headers = append(headers, header("ce-"+name, optional[name]))
		}
	}

	return kafka.Message{
		Key:     []byte(event.Subject),
		Value:   value,
		Headers: headers,
		Time:    event.Time,
	}, nil
}

func header(key, value string) kafka.Header {
	return kafka.Header{Key: key, Value: []byte(value)}
}
