// Package cloudevents builds the CloudEvents 1.0 envelopes the planning
// service publishes to Kafka and stores in the outbox.
package cloudevents

import "time"

// CloudEvent types published on the workload topic.
const (
	WorkloadForecastGenerated = "wms.workload.forecast.generated"
	WorkloadPlanCreated       = "wms.workload.plan.created"
	WorkloadWorkerAssigned    = "wms.workload.worker.assigned"
	WorkloadWorkerRemoved     = "wms.workload.worker.removed"
	WorkloadPlanOptimized     = "wms.workload.plan.optimized"
	WorkloadPlanApproved      = "wms.workload.plan.approved"
	WorkloadPlanPublished     = "wms.workload.plan.published"
	WorkloadPlanCancelled     = "wms.workload.plan.cancelled"
)

const (
	SourceWorkloadPlanning = "/wms/workload-planning-service"
	SourceWorkloadWorker   = "/wms/workload-planning-worker"
)

// Extension attributes. They travel as top-level JSON members and as
// ce-prefixed Kafka headers.
const (
	ExtWarehouseID   = "wmswarehouseid"
	ExtCorrelationID = "wmscorrelationid"
	ExtWorkflowID    = "wmsworkflowid"
)

// HeaderWarehouseID carries the warehouse on inbound HTTP requests.
const HeaderWarehouseID = "X-WMS-Warehouse-ID"

type WMSCloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	Subject         string      `json:"subject,omitempty"`
	Time            time.Time   `json:"time"`
	DataContentType string      `json:"datacontenttype"`
	Data            interface{} `json:"data"`

	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`

	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// ExtensionHeaders maps each non-empty extension attribute to its value.
func (e *WMSCloudEvent) ExtensionHeaders() map[string]string {
	headers := map[string]string{}
	for name, value := range map[string]string{
		ExtWarehouseID:   e.WarehouseID,
		ExtCorrelationID: e.CorrelationID,
		ExtWorkflowID:    e.WorkflowID,
	} {
		if value != "" {
			headers[name] = value
		}
	}
	return headers
}
