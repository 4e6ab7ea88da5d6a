package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
)

const (
	ContextKeyWMSWarehouseID = "wmsWarehouseId"
	ContextKeyWMSWorkflowID  = "wmsWorkflowId"
)

// HeaderWMSWorkflowID names the workflow that issued the request.
const HeaderWMSWorkflowID = "X-WMS-Workflow-ID"

// CloudEvents lifts the WMS extension headers into the request. A workflow
// id is also stored for the event factory so emitted events link back to it.
func CloudEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		if warehouseID := c.GetHeader(cloudevents.HeaderWarehouseID); warehouseID != "" {
			c.Set(ContextKeyWMSWarehouseID, warehouseID)
			c.Header(cloudevents.HeaderWarehouseID, warehouseID)
		}

		workflowID := c.GetHeader(HeaderWMSWorkflowID)
		if workflowID != "" {
			c.Set(ContextKeyWMSWorkflowID, workflowID)
			c.Header(HeaderWMSWorkflowID, workflowID)
			c.Request = c.Request.WithContext(cloudevents.ContextWithWorkflowID(c.Request.Context(), workflowID))
		}

		c.Next()
	}
}

func GetWMSWarehouseID(c *gin.Context) string {
	return c.GetString(ContextKeyWMSWarehouseID)
}

func GetWMSWorkflowID(c *gin.Context) string {
	return c.GetString(ContextKeyWMSWorkflowID)
}
