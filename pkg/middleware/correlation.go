package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/errors"
	"github.com/paklog/workload-planning-service/pkg/logging"
)

const (
	ContextKeyRequestID     = "requestId"
	ContextKeyCorrelationID = "correlationId"
	ContextKeyUserID        = "userId"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderUserID        = "X-User-Id"
)

// headerOrNew returns the inbound header value, minting a UUID when absent,
// and echoes it on the response.
func headerOrNew(c *gin.Context, header string) string {
	id := c.GetHeader(header)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(header, id)
	return id
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerOrNew(c, HeaderRequestID)
		c.Set(ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// CorrelationID puts the correlation id on the logger context and on the
// CloudEvents context so every event emitted by the request carries it.
// The caller's X-User-Id travels the same way.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := headerOrNew(c, HeaderCorrelationID)
		c.Set(ContextKeyCorrelationID, correlationID)

		ctx := cloudevents.ContextWithCorrelationID(
			logging.ContextWithCorrelationID(c.Request.Context(), correlationID),
			correlationID,
		)
		if userID := c.GetHeader(HeaderUserID); userID != "" {
			c.Set(ContextKeyUserID, userID)
			ctx = logging.ContextWithUserID(ctx, userID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger writes one record per request, skipping quiet paths.
func RequestLogger(logger *logging.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := pathSet(quietPaths)

	return func(c *gin.Context) {
		if quiet[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		req := c.Request
		logger.HTTPRequest(req.Context(), req.Method, req.URL.Path, c.Writer.Status(), time.Since(start), c.ClientIP(), req.UserAgent())
	}
}

func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			logger.Panic(c.Request.Context(), recovered)
			AbortWithAppError(c, errors.ErrInternal("An unexpected error occurred"))
		}()
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}

// GetUserID returns the caller's X-User-Id, or fallback when none was sent.
func GetUserID(c *gin.Context, fallback string) string {
	if id := c.GetString(ContextKeyUserID); id != "" {
		return id
	}
	if id := c.GetHeader(HeaderUserID); id != "" {
		return id
	}
	return fallback
}
