// Package middleware holds the Gin middleware stack of the planning API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paklog/workload-planning-service/pkg/logging"
)

type Config struct {
	Logger         *logging.Logger
	ServiceName    string
	EnableCORS     bool
	TrustedProxies []string
	// QuietPaths are served but never request-logged.
	QuietPaths []string
}

func DefaultConfig(serviceName string, logger *logging.Logger) *Config {
	return &Config{
		Logger:      logger,
		ServiceName: serviceName,
		EnableCORS:  true,
		QuietPaths:  []string{"/health", "/ready", "/metrics"},
	}
}

// Setup installs the standard chain. Recovery runs first so a panic anywhere
// below it still gets the JSON error body.
func Setup(router *gin.Engine, config *Config) {
	initValidator()

	if len(config.TrustedProxies) > 0 {
		_ = router.SetTrustedProxies(config.TrustedProxies)
	}

	chain := []gin.HandlerFunc{
		Recovery(config.Logger),
		RequestID(),
		CorrelationID(),
		CloudEvents(),
		RequestLogger(config.Logger, config.QuietPaths...),
		InputSanitizer(),
	}
	if config.EnableCORS {
		chain = append(chain, CORS())
	}
	chain = append(chain, ContentType(), ErrorHandler(config.Logger.Logger))

	router.Use(chain...)
}

var (
	corsAllowHeaders = strings.Join([]string{
		"Origin", "Content-Type", "Accept", "Authorization",
		HeaderRequestID, HeaderCorrelationID, HeaderUserID, "X-WMS-Warehouse-ID",
	}, ", ")
	corsExposeHeaders = strings.Join([]string{HeaderRequestID, HeaderCorrelationID}, ", ")
)

// CORS allows any origin and answers preflight requests with 204.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func probe(c *gin.Context, status int, state, serviceName string, err error) {
	body := gin.H{"status": state, "service": serviceName}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

// HealthCheck is the liveness probe.
func HealthCheck(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		probe(c, http.StatusOK, "healthy", serviceName, nil)
	}
}

// ReadinessCheck answers 503 while check fails.
func ReadinessCheck(serviceName string, check func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(); err != nil {
			probe(c, http.StatusServiceUnavailable, "not ready", serviceName, err)
			return
		}
		probe(c, http.StatusOK, "ready", serviceName, nil)
	}
}

func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody(c, "ROUTE_NOT_FOUND", "The requested resource was not found", nil))
	}
}

func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody(c, "METHOD_NOT_ALLOWED", "The request method is not supported for this resource", nil))
	}
}
