package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paklog/workload-planning-service/api"
	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/pkg/idempotency"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/middleware"
)

// routerDeps collects what the HTTP surface needs
type routerDeps struct {
	Service   *application.PlanningService
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
	Readiness func() error
	Tracing   bool
	// Idempotency enables Idempotency-Key replay on the workload API when set.
	Idempotency idempotency.Store
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()

	middleware.Setup(router, middleware.DefaultConfig(serviceName, deps.Logger))
	router.Use(middleware.MetricsMiddleware(deps.Metrics))
	if deps.Tracing {
		router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))
	}

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())
	router.HandleMethodNotAllowed = true

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, deps.Readiness))
	router.GET("/metrics", middleware.MetricsEndpoint(deps.Metrics))
	router.GET("/api/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml", api.OpenAPI)
	})

	service, logger := deps.Service, deps.Logger
	workload := router.Group("/api/v1/workload")
	if deps.Idempotency != nil {
		config := idempotency.DefaultConfig(serviceName, deps.Idempotency, logger)
		config.Metrics = deps.Metrics
		workload.Use(idempotency.Middleware(config))
	}

	forecasts := workload.Group("/forecasts")
	{
		forecasts.POST("", generateForecastHandler(service, logger))
		forecasts.GET("", listForecastsHandler(service, logger))
		forecasts.GET("/:forecastId", getForecastHandler(service, logger))
		forecasts.GET("/:forecastId/staffing", getStaffingBreakdownHandler(service, logger))
		forecasts.POST("/:forecastId/plans", createPlanFromForecastHandler(service, logger))
	}

	plans := workload.Group("/plans")
	{
		plans.POST("", createPlanHandler(service, logger))
		plans.GET("", listPlansHandler(service, logger))
		plans.GET("/:planId", getPlanHandler(service, logger))
		plans.POST("/:planId/workers", assignWorkerHandler(service, logger))
		plans.DELETE("/:planId/shifts/:shift/workers/:workerId", removeWorkerHandler(service, logger))
		plans.POST("/:planId/optimize", optimizeAllocationHandler(service, logger))
		plans.POST("/:planId/approve", approvePlanHandler(service, logger))
		plans.POST("/:planId/publish", publishPlanHandler(service, logger))
		plans.POST("/:planId/cancel", cancelPlanHandler(service, logger))
	}

	workload.GET("/recommendations", getRecommendationsHandler(service, logger))

	return router
}
