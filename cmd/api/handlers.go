package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paklog/workload-planning-service/internal/application"
	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/pkg/errors"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/middleware"
)

const dateLayout = "2006-01-02"

type generateForecastRequest struct {
	WarehouseID    string           `json:"warehouseId" binding:"required"`
	Period         string           `json:"period" binding:"required,forecast_period"`
	ForecastDate   *time.Time       `json:"forecastDate"`
	HistoricalData map[string][]int `json:"historicalData" binding:"required,dive,keys,workload_category,endkeys"`
}

type createPlanRequest struct {
	WarehouseID    string         `json:"warehouseId" binding:"required"`
	PlanDate       string         `json:"planDate" binding:"required,datetime=2006-01-02"`
	PlannedVolumes map[string]int `json:"plannedVolumes" binding:"required,dive,keys,workload_category,endkeys"`
	Description    string         `json:"description"`
}

type createPlanFromForecastRequest struct {
	PlanDate string `json:"planDate" binding:"required,datetime=2006-01-02"`
}

type assignWorkerRequest struct {
	Shift        string `json:"shift" binding:"required,shift_type"`
	WorkerID     string `json:"workerId" binding:"required"`
	WorkerName   string `json:"workerName"`
	Category     string `json:"category" binding:"required,workload_category"`
	PlannedHours int    `json:"plannedHours" binding:"required"`
}

type optimizeRequest struct {
	Workers []domain.WorkerCapacity `json:"workers" binding:"required"`
}

type cancelPlanRequest struct {
	Reason string `json:"reason"`
}

func generateForecastHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req generateForecastRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"warehouse.id":    req.WarehouseID,
			"forecast.period": req.Period,
		})

		// Binding has already validated the period and every category key
		period, _ := domain.ParseForecastPeriod(req.Period)
		history := make(map[domain.WorkloadCategory][]int, len(req.HistoricalData))
		for raw, observations := range req.HistoricalData {
			category, _ := domain.ParseWorkloadCategory(raw)
			history[category] = observations
		}

		forecastDate := time.Now().UTC()
		if req.ForecastDate != nil {
			forecastDate = req.ForecastDate.UTC()
		}

		forecast, err := service.GenerateForecast(c.Request.Context(), application.GenerateForecastCommand{
			WarehouseID:    req.WarehouseID,
			Period:         period,
			ForecastDate:   forecastDate,
			HistoricalData: history,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, forecast)
	}
}

func getForecastHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		forecastID := c.Param("forecastId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"forecast.id": forecastID,
		})

		forecast, err := service.GetForecast(c.Request.Context(), application.GetForecastQuery{ForecastID: forecastID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, forecast)
	}
}

func listForecastsHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		warehouseID, ok := requireWarehouseID(c, responder)
		if !ok {
			return
		}

		forecasts, err := service.ListForecasts(c.Request.Context(), application.ListForecastsQuery{WarehouseID: warehouseID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, forecasts)
	}
}

func getStaffingBreakdownHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		query := application.GetStaffingBreakdownQuery{
			ForecastID: c.Param("forecastId"),
			PlanID:     c.Query("planId"),
		}
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"forecast.id": query.ForecastID,
			"plan.id":     query.PlanID,
		})

		breakdown, err := service.GetStaffingBreakdown(c.Request.Context(), query)
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, breakdown)
	}
}

func createPlanFromForecastHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		forecastID := c.Param("forecastId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"forecast.id": forecastID,
		})

		var req createPlanFromForecastRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}
		planDate, _ := time.Parse(dateLayout, req.PlanDate)

		plan, err := service.CreatePlanFromForecast(c.Request.Context(), application.CreatePlanFromForecastCommand{
			ForecastID: forecastID,
			PlanDate:   planDate,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, plan)
	}
}

func createPlanHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createPlanRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"warehouse.id": req.WarehouseID,
			"plan.date":    req.PlanDate,
		})

		planDate, _ := time.Parse(dateLayout, req.PlanDate)
		volumes := make(map[domain.WorkloadCategory]int, len(req.PlannedVolumes))
		for raw, volume := range req.PlannedVolumes {
			category, _ := domain.ParseWorkloadCategory(raw)
			volumes[category] = volume
		}

		plan, err := service.CreatePlan(c.Request.Context(), application.CreatePlanCommand{
			WarehouseID:    req.WarehouseID,
			PlanDate:       planDate,
			PlannedVolumes: volumes,
			Description:    req.Description,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusCreated, plan)
	}
}

func getPlanHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id": planID,
		})

		plan, err := service.GetPlan(c.Request.Context(), application.GetPlanQuery{PlanID: planID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func listPlansHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		warehouseID, ok := requireWarehouseID(c, responder)
		if !ok {
			return
		}

		plans, err := service.ListPlans(c.Request.Context(), application.ListPlansQuery{WarehouseID: warehouseID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plans)
	}
}

func assignWorkerHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")

		var req assignWorkerRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id":   planID,
			"worker.id": req.WorkerID,
			"shift":     req.Shift,
		})

		shift, _ := domain.ParseShiftType(req.Shift)
		category, _ := domain.ParseWorkloadCategory(req.Category)

		plan, err := service.AssignWorker(c.Request.Context(), application.AssignWorkerCommand{
			PlanID:       planID,
			Shift:        shift,
			WorkerID:     req.WorkerID,
			WorkerName:   req.WorkerName,
			Category:     category,
			PlannedHours: req.PlannedHours,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func removeWorkerHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")
		workerID := c.Param("workerId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id":   planID,
			"worker.id": workerID,
		})

		shift, err := domain.ParseShiftType(c.Param("shift"))
		if err != nil {
			responder.RespondValidationError("invalid shift", map[string]string{"shift": "must be a valid shift type"})
			return
		}

		plan, err := service.RemoveWorker(c.Request.Context(), application.RemoveWorkerCommand{
			PlanID:   planID,
			Shift:    shift,
			WorkerID: workerID,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func optimizeAllocationHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")

		var req optimizeRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id":      planID,
			"worker.count": len(req.Workers),
		})

		allocation, err := service.OptimizeAllocation(c.Request.Context(), application.OptimizeAllocationCommand{
			PlanID:  planID,
			Workers: req.Workers,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, allocation)
	}
}

func approvePlanHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")
		approvedBy := middleware.GetUserID(c, "system")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id":     planID,
			"approved.by": approvedBy,
		})

		plan, err := service.ApprovePlan(c.Request.Context(), application.ApprovePlanCommand{
			PlanID:     planID,
			ApprovedBy: approvedBy,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func publishPlanHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id": planID,
		})

		plan, err := service.PublishPlan(c.Request.Context(), application.PublishPlanCommand{PlanID: planID})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func cancelPlanHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		planID := c.Param("planId")
		middleware.AddSpanAttributes(c, map[string]interface{}{
			"plan.id": planID,
		})

		var req cancelPlanRequest
		if appErr := middleware.BindOptionalJSON(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		plan, err := service.CancelPlan(c.Request.Context(), application.CancelPlanCommand{
			PlanID: planID,
			Reason: req.Reason,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, plan)
	}
}

func getRecommendationsHandler(service *application.PlanningService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		warehouseID, ok := requireWarehouseID(c, responder)
		if !ok {
			return
		}

		date := time.Now().UTC()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				responder.RespondValidationError("invalid date", map[string]string{"date": "must be formatted as YYYY-MM-DD"})
				return
			}
			date = parsed
		}

		middleware.AddSpanAttributes(c, map[string]interface{}{
			"warehouse.id": warehouseID,
			"plan.date":    date.Format(dateLayout),
		})

		recommendations, err := service.GetRecommendations(c.Request.Context(), application.GetRecommendationsQuery{
			WarehouseID: warehouseID,
			Date:        date,
		})
		if err != nil {
			responder.RespondWithError(err)
			return
		}

		c.JSON(http.StatusOK, recommendations)
	}
}

// requireWarehouseID reads the warehouseId query parameter, falling back to the WMS warehouse header
func requireWarehouseID(c *gin.Context, responder *middleware.ErrorResponder) (string, bool) {
	warehouseID := c.Query("warehouseId")
	if warehouseID == "" {
		warehouseID = middleware.GetWMSWarehouseID(c)
	}
	if warehouseID == "" {
		responder.RespondWithAppError(errors.ErrValidationWithFields("warehouseId is required", map[string]string{
			"warehouseId": "is required",
		}))
		return "", false
	}
	return warehouseID, true
}
