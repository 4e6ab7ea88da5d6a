package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paklog/workload-planning-service/pkg/cloudevents"
	"github.com/paklog/workload-planning-service/pkg/errors"
	"github.com/paklog/workload-planning-service/pkg/logging"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Setup(router, DefaultConfig("test-service", logging.Discard()))
	router.NoRoute(NoRoute())
	return router
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) APIErrorResponse {
	t.Helper()
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	router := newTestRouter()

	var seenCorrelation, seenUser string
	router.GET("/ids", func(c *gin.Context) {
		seenCorrelation = logging.CorrelationIDFromContext(c.Request.Context())
		seenUser = GetUserID(c, "system")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ids", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "corr-1")
	req.Header.Set(HeaderUserID, "supervisor-7")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-1", rec.Header().Get(HeaderCorrelationID))
	assert.Equal(t, "corr-1", seenCorrelation)
	assert.Equal(t, "supervisor-7", seenUser)
}

func TestGeneratedRequestID(t *testing.T) {
	router := newTestRouter()
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
	assert.NotEmpty(t, rec.Header().Get(HeaderCorrelationID))
}

func TestGetUserIDFallback(t *testing.T) {
	router := newTestRouter()
	var user string
	router.POST("/approve", func(c *gin.Context) {
		user = GetUserID(c, "system")
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/approve", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "system", user)
}

func TestCloudEventsHeadersReachEventContext(t *testing.T) {
	router := newTestRouter()
	factory := cloudevents.NewEventFactory("/test")

	var event *cloudevents.WMSCloudEvent
	router.GET("/event", func(c *gin.Context) {
		event = factory.CreateEvent(c.Request.Context(), "wms.test", "plan/1", nil)
		assert.Equal(t, "WH-9", GetWMSWarehouseID(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/event", nil)
	req.Header.Set(HeaderCorrelationID, "corr-2")
	req.Header.Set(HeaderWMSWorkflowID, "daily-planning-WH-9")
	req.Header.Set(cloudevents.HeaderWarehouseID, "WH-9")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.NotNil(t, event)
	assert.Equal(t, "corr-2", event.CorrelationID)
	assert.Equal(t, "daily-planning-WH-9", event.WorkflowID)
}

func TestErrorResponder(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", errors.ErrNotFoundWithID("workload plan", "P-1"), http.StatusNotFound, errors.CodeNotFound},
		{"invalid transition", errors.ErrInvalidTransition("Only draft plans can be approved"), http.StatusConflict, errors.CodeInvalidTransition},
		{"validation", errors.ErrValidation("bad"), http.StatusBadRequest, errors.CodeValidationError},
		{"plain error", assert.AnError, http.StatusInternalServerError, errors.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/fail", func(c *gin.Context) {
				NewErrorResponder(c, logging.Discard().Logger).RespondWithError(tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/fail", nil)
			req.Header.Set(HeaderRequestID, "req-err")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, "req-err", body.RequestID)
			assert.Equal(t, "/fail", body.Path)
			assert.NotEmpty(t, body.Timestamp)
		})
	}
}

func TestErrorHandlerRendersAttachedError(t *testing.T) {
	router := newTestRouter()
	router.GET("/attached", func(c *gin.Context) {
		_ = c.Error(errors.ErrNotFoundWithID("demand forecast", "F-1"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/attached", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "F-1", body.Details["id"])
}

func TestRecovery(t *testing.T) {
	router := newTestRouter()
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, errors.CodeInternalError, decodeError(t, rec).Code)
}

func TestNoRoute(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decodeError(t, rec).Code)
}

func TestContentType(t *testing.T) {
	router := newTestRouter()
	router.POST("/body", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/body", bytes.NewBufferString("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/body", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type assignBody struct {
	Shift    string           `json:"shift" binding:"required,shift_type"`
	Category string           `json:"category" binding:"required,workload_category"`
	Skill    string           `json:"skillLevel" binding:"omitempty,skill_level"`
	Period   string           `json:"period" binding:"omitempty,forecast_period"`
	History  map[string][]int `json:"history" binding:"omitempty,dive,keys,workload_category,endkeys"`
}

func TestBindAndValidateCustomTags(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
	}{
		{
			name: "valid",
			body: `{"shift":"NIGHT_SHIFT","category":"picking","skillLevel":"SENIOR","period":"DAILY","history":{"PACKING":[1]}}`,
		},
		{
			name:       "unknown shift",
			body:       `{"shift":"LUNCH","category":"PICKING"}`,
			wantFields: map[string]string{"shift": "must be a valid shift type"},
		},
		{
			name:       "missing category",
			body:       `{"shift":"DAY_SHIFT"}`,
			wantFields: map[string]string{"category": "is required"},
		},
		{
			name:       "bad period",
			body:       `{"shift":"DAY_SHIFT","category":"PICKING","period":"YEARLY"}`,
			wantFields: map[string]string{"period": "must be one of: HOURLY, DAILY, WEEKLY, MONTHLY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			var appErr *errors.AppError
			router.POST("/bind", func(c *gin.Context) {
				var body assignBody
				appErr = BindAndValidate(c, &body)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantFields == nil {
				assert.Nil(t, appErr)
				return
			}
			require.NotNil(t, appErr)
			assert.Equal(t, errors.CodeValidationError, appErr.Code)
			assert.Equal(t, tt.wantFields, appErr.Details)
		})
	}
}

func TestBindAndValidateMalformedJSON(t *testing.T) {
	router := newTestRouter()
	var appErr *errors.AppError
	router.POST("/bind", func(c *gin.Context) {
		var body assignBody
		appErr = BindAndValidate(c, &body)
	})

	req := httptest.NewRequest(http.MethodPost, "/bind", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeBadRequest, appErr.Code)
}

func TestBindOptionalJSON(t *testing.T) {
	type reasonBody struct {
		Reason string `json:"reason"`
	}

	tests := []struct {
		name       string
		body       io.Reader
		chunked    bool
		wantReason string
		wantCode   string
	}{
		{name: "no body"},
		{name: "empty chunked body", body: strings.NewReader(""), chunked: true},
		{name: "sized body", body: strings.NewReader(`{"reason":"storm"}`), wantReason: "storm"},
		{name: "chunked body", body: strings.NewReader(`{"reason":"flood"}`), chunked: true, wantReason: "flood"},
		{name: "malformed", body: strings.NewReader("{"), chunked: true, wantCode: errors.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			var (
				body   reasonBody
				appErr *errors.AppError
			)
			router.POST("/cancel", func(c *gin.Context) {
				appErr = BindOptionalJSON(c, &body)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/cancel", tt.body)
			req.Header.Set("Content-Type", "application/json")
			if tt.chunked {
				req.ContentLength = -1
				req.TransferEncoding = []string{"chunked"}
			}
			router.ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantCode != "" {
				require.NotNil(t, appErr)
				assert.Equal(t, tt.wantCode, appErr.Code)
				return
			}
			assert.Nil(t, appErr)
			assert.Equal(t, tt.wantReason, body.Reason)
		})
	}
}

func TestContentTypeChecksChunkedBodies(t *testing.T) {
	router := newTestRouter()
	router.POST("/cancel", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/cancel", strings.NewReader(`{"reason":"storm"}`))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "WH-1", SanitizeString("  WH-\x001 "))
}

func TestWorkflowHeaderIsExposed(t *testing.T) {
	router := newTestRouter()
	var workflowID string
	router.GET("/wf", func(c *gin.Context) {
		workflowID = GetWMSWorkflowID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/wf", nil)
	req.Header.Set(HeaderWMSWorkflowID, "daily-planning-WH-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "daily-planning-WH-1", workflowID)
	assert.Equal(t, "daily-planning-WH-1", rec.Header().Get(HeaderWMSWorkflowID))
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter()
	router.GET("/plans", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/plans", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), HeaderCorrelationID)
}

func TestReadinessCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ready", ReadinessCheck("svc", func() error { return assert.AnError }))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not ready")
}
