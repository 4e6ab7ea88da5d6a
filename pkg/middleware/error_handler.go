package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paklog/workload-planning-service/pkg/errors"
)

// APIErrorResponse is the body of every non-2xx JSON response.
type APIErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

func errorBody(c *gin.Context, code, message string, details map[string]string) APIErrorResponse {
	return APIErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      c.Request.URL.Path,
	}
}

func renderAppError(c *gin.Context, logger *slog.Logger, appErr *errors.AppError, abort bool) {
	if logger != nil {
		logAppError(logger, c, appErr)
	}
	body := errorBody(c, appErr.Code, appErr.Message, appErr.Details)
	if abort {
		c.AbortWithStatusJSON(appErr.HTTPStatus, body)
		return
	}
	c.JSON(appErr.HTTPStatus, body)
}

// ErrorHandler renders the last error a handler attached with c.Error, as
// long as the handler has not written a response itself.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		renderAppError(c, logger, errors.MapDomainError(last.Err), false)
	}
}

// ErrorResponder writes AppErrors for a single request.
type ErrorResponder struct {
	ctx    *gin.Context
	logger *slog.Logger
}

func NewErrorResponder(ctx *gin.Context, logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{ctx: ctx, logger: logger}
}

// RespondWithError renders err. Errors that are not AppErrors become 500s.
func (r *ErrorResponder) RespondWithError(err error) {
	r.RespondWithAppError(errors.MapDomainError(err))
}

func (r *ErrorResponder) RespondWithAppError(appErr *errors.AppError) {
	renderAppError(r.ctx, r.logger, appErr, false)
}

func (r *ErrorResponder) RespondBadRequest(message string) {
	r.RespondWithAppError(errors.ErrBadRequest(message))
}

func (r *ErrorResponder) RespondValidationError(message string, fields map[string]string) {
	r.RespondWithAppError(errors.ErrValidationWithFields(message, fields))
}

func (r *ErrorResponder) RespondInternalError(err error) {
	r.RespondWithAppError(errors.ErrInternal("").Wrap(err))
}

// AbortWithAppError stops the chain and renders appErr without logging it.
func AbortWithAppError(c *gin.Context, appErr *errors.AppError) {
	renderAppError(c, nil, appErr, true)
}

func logAppError(logger *slog.Logger, c *gin.Context, appErr *errors.AppError) {
	level := slog.LevelWarn
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("code", appErr.Code),
		slog.String("message", appErr.Message),
		slog.Int("status", appErr.HTTPStatus),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("requestId", GetRequestID(c)),
		slog.String("clientIP", c.ClientIP()),
	}
	if appErr.Err != nil {
		attrs = append(attrs, slog.String("error", appErr.Err.Error()))
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, slog.Any("details", appErr.Details))
	}

	logger.LogAttrs(c.Request.Context(), level, "API error", attrs...)
}
