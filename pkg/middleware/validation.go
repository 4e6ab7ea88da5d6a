package middleware

import (
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/paklog/workload-planning-service/internal/domain"
	"github.com/paklog/workload-planning-service/pkg/errors"
)

type planningTag struct {
	valid   validator.Func
	message string
}

var planningTags = map[string]planningTag{
	"workload_category": {parses(domain.ParseWorkloadCategory), "must be a valid workload category"},
	"shift_type":        {parses(domain.ParseShiftType), "must be a valid shift type"},
	"skill_level":       {parses(domain.ParseSkillLevel), "must be a valid skill level"},
	"forecast_period":   {parses(domain.ParseForecastPeriod), "must be one of: HOURLY, DAILY, WEEKLY, MONTHLY"},
}

var validatorOnce sync.Once

// initValidator teaches Gin's binding engine the planning enum tags and
// makes field errors use JSON names.
func initValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, t := range planningTags {
			_ = v.RegisterValidation(tag, t.valid)
		}
		v.RegisterTagNameFunc(jsonFieldName)
	})
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func parses[T any](parse func(string) (T, error)) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := parse(fl.Field().String())
		return err == nil
	}
}

// ValidationErrorFormatter turns validator errors into a field to message map.
func ValidationErrorFormatter(err error) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return map[string]string{}
	}

	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	if t, ok := planningTags[fe.Tag()]; ok {
		return t.message
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

// BindAndValidate decodes the JSON body into obj. Tag failures come back as
// a validation error with per-field details, anything else as a bad request.
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	return bindError(c.ShouldBindJSON(obj))
}

// BindOptionalJSON is BindAndValidate for endpoints whose body may be left out.
// A missing or empty body leaves obj untouched. Chunked bodies are read as well.
func BindOptionalJSON(c *gin.Context, obj interface{}) *errors.AppError {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	err := c.ShouldBindJSON(obj)
	if stderrors.Is(err, io.EOF) {
		return nil
	}
	return bindError(err)
}

func bindError(err error) *errors.AppError {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(fieldErrs))
	}
	return errors.ErrBadRequest("invalid request body: " + err.Error())
}

// SanitizeString strips NUL bytes and surrounding whitespace.
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer cleans every query parameter value in place.
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.RawQuery != "" {
			query := c.Request.URL.Query()
			for _, values := range query {
				for i := range values {
					values[i] = SanitizeString(values[i])
				}
			}
			c.Request.URL.RawQuery = query.Encode()
		}
		c.Next()
	}
}

// ContentType rejects non-JSON bodies on writes. Empty bodies pass.
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength != 0 && !strings.HasPrefix(c.GetHeader("Content-Type"), "application/json") {
				AbortWithAppError(c, &errors.AppError{
					Code:       "INVALID_CONTENT_TYPE",
					Message:    "Content-Type must be application/json",
					HTTPStatus: http.StatusUnsupportedMediaType,
				})
				return
			}
		}
		c.Next()
	}
}
