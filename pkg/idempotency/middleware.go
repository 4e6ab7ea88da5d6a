package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/paklog/workload-planning-service/pkg/errors"
	"github.com/paklog/workload-planning-service/pkg/logging"
	"github.com/paklog/workload-planning-service/pkg/metrics"
	"github.com/paklog/workload-planning-service/pkg/middleware"
)

const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderReplayed is set to "true" on responses served from a record.
const HeaderReplayed = "Idempotent-Replayed"

type Config struct {
	ServiceName string
	Store       Store
	Logger      *logging.Logger
	Metrics     *metrics.Metrics

	MaxKeyLength int
	// LockTimeout is how long a running request keeps other holders of its
	// key out. Older locks are taken over.
	LockTimeout time.Duration
	Retention   time.Duration
	// MaxBodySize caps what is stored. Larger responses are not replayable.
	MaxBodySize int
}

func DefaultConfig(serviceName string, store Store, logger *logging.Logger) *Config {
	return &Config{
		ServiceName:  serviceName,
		Store:        store,
		Logger:       logger,
		MaxKeyLength: 255,
		LockTimeout:  time.Minute,
		Retention:    24 * time.Hour,
		MaxBodySize:  1 << 20,
	}
}

type capture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware makes POST, PUT, PATCH and DELETE requests that carry an
// Idempotency-Key replayable. Requests without the header pass through.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !mutating(c.Request.Method) {
			c.Next()
			return
		}
		if err := validateKey(key, config.MaxKeyLength); err != nil {
			middleware.AbortWithAppError(c, apperrors.ErrBadRequest(err.Error()))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			middleware.AbortWithAppError(c, apperrors.ErrBadRequest("unreadable request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		config.handle(c, key, Fingerprint(c.Request.Method, c.Request.URL.Path, body))
	}
}

func (config *Config) handle(c *gin.Context, key, fingerprint string) {
	ctx := c.Request.Context()
	now := time.Now().UTC()
	rec := &Record{
		ID:          config.ServiceName + "/" + key,
		Key:         key,
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Fingerprint: fingerprint,
		LockedAt:    &now,
		CreatedAt:   now,
		ExpiresAt:   now.Add(config.Retention),
	}
	log := config.Logger.WithContext(ctx).With("idempotencyKey", key, "path", rec.Path)

	stored, inserted, err := config.Store.Acquire(ctx, rec)
	if err != nil {
		log.WithError(err).Error("Idempotency store unavailable")
		config.Metrics.RecordIdempotency("error")
		middleware.AbortWithAppError(c, apperrors.ErrUnavailable("idempotency store is unavailable"))
		return
	}

	if !inserted {
		switch {
		case stored.Fingerprint != fingerprint:
			config.Metrics.RecordIdempotency("mismatch")
			middleware.AbortWithAppError(c, apperrors.ErrUnprocessable("Idempotency-Key was already used with a different request"))
			return
		case stored.Completed():
			config.Metrics.RecordIdempotency("replay")
			log.Debug("Replaying stored response", "status", stored.StatusCode)
			c.Header(HeaderReplayed, "true")
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		case stored.Locked() && now.Sub(*stored.LockedAt) < config.LockTimeout:
			config.Metrics.RecordIdempotency("in_flight")
			middleware.AbortWithAppError(c, apperrors.ErrConflict("a request with this Idempotency-Key is still running"))
			return
		}
		if !config.takeOver(c, log, stored, now) {
			return
		}
	}
	config.Metrics.RecordIdempotency("new")

	w := &capture{ResponseWriter: c.Writer}
	c.Writer = w
	c.Next()

	config.finish(c, log, rec.ID, w)
}

// takeOver claims a stale lock. It aborts the request and returns false when
// the store fails or a concurrent request claimed the lock first.
func (config *Config) takeOver(c *gin.Context, log *logging.Logger, stored *Record, now time.Time) bool {
	var lockedAt time.Time
	if stored.LockedAt != nil {
		lockedAt = *stored.LockedAt
	}

	won, err := config.Store.TakeOver(c.Request.Context(), stored.ID, lockedAt, now)
	if err != nil {
		log.WithError(err).Error("Idempotency store unavailable")
		config.Metrics.RecordIdempotency("error")
		middleware.AbortWithAppError(c, apperrors.ErrUnavailable("idempotency store is unavailable"))
		return false
	}
	if !won {
		config.Metrics.RecordIdempotency("in_flight")
		middleware.AbortWithAppError(c, apperrors.ErrConflict("a request with this Idempotency-Key is still running"))
		return false
	}
	log.Warn("Took over stale idempotency lock", "lockedAt", lockedAt)
	return true
}

// finish stores 2xx-4xx responses. Server errors and oversized bodies
// release the key instead, so the client can retry.
func (config *Config) finish(c *gin.Context, log *logging.Logger, id string, w *capture) {
	ctx := c.Request.Context()
	status := w.Status()

	if status >= http.StatusInternalServerError || w.body.Len() > config.MaxBodySize {
		if err := config.Store.Release(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			log.WithError(err).Warn("Failed to release idempotency key")
		}
		return
	}

	err := config.Store.Complete(ctx, id, Response{
		StatusCode:  status,
		ContentType: w.Header().Get("Content-Type"),
		Body:        w.body.Bytes(),
	})
	if err != nil {
		config.Metrics.RecordIdempotency("error")
		log.WithError(err).Error("Failed to store idempotent response")
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
