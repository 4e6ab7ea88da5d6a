package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/paklog/workload-planning-service/internal/activities"
)

// Activity timeout and retry defaults
const (
	DefaultActivityTimeout         time.Duration = 2 * time.Minute
	DefaultRetryInitialInterval    time.Duration = time.Second
	DefaultRetryMaxInterval        time.Duration = time.Minute
	DefaultRetryBackoffCoefficient float64       = 2.0
	DefaultMaxRetryAttempts        int32         = 3
)

// nonRetryableErrorTypes are the application error types raised by the planning activities
var nonRetryableErrorTypes = []string{
	activities.ErrorTypeValidation,
	activities.ErrorTypeNotFound,
	activities.ErrorTypeConflict,
}

// StandardRetryPolicy retries infrastructure failures and gives up on client errors
func StandardRetryPolicy() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:        DefaultRetryInitialInterval,
		BackoffCoefficient:     DefaultRetryBackoffCoefficient,
		MaximumInterval:        DefaultRetryMaxInterval,
		MaximumAttempts:        DefaultMaxRetryAttempts,
		NonRetryableErrorTypes: nonRetryableErrorTypes,
	}
}

// StandardActivityOptions returns the options used for every planning activity
func StandardActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: DefaultActivityTimeout,
		RetryPolicy:         StandardRetryPolicy(),
	}
}
