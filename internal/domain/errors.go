package domain

import "errors"

// Domain errors
var (
	ErrInvalidTransition   = errors.New("invalid plan status transition")
	ErrNegativeVolume      = errors.New("volume must not be negative")
	ErrNegativeConfidence  = errors.New("confidence interval must not be negative")
	ErrInvalidCategory     = errors.New("invalid workload category")
	ErrInvalidShift        = errors.New("invalid shift type")
	ErrInvalidSkillLevel   = errors.New("invalid skill level")
	ErrInvalidPeriod       = errors.New("invalid forecast period")
	ErrInvalidPlannedHours = errors.New("planned hours must be positive")
	ErrMissingIdentifier   = errors.New("identifier is required")
	ErrMissingPlanDate     = errors.New("plan date is required")
	ErrMissingForecastDate = errors.New("forecast date is required")
)

// TransitionError describes a rejected status change. It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From    PlanStatus
	To      PlanStatus
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

// Is reports whether target is ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
