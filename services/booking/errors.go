package booking

import (
	"errors"
	"fmt"

	"shipbook/models"
)

// Error codes returned by the booking service. Use errors.Is against these
// sentinels; the concrete error is always an *Error.
var (
	ErrValidationFailed            = errors.New("ValidationFailed")
	ErrInvalidSchedule             = errors.New("InvalidSchedule")
	ErrInvalidDestination          = errors.New("InvalidDestination")
	ErrRecipientOwnershipViolation = errors.New("RecipientOwnershipViolation")
	ErrInvalidPricingResult        = errors.New("InvalidPricingResult")
	ErrForbidden                   = errors.New("Forbidden")
	ErrNotFound                    = errors.New("NotFound")
)

type Error struct {
	Code    error
	Message string
	Issues  []models.ValidationIssue
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Code
}

func newError(code error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func validationError(issues []models.ValidationIssue) *Error {
	return &Error{
		Code:    ErrValidationFailed,
		Message: fmt.Sprintf("%d invalid field(s)", len(issues)),
		Issues:  issues,
	}
}
