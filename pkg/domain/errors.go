package domain

import (
	"errors"
	"fmt"
)

// ErrMachineNotFound is returned by stores when a machine ID cannot be found.
var ErrMachineNotFound = errors.New("machine not found")

// ErrVersionConflict is returned by stores when a save carries a stale
// version, signalling the writer to reload and retry.
var ErrVersionConflict = errors.New("machine version conflict")

// ValidationError reports malformed call input (nil entity, empty required
// string or key). It is raised before any field is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a named field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// BusinessRuleError reports structurally valid input that breaks a domain
// invariant (duplicate state name, wrong machine status, missing referenced
// state). The message is stable and descriptive.
type BusinessRuleError struct {
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

// NewBusinessRuleError builds a BusinessRuleError with the given message.
func NewBusinessRuleError(format string, args ...any) error {
	return &BusinessRuleError{Message: fmt.Sprintf(format, args...)}
}

// IsBusinessRuleError reports whether err is a business-rule violation.
func IsBusinessRuleError(err error) bool {
	var be *BusinessRuleError
	return errors.As(err, &be)
}
