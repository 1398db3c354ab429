package trade

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrTradeNotFound  = errors.New("trade not found")
	ErrAlreadyClosed  = errors.New("trade already closed")
	ErrDuplicateTrade = errors.New("trade id already exists")
)

// ValidationError reports a missing or malformed field. It blocks the action
// and is recoverable by correcting the input.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
