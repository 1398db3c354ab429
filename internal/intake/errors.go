package intake

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrIntakeFailure  = errors.New("intake failure")
	ErrIntakeInFlight = errors.New("intake already in flight for this session")
)

// ErrorKind says which step of the intake call failed
type ErrorKind string

const (
	KindMissingCredential ErrorKind = "missing_credential"
	KindTransport         ErrorKind = "transport"
	KindBadStatus         ErrorKind = "bad_status"
	KindMalformed         ErrorKind = "malformed"
)

// IntakeError is a recoverable categorisation failure. No trade is created
// and the caller may retry.
type IntakeError struct {
	Kind ErrorKind
	Err  error
}

func (e *IntakeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("intake failure (%s)", e.Kind)
	}
	return fmt.Sprintf("intake failure (%s): %v", e.Kind, e.Err)
}

func (e *IntakeError) Unwrap() error {
	return e.Err
}

// Is matches ErrIntakeFailure
func (e *IntakeError) Is(target error) bool {
	return target == ErrIntakeFailure
}

func newIntakeError(kind ErrorKind, format string, args ...interface{}) *IntakeError {
	return &IntakeError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the failure kind of err, or "" when err is not an IntakeError
func KindOf(err error) ErrorKind {
	var ie *IntakeError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
