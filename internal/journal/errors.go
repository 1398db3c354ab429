package journal

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	ErrPolicyViolation = errors.New("trade violates account policy")
	ErrUnknownAccount  = errors.New("unknown account")
)

// PolicyError lists the rules a new trade breaks. Setting Override on the
// input accepts the trade anyway.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPolicyViolation, strings.Join(e.Violations, "; "))
}

// Is matches ErrPolicyViolation
func (e *PolicyError) Is(target error) bool {
	return target == ErrPolicyViolation
}
