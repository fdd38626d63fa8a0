package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a malformed caller request (missing or bad fields).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a request, target, or hospital that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a role or ownership check failure.
	ErrForbidden = errors.New("forbidden")
)

// TransitionError reports a status change that the transition table does not
// permit for the acting role. It is expected and recoverable by the caller.
type TransitionError struct {
	From Status
	To   Status
	Role Role
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s not allowed for role %s", e.From, e.To, e.Role)
}

// IsTransitionRejected reports whether err is a rejected status transition.
func IsTransitionRejected(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
