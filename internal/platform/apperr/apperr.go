// Package apperr separates the two error classes the service surfaces:
// rejections, which are expected and safe to show to the end user, and
// faults, which signal a defect and are reported as internal errors.
package apperr

import (
	"errors"
	"fmt"
)

// ErrFault marks an unexpected condition such as a violated storage invariant
// or an unsupported problem kind. Retrying cannot fix it.
var ErrFault = errors.New("internal fault")

// Rejection is a user-facing refusal. Message is displayed as-is.
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Reject returns a *Rejection with a formatted message.
func Reject(format string, args ...any) error {
	return &Rejection{Message: fmt.Sprintf(format, args...)}
}

// Faultf returns an error that wraps ErrFault.
func Faultf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFault, fmt.Sprintf(format, args...))
}

// AsRejection reports whether err is (or wraps) a *Rejection and returns it.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsFault reports whether err wraps ErrFault.
func IsFault(err error) bool {
	return errors.Is(err, ErrFault)
}
