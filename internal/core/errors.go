package core

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a lookup for an id that does not exist. Callers map it to
// a not-found response.
var ErrNotFound = errors.New("not found")

// ValidationError marks a business-rule or input violation the caller can fix.
// Its message is safe to show to the end user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalidf builds a ValidationError with a formatted message.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
