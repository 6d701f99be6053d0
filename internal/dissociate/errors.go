package dissociate

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a request rejected by validation before any
// store access. Handlers map it to a client error.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return e.Reason
}

// StoreError reports a failed membership lookup. Handlers map it to a
// server error. Kind names the store contract that failed ("term" or
// "spatial") and Criterion the normalized criterion being resolved.
type StoreError struct {
	Kind      string
	Criterion string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store lookup for %q failed: %v", e.Kind, e.Criterion, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool {
	var inv *InvalidInputError
	return errors.As(err, &inv)
}
