package middleware

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNextCalledMultipleTimes is returned when an interceptor invokes
	// next more than once.
	ErrNextCalledMultipleTimes = errors.New("middleware: next() called multiple times")
	// ErrInvalidBinding is returned for malformed pipe bindings.
	ErrInvalidBinding = errors.New("middleware: invalid binding")
)

// MissingNamedError reports a binding name absent from the named table.
type MissingNamedError struct {
	Name string
}

func (e *MissingNamedError) Error() string {
	return fmt.Sprintf("middleware: cannot find named middleware %q", e.Name)
}

// NotHandlerError reports a class interceptor whose instance does not
// implement Handler.
type NotHandlerError struct {
	Type reflect.Type
}

func (e *NotHandlerError) Error() string {
	return fmt.Sprintf("middleware: %s does not implement Handle", e.Type)
}
