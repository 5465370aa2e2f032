package resolve

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDirectory is returned by BindRoutes before the build context was
	// created.
	ErrNoDirectory = errors.New("resolve: build context has no operation directory")
	// ErrNoProperty is returned when a struct root has neither a field nor
	// a zero-argument method of the requested name.
	ErrNoProperty = errors.New("resolve: no such property")
)

// PanicError carries a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("resolve: handler panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// MethodNotFoundError reports a handler instance without the declared
// method.
type MethodNotFoundError struct {
	Type   string
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return fmt.Sprintf("resolve: %s has no method %s", e.Type, e.Method)
}

// UnboundRouteError reports a route whose handler method has no metadata.
type UnboundRouteError struct {
	Kind   string
	Route  string
	Target string
	Method string
}

func (e *UnboundRouteError) Error() string {
	return fmt.Sprintf("resolve: %s route %q points to %s.%s which is not a registered %s handler", e.Kind, e.Route, e.Target, e.Method, e.Kind)
}

// ParamError wraps a failure to compute one handler parameter.
type ParamError struct {
	Method string
	Index  int
	Kind   string
	Err    error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("resolve: %s param %d (%s): %v", e.Method, e.Index, e.Kind, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }
