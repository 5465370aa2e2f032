package events

import (
	"time"

	"github.com/hanpama/routegraph/internal/request"
)

// ResolveStart is emitted before a handler's interceptor chain runs.
// Kind is "query", "mutation", "subscription" or empty for plain fields.
type ResolveStart struct {
	Kind   string
	Target string
	Method string
	Info   *request.Info
}

// ResolveFinish is emitted after the chain returns.
type ResolveFinish struct {
	Kind     string
	Target   string
	Method   string
	Info     *request.Info
	Err      error
	Duration time.Duration
}
