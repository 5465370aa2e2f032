// Package reqid carries a per-request identifier through context.Context.
// Request-scoped instance providers and span correlation key on it.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

type (
	key          struct{}
	generatedKey struct{}
)

// NewContext returns a copy of parent carrying a fresh random request ID,
// together with that ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return context.WithValue(parent, key{}, id), id
}

// WithID stores a caller supplied request ID, e.g. one forwarded by a gateway.
func WithID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(key{}).(string)
	return id, ok && id != ""
}

// Ensure returns ctx unchanged when it already carries an ID, otherwise a
// derived context with a new one. An ID made up here only lives for the
// call that needed it; Generated reports it.
func Ensure(ctx context.Context) (context.Context, string) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, id := NewContext(ctx)
	return context.WithValue(ctx, generatedKey{}, id), id
}

// Generated reports whether the request ID of ctx was made up by Ensure
// rather than supplied by the host.
func Generated(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	if !ok {
		return false
	}
	gen, _ := ctx.Value(generatedKey{}).(string)
	return gen == id
}
