// Package request defines the per-invocation data handed to handlers,
// interceptors and instance providers: the root value, the coerced
// arguments, the request context and the field info.
package request

import (
	"context"
	"maps"
	"sync"

	language "github.com/hanpama/routegraph/internal/language"
)

// ResolverData is the shared per-invocation payload.
type ResolverData struct {
	// Root is the parent value (nil for root fields unless the transport
	// supplies a root value).
	Root any
	// Args are the field arguments, already coerced by the transport.
	Args map[string]any
	// Context is the request context. Interceptors receive the same value as
	// their ctx argument.
	Context *Context
	// Info describes the field being resolved.
	Info *Info
}

// Info is the request metadata for the field being resolved.
type Info struct {
	FieldName  string
	ParentType string
	Path       language.Path
	// Operation and Field are optional; executors that keep the parsed
	// document around may set them.
	Operation *language.OperationDefinition
	Field     *language.Field
}

// Kind classifies the invocation by its parent type. Plain object fields
// report ok=false.
func (i *Info) Kind() (language.Operation, bool) {
	if i == nil {
		return "", false
	}
	for _, op := range language.Operations {
		if i.ParentType == language.RootTypeName(op) {
			return op, true
		}
	}
	return "", false
}

// IsRoot reports whether the field sits directly under a root type.
func (i *Info) IsRoot() bool {
	return i == nil || len(i.Path) <= 1
}

// PathString renders the response path, e.g. "user.posts[0].title".
func (i *Info) PathString() string {
	if i == nil || len(i.Path) == 0 {
		if i != nil {
			return i.FieldName
		}
		return ""
	}
	return i.Path.String()
}

// Context is the request context handed to handlers. It is a
// context.Context whose Value also answers string keys from the values the
// caller attached with WithValues.
type Context struct {
	context.Context

	mu     sync.RWMutex
	values map[string]any
}

type valuesKey struct{}

// WithValues attaches request values (the "GraphQL context object") to ctx.
// Dispatch copies them into a fresh Context per invocation.
func WithValues(ctx context.Context, values map[string]any) context.Context {
	return context.WithValue(ctx, valuesKey{}, values)
}

// NewContext wraps parent, copying values.
func NewContext(parent context.Context, values map[string]any) *Context {
	if parent == nil {
		parent = context.Background()
	}
	cp := make(map[string]any, len(values))
	maps.Copy(cp, values)
	return &Context{Context: parent, values: cp}
}

// FromContext returns ctx when it already is a *Context, otherwise a new
// Context built from the values attached to ctx.
func FromContext(ctx context.Context) *Context {
	if c, ok := ctx.(*Context); ok {
		return c
	}
	var values map[string]any
	switch v := ctx.Value(valuesKey{}).(type) {
	case map[string]any:
		values = v
	case *Context:
		values = v.Values()
	}
	return NewContext(ctx, values)
}

// Value implements context.Context. String keys are looked up in the
// request values first.
func (c *Context) Value(key any) any {
	switch k := key.(type) {
	case valuesKey:
		return c
	case string:
		if v, ok := c.Get(k); ok {
			return v
		}
	}
	return c.Context.Value(key)
}

// Get returns a request value.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a request value visible to later steps of the same invocation.
func (c *Context) Set(key string, v any) {
	c.mu.Lock()
	c.values[key] = v
	c.mu.Unlock()
}

// Values returns a copy of the request values.
func (c *Context) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}
