// Package middleware implements the interceptor chain that wraps every
// dispatched handler call.
//
// Interceptors are declared as a tagged variant (a function, a class type
// instantiated through the container, a named binding or a container
// namespace), resolved into Steps once per chain build, and executed
// onion style by Apply.
package middleware

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hanpama/routegraph/internal/request"
)

// NextFunc invokes the remainder of the chain and returns its result.
type NextFunc func() (any, error)

// Func is a function interceptor. args are the arguments captured by a
// named binding ("auth:admin" gives ["admin"]). Returning a non-nil value
// replaces the downstream result; nil passes it through.
type Func func(ctx context.Context, data *request.ResolverData, next NextFunc, args []string) (any, error)

// Handler is implemented by class interceptors.
type Handler interface {
	Handle(ctx context.Context, data *request.ResolverData, next NextFunc, args []string) (any, error)
}

// Kind discriminates Middleware.
type Kind int

const (
	KindFunc Kind = iota
	KindClass
	KindNamed
	KindNamespace
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindClass:
		return "class"
	case KindNamed:
		return "named"
	case KindNamespace:
		return "namespace"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Middleware is an interceptor reference. Values are immutable; reuse the
// same *Middleware to make function interceptors deduplicate.
type Middleware struct {
	kind  Kind
	fn    Func
	class reflect.Type
	name  string
}

// Fn wraps a function interceptor.
func Fn(f Func) *Middleware { return &Middleware{kind: KindFunc, fn: f} }

// Class references an interceptor type that the container instantiates.
// The instance must implement Handler.
func Class(t reflect.Type) *Middleware { return &Middleware{kind: KindClass, class: t} }

// ClassOf is Class for a static type.
func ClassOf[T any]() *Middleware { return Class(reflect.TypeOf((*T)(nil)).Elem()) }

// Named references an entry of the store's named table using the pipe
// binding syntax, e.g. "auth:admin,editor|throttle".
func Named(binding string) *Middleware { return &Middleware{kind: KindNamed, name: binding} }

// Namespace references an interceptor type bound in the container.
func Namespace(ns string) *Middleware { return &Middleware{kind: KindNamespace, name: ns} }

// Kind reports the variant.
func (m *Middleware) Kind() Kind { return m.kind }

func (m *Middleware) String() string {
	switch m.kind {
	case KindClass:
		return m.class.String()
	case KindNamed, KindNamespace:
		return m.name
	}
	return "func"
}

type classKey struct{ t reflect.Type }

type nameKey struct {
	kind Kind
	name string
}

// identity is the deduplication key.
func (m *Middleware) identity() any {
	switch m.kind {
	case KindClass:
		return classKey{m.class}
	case KindNamed, KindNamespace:
		return nameKey{m.kind, m.name}
	}
	return m
}

// Dedupe drops repeated interceptors keeping the first occurrence.
func Dedupe(list []*Middleware) []*Middleware {
	seen := make(map[any]struct{}, len(list))
	out := make([]*Middleware, 0, len(list))
	for _, m := range list {
		if m == nil {
			continue
		}
		id := m.identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, m)
	}
	return out
}
