// Package router maps external operation names to handler methods.
//
// A Router collects route definitions ("users" → "UserResolver.List"); a
// Store boots them, resolving each handler namespace through the container.
package router

import (
	"slices"
	"sync"

	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/middleware"
)

// Definition is a declared route.
type Definition struct {
	Kind        language.Operation `validate:"required,oneof=query mutation subscription"`
	Name        string             `validate:"required"`
	Handler     string             `validate:"required"`
	Middlewares []*middleware.Middleware
}

// Route is a handle for refining a declared route.
type Route struct {
	mu      sync.Mutex
	def     Definition
	deleted bool
}

// Use appends route interceptors.
func (r *Route) Use(mws ...*middleware.Middleware) *Route {
	r.mu.Lock()
	r.def.Middlewares = append(r.def.Middlewares, mws...)
	r.mu.Unlock()
	return r
}

// Prepend inserts route interceptors ahead of the existing ones.
func (r *Route) Prepend(mws ...*middleware.Middleware) *Route {
	r.mu.Lock()
	r.def.Middlewares = append(slices.Clone(mws), r.def.Middlewares...)
	r.mu.Unlock()
	return r
}

// Delete withdraws the route. Deleted routes are skipped by Definitions.
func (r *Route) Delete() {
	r.mu.Lock()
	r.deleted = true
	r.mu.Unlock()
}

// Definition returns a copy of the route definition.
func (r *Route) Definition() Definition {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.def
	d.Middlewares = slices.Clone(r.def.Middlewares)
	return d
}

func (r *Route) isDeleted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleted
}

// Router collects routes in declaration order.
type Router struct {
	mu     sync.Mutex
	routes []*Route
}

// New returns an empty Router.
func New() *Router { return &Router{} }

// Route declares a route of any kind. Kinds are validated at boot.
func (r *Router) Route(kind language.Operation, name, handler string) *Route {
	rt := &Route{def: Definition{Kind: kind, Name: name, Handler: handler}}
	r.mu.Lock()
	r.routes = append(r.routes, rt)
	r.mu.Unlock()
	return rt
}

// Query declares a query route.
func (r *Router) Query(name, handler string) *Route { return r.Route(language.Query, name, handler) }

// Mutation declares a mutation route.
func (r *Router) Mutation(name, handler string) *Route {
	return r.Route(language.Mutation, name, handler)
}

// Subscription declares a subscription route.
func (r *Router) Subscription(name, handler string) *Route {
	return r.Route(language.Subscription, name, handler)
}

// Definitions lists the routes that were not deleted.
func (r *Router) Definitions() []Definition {
	r.mu.Lock()
	routes := slices.Clone(r.routes)
	r.mu.Unlock()

	out := make([]Definition, 0, len(routes))
	for _, rt := range routes {
		if !rt.isDeleted() {
			out = append(out, rt.Definition())
		}
	}
	return out
}
