// Package resolve turns linked handler metadata into resolver functions.
//
// Every invocation builds fresh request data, resolves the handler instance
// through the build context's instance provider, runs the merged interceptor
// chain and finally calls the handler method with its marshaled parameters.
package resolve

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hanpama/routegraph/internal/buildctx"
	"github.com/hanpama/routegraph/internal/eventbus"
	"github.com/hanpama/routegraph/internal/events"
	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/reqid"
	"github.com/hanpama/routegraph/internal/request"
)

// ResolverFunc resolves one field.
type ResolverFunc func(ctx context.Context, root any, args map[string]any, info *request.Info) (any, error)

// SourceFunc opens the event stream of a subscription field.
type SourceFunc func(ctx context.Context, root any, args map[string]any, info *request.Info) (<-chan any, error)

// Operations are the resolvers of booted routes, by kind and route name.
type Operations struct {
	Resolvers map[language.Operation]map[string]ResolverFunc
	Sources   map[string]SourceFunc
}

// Resolver returns the resolver of route name.
func (o *Operations) Resolver(kind language.Operation, name string) (ResolverFunc, bool) {
	if o == nil {
		return nil, false
	}
	fn, ok := o.Resolvers[kind][name]
	return fn, ok
}

// Engine creates resolvers against a build context.
type Engine struct {
	bc       *buildctx.Context
	validate *validator.Validate
}

// New returns an Engine reading its settings from bc.
func New(bc *buildctx.Context) *Engine {
	return &Engine{
		bc:       bc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Option configures a handler resolver.
type Option func(*options)

type options struct {
	target      reflect.Type
	middlewares []*middleware.Middleware
}

// WithTarget resolves the handler instance as t instead of the declaring
// type. Routes to inherited methods use the route's own type.
func WithTarget(t reflect.Type) Option { return func(o *options) { o.target = t } }

// WithMiddlewares appends route interceptors after the declared ones.
func WithMiddlewares(mws ...*middleware.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

// invocation is one dispatch of a resolver.
type invocation struct {
	snap     buildctx.Snapshot
	target   string
	method   string
	declared []*middleware.Middleware
	route    []*middleware.Middleware
	// instance is resolved before the chain when set.
	instance reflect.Type
	terminal func(data *request.ResolverData, inst any) (any, error)
}

func (e *Engine) run(ctx context.Context, inv invocation, root any, args map[string]any, info *request.Info) (any, error) {
	snap := inv.snap
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, _ = reqid.Ensure(ctx)
	rc := request.NewContext(ctx, request.FromContext(ctx).Values())
	if args == nil {
		args = map[string]any{}
	}
	data := &request.ResolverData{Root: root, Args: args, Context: rc, Info: info}

	var inst any
	if inv.instance != nil {
		var err error
		if inst, err = snap.Container.Get(inv.instance, data); err != nil {
			return nil, err
		}
	}

	kind, _ := info.Kind()
	p := middleware.NewPipeline(snap.Container, snap.MiddlewareStore).
		Register(snap.GlobalMiddlewares...).
		Register(snap.KindMiddlewares(kind)...).
		Register(inv.declared...).
		Register(inv.route...)
	steps, err := p.Resolve(data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	eventbus.Publish(rc, snap.Bus, events.ResolveStart{Kind: string(kind), Target: inv.target, Method: inv.method, Info: info})
	res, err := middleware.Apply(rc, data, steps, func() (any, error) {
		return inv.terminal(data, inst)
	})
	eventbus.Publish(rc, snap.Bus, events.ResolveFinish{
		Kind:     string(kind),
		Target:   inv.target,
		Method:   inv.method,
		Info:     info,
		Err:      err,
		Duration: time.Since(start),
	})
	return res, err
}

// HandlerResolver returns the resolver of a query, mutation, subscription
// or external field resolver.
func (e *Engine) HandlerResolver(meta *metadata.ResolverMetadata, opts ...Option) ResolverFunc {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	target := meta.Target
	if o.target != nil {
		target = o.target
	}
	snap := e.bc.Snapshot()
	inv := invocation{
		snap:     snap,
		target:   typeName(target),
		method:   meta.MethodName,
		declared: meta.Middlewares,
		route:    o.middlewares,
		instance: target,
		terminal: func(data *request.ResolverData, inst any) (any, error) {
			fn, err := method(inst, meta.MethodName)
			if err != nil {
				return nil, err
			}
			args, err := e.params(data, snap, meta.Params, fn)
			if err != nil {
				return nil, err
			}
			return call(fn, args)
		},
	}
	return func(ctx context.Context, root any, args map[string]any, info *request.Info) (any, error) {
		return e.run(ctx, inv, root, args, info)
	}
}

// FieldResolver returns the resolver of a field resolver handler. Internal
// resolvers run on the root converted to their object type; when the type
// has no such method the property is read instead.
func (e *Engine) FieldResolver(meta *metadata.FieldResolverMetadata) ResolverFunc {
	if meta.Kind != metadata.FieldResolverInternal {
		return e.HandlerResolver(&meta.ResolverMetadata)
	}
	objType := meta.Target
	if meta.GetObjectType != nil {
		objType = meta.GetObjectType()
	}
	snap := e.bc.Snapshot()
	conv := snap.Converter()
	inv := invocation{
		snap:     snap,
		target:   typeName(objType),
		method:   meta.MethodName,
		declared: meta.Middlewares,
	}
	return func(ctx context.Context, root any, args map[string]any, info *request.Info) (any, error) {
		rv, err := conv.To(root, reflect.PointerTo(objType))
		if err != nil {
			return nil, err
		}
		self := rv.Interface()
		inv := inv
		inv.terminal = func(data *request.ResolverData, _ any) (any, error) {
			fn := rv.MethodByName(meta.MethodName)
			if !fn.IsValid() {
				return property(self, meta.MethodName, meta.SchemaName)
			}
			args, err := e.params(data, snap, meta.Params, fn)
			if err != nil {
				return nil, err
			}
			return call(fn, args)
		}
		return e.run(ctx, inv, root, args, info)
	}
}

// BasicFieldResolver returns the resolver of a plain object field. It reads
// the field from the root under the field's interceptors.
func (e *Engine) BasicFieldResolver(field *metadata.FieldMetadata) ResolverFunc {
	inv := invocation{
		snap:     e.bc.Snapshot(),
		target:   typeName(field.Target),
		method:   field.Name,
		declared: field.Middlewares,
		terminal: func(data *request.ResolverData, _ any) (any, error) {
			return property(data.Root, field.Name, field.SchemaName)
		},
	}
	return func(ctx context.Context, root any, args map[string]any, info *request.Info) (any, error) {
		return e.run(ctx, inv, root, args, info)
	}
}

// BindRoutes creates the resolvers of every booted route. A route whose
// type does not declare the method itself may point to a method declared on
// a handler type it extends.
func (e *Engine) BindRoutes(graph *metadata.Graph) (*Operations, error) {
	snap := e.bc.Snapshot()
	if snap.Directory == nil {
		return nil, ErrNoDirectory
	}
	ops := &Operations{
		Resolvers: map[language.Operation]map[string]ResolverFunc{},
		Sources:   map[string]SourceFunc{},
	}
	for _, kind := range language.Operations {
		for _, entry := range snap.Directory.Resolvers(kind) {
			target := deref(entry.Target)
			meta, owner := lookupHandler(graph, kind, target, entry.Method)
			if meta == nil {
				return nil, &UnboundRouteError{Kind: string(kind), Route: entry.Name, Target: typeName(target), Method: entry.Method}
			}
			if ops.Resolvers[kind] == nil {
				ops.Resolvers[kind] = map[string]ResolverFunc{}
			}
			if _, dup := ops.Resolvers[kind][entry.Name]; dup {
				return nil, fmt.Errorf("resolve: duplicate %s route %q", kind, entry.Name)
			}
			ops.Resolvers[kind][entry.Name] = e.HandlerResolver(meta, WithTarget(target), WithMiddlewares(entry.Middlewares...))
			if kind == language.Subscription {
				if sub := graph.Subscription(owner, entry.Method); sub != nil {
					ops.Sources[entry.Name] = e.Subscribe(sub)
				}
			}
		}
	}
	return ops, nil
}

func lookupHandler(graph *metadata.Graph, kind language.Operation, target reflect.Type, method string) (*metadata.ResolverMetadata, reflect.Type) {
	if meta := graph.Handler(kind, target, method); meta != nil {
		return meta, target
	}
	for _, anc := range graph.Ancestors(target) {
		if meta := graph.Handler(kind, anc.Target, method); meta != nil {
			return meta, anc.Target
		}
	}
	return nil, nil
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
