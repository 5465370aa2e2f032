// Package metadata collects declared facts about handler and data types and
// links them into a Graph.
//
// Types are identified by the reflect.Type of their struct. Registrations
// happen through the Collect* methods of a Storage, typically right after
// the type declaration or from init functions.
package metadata

import (
	"context"
	"reflect"

	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/request"
)

// Target identifies a handler or data type.
type Target = reflect.Type

// TargetOf returns the Target of T. Pointer types are dereferenced.
func TargetOf[T any]() Target {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeFunc lazily yields a type descriptor: a reflect.Type, or a
// *UnionSymbol for unions. It is evaluated by schema builders, never during
// collection, so declarations may reference each other in any order.
type TypeFunc func() any

// TypeOptions qualifies a declared type.
type TypeOptions struct {
	Nullable      bool
	NullableItems bool
	// List is the list nesting depth, 0 for a named type.
	List         int
	DefaultValue any
}

// Extensions are free-form key/value annotations.
type Extensions map[string]any

// Directive is a directive usage attached to a type or field.
type Directive struct {
	Name string
	Args map[string]any
}

// ParamKind discriminates ParamMetadata.
type ParamKind string

const (
	ParamArg     ParamKind = "arg"
	ParamArgs    ParamKind = "args"
	ParamContext ParamKind = "context"
	ParamRoot    ParamKind = "root"
	ParamInfo    ParamKind = "info"
	ParamPubSub  ParamKind = "pubSub"
	ParamCustom  ParamKind = "custom"
)

// ParamResolver computes a custom parameter.
type ParamResolver func(ctx context.Context, data *request.ResolverData) (any, error)

// ParamMetadata describes one handler parameter. Index is the position in
// the Go method signature, not counting the receiver.
type ParamMetadata struct {
	Kind       ParamKind
	Target     Target
	MethodName string
	Index      int

	// Name is the argument name for ParamArg.
	Name string
	// PropertyName selects a key of the context or root; empty selects the
	// whole value.
	PropertyName string
	GetType      TypeFunc
	TypeOptions  TypeOptions
	// TriggerKey binds a ParamPubSub parameter to one topic.
	TriggerKey string
	Resolver   ParamResolver
	// Validate overrides the build-wide validation switch for ParamArg and
	// ParamArgs.
	Validate *bool
}

// FieldMetadata describes a field of an object, input, argument or
// interface type.
type FieldMetadata struct {
	Name              string
	SchemaName        string
	GetType           TypeFunc
	TypeOptions       TypeOptions
	Target            Target
	Description       string
	DeprecationReason string
	Complexity        *int

	Params      []*ParamMetadata
	Middlewares []*middleware.Middleware
	Directives  []Directive
	Extensions  Extensions
}

// ClassMetadata describes an object, input, argument or interface type.
type ClassMetadata struct {
	Name        string
	SchemaName  string
	Target      Target
	Description string
	IsAbstract  bool
	Interfaces  []func() Target

	Fields     []*FieldMetadata
	Directives []Directive
	Extensions Extensions

	linked bool
}

// Field returns the field named name.
func (c *ClassMetadata) Field(name string) *FieldMetadata {
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ResolverMetadata describes a query or mutation handler and is embedded by
// the other handler kinds.
type ResolverMetadata struct {
	Target            Target
	MethodName        string
	SchemaName        string
	GetType           TypeFunc
	TypeOptions       TypeOptions
	Description       string
	DeprecationReason string
	Complexity        *int

	Params      []*ParamMetadata
	Middlewares []*middleware.Middleware
	Directives  []Directive
	Extensions  Extensions

	// ResolverClass is set by linking.
	ResolverClass *ResolverClassMetadata
}

// SubscriptionResolverMetadata describes a subscription handler. Topics or
// TopicsFunc select the pub/sub topics; Filter drops payloads that return
// false.
type SubscriptionResolverMetadata struct {
	ResolverMetadata

	Topics     []string
	TopicsFunc func(data *request.ResolverData) ([]string, error)
	Filter     func(ctx context.Context, payload any, data *request.ResolverData) (bool, error)
}

// FieldResolverKind tells whether a field resolver is declared on the type
// it resolves (internal) or on a resolver class serving that type
// (external).
type FieldResolverKind string

const (
	FieldResolverInternal FieldResolverKind = "internal"
	FieldResolverExternal FieldResolverKind = "external"
)

// FieldResolverMetadata describes a field resolver handler.
type FieldResolverMetadata struct {
	ResolverMetadata

	Kind FieldResolverKind
	// GetObjectType is set by linking.
	GetObjectType func() Target
}

// ResolverClassMetadata describes a handler-bearing type. Extends records the
// handler type it inherits field resolvers from.
type ResolverClassMetadata struct {
	Target        Target
	GetObjectType func() Target
	IsAbstract    bool
	Extends       Target
}

// EnumMetadata describes an enum type. Values maps wire names to Go values.
type EnumMetadata struct {
	Name        string
	Target      Target
	Description string
	Values      map[string]any
}

// UnionMetadata describes a union of object types.
type UnionMetadata struct {
	Name        string
	Description string
	Types       func() []Target
}

// UnionSymbol is the unique handle returned when collecting a union; field
// types refer to the union through it.
type UnionSymbol struct {
	name string
}

func (s *UnionSymbol) String() string { return s.name }

// UnionMetadataWithSymbol is a collected union.
type UnionMetadataWithSymbol struct {
	UnionMetadata
	Symbol *UnionSymbol
}

// MiddlewareMetadata attaches interceptors to a field or handler method.
// An empty FieldName attaches them to every field and method of Target,
// ahead of member-level interceptors.
type MiddlewareMetadata struct {
	Target      Target
	FieldName   string
	Middlewares []*middleware.Middleware
}

type DirectiveClassMetadata struct {
	Target    Target
	Directive Directive
}

type DirectiveFieldMetadata struct {
	Target    Target
	FieldName string
	Directive Directive
}

type ExtensionsClassMetadata struct {
	Target     Target
	Extensions Extensions
}

type ExtensionsFieldMetadata struct {
	Target     Target
	FieldName  string
	Extensions Extensions
}
