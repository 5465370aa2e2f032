package metadata

import (
	"slices"
	"sync"
)

// Storage buffers declared metadata until Build links it. Collect methods
// are safe for concurrent use and never validate.
type Storage struct {
	mu sync.Mutex

	queries         []*ResolverMetadata
	mutations       []*ResolverMetadata
	subscriptions   []*SubscriptionResolverMetadata
	fieldResolvers  []*FieldResolverMetadata
	objectTypes     []*ClassMetadata
	inputTypes      []*ClassMetadata
	argumentTypes   []*ClassMetadata
	interfaceTypes  []*ClassMetadata
	enums           []*EnumMetadata
	unions          []*UnionMetadataWithSymbol
	middlewares     []*MiddlewareMetadata
	classDirectives []*DirectiveClassMetadata
	fieldDirectives []*DirectiveFieldMetadata
	classExtensions []*ExtensionsClassMetadata
	fieldExtensions []*ExtensionsFieldMetadata
	resolverClasses []*ResolverClassMetadata
	fields          []*FieldMetadata
	params          []*ParamMetadata

	built bool
	graph *Graph
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage { return &Storage{} }

var global = NewStorage()

// Global returns the process-wide storage used by init-time registrations.
func Global() *Storage { return global }

func (s *Storage) CollectQueryHandlerMetadata(def *ResolverMetadata) {
	s.mu.Lock()
	s.queries = append(s.queries, def)
	s.mu.Unlock()
}

func (s *Storage) CollectMutationHandlerMetadata(def *ResolverMetadata) {
	s.mu.Lock()
	s.mutations = append(s.mutations, def)
	s.mu.Unlock()
}

func (s *Storage) CollectSubscriptionHandlerMetadata(def *SubscriptionResolverMetadata) {
	s.mu.Lock()
	s.subscriptions = append(s.subscriptions, def)
	s.mu.Unlock()
}

func (s *Storage) CollectFieldResolverMetadata(def *FieldResolverMetadata) {
	s.mu.Lock()
	s.fieldResolvers = append(s.fieldResolvers, def)
	s.mu.Unlock()
}

func (s *Storage) CollectObjectMetadata(def *ClassMetadata) {
	s.mu.Lock()
	s.objectTypes = append(s.objectTypes, def)
	s.mu.Unlock()
}

func (s *Storage) CollectInputMetadata(def *ClassMetadata) {
	s.mu.Lock()
	s.inputTypes = append(s.inputTypes, def)
	s.mu.Unlock()
}

func (s *Storage) CollectArgsMetadata(def *ClassMetadata) {
	s.mu.Lock()
	s.argumentTypes = append(s.argumentTypes, def)
	s.mu.Unlock()
}

func (s *Storage) CollectInterfaceMetadata(def *ClassMetadata) {
	s.mu.Lock()
	s.interfaceTypes = append(s.interfaceTypes, def)
	s.mu.Unlock()
}

func (s *Storage) CollectEnumMetadata(def *EnumMetadata) {
	s.mu.Lock()
	s.enums = append(s.enums, def)
	s.mu.Unlock()
}

// CollectUnionMetadata stores def and returns the symbol that field types
// use to reference the union.
func (s *Storage) CollectUnionMetadata(def UnionMetadata) *UnionSymbol {
	sym := &UnionSymbol{name: def.Name}
	s.mu.Lock()
	s.unions = append(s.unions, &UnionMetadataWithSymbol{UnionMetadata: def, Symbol: sym})
	s.mu.Unlock()
	return sym
}

func (s *Storage) CollectMiddlewareMetadata(def *MiddlewareMetadata) {
	s.mu.Lock()
	s.middlewares = append(s.middlewares, def)
	s.mu.Unlock()
}

func (s *Storage) CollectResolverClassMetadata(def *ResolverClassMetadata) {
	s.mu.Lock()
	s.resolverClasses = append(s.resolverClasses, def)
	s.mu.Unlock()
}

func (s *Storage) CollectClassFieldMetadata(def *FieldMetadata) {
	s.mu.Lock()
	s.fields = append(s.fields, def)
	s.mu.Unlock()
}

func (s *Storage) CollectHandlerParamMetadata(def *ParamMetadata) {
	s.mu.Lock()
	s.params = append(s.params, def)
	s.mu.Unlock()
}

func (s *Storage) CollectDirectiveClassMetadata(def *DirectiveClassMetadata) {
	s.mu.Lock()
	s.classDirectives = append(s.classDirectives, def)
	s.mu.Unlock()
}

func (s *Storage) CollectDirectiveFieldMetadata(def *DirectiveFieldMetadata) {
	s.mu.Lock()
	s.fieldDirectives = append(s.fieldDirectives, def)
	s.mu.Unlock()
}

func (s *Storage) CollectExtensionsClassMetadata(def *ExtensionsClassMetadata) {
	s.mu.Lock()
	s.classExtensions = append(s.classExtensions, def)
	s.mu.Unlock()
}

func (s *Storage) CollectExtensionsFieldMetadata(def *ExtensionsFieldMetadata) {
	s.mu.Lock()
	s.fieldExtensions = append(s.fieldExtensions, def)
	s.mu.Unlock()
}

// Clear drops every buffer and the built graph.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries, s.mutations, s.subscriptions = nil, nil, nil
	s.fieldResolvers = nil
	s.objectTypes, s.inputTypes, s.argumentTypes, s.interfaceTypes = nil, nil, nil, nil
	s.enums, s.unions = nil, nil
	s.middlewares = nil
	s.classDirectives, s.fieldDirectives = nil, nil
	s.classExtensions, s.fieldExtensions = nil, nil
	s.resolverClasses, s.fields, s.params = nil, nil, nil
	s.built, s.graph = false, nil
}

// Built reports whether Build has run since the last Clear.
func (s *Storage) Built() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.built
}

// Graph returns the graph of the last successful Build, or nil.
func (s *Storage) Graph() *Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

func (s *Storage) resolverClass(t Target) *ResolverClassMetadata {
	i := slices.IndexFunc(s.resolverClasses, func(rc *ResolverClassMetadata) bool { return rc.Target == t })
	if i < 0 {
		return nil
	}
	return s.resolverClasses[i]
}

func (s *Storage) objectType(t Target) *ClassMetadata {
	i := slices.IndexFunc(s.objectTypes, func(c *ClassMetadata) bool { return c.Target == t })
	if i < 0 {
		return nil
	}
	return s.objectTypes[i]
}
