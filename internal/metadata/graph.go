package metadata

import (
	language "github.com/hanpama/routegraph/internal/language"
)

// Graph is the linked metadata. It is read-only once Build returns.
type Graph struct {
	Queries         []*ResolverMetadata
	Mutations       []*ResolverMetadata
	Subscriptions   []*SubscriptionResolverMetadata
	FieldResolvers  []*FieldResolverMetadata
	ObjectTypes     []*ClassMetadata
	InputTypes      []*ClassMetadata
	ArgumentTypes   []*ClassMetadata
	InterfaceTypes  []*ClassMetadata
	Enums           []*EnumMetadata
	Unions          []*UnionMetadataWithSymbol
	ResolverClasses []*ResolverClassMetadata
}

// ObjectType returns the object type declared for target.
func (g *Graph) ObjectType(target Target) *ClassMetadata {
	for _, c := range g.ObjectTypes {
		if c.Target == target {
			return c
		}
	}
	return nil
}

// ResolverClass returns the handler class registered for target.
func (g *Graph) ResolverClass(target Target) *ResolverClassMetadata {
	for _, rc := range g.ResolverClasses {
		if rc.Target == target {
			return rc
		}
	}
	return nil
}

// Handler returns the query, mutation or subscription handler declared on
// target for method.
func (g *Graph) Handler(kind language.Operation, target Target, method string) *ResolverMetadata {
	switch kind {
	case language.Query:
		return findResolver(g.Queries, target, method)
	case language.Mutation:
		return findResolver(g.Mutations, target, method)
	case language.Subscription:
		if sub := g.Subscription(target, method); sub != nil {
			return &sub.ResolverMetadata
		}
	}
	return nil
}

// Subscription returns the subscription handler declared on target.
func (g *Graph) Subscription(target Target, method string) *SubscriptionResolverMetadata {
	for _, s := range g.Subscriptions {
		if s.Target == target && s.MethodName == method {
			return s
		}
	}
	return nil
}

// FieldResolver returns the field resolver declared on or inherited by
// target.
func (g *Graph) FieldResolver(target Target, method string) *FieldResolverMetadata {
	for _, fr := range g.FieldResolvers {
		if fr.Target == target && fr.MethodName == method {
			return fr
		}
	}
	return nil
}

// FieldResolversFor returns the field resolvers serving object type target.
func (g *Graph) FieldResolversFor(target Target) []*FieldResolverMetadata {
	var out []*FieldResolverMetadata
	for _, fr := range g.FieldResolvers {
		if fr.GetObjectType != nil && fr.GetObjectType() == target {
			out = append(out, fr)
		}
	}
	return out
}

// Ancestors lists the handler classes target extends, nearest first.
// Unregistered supertypes end the chain.
func (g *Graph) Ancestors(target Target) []*ResolverClassMetadata {
	var out []*ResolverClassMetadata
	seen := map[Target]bool{target: true}
	rc := g.ResolverClass(target)
	for rc != nil && rc.Extends != nil && !seen[rc.Extends] {
		seen[rc.Extends] = true
		rc = g.ResolverClass(rc.Extends)
		if rc != nil {
			out = append(out, rc)
		}
	}
	return out
}

func findResolver(list []*ResolverMetadata, target Target, method string) *ResolverMetadata {
	for _, r := range list {
		if r.Target == target && r.MethodName == method {
			return r
		}
	}
	return nil
}
