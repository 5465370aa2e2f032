package metadata

import (
	"maps"
	"slices"

	"github.com/hanpama/routegraph/internal/middleware"
)

// Build links the collected metadata and returns the resulting Graph. It
// runs once per generation; call Clear before building again.
//
// Linking order:
//  1. class and field directive and extension buffers are reversed;
//  2. object, input, argument and interface types get their fields, and
//     each field its params, interceptors, directives and extensions;
//  3. field resolvers are linked, external ones merged into the object
//     type they serve;
//  4. queries, mutations and subscriptions are linked;
//  5. field resolvers of abstract ancestor handler classes are copied to
//     their subtypes.
func (s *Storage) Build() (*Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.built {
		return nil, ErrAlreadyBuilt
	}
	s.built = true

	slices.Reverse(s.classDirectives)
	slices.Reverse(s.fieldDirectives)
	slices.Reverse(s.classExtensions)
	slices.Reverse(s.fieldExtensions)

	s.linkClasses(s.objectTypes)
	s.linkClasses(s.inputTypes)
	s.linkClasses(s.argumentTypes)
	s.linkClasses(s.interfaceTypes)

	var violations ValidationError
	if err := s.linkFieldResolvers(s.fieldResolvers, &violations); err != nil {
		return nil, err
	}

	for _, q := range s.queries {
		s.linkResolver(q)
	}
	for _, m := range s.mutations {
		s.linkResolver(m)
	}
	for _, sub := range s.subscriptions {
		s.linkResolver(&sub.ResolverMetadata)
	}

	if err := s.linkInherited(&violations); err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, violations
	}

	s.graph = &Graph{
		Queries:         slices.Clone(s.queries),
		Mutations:       slices.Clone(s.mutations),
		Subscriptions:   slices.Clone(s.subscriptions),
		FieldResolvers:  slices.Clone(s.fieldResolvers),
		ObjectTypes:     slices.Clone(s.objectTypes),
		InputTypes:      slices.Clone(s.inputTypes),
		ArgumentTypes:   slices.Clone(s.argumentTypes),
		InterfaceTypes:  slices.Clone(s.interfaceTypes),
		Enums:           slices.Clone(s.enums),
		Unions:          slices.Clone(s.unions),
		ResolverClasses: slices.Clone(s.resolverClasses),
	}
	return s.graph, nil
}

func (s *Storage) linkClasses(defs []*ClassMetadata) {
	for _, def := range defs {
		if !def.linked {
			for _, f := range s.fields {
				if f.Target != def.Target || def.Field(f.Name) != nil {
					continue
				}
				f.Params = s.findParams(f.Target, f.Name)
				f.Middlewares = s.findMiddlewares(f.Target, f.Name)
				f.Directives = s.findFieldDirectives(f.Target, f.Name)
				f.Extensions = s.findExtensions(f.Target, f.Name)
				def.Fields = append(def.Fields, f)
			}
			def.linked = true
		}
		if def.Directives == nil {
			def.Directives = s.findClassDirectives(def.Target)
		}
		if def.Extensions == nil {
			def.Extensions = s.findExtensions(def.Target, "")
		}
	}
}

func (s *Storage) linkResolver(def *ResolverMetadata) {
	def.ResolverClass = s.resolverClass(def.Target)
	def.Params = s.findParams(def.Target, def.MethodName)
	def.Middlewares = s.findMiddlewares(def.Target, def.MethodName)
	def.Directives = s.findFieldDirectives(def.Target, def.MethodName)
	def.Extensions = s.findExtensions(def.Target, def.MethodName)
}

func (s *Storage) linkFieldResolvers(defs []*FieldResolverMetadata, violations *ValidationError) error {
	for _, def := range defs {
		s.linkResolver(&def.ResolverMetadata)
		if err := s.linkFieldResolverType(def, violations); err != nil {
			return err
		}
	}
	return nil
}

// linkFieldResolverType sets GetObjectType and, for external resolvers,
// merges the resolver into the served object type.
func (s *Storage) linkFieldResolverType(def *FieldResolverMetadata, violations *ValidationError) error {
	if def.Kind != FieldResolverExternal {
		target := def.Target
		def.GetObjectType = func() Target { return target }
		return nil
	}

	getObjectType := s.servedType(s.resolverClass(def.Target))
	if getObjectType == nil {
		*violations = append(*violations, violationMissingResolverClass(def.Target, def.MethodName))
		return nil
	}
	return s.mergeExternal(def, getObjectType, violations)
}

// servedType returns the object type accessor of rc or, when rc declares
// none, of its nearest registered ancestor.
func (s *Storage) servedType(rc *ResolverClassMetadata) func() Target {
	seen := map[Target]bool{}
	for rc != nil && !seen[rc.Target] {
		if rc.GetObjectType != nil {
			return rc.GetObjectType
		}
		seen[rc.Target] = true
		if rc.Extends == nil {
			return nil
		}
		rc = s.resolverClass(rc.Extends)
	}
	return nil
}

// mergeExternal adds an external field resolver to the object type it
// serves: a missing field is synthesized from the resolver, an existing
// one takes its complexity and, when it has none, its params. A resolver
// without a complexity leaves the field's in place instead of clearing it.
func (s *Storage) mergeExternal(def *FieldResolverMetadata, getObjectType func() Target, violations *ValidationError) error {
	def.GetObjectType = getObjectType
	objectTarget := getObjectType()
	obj := s.objectType(objectTarget)
	if obj == nil {
		*violations = append(*violations, violationMissingObjectType(def.Target, objectTarget, def.MethodName))
		return nil
	}

	field := obj.Field(def.MethodName)
	if field == nil {
		if def.GetType == nil {
			return &NoExplicitTypeError{TypeName: typeName(def.Target), FieldName: def.MethodName}
		}
		field = &FieldMetadata{
			Name:              def.MethodName,
			SchemaName:        def.SchemaName,
			GetType:           def.GetType,
			TypeOptions:       def.TypeOptions,
			Target:            objectTarget,
			Description:       def.Description,
			DeprecationReason: def.DeprecationReason,
			Complexity:        def.Complexity,
			Params:            def.Params,
			Middlewares:       def.Middlewares,
			Directives:        def.Directives,
			Extensions:        def.Extensions,
		}
		s.fields = append(s.fields, field)
		obj.Fields = append(obj.Fields, field)
		return nil
	}

	if def.Complexity != nil {
		field.Complexity = def.Complexity
	}
	if len(field.Params) == 0 {
		field.Params = def.Params
	}
	return nil
}

// linkInherited copies field resolvers declared on abstract ancestors to
// each handler class. A subtype's own resolver for the same method wins.
func (s *Storage) linkInherited(violations *ValidationError) error {
	declared := slices.Clone(s.fieldResolvers)
	for _, rc := range s.resolverClasses {
		seen := map[Target]bool{rc.Target: true}
		for anc := rc.Extends; anc != nil && !seen[anc]; {
			seen[anc] = true
			ancMeta := s.resolverClass(anc)
			if ancMeta == nil {
				// unregistered supertypes end the walk
				break
			}
			if ancMeta.IsAbstract {
				for _, fr := range declared {
					if fr.Target != anc || s.hasFieldResolver(rc.Target, fr.MethodName) {
						continue
					}
					inherited := retarget(fr, rc)
					if err := s.linkFieldResolverType(inherited, violations); err != nil {
						return err
					}
					s.fieldResolvers = append(s.fieldResolvers, inherited)
				}
			}
			anc = ancMeta.Extends
		}
	}
	return nil
}

func (s *Storage) hasFieldResolver(target Target, method string) bool {
	return slices.ContainsFunc(s.fieldResolvers, func(fr *FieldResolverMetadata) bool {
		return fr.Target == target && fr.MethodName == method
	})
}

func retarget(fr *FieldResolverMetadata, rc *ResolverClassMetadata) *FieldResolverMetadata {
	cp := *fr
	cp.Target = rc.Target
	cp.ResolverClass = rc
	cp.Params = make([]*ParamMetadata, len(fr.Params))
	for i, p := range fr.Params {
		pc := *p
		pc.Target = rc.Target
		cp.Params[i] = &pc
	}
	cp.Middlewares = slices.Clone(fr.Middlewares)
	cp.Directives = slices.Clone(fr.Directives)
	cp.Extensions = maps.Clone(fr.Extensions)
	return &cp
}

func (s *Storage) findParams(target Target, method string) []*ParamMetadata {
	out := []*ParamMetadata{}
	for _, p := range s.params {
		if p.Target == target && p.MethodName == method {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b *ParamMetadata) int { return a.Index - b.Index })
	return out
}

// findMiddlewares returns class-level interceptors followed by the ones
// declared on the member, each in declaration order.
func (s *Storage) findMiddlewares(target Target, member string) []*middleware.Middleware {
	out := []*middleware.Middleware{}
	scopes := []string{""}
	if member != "" {
		scopes = append(scopes, member)
	}
	for _, scope := range scopes {
		for _, m := range s.middlewares {
			if m.Target == target && m.FieldName == scope {
				out = append(out, m.Middlewares...)
			}
		}
	}
	return out
}

func (s *Storage) findClassDirectives(target Target) []Directive {
	out := []Directive{}
	for _, d := range s.classDirectives {
		if d.Target == target {
			out = append(out, d.Directive)
		}
	}
	return out
}

func (s *Storage) findFieldDirectives(target Target, field string) []Directive {
	out := []Directive{}
	for _, d := range s.fieldDirectives {
		if d.Target == target && d.FieldName == field {
			out = append(out, d.Directive)
		}
	}
	return out
}

// findExtensions folds the matching entries left to right, later keys
// overwriting earlier ones. An empty field selects class extensions.
func (s *Storage) findExtensions(target Target, field string) Extensions {
	out := Extensions{}
	if field == "" {
		for _, e := range s.classExtensions {
			if e.Target == target {
				maps.Copy(out, e.Extensions)
			}
		}
		return out
	}
	for _, e := range s.fieldExtensions {
		if e.Target == target && e.FieldName == field {
			maps.Copy(out, e.Extensions)
		}
	}
	return out
}
