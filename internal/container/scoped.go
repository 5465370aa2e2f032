package container

import (
	"reflect"
	"sync"

	"github.com/hanpama/routegraph/internal/reqid"
	"github.com/hanpama/routegraph/internal/request"
)

// Scoped keeps one instance per (request id, target). The request id comes
// from the invocation context and must be supplied by the host, with
// reqid.NewContext or reqid.WithID; invocations without one, or with an id
// reqid.Ensure made up on the fly, get a fresh instance every time.
// Lookups go to the parent.
type Scoped struct {
	parent Container

	mu      sync.Mutex
	scopes  map[string]map[reflect.Type]any
	factory map[reflect.Type]Factory
}

// NewScoped creates a Scoped container. parent may be nil, in which case
// Lookup always fails.
func NewScoped(parent Container) *Scoped {
	return &Scoped{
		parent:  parent,
		scopes:  make(map[string]map[reflect.Type]any),
		factory: make(map[reflect.Type]Factory),
	}
}

// Provide registers a constructor for target.
func (s *Scoped) Provide(target reflect.Type, f Factory) *Scoped {
	s.mu.Lock()
	s.factory[target] = f
	s.mu.Unlock()
	return s
}

// Get implements Container.
func (s *Scoped) Get(target reflect.Type, data *request.ResolverData) (any, error) {
	var id string
	if data != nil && data.Context != nil {
		if !reqid.Generated(data.Context) {
			id, _ = reqid.FromContext(data.Context)
		}
	}

	s.mu.Lock()
	inst, ok := s.scopes[id][target]
	factory := s.factory[target]
	s.mu.Unlock()
	if ok && id != "" {
		return inst, nil
	}

	inst, err := construct(target, factory, data)
	if err != nil || id == "" {
		return inst, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	scope := s.scopes[id]
	if scope == nil {
		scope = make(map[reflect.Type]any)
		s.scopes[id] = scope
	}
	// another invocation of the same request may have won the race
	if prev, ok := scope[target]; ok {
		return prev, nil
	}
	scope[target] = inst
	return inst, nil
}

// Lookup implements Container.
func (s *Scoped) Lookup(namespace string) (reflect.Type, error) {
	if s.parent == nil {
		return nil, &LookupError{Namespace: namespace}
	}
	return s.parent.Lookup(namespace)
}

// Release drops the instances created for request id.
func (s *Scoped) Release(id string) {
	s.mu.Lock()
	delete(s.scopes, id)
	s.mu.Unlock()
}

// Len reports how many request scopes are live.
func (s *Scoped) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scopes)
}
