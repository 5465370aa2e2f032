// Package container resolves handler instances and handler namespaces.
package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/hanpama/routegraph/internal/request"
	"golang.org/x/sync/singleflight"
)

// Container resolves instances for a target type and handler types for a
// namespace string.
type Container interface {
	Get(target reflect.Type, data *request.ResolverData) (any, error)
	Lookup(namespace string) (reflect.Type, error)
}

// Factory constructs an instance of a target that needs dependencies.
type Factory func(data *request.ResolverData) (any, error)

// ErrNotConstructible is returned when Default has no factory for a target
// that is not a struct type.
var ErrNotConstructible = errors.New("container: target is not constructible")

// LookupError reports an unbound namespace.
type LookupError struct {
	Namespace string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("container: no binding for namespace %q", e.Namespace)
}

// Default keeps namespace bindings and one instance per target for its
// lifetime. Struct targets without a factory are zero-constructed and
// returned as pointers.
type Default struct {
	mu        sync.RWMutex
	bindings  map[string]reflect.Type
	factories map[reflect.Type]Factory
	instances map[reflect.Type]any

	group singleflight.Group
}

// NewDefault returns an empty container.
func NewDefault() *Default {
	return &Default{
		bindings:  make(map[string]reflect.Type),
		factories: make(map[reflect.Type]Factory),
		instances: make(map[reflect.Type]any),
	}
}

// Bind associates namespace with target. Rebinding overwrites silently.
func (c *Default) Bind(namespace string, target reflect.Type) *Default {
	c.mu.Lock()
	c.bindings[namespace] = target
	c.mu.Unlock()
	return c
}

// Provide registers a constructor for target.
func (c *Default) Provide(target reflect.Type, f Factory) *Default {
	c.mu.Lock()
	c.factories[target] = f
	c.mu.Unlock()
	return c
}

// Lookup returns the target bound to namespace.
func (c *Default) Lookup(namespace string) (reflect.Type, error) {
	c.mu.RLock()
	t, ok := c.bindings[namespace]
	c.mu.RUnlock()
	if !ok {
		return nil, &LookupError{Namespace: namespace}
	}
	return t, nil
}

// Get returns the cached instance of target, constructing it on first use.
// Concurrent first calls construct once. Construction errors are returned
// as is and nothing is cached.
func (c *Default) Get(target reflect.Type, data *request.ResolverData) (any, error) {
	c.mu.RLock()
	inst, ok := c.instances[target]
	factory := c.factories[target]
	c.mu.RUnlock()
	if ok {
		return inst, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%p", target), func() (any, error) {
		c.mu.RLock()
		inst, ok := c.instances[target]
		c.mu.RUnlock()
		if ok {
			return inst, nil
		}
		inst, err := construct(target, factory, data)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.instances[target] = inst
		c.mu.Unlock()
		return inst, nil
	})
	return v, err
}

// Reset drops cached instances, keeping bindings and factories.
func (c *Default) Reset() {
	c.mu.Lock()
	c.instances = make(map[reflect.Type]any)
	c.mu.Unlock()
}

func construct(target reflect.Type, factory Factory, data *request.ResolverData) (any, error) {
	if factory != nil {
		return factory(data)
	}
	switch {
	case target == nil:
		return nil, fmt.Errorf("%w: nil target", ErrNotConstructible)
	case target.Kind() == reflect.Struct:
		return reflect.New(target).Interface(), nil
	case target.Kind() == reflect.Pointer && target.Elem().Kind() == reflect.Struct:
		return reflect.New(target.Elem()).Interface(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotConstructible, target)
}
