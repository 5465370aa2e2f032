package container

import (
	"reflect"

	"github.com/hanpama/routegraph/internal/request"
)

// Getter selects a container per invocation.
type Getter func(data *request.ResolverData) Container

// Option configures a Provider.
type Option func(*Provider)

// WithContainer makes c the container for every invocation.
func WithContainer(c Container) Option { return func(p *Provider) { p.custom = c } }

// WithGetter selects a container per invocation. A getter returning nil
// falls back to the default container. The getter wins over WithContainer
// for instance resolution.
func WithGetter(g Getter) Option { return func(p *Provider) { p.getter = g } }

// WithDefault replaces the fallback container.
func WithDefault(d *Default) Option {
	return func(p *Provider) {
		if d != nil {
			p.def = d
		}
	}
}

// Provider is the Container used by dispatch. It wraps an optional custom
// container or getter and falls back to a Default.
type Provider struct {
	custom Container
	getter Getter
	def    *Default
}

// NewProvider creates a Provider.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{def: NewDefault()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Default returns the fallback container, for bindings.
func (p *Provider) Default() *Default { return p.def }

// Get implements Container.
func (p *Provider) Get(target reflect.Type, data *request.ResolverData) (any, error) {
	if p.getter != nil {
		if c := p.getter(data); c != nil {
			return c.Get(target, data)
		}
		return p.def.Get(target, data)
	}
	if p.custom != nil {
		return p.custom.Get(target, data)
	}
	return p.def.Get(target, data)
}

// Lookup implements Container. Namespaces resolve through the custom
// container when one is set.
func (p *Provider) Lookup(namespace string) (reflect.Type, error) {
	if p.custom != nil {
		return p.custom.Lookup(namespace)
	}
	return p.def.Lookup(namespace)
}
