package middleware

import (
	"reflect"

	"github.com/hanpama/routegraph/internal/container"
	"github.com/hanpama/routegraph/internal/request"
)

// Step is a resolved interceptor ready to run.
type Step struct {
	Name string
	Fn   Func
	Args []string
}

// Pipeline accumulates interceptor references for one dispatch and
// resolves them into Steps.
type Pipeline struct {
	container container.Container
	store     *Store
	list      []*Middleware
}

// NewPipeline starts a pipeline seeded with the store's globals.
func NewPipeline(c container.Container, store *Store) *Pipeline {
	return &Pipeline{container: c, store: store, list: store.Global()}
}

// Register appends interceptors.
func (p *Pipeline) Register(mws ...*Middleware) *Pipeline {
	p.list = append(p.list, mws...)
	return p
}

// List returns the deduplicated references in execution order.
func (p *Pipeline) List() []*Middleware { return Dedupe(p.list) }

// Resolve deduplicates the references and resolves each into Steps. Class
// interceptors are instantiated through the container once per call.
func (p *Pipeline) Resolve(data *request.ResolverData) ([]Step, error) {
	list := p.List()
	steps := make([]Step, 0, len(list))
	for _, m := range list {
		switch m.kind {
		case KindNamed:
			bindings, err := ParseBinding(m.name)
			if err != nil {
				return nil, err
			}
			for _, b := range bindings {
				target, ok := p.store.Named(b.Name)
				if !ok {
					return nil, &MissingNamedError{Name: b.Name}
				}
				st, err := p.step(target, data)
				if err != nil {
					return nil, err
				}
				st.Name = b.Name
				st.Args = b.Args
				steps = append(steps, st)
			}
		default:
			st, err := p.step(m, data)
			if err != nil {
				return nil, err
			}
			steps = append(steps, st)
		}
	}
	return steps, nil
}

func (p *Pipeline) step(m *Middleware, data *request.ResolverData) (Step, error) {
	switch m.kind {
	case KindFunc:
		return Step{Name: m.String(), Fn: m.fn}, nil
	case KindClass:
		return p.instantiate(m, m.class, data)
	case KindNamespace:
		t, err := p.container.Lookup(m.name)
		if err != nil {
			return Step{}, err
		}
		return p.instantiate(m, t, data)
	}
	return Step{}, &MissingNamedError{Name: m.name}
}

func (p *Pipeline) instantiate(m *Middleware, t reflect.Type, data *request.ResolverData) (Step, error) {
	inst, err := p.container.Get(t, data)
	if err != nil {
		return Step{}, err
	}
	h, ok := inst.(Handler)
	if !ok {
		return Step{}, &NotHandlerError{Type: t}
	}
	return Step{Name: m.String(), Fn: h.Handle}, nil
}
