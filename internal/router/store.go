package router

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/hanpama/routegraph/internal/container"
	language "github.com/hanpama/routegraph/internal/language"
	"go.uber.org/zap"
)

// DefaultMethod is the handler method used when a reference has no
// method part.
const DefaultMethod = "Index"

// Entry is a booted route.
type Entry struct {
	Definition
	Namespace string
	Method    string
	Target    reflect.Type
}

// Directory resolves route definitions into entries.
type Directory interface {
	Boot(defs []Definition) error
	Resolvers(kind language.Operation) []Entry
	Targets() []reflect.Type
}

// HandlerNotFoundError reports a route whose handler namespace is not bound
// in the container.
type HandlerNotFoundError struct {
	Route   string
	Handler string
	Err     error
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("router: cannot find handler %q for route %q: %v", e.Handler, e.Route, e.Err)
}

func (e *HandlerNotFoundError) Unwrap() error { return e.Err }

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the boot logger.
func WithLogger(l *zap.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store is the default Directory.
type Store struct {
	container container.Container
	logger    *zap.Logger
	validate  *validator.Validate

	mu      sync.RWMutex
	entries map[language.Operation][]Entry
	targets []reflect.Type
}

var _ Directory = (*Store)(nil)

// NewStore creates a Store resolving namespaces through c.
func NewStore(c container.Container, opts ...StoreOption) *Store {
	s := &Store{
		container: c,
		logger:    zap.NewNop(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		entries:   map[language.Operation][]Entry{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SplitHandler splits "pkg.UserResolver.List" into its namespace
// ("pkg.UserResolver") and method ("List"). A reference without a dot is
// a namespace served by DefaultMethod.
func SplitHandler(ref string) (namespace, method string) {
	i := strings.LastIndex(ref, ".")
	if i < 0 {
		return ref, DefaultMethod
	}
	return ref[:i], ref[i+1:]
}

// Boot replaces the store's state with defs. On error the store is left
// empty.
func (s *Store) Boot(defs []Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[language.Operation][]Entry{}
	s.targets = nil

	entries := map[language.Operation][]Entry{}
	var targets []reflect.Type
	seen := map[reflect.Type]bool{}
	for _, def := range defs {
		if err := s.validate.Struct(def); err != nil {
			return fmt.Errorf("router: invalid route %q: %w", def.Name, err)
		}
		ns, method := SplitHandler(def.Handler)
		if ns == "" || method == "" {
			return fmt.Errorf("router: invalid handler reference %q for route %q", def.Handler, def.Name)
		}
		target, err := s.container.Lookup(ns)
		if err != nil {
			return &HandlerNotFoundError{Route: def.Name, Handler: def.Handler, Err: err}
		}
		entries[def.Kind] = append(entries[def.Kind], Entry{
			Definition: def,
			Namespace:  ns,
			Method:     method,
			Target:     target,
		})
		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
		s.logger.Debug("route bound",
			zap.String("kind", string(def.Kind)),
			zap.String("name", def.Name),
			zap.String("target", target.String()),
			zap.String("method", method),
			zap.Int("middlewares", len(def.Middlewares)),
		)
	}
	s.entries = entries
	s.targets = targets
	return nil
}

// Resolvers returns the entries of kind in declaration order. Unknown kinds
// yield nil.
func (s *Store) Resolvers(kind language.Operation) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries[kind]...)
}

// Targets lists the distinct handler types referenced by booted routes.
func (s *Store) Targets() []reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]reflect.Type(nil), s.targets...)
}
