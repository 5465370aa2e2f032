package middleware

import (
	"fmt"
	"strings"
	"sync"
)

// Store holds global interceptors and the named table.
type Store struct {
	mu     sync.RWMutex
	global []*Middleware
	named  map[string]*Middleware
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{named: make(map[string]*Middleware)}
}

// Register appends global interceptors.
func (s *Store) Register(mws ...*Middleware) *Store {
	s.mu.Lock()
	s.global = append(s.global, mws...)
	s.mu.Unlock()
	return s
}

// RegisterNamed adds entries to the named table, overwriting names that
// already exist. Entries must not be Named references themselves.
func (s *Store) RegisterNamed(named map[string]*Middleware) error {
	for name, m := range named {
		if m == nil || m.kind == KindNamed {
			return fmt.Errorf("%w: named middleware %q must be a func, class or namespace", ErrInvalidBinding, name)
		}
	}
	s.mu.Lock()
	for name, m := range named {
		s.named[name] = m
	}
	s.mu.Unlock()
	return nil
}

// Global returns a copy of the global interceptors.
func (s *Store) Global() []*Middleware {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Middleware(nil), s.global...)
}

// Named returns the table entry for name.
func (s *Store) Named(name string) (*Middleware, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.named[name]
	return m, ok
}

// Binding is one segment of a pipe binding.
type Binding struct {
	Name string
	Args []string
}

// ParseBinding splits "auth:admin,editor|throttle" into its segments.
func ParseBinding(expr string) ([]Binding, error) {
	var out []Binding
	for _, seg := range strings.Split(expr, "|") {
		seg = strings.TrimSpace(seg)
		name, rawArgs, hasArgs := strings.Cut(seg, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBinding, expr)
		}
		b := Binding{Name: name, Args: []string{}}
		if hasArgs {
			for _, a := range strings.Split(rawArgs, ",") {
				if a = strings.TrimSpace(a); a != "" {
					b.Args = append(b.Args, a)
				}
			}
		}
		out = append(out, b)
	}
	return out, nil
}
