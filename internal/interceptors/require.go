package interceptors

import (
	"context"
	"fmt"

	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/request"
	"go.uber.org/zap"
)

// MissingValueError is returned by Require when a context value is absent.
type MissingValueError struct {
	Key   string
	Field string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("interceptors: %s requires context value %q", e.Field, e.Key)
}

// Require rejects dispatches whose request context lacks one of the keys
// given as binding arguments, e.g. "require:user,tenant".
func Require() *middleware.Middleware {
	return middleware.Fn(func(_ context.Context, data *request.ResolverData, next middleware.NextFunc, keys []string) (any, error) {
		for _, k := range keys {
			if v, ok := data.Context.Get(k); !ok || v == nil {
				return nil, &MissingValueError{Key: k, Field: label(data)}
			}
		}
		return next()
	})
}

// Named returns the interceptors registrable by name: "logging",
// "require", "breaker" and, when m is non-nil, "metrics".
func Named(logger *zap.Logger, m *Metrics, breaker BreakerConfig) map[string]*middleware.Middleware {
	named := map[string]*middleware.Middleware{
		"logging": Logging(logger),
		"require": Require(),
		"breaker": CircuitBreaker(breaker, logger),
	}
	if m != nil {
		named["metrics"] = m.Middleware()
	}
	return named
}
