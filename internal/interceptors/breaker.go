package interceptors

import (
	"context"
	"sync"
	"time"

	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/request"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig configures CircuitBreaker.
type BreakerConfig struct {
	Name        string        `mapstructure:"name"`
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// The breaker trips once MinRequests were seen and the failure ratio
	// reaches FailureThreshold.
	FailureThreshold float64 `mapstructure:"failure_threshold"`
	MinRequests      uint32  `mapstructure:"min_requests"`
}

// DefaultBreakerConfig returns the default breaker settings.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// CircuitBreaker guards each field with its own breaker. While a field's
// breaker is open its dispatches fail with gobreaker.ErrOpenState without
// reaching the handler.
func CircuitBreaker(cfg BreakerConfig, logger *zap.Logger) *middleware.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	var breakers sync.Map // field -> *gobreaker.CircuitBreaker
	get := func(field string) *gobreaker.CircuitBreaker {
		if cb, ok := breakers.Load(field); ok {
			return cb.(*gobreaker.CircuitBreaker)
		}
		cb, _ := breakers.LoadOrStore(field, gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name + ":" + field,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < cfg.MinRequests {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}))
		return cb.(*gobreaker.CircuitBreaker)
	}

	return middleware.Fn(func(_ context.Context, data *request.ResolverData, next middleware.NextFunc, _ []string) (any, error) {
		return get(label(data)).Execute(func() (any, error) {
			return next()
		})
	})
}
