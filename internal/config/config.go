// Package config loads routegraph settings from YAML and ROUTEGRAPH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/routegraph/internal/buildctx"
	"github.com/hanpama/routegraph/internal/convert"
	"github.com/hanpama/routegraph/internal/interceptors"
	language "github.com/hanpama/routegraph/internal/language"
	"github.com/hanpama/routegraph/internal/middleware"
	"github.com/hanpama/routegraph/internal/pubsub"
	"github.com/hanpama/routegraph/internal/router"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes environment overrides, e.g. ROUTEGRAPH_LOG_LEVEL.
const EnvPrefix = "ROUTEGRAPH"

// Config is the routegraph configuration.
type Config struct {
	Service     string                     `mapstructure:"service"`
	Schema      SchemaConfig               `mapstructure:"schema"`
	Middlewares MiddlewareConfig           `mapstructure:"middlewares"`
	Breaker     interceptors.BreakerConfig `mapstructure:"breaker"`
	PubSub      pubsub.Config              `mapstructure:"pubsub"`
	Log         LogConfig                  `mapstructure:"log"`
	Telemetry   TelemetryConfig            `mapstructure:"telemetry"`
	Routes      []RouteConfig              `mapstructure:"routes"`
}

// SchemaConfig holds the schema wide conventions.
type SchemaConfig struct {
	DateScalarMode    string `mapstructure:"date_scalar_mode"`
	NullableByDefault bool   `mapstructure:"nullable_by_default"`
	ValidateArgs      bool   `mapstructure:"validate_args"`
}

// MiddlewareConfig lists named middleware bindings, such as
// "require:user|logging", applied to every dispatch or to one kind.
type MiddlewareConfig struct {
	Global       []string `mapstructure:"global"`
	Query        []string `mapstructure:"query"`
	Mutation     []string `mapstructure:"mutation"`
	Subscription []string `mapstructure:"subscription"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
	Encoding    string `mapstructure:"encoding"`
}

type TelemetryConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// RouteConfig declares one route.
type RouteConfig struct {
	Kind        string   `mapstructure:"kind"`
	Name        string   `mapstructure:"name"`
	Handler     string   `mapstructure:"handler"`
	Middlewares []string `mapstructure:"middlewares"`
}

// Load reads path, or routegraph.yaml from the working directory when path
// is empty. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("service", "routegraph")
	v.SetDefault("schema.date_scalar_mode", string(convert.DateISO))
	v.SetDefault("schema.validate_args", true)
	v.SetDefault("pubsub.backend", "memory")
	v.SetDefault("pubsub.buffer", 16)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("telemetry.endpoint", "")
	for k, val := range breakerDefaults() {
		v.SetDefault("breaker."+k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("routegraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func breakerDefaults() map[string]any {
	d := interceptors.DefaultBreakerConfig("routegraph")
	return map[string]any{
		"name":              d.Name,
		"max_requests":      d.MaxRequests,
		"interval":          d.Interval,
		"timeout":           d.Timeout,
		"failure_threshold": d.FailureThreshold,
		"min_requests":      d.MinRequests,
	}
}

func validateConfig(cfg *Config) error {
	switch convert.DateMode(cfg.Schema.DateScalarMode) {
	case convert.DateISO, convert.DateTimestamp:
	default:
		return fmt.Errorf("schema.date_scalar_mode must be %q or %q, got: %s", convert.DateISO, convert.DateTimestamp, cfg.Schema.DateScalarMode)
	}
	for i, r := range cfg.Routes {
		if _, ok := language.ParseOperation(r.Kind); !ok {
			return fmt.Errorf("routes[%d].kind must be query, mutation or subscription, got: %s", i, r.Kind)
		}
	}
	return nil
}

// Router declares the configured routes.
func (c *Config) Router() *router.Router {
	r := router.New()
	for _, rc := range c.Routes {
		kind, _ := language.ParseOperation(rc.Kind)
		r.Route(kind, rc.Name, rc.Handler).Use(named(rc.Middlewares)...)
	}
	return r
}

// BuildOptions returns the build options for the configuration. Named
// middleware bindings are resolved against store at dispatch.
func (c *Config) BuildOptions(store *middleware.Store) buildctx.Options {
	nullable := c.Schema.NullableByDefault
	validate := c.Schema.ValidateArgs
	pubsubCfg := c.PubSub
	return buildctx.Options{
		DateScalarMode:          convert.DateMode(c.Schema.DateScalarMode),
		PubSubConfig:            &pubsubCfg,
		GlobalMiddlewares:       named(c.Middlewares.Global),
		QueryMiddlewares:        named(c.Middlewares.Query),
		MutationMiddlewares:     named(c.Middlewares.Mutation),
		SubscriptionMiddlewares: named(c.Middlewares.Subscription),
		MiddlewareStore:         store,
		Router:                  c.Router(),
		NullableByDefault:       &nullable,
		ValidateArgs:            &validate,
	}
}

func named(bindings []string) []*middleware.Middleware {
	if len(bindings) == 0 {
		return nil
	}
	out := make([]*middleware.Middleware, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, middleware.Named(b))
	}
	return out
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = level
	}
	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	return zc.Build()
}
