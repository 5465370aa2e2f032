// Package pubsub provides the event publishing engines injected into
// handlers and used as subscription sources.
package pubsub

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Message is a payload delivered to a subscriber.
type Message struct {
	Topic   string
	Payload any
}

// Engine publishes payloads to topics and streams them to subscribers.
// Subscriptions end, and their channel closes, when ctx is done.
type Engine interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(ctx context.Context, topics ...string) (<-chan Message, error)
}

// Publisher publishes to a fixed topic.
type Publisher func(ctx context.Context, payload any) error

// Bind returns a Publisher for topic.
func Bind(e Engine, topic string) Publisher {
	return func(ctx context.Context, payload any) error {
		return e.Publish(ctx, topic, payload)
	}
}

// ErrNoTopics is returned by Subscribe without topics.
var ErrNoTopics = errors.New("pubsub: no topics to subscribe to")

// Config selects and configures an engine.
type Config struct {
	// Backend is "memory" (default) or "redis".
	Backend string      `mapstructure:"backend"`
	Buffer  int         `mapstructure:"buffer"`
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// New builds the engine described by cfg.
func New(cfg Config) (Engine, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(WithBuffer(cfg.Buffer)), nil
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("pubsub: redis backend requires an address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedis(client, WithPrefix(cfg.Redis.Prefix), WithRedisBuffer(cfg.Buffer)), nil
	}
	return nil, fmt.Errorf("pubsub: unknown backend %q", cfg.Backend)
}
