package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures a Redis engine.
type RedisOption func(*Redis)

// WithPrefix namespaces channel names.
func WithPrefix(p string) RedisOption { return func(r *Redis) { r.prefix = p } }

// WithRedisBuffer sets the subscriber channel buffer.
func WithRedisBuffer(n int) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// Redis is an engine backed by Redis PUBLISH/SUBSCRIBE. Payloads travel as
// JSON, so subscribers receive decoded JSON values (maps, slices,
// float64, string, bool).
type Redis struct {
	client redis.UniversalClient
	prefix string
	buffer int
}

// NewRedis wraps client.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, buffer: 16}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Publish implements Engine.
func (r *Redis) Publish(ctx context.Context, topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("pubsub: encode payload for %q: %w", topic, err)
	}
	return r.client.Publish(ctx, r.prefix+topic, b).Err()
}

// Subscribe implements Engine. It returns once Redis confirmed the
// subscription.
func (r *Redis) Subscribe(ctx context.Context, topics ...string) (<-chan Message, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	channels := make([]string, len(topics))
	for i, t := range topics {
		channels[i] = r.prefix + t
	}
	ps := r.client.Subscribe(ctx, channels...)
	for range channels {
		if _, err := ps.Receive(ctx); err != nil {
			ps.Close()
			return nil, fmt.Errorf("pubsub: subscribe %v: %w", topics, err)
		}
	}

	out := make(chan Message, r.buffer)
	go func() {
		defer close(out)
		defer ps.Close()
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}
				msg := Message{Topic: strings.TrimPrefix(m.Channel, r.prefix)}
				if err := json.Unmarshal([]byte(m.Payload), &msg.Payload); err != nil {
					msg.Payload = m.Payload
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
