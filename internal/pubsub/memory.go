package pubsub

import (
	"context"
	"sync"
)

// MemoryOption configures a Memory engine.
type MemoryOption func(*Memory)

// WithBuffer sets the per-subscriber channel buffer.
func WithBuffer(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.buffer = n
		}
	}
}

type subscriber struct {
	ch   chan Message
	done <-chan struct{}
}

// Memory is an in-process engine. Publish blocks until every live
// subscriber accepted the message or ctx is done.
type Memory struct {
	mu     sync.RWMutex
	next   uint64
	topics map[string]map[uint64]*subscriber
	buffer int
}

// NewMemory creates a Memory engine.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{topics: make(map[string]map[uint64]*subscriber), buffer: 16}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Publish implements Engine.
func (m *Memory) Publish(ctx context.Context, topic string, payload any) error {
	msg := Message{Topic: topic, Payload: payload}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.topics[topic] {
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe implements Engine.
func (m *Memory) Subscribe(ctx context.Context, topics ...string) (<-chan Message, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	s := &subscriber{ch: make(chan Message, m.buffer), done: ctx.Done()}

	m.mu.Lock()
	m.next++
	id := m.next
	for _, t := range topics {
		subs := m.topics[t]
		if subs == nil {
			subs = make(map[uint64]*subscriber)
			m.topics[t] = subs
		}
		subs[id] = s
	}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for _, t := range topics {
			delete(m.topics[t], id)
			if len(m.topics[t]) == 0 {
				delete(m.topics, t)
			}
		}
		m.mu.Unlock()
		close(s.ch)
	}()
	return s.ch, nil
}

// Subscribers reports the live subscriber count of topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topic])
}
