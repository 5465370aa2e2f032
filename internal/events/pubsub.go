package events

import "time"

// PublishStart is emitted before a handler publishes to a topic.
type PublishStart struct {
	Topic string
}

// PublishFinish is emitted after the publish returns.
type PublishFinish struct {
	Topic    string
	Err      error
	Duration time.Duration
}
