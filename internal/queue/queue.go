package queue

import (
	"context"
	"time"
)

// Task is a background job with a stable type name and an opaque payload.
type Task struct {
	Type    string
	Payload []byte
}

// EnqueueOptions — zero values mean "unspecified".
type EnqueueOptions struct {
	Queue     string
	MaxRetry  int
	UniqueTTL time.Duration
}

// Client hands tasks to whatever worker consumes them. Messaging only
// produces; the social-graph service owns the consumers.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts EnqueueOptions) error
	Close() error
}
