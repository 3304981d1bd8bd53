package domain

import (
	"context"
	"time"
)

// RawMessage is a message consumed from the risk feed topic, before decoding.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string

	// Commit marks the message as processed. Nil when the source has no
	// offsets to commit.
	Commit func(ctx context.Context) error
}
