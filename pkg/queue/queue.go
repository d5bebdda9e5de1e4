// Package queue is a small Redis-backed job queue with delayed delivery,
// bounded retries and a dead letter list.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Job handles one message type. Handle receives the payload as
// json.RawMessage; decode it with ParsePayload.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}

// Config tunes the workers.
type Config struct {
	Workers      int
	RetryLimit   int           // retries after the first failure; 0 sends failures straight to the DLQ
	RetryDelay   time.Duration
	PollInterval time.Duration // how often due delayed messages are promoted
	BlockTimeout time.Duration // BRPOP timeout per worker iteration
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.RetryDelay <= 0 {
		out.RetryDelay = 10 * time.Second
	}
	if out.PollInterval <= 0 {
		out.PollInterval = time.Second
	}
	if out.BlockTimeout <= 0 {
		out.BlockTimeout = time.Second
	}
	return out
}

// envelope is the stored form of a message.
type envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// ParsePayload decodes a job payload into T. Values already of type T pass
// through untouched.
func ParsePayload[T any](payload interface{}) (*T, error) {
	var raw []byte
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case map[string]interface{}, []interface{}:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("re-encode payload: %w", err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("invalid payload type: %T", payload)
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}
