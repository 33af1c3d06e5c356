package audit

import (
	"context"
	"time"
)

// Queue names shared with downstream consumers.
const (
	QueueAuth   = "auth_logs"
	QueueSearch = "search_logs"
)

// Event is one audit record. Data is free-form per action.
type Event struct {
	Action    string                 `json:"action"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// Sink receives audit events. Publication is fire-and-forget: a sink must
// never fail the request that produced the event.
type Sink interface {
	Publish(ctx context.Context, queue string, e Event)
}

// Nop discards events, used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, Event) {}
