package events

import (
	"context"
	"time"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is the message published for every catalog write.
type Event struct {
	Action     Action    `json:"action"`
	ProductoID string    `json:"producto_id"`
	Nombre     string    `json:"nombre"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event. Used when RABBITMQ_URL is empty.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
