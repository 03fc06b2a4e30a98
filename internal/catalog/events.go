package catalog

import (
	"context"
	"time"
)

const (
	EventProductCreated = "product.created"
	EventProductDeleted = "product.deleted"
)

type Event struct {
	Type       string    `json:"type"`
	ProductID  string    `json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher announces catalog changes to other systems.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

// JSONSink is a transport that ships typed JSON payloads, such as *rabbitmq.Client.
type JSONSink interface {
	PublishJSON(ctx context.Context, kind string, v any) error
}

type sinkPublisher struct {
	sink JSONSink
}

func NewSinkPublisher(sink JSONSink) Publisher {
	return sinkPublisher{sink: sink}
}

func (p sinkPublisher) Publish(ctx context.Context, e Event) error {
	return p.sink.PublishJSON(ctx, e.Type, e)
}
