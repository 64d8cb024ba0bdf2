package messaging

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publish queues a job, such as a render retry, for the consumers of its topic.
type Publish[T any] func(ctx context.Context, job *T) error

// NewPublishFunc encodes jobs as JSON and publishes them on topic. The message carries ctx.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(ctx context.Context, job *T) error {
		payload, err := json.Marshal(job)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.SetContext(ctx)

		return publisher.Publish(topic, msg)
	}
}

// Discard is a Publish that drops every job, for processes without a queue.
func Discard[T any]() Publish[T] {
	return func(context.Context, *T) error { return nil }
}

// PublisherGroup owns the queue publisher and closes it on shutdown.
type PublisherGroup struct {
	publisher message.Publisher
}

// NewPublisherGroup wraps publisher.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the publisher to build Publish functions on.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
