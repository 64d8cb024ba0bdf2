package messaging

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a queue consumer the group can start and stop.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs the job queue consumers of one process over a shared subscriber, which it
// owns and closes on shutdown.
type ConsumerGroup struct {
	consumers  []Runnable
	started    int
	subscriber message.Subscriber
	logger     *zap.Logger
}

// NewConsumerGroup creates an empty group over subscriber.
func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers a consumer. Consumers must be added before Start.
func (g *ConsumerGroup) Add(consumer Runnable) {
	g.consumers = append(g.consumers, consumer)
}

// Start starts the consumers in registration order. If one fails, the ones already
// started are stopped again and nothing is left running.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.consumers[j].Shutdown()
			}

			g.started = 0

			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		g.started = i + 1
	}

	g.logger.Info("job queue consumers started", zap.Int("count", len(g.consumers)))

	return nil
}

// Shutdown stops the consumers that were started, then closes the subscriber. The first error wins.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping job queue consumers")

	var firstErr error

	for _, consumer := range g.consumers[:g.started] {
		if err := consumer.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	g.started = 0

	if err := g.subscriber.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
