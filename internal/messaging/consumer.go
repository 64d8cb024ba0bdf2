package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultRedeliveryDelay is how long a failed job waits before it is handed back to the queue.
const DefaultRedeliveryDelay = time.Second

// Handler runs one queued job, such as a render retry. Returning an error hands the job back
// to the queue after the consumer's redelivery delay.
type Handler[T any] func(ctx context.Context, job *T) error

// Consumer drains one topic of the job queue, decoding each JSON payload into T.
type Consumer[T any] struct {
	subscriber      message.Subscriber
	topic           string
	handler         Handler[T]
	logger          *zap.Logger
	redeliveryDelay time.Duration
	cancel          context.CancelFunc
	done            chan struct{}
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	redeliveryDelay time.Duration
}

// WithRedeliveryDelay overrides DefaultRedeliveryDelay. Zero hands failed jobs back at once.
func WithRedeliveryDelay(d time.Duration) ConsumerOption {
	return func(o *consumerOptions) {
		o.redeliveryDelay = d
	}
}

// NewConsumer creates a queue consumer for jobs of type T on topic.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	o := consumerOptions{redeliveryDelay: DefaultRedeliveryDelay}
	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer[T]{
		subscriber:      subscriber,
		topic:           topic,
		handler:         handler,
		logger:          logger.With(zap.String("topic", topic)),
		redeliveryDelay: o.redeliveryDelay,
		done:            make(chan struct{}),
	}
}

// Topic returns the queue topic this consumer drains.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and handles jobs in the background until ctx is done or Shutdown is called.
// A failed subscription leaves the consumer stopped.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	jobs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.run(ctx, jobs)

	return nil
}

func (c *Consumer[T]) run(ctx context.Context, jobs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-jobs:
			if !ok {
				return
			}

			c.process(ctx, msg)
		}
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) {
	log := c.logger.With(zap.String("messageId", msg.UUID))

	var job T
	if err := json.Unmarshal(msg.Payload, &job); err != nil {
		// A payload that cannot decode would come back forever.
		log.Error("dropping undecodable job", zap.Error(err))
		msg.Ack()

		return
	}

	if err := c.handler(ctx, &job); err != nil {
		log.Error("job failed, handing it back to the queue",
			zap.Duration("delay", c.redeliveryDelay),
			zap.Error(err),
		)
		c.wait(ctx)
		msg.Nack()

		return
	}

	msg.Ack()
	log.Debug("job done")
}

// wait holds a failed job for the redelivery delay, returning early on shutdown.
func (c *Consumer[T]) wait(ctx context.Context) {
	if c.redeliveryDelay <= 0 {
		return
	}

	timer := time.NewTimer(c.redeliveryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Shutdown stops the consumer and waits for the job in progress to finish.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
