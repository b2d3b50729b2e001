package rabbitmq

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/mmate-amqp/canonical"
	"github.com/glimte/mmate-amqp/internal/reliability"
)

// Channel is the part of *amqp.Channel the publisher needs
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher publishes canonical messages to RabbitMQ
type Publisher struct {
	ch             Channel
	marshaler      *Marshaler
	publishTimeout time.Duration
	maxRetries     int
	backoff        time.Duration
	policy         reliability.RetryPolicy
	breaker        *reliability.CircuitBreaker
	logger         *slog.Logger
	closed         atomic.Bool
}

// PublisherOption configures the publisher
type PublisherOption func(*Publisher)

// WithPublishTimeout sets the publish timeout
func WithPublishTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.publishTimeout = timeout
	}
}

// WithPublishRetries sets the maximum number of publish retries
func WithPublishRetries(retries int) PublisherOption {
	return func(p *Publisher) {
		p.maxRetries = retries
	}
}

// WithRetryBackoff sets the delay before the first retry. Later retries
// double it up to 30 seconds.
func WithRetryBackoff(base time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.backoff = base
	}
}

// WithRetryPolicy replaces the retry policy built from the retry options
func WithRetryPolicy(policy reliability.RetryPolicy) PublisherOption {
	return func(p *Publisher) {
		p.policy = policy
	}
}

// WithCircuitBreaker guards every publish attempt with cb
func WithCircuitBreaker(cb *reliability.CircuitBreaker) PublisherOption {
	return func(p *Publisher) {
		p.breaker = cb
	}
}

// WithMarshaler sets the marshaler used to build publishings
func WithMarshaler(m *Marshaler) PublisherOption {
	return func(p *Publisher) {
		p.marshaler = m
	}
}

// WithPublisherLogger sets the logger
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher on ch
func NewPublisher(ch Channel, options ...PublisherOption) *Publisher {
	p := &Publisher{
		ch:             ch,
		publishTimeout: 10 * time.Second,
		maxRetries:     3,
		backoff:        time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.marshaler == nil {
		p.marshaler = NewMarshaler(WithMarshalerLogger(p.logger))
	}
	if p.policy == nil {
		policy := reliability.NewExponentialBackoff(p.backoff, 30*time.Second, 2.0, p.maxRetries)
		policy.Retryable = IsRetryable
		p.policy = policy
	}
	return p
}

// Publish sends msg to exchange. An empty routing key routes by the
// message destination.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, msg *canonical.Message) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	pub, err := p.marshaler.Marshal(msg)
	if err != nil {
		return &PublishError{Exchange: exchange, RoutingKey: routingKey, Err: err, Timestamp: time.Now()}
	}
	if routingKey == "" {
		routingKey = msg.Destination
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	publish := func() error {
		return p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, pub)
	}

	attempts := 0
	err = reliability.Retry(ctx, "publish", p.policy, func() error {
		attempts++
		var err error
		if p.breaker != nil {
			err = p.breaker.Execute(ctx, publish)
		} else {
			err = publish()
		}
		if err != nil {
			p.logger.Warn("publish attempt failed",
				"exchange", exchange,
				"routingKey", routingKey,
				"attempt", attempts,
				"error", err,
			)
		}
		return err
	})
	if err == nil {
		p.logger.Debug("published message",
			"exchange", exchange,
			"routingKey", routingKey,
			"messageId", msg.MessageID,
			"attempts", attempts,
		)
		return nil
	}

	var retryErr *reliability.RetryError
	if errors.As(err, &retryErr) {
		err = retryErr.LastError
	}
	return &PublishError{
		Exchange:   exchange,
		RoutingKey: routingKey,
		Attempts:   attempts,
		Err:        err,
		Timestamp:  time.Now(),
	}
}

// Close stops the publisher. The channel is owned by the caller.
func (p *Publisher) Close() error {
	p.closed.Store(true)
	return nil
}
