package connector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/canonical"
	"github.com/glimte/mmate-amqp/transformer"
)

// Connector binds one transformer to the AMQP side of the broker. The
// transformer is chosen when the connector is created and never changes.
type Connector struct {
	cfg         Config
	transformer transformer.Transformer
	logger      *slog.Logger
	stats       *Stats
	newID       func() string
	tOpts       []transformer.Option
}

// Option configures the connector
type Option func(*Connector)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// WithTransformerOptions passes options to the selected transformer
func WithTransformerOptions(opts ...transformer.Option) Option {
	return func(c *Connector) {
		c.tOpts = append(c.tOpts, opts...)
	}
}

// WithIDGenerator sets the generator for message ids assigned at ingress
func WithIDGenerator(newID func() string) Option {
	return func(c *Connector) {
		c.newID = newID
	}
}

// New validates cfg and creates a connector. An invalid configuration fails
// with *transformer.ConfigurationError and no connector is returned.
func New(cfg Config, options ...Option) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Connector{
		cfg:    cfg,
		logger: slog.Default(),
		stats:  newStats(),
		newID: func() string {
			return "ID:" + uuid.NewString()
		},
	}
	for _, opt := range options {
		opt(c)
	}

	t, err := transformer.Select(cfg.Transformer, append([]transformer.Option{transformer.WithLogger(c.logger)}, c.tOpts...)...)
	if err != nil {
		return nil, err
	}
	c.transformer = t

	c.logger.Info("connector started",
		"transformer", t.Mode(),
		"batchConcurrency", cfg.BatchConcurrency,
	)
	return c, nil
}

// NewFromURI creates a connector configured from a connector URI
func NewFromURI(uri string, options ...Option) (*Connector, error) {
	cfg, err := ConfigFromURI(uri)
	if err != nil {
		return nil, err
	}
	return New(cfg, options...)
}

// Mode returns the transformer mode bound to the connector
func (c *Connector) Mode() transformer.Mode {
	return c.transformer.Mode()
}

// Inbound decodes and transforms one AMQP message
func (c *Connector) Inbound(raw []byte) (*canonical.Message, error) {
	env, err := amqpenv.Decode(raw)
	if err != nil {
		c.stats.recordFailure(err)
		c.logger.Warn("rejected malformed message", "size", len(raw), "error", err)
		return nil, err
	}
	return c.InboundEnvelope(env)
}

// InboundEnvelope transforms an already parsed AMQP message
func (c *Connector) InboundEnvelope(env *amqpenv.Envelope) (*canonical.Message, error) {
	msg, err := c.transformer.Inbound(env)
	if err != nil {
		c.stats.recordFailure(err)
		c.logger.Warn("rejected message at ingress",
			"transformer", c.transformer.Mode(),
			"error", err,
		)
		return nil, fmt.Errorf("inbound %s transformation: %w", c.transformer.Mode(), err)
	}

	if c.cfg.AssignMessageIDs && msg.MessageID == "" {
		msg.MessageID = c.newID()
	}
	c.stats.inbound.Add(1)

	c.logger.Debug("transformed inbound message",
		"messageId", msg.MessageID,
		"kind", msg.Kind,
		"native", msg.NativeFormat,
	)
	return msg, nil
}

// Outbound produces the AMQP encoding of msg for an AMQP consumer
func (c *Connector) Outbound(msg *canonical.Message) ([]byte, error) {
	out, err := c.transformer.Outbound(msg)
	if err != nil {
		c.stats.recordFailure(err)
		c.logger.Warn("failed to transform outbound message",
			"transformer", c.transformer.Mode(),
			"error", err,
		)
		return nil, fmt.Errorf("outbound %s transformation: %w", c.transformer.Mode(), err)
	}
	c.stats.outbound.Add(1)
	return out, nil
}

// InboundBatch transforms messages in parallel and returns them in input
// order. The first failure aborts the batch.
func (c *Connector) InboundBatch(ctx context.Context, raws [][]byte) ([]*canonical.Message, error) {
	out := make([]*canonical.Message, len(raws))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.BatchConcurrency)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, err := c.Inbound(raw)
			if err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
			out[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns a snapshot of the connector counters
func (c *Connector) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}
