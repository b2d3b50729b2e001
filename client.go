// Copyright 2024 Mmate Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mmate

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/mmate-amqp/canonical"
	"github.com/glimte/mmate-amqp/connector"
	"github.com/glimte/mmate-amqp/transports/rabbitmq"
)

// Client bridges AMQP 1.0 messages onto a RabbitMQ broker through the
// configured transformer
type Client struct {
	connector *connector.Connector
	publisher *rabbitmq.Publisher
	marshaler *rabbitmq.Marshaler
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *slog.Logger
}

// NewClient creates a client connected to RabbitMQ. Connector options such
// as transport.transformer are read from the connection string query.
func NewClient(connectionString string) (*Client, error) {
	return NewClientWithOptions(connectionString, WithDefaultLogger())
}

// NewClientWithOptions creates a client connected to RabbitMQ with options
func NewClientWithOptions(connectionString string, options ...ClientOption) (*Client, error) {
	cfg := newClientConfig(options)

	if cfg.connector == nil {
		cc, err := connector.ConfigFromURI(connectionString)
		if err != nil {
			return nil, err
		}
		cfg.connector = &cc
	}

	dialURL, err := brokerURL(connectionString)
	if err != nil {
		return nil, err
	}
	conn, err := amqp.Dial(dialURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := newClient(ch, cfg)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	c.conn = conn
	c.channel = ch
	return c, nil
}

// NewClientWithChannel creates a client publishing on an existing channel.
// The channel stays owned by the caller.
func NewClientWithChannel(ch rabbitmq.Channel, options ...ClientOption) (*Client, error) {
	cfg := newClientConfig(options)
	if cfg.connector == nil {
		cc := connector.DefaultConfig()
		cfg.connector = &cc
	}
	return newClient(ch, cfg)
}

func newClient(ch rabbitmq.Channel, cfg *clientConfig) (*Client, error) {
	conn, err := connector.New(*cfg.connector, connector.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create connector: %w", err)
	}

	marshaler := rabbitmq.NewMarshaler(rabbitmq.WithMarshalerLogger(cfg.logger))
	publisherOpts := append([]rabbitmq.PublisherOption{
		rabbitmq.WithMarshaler(marshaler),
		rabbitmq.WithPublisherLogger(cfg.logger),
	}, cfg.publisherOpts...)

	return &Client{
		connector: conn,
		publisher: rabbitmq.NewPublisher(ch, publisherOpts...),
		marshaler: marshaler,
		logger:    cfg.logger,
	}, nil
}

// Forward transforms an AMQP 1.0 encoded message and publishes it
func (c *Client) Forward(ctx context.Context, raw []byte, exchange, routingKey string) (*canonical.Message, error) {
	msg, err := c.connector.Inbound(raw)
	if err != nil {
		return nil, err
	}
	if err := c.publisher.Publish(ctx, exchange, routingKey, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Deliver turns a RabbitMQ delivery into the AMQP 1.0 encoding handed to an
// AMQP consumer
func (c *Client) Deliver(d amqp.Delivery) ([]byte, error) {
	msg, err := c.marshaler.Unmarshal(d)
	if err != nil {
		return nil, err
	}
	return c.connector.Outbound(msg)
}

// Connector returns the connector bound to the client
func (c *Client) Connector() *connector.Connector {
	return c.connector
}

// Close closes all resources
func (c *Client) Close() error {
	if c.publisher != nil {
		c.publisher.Close()
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// brokerURL drops connector options from the connection string before it is
// handed to the AMQP dialer
func brokerURL(connectionString string) (string, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return "", fmt.Errorf("invalid connection string: %w", err)
	}
	query := u.Query()
	for key := range query {
		if strings.HasPrefix(key, "transport.") {
			query.Del(key)
		}
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// clientConfig holds client configuration
type clientConfig struct {
	logger        *slog.Logger
	connector     *connector.Config
	publisherOpts []rabbitmq.PublisherOption
}

func newClientConfig(options []ClientOption) *clientConfig {
	cfg := &clientConfig{logger: slog.Default()}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

// WithLogger sets the logger for all components
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = logger
	}
}

// WithDefaultLogger uses the default logger
func WithDefaultLogger() ClientOption {
	return func(cfg *clientConfig) {
		cfg.logger = slog.Default()
	}
}

// WithConnectorConfig sets the connector configuration instead of reading it
// from the connection string
func WithConnectorConfig(c connector.Config) ClientOption {
	return func(cfg *clientConfig) {
		cfg.connector = &c
	}
}

// WithPublisherOptions passes options to the RabbitMQ publisher
func WithPublisherOptions(opts ...rabbitmq.PublisherOption) ClientOption {
	return func(cfg *clientConfig) {
		cfg.publisherOpts = append(cfg.publisherOpts, opts...)
	}
}
