package rabbitmq

import (
	"errors"
	"fmt"
	"time"

	"github.com/glimte/mmate-amqp/canonical"
	"github.com/glimte/mmate-amqp/internal/reliability"
	"github.com/glimte/mmate-amqp/transformer"
)

var (
	// ErrInvalidDelivery is matched by every DeliveryError
	ErrInvalidDelivery = errors.New("rabbitmq: invalid delivery")
	// ErrPublisherClosed is returned by Publish after Close
	ErrPublisherClosed = errors.New("rabbitmq: publisher is closed")
)

// PublishError represents a publish operation error
type PublishError struct {
	Exchange   string    // Target exchange
	RoutingKey string    // Routing key used
	Attempts   int       // Number of attempts made
	Err        error     // Underlying error
	Timestamp  time.Time // When the error occurred
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: failed to publish to %s/%s after %d attempts: %v",
		e.Exchange, e.RoutingKey, e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// DeliveryError reports a delivery that cannot become a canonical message
type DeliveryError struct {
	MessageID string // Message id of the delivery, if any
	Header    string // Offending header
	Err       error  // Underlying error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("rabbitmq: invalid delivery %q: header %s: %v", e.MessageID, e.Header, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	return target == ErrInvalidDelivery
}

// IsRetryable determines if a publish failure is worth another attempt.
// Messages the broker can never accept are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrPublisherClosed):
		return false
	case errors.Is(err, reliability.ErrCircuitOpen):
		return false
	case errors.Is(err, transformer.ErrUnsupportedMapping):
		return false
	case errors.Is(err, transformer.ErrNilMessage):
		return false
	case errors.Is(err, canonical.ErrNotScalar):
		return false
	}
	return true
}
