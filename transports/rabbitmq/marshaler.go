package rabbitmq

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/glimte/mmate-amqp/canonical"
	"github.com/glimte/mmate-amqp/transformer"
)

// Headers reserved for canonical fields that AMQP 0-9-1 has no property for
const (
	HeaderPayloadKind   = "x-payload-kind"
	HeaderUserID        = "JMSXUserID"
	HeaderGroupID       = "JMSXGroupID"
	HeaderGroupSequence = "JMSXGroupSeq"
	HeaderDeliveryCount = "JMSXDeliveryCount"
	HeaderDestination   = "x-destination"
)

var reservedHeaders = map[string]bool{
	HeaderPayloadKind:   true,
	HeaderUserID:        true,
	HeaderGroupID:       true,
	HeaderGroupSequence: true,
	HeaderDeliveryCount: true,
	HeaderDestination:   true,
}

var contentTypes = map[canonical.PayloadKind]string{
	canonical.KindText:   "text/plain; charset=utf-8",
	canonical.KindBytes:  "application/octet-stream",
	canonical.KindMap:    "application/json",
	canonical.KindStream: "application/json",
	canonical.KindObject: "application/json",
}

// Marshaler converts canonical messages to AMQP 0-9-1 publishings and
// deliveries back to canonical messages
type Marshaler struct {
	now    func() time.Time
	logger *slog.Logger
}

// MarshalerOption configures the marshaler
type MarshalerOption func(*Marshaler)

// WithMarshalerClock sets the clock used for relative expirations
func WithMarshalerClock(now func() time.Time) MarshalerOption {
	return func(m *Marshaler) {
		m.now = now
	}
}

// WithMarshalerLogger sets the logger
func WithMarshalerLogger(logger *slog.Logger) MarshalerOption {
	return func(m *Marshaler) {
		m.logger = logger
	}
}

// NewMarshaler creates a marshaler
func NewMarshaler(options ...MarshalerOption) *Marshaler {
	m := &Marshaler{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Marshal builds the publishing for msg
func (m *Marshaler) Marshal(msg *canonical.Message) (amqp.Publishing, error) {
	if msg == nil {
		return amqp.Publishing{}, transformer.ErrNilMessage
	}

	pub := amqp.Publishing{
		Headers:       make(amqp.Table, len(msg.Properties)+2),
		ContentType:   contentTypes[msg.Kind],
		DeliveryMode:  amqp.Transient,
		Priority:      msg.Priority,
		CorrelationId: msg.CorrelationID,
		ReplyTo:       msg.ReplyTo,
		MessageId:     msg.MessageID,
		Timestamp:     msg.Timestamp,
		Type:          msg.Type,
		Body:          msg.Body,
	}
	if msg.Persistent {
		pub.DeliveryMode = amqp.Persistent
	}
	if pub.Priority > canonical.MaxPriority {
		pub.Priority = canonical.MaxPriority
	}
	if !msg.Expiration.IsZero() {
		ttl := msg.Expiration.Sub(m.now()).Milliseconds()
		if ttl < 0 {
			ttl = 0
		}
		pub.Expiration = strconv.FormatInt(ttl, 10)
	}

	for name, v := range msg.Properties {
		if err := canonical.ValidateScalar(v); err != nil {
			return amqp.Publishing{}, fmt.Errorf("property %q: %w", name, err)
		}
		pub.Headers[name] = v
	}

	pub.Headers[HeaderPayloadKind] = msg.Kind.String()
	if msg.UserID != "" {
		pub.Headers[HeaderUserID] = msg.UserID
	}
	if msg.GroupID != "" {
		pub.Headers[HeaderGroupID] = msg.GroupID
	}
	if msg.GroupSequence != nil {
		pub.Headers[HeaderGroupSequence] = *msg.GroupSequence
	}
	if msg.DeliveryCount > 0 {
		pub.Headers[HeaderDeliveryCount] = msg.DeliveryCount
	}
	if msg.Destination != "" {
		pub.Headers[HeaderDestination] = msg.Destination
	}

	return pub, nil
}

// Unmarshal builds a canonical message from a delivery. Header values without
// a canonical scalar form, such as nested tables, are skipped.
func (m *Marshaler) Unmarshal(d amqp.Delivery) (*canonical.Message, error) {
	msg := canonical.NewMessage()
	msg.Kind = canonical.KindBytes

	if name, ok := d.Headers[HeaderPayloadKind]; ok {
		s, _ := name.(string)
		kind, err := canonical.ParsePayloadKind(s)
		if err != nil {
			return nil, &DeliveryError{MessageID: d.MessageId, Header: HeaderPayloadKind, Err: err}
		}
		msg.Kind = kind
	}
	if len(d.Body) > 0 {
		msg.Body = append([]byte(nil), d.Body...)
	}

	msg.MessageID = d.MessageId
	msg.CorrelationID = d.CorrelationId
	msg.ReplyTo = d.ReplyTo
	msg.Type = d.Type
	msg.Timestamp = d.Timestamp
	msg.Persistent = d.DeliveryMode == amqp.Persistent
	msg.Priority = min(d.Priority, canonical.MaxPriority)

	if d.Expiration != "" {
		ms, err := strconv.ParseInt(d.Expiration, 10, 64)
		if err != nil {
			return nil, &DeliveryError{MessageID: d.MessageId, Header: "expiration", Err: err}
		}
		msg.Expiration = m.now().Add(time.Duration(ms) * time.Millisecond)
	}

	msg.DeliveryCount = 1
	if d.Redelivered {
		msg.DeliveryCount = 2
	}

	for name, raw := range d.Headers {
		v, ok := headerScalar(raw)
		if !ok {
			m.logger.Debug("skipping header", "header", name, "type", fmt.Sprintf("%T", raw))
			continue
		}
		if !reservedHeaders[name] {
			msg.Properties[name] = v
			continue
		}

		switch name {
		case HeaderUserID:
			msg.UserID = fmt.Sprint(v)
		case HeaderGroupID:
			msg.GroupID = fmt.Sprint(v)
		case HeaderDestination:
			msg.Destination = fmt.Sprint(v)
		case HeaderGroupSequence:
			if n, ok := widen(v); ok {
				msg.GroupSequence = &n
			}
		case HeaderDeliveryCount:
			if n, ok := widen(v); ok && n > 0 && n < 1<<31-1 {
				msg.DeliveryCount = int32(n)
			}
		}
	}

	msg.NativeFormat, msg.MessageFormat = transformer.ReadFormat(msg)
	return msg, nil
}

// headerScalar narrows an AMQP 0-9-1 field value to a canonical scalar
func headerScalar(v any) (any, bool) {
	switch v := v.(type) {
	case nil, bool, int8, int16, int32, int64, float32, float64, string, []byte:
		return v, true
	case uint8:
		return int16(v), true
	case uint16:
		return int32(v), true
	case uint32:
		return int64(v), true
	case int:
		return int64(v), true
	case time.Time:
		return v.UnixMilli(), true
	default:
		return nil, false
	}
}

func widen(v any) (int64, bool) {
	switch v := v.(type) {
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
