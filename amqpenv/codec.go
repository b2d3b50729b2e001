package amqpenv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Azure/go-amqp"
	"github.com/google/uuid"
)

// Decode parses AMQP encoded bytes into an envelope. The envelope keeps a
// private copy of raw so later mutation of the caller's buffer has no effect.
func Decode(raw []byte) (*Envelope, error) {
	if len(raw) == 0 {
		return nil, &MalformedEnvelopeError{Op: "decode", Err: ErrEmptyInput}
	}

	var wire amqp.Message
	if err := wire.UnmarshalBinary(raw); err != nil {
		return nil, &MalformedEnvelopeError{Op: "decode", Size: len(raw), Err: err}
	}

	env := fromWire(&wire)
	env.raw = make([]byte, len(raw))
	copy(env.raw, raw)
	return env, nil
}

// Encode returns the AMQP encoding of env. A decoded envelope yields its
// original bytes; an in-memory envelope is serialized section by section.
func Encode(env *Envelope) ([]byte, error) {
	if env == nil {
		return nil, &MalformedEnvelopeError{Op: "encode", Err: fmt.Errorf("envelope is nil")}
	}
	if env.raw != nil {
		return env.Raw(), nil
	}

	wire, err := toWire(env)
	if err != nil {
		return nil, &MalformedEnvelopeError{Op: "encode", Err: err}
	}
	data, err := wire.MarshalBinary()
	if err != nil {
		return nil, &MalformedEnvelopeError{Op: "encode", Err: err}
	}
	if len(data) == 0 {
		return nil, &MalformedEnvelopeError{Op: "encode", Err: ErrNoSections}
	}
	return data, nil
}

func toWire(env *Envelope) (*amqp.Message, error) {
	msg := &amqp.Message{Format: env.MessageFormat}

	if h := env.Header; h != nil {
		msg.Header = &amqp.MessageHeader{
			Durable:       h.Durable,
			Priority:      h.Priority,
			FirstAcquirer: h.FirstAcquirer,
			DeliveryCount: h.DeliveryCount,
		}
		if h.TTL != nil {
			msg.Header.TTL = *h.TTL
		}
	}

	msg.DeliveryAnnotations = toWireAnnotations(env.DeliveryAnnotations)
	msg.Annotations = toWireAnnotations(env.MessageAnnotations)
	msg.Footer = toWireAnnotations(env.Footer)

	if p := env.Properties; p != nil {
		msg.Properties = &amqp.MessageProperties{
			MessageID:          toWireValue(p.MessageID),
			UserID:             p.UserID,
			To:                 stringPtr(p.To),
			Subject:            stringPtr(p.Subject),
			ReplyTo:            stringPtr(p.ReplyTo),
			CorrelationID:      toWireValue(p.CorrelationID),
			ContentType:        stringPtr(p.ContentType),
			ContentEncoding:    stringPtr(p.ContentEncoding),
			AbsoluteExpiryTime: timePtr(p.AbsoluteExpiryTime),
			CreationTime:       timePtr(p.CreationTime),
			GroupID:            stringPtr(p.GroupID),
			GroupSequence:      p.GroupSequence,
			ReplyToGroupID:     stringPtr(p.ReplyToGroupID),
		}
	}

	if len(env.ApplicationProperties) > 0 {
		msg.ApplicationProperties = make(map[string]any, len(env.ApplicationProperties))
		for k, v := range env.ApplicationProperties {
			msg.ApplicationProperties[k] = toWireValue(v)
		}
	}

	switch env.Body.Kind {
	case BodyNone:
	case BodyData:
		msg.Data = [][]byte{env.Body.Data}
	case BodySequence:
		seq := make([]any, len(env.Body.Sequence))
		for i, v := range env.Body.Sequence {
			seq[i] = toWireValue(v)
		}
		msg.Sequence = [][]any{seq}
	case BodyValue:
		msg.Value = toWireValue(env.Body.Value)
	default:
		return nil, fmt.Errorf("unknown body kind %d", env.Body.Kind)
	}

	return msg, nil
}

func fromWire(msg *amqp.Message) *Envelope {
	env := &Envelope{MessageFormat: msg.Format}

	if h := msg.Header; h != nil {
		env.Header = &Header{
			Durable:       h.Durable,
			Priority:      h.Priority,
			FirstAcquirer: h.FirstAcquirer,
			DeliveryCount: h.DeliveryCount,
		}
		if h.TTL > 0 {
			ttl := h.TTL
			env.Header.TTL = &ttl
		}
	}

	env.DeliveryAnnotations = fromWireAnnotations(msg.DeliveryAnnotations)
	env.MessageAnnotations = fromWireAnnotations(msg.Annotations)
	env.Footer = fromWireAnnotations(msg.Footer)

	if p := msg.Properties; p != nil {
		env.Properties = &Properties{
			MessageID:          fromWireValue(p.MessageID),
			UserID:             p.UserID,
			To:                 stringVal(p.To),
			Subject:            stringVal(p.Subject),
			ReplyTo:            stringVal(p.ReplyTo),
			CorrelationID:      fromWireValue(p.CorrelationID),
			ContentType:        stringVal(p.ContentType),
			ContentEncoding:    stringVal(p.ContentEncoding),
			AbsoluteExpiryTime: timeVal(p.AbsoluteExpiryTime),
			CreationTime:       timeVal(p.CreationTime),
			GroupID:            stringVal(p.GroupID),
			GroupSequence:      p.GroupSequence,
			ReplyToGroupID:     stringVal(p.ReplyToGroupID),
		}
	}

	if len(msg.ApplicationProperties) > 0 {
		env.ApplicationProperties = make(map[string]any, len(msg.ApplicationProperties))
		for k, v := range msg.ApplicationProperties {
			env.ApplicationProperties[k] = fromWireValue(v)
		}
	}

	switch {
	case len(msg.Data) > 0:
		// multiple data sections form one logical payload
		env.Body = DataBody(bytes.Join(msg.Data, nil))
	case len(msg.Sequence) > 0:
		var seq []any
		for _, section := range msg.Sequence {
			for _, v := range section {
				seq = append(seq, fromWireValue(v))
			}
		}
		env.Body = SequenceBody(seq...)
	case msg.Value != nil:
		env.Body = ValueBody(fromWireValue(msg.Value))
	default:
		env.Body = NoBody()
	}

	return env
}

// toWireValue swaps package level types for the codec's own
func toWireValue(v any) any {
	switch t := v.(type) {
	case Symbol:
		return amqp.Symbol(t)
	case uuid.UUID:
		return amqp.UUID(t)
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[toWireValue(k)] = toWireValue(val)
		}
		return out
	case map[string]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[k] = toWireValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = toWireValue(val)
		}
		return out
	default:
		return v
	}
}

func fromWireValue(v any) any {
	switch t := v.(type) {
	case amqp.Symbol:
		return Symbol(t)
	case amqp.UUID:
		return uuid.UUID(t)
	case *amqp.UUID:
		if t == nil {
			return nil
		}
		return uuid.UUID(*t)
	case map[any]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[fromWireValue(k)] = fromWireValue(val)
		}
		return out
	case map[string]any:
		out := make(map[any]any, len(t))
		for k, val := range t {
			out[k] = fromWireValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = fromWireValue(val)
		}
		return out
	default:
		return v
	}
}

func toWireAnnotations(in map[string]any) amqp.Annotations {
	if len(in) == 0 {
		return nil
	}
	out := make(amqp.Annotations, len(in))
	for k, v := range in {
		out[k] = toWireValue(v)
	}
	return out
}

func fromWireAnnotations(in amqp.Annotations) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch key := k.(type) {
		case string:
			out[key] = fromWireValue(v)
		case amqp.Symbol:
			out[string(key)] = fromWireValue(v)
		default:
			out[fmt.Sprint(key)] = fromWireValue(v)
		}
	}
	return out
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
