package transformer

import (
	"fmt"

	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/canonical"
)

// Mapping converts AMQP body sections into typed canonical payloads and back.
// Annotations and footers are not represented and are dropped on egress.
type Mapping struct {
	opts options
}

func newMapping(o options) *Mapping {
	return &Mapping{opts: o}
}

// Mode implements Transformer
func (m *Mapping) Mode() Mode {
	return ModeJMS
}

// Inbound implements Transformer
func (m *Mapping) Inbound(env *amqpenv.Envelope) (*canonical.Message, error) {
	if env == nil {
		return nil, ErrNilMessage
	}

	msg := canonical.NewMessage()
	if err := setBody(msg, env.Body); err != nil {
		return nil, err
	}
	if err := m.opts.populate(env, msg, true); err != nil {
		return nil, err
	}
	mappedTagger.Tag(msg, env.MessageFormat)
	return msg, nil
}

// Outbound implements Transformer. A message that still carries native AMQP
// bytes is delivered as those bytes rather than wrapped in a data section.
func (m *Mapping) Outbound(msg *canonical.Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	if out, ok := nativeBytes(msg); ok {
		return out, nil
	}
	env, err := m.ToEnvelope(msg)
	if err != nil {
		return nil, err
	}
	return amqpenv.Encode(env)
}

// ToEnvelope rebuilds the AMQP sections of a canonical message
func (m *Mapping) ToEnvelope(msg *canonical.Message) (*amqpenv.Envelope, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}

	body, err := bodyOf(msg)
	if err != nil {
		return nil, err
	}
	_, format := ReadFormat(msg)
	env := &amqpenv.Envelope{
		Body:          body,
		MessageFormat: uint32(format),
	}
	m.opts.envelopeHeaders(msg, env)
	return env, nil
}

func setBody(msg *canonical.Message, body amqpenv.Body) error {
	switch body.Kind {
	case amqpenv.BodyNone:
		msg.SetEmpty()
		return nil
	case amqpenv.BodyData:
		msg.SetBytes(append([]byte(nil), body.Data...))
		return nil
	case amqpenv.BodySequence:
		values, err := toStreamValues("body.amqp-sequence", body.Sequence)
		if err != nil {
			return err
		}
		return msg.SetStream(values)
	case amqpenv.BodyValue:
		return setValueBody(msg, body.Value)
	default:
		return unsupported("body", body.Kind, fmt.Sprintf("unknown body kind %s", body.Kind))
	}
}

func setValueBody(msg *canonical.Message, value any) error {
	const path = "body.amqp-value"

	switch v := value.(type) {
	case nil:
		msg.SetEmpty()
		return nil
	case string:
		msg.SetText(v)
		return nil
	case []byte:
		msg.SetBytes(append([]byte(nil), v...))
		return nil
	case map[any]any:
		entries, err := toMapEntries(path, v)
		if err != nil {
			return err
		}
		return msg.SetMap(entries)
	case map[string]any:
		generic := make(map[any]any, len(v))
		for k, val := range v {
			generic[k] = val
		}
		entries, err := toMapEntries(path, generic)
		if err != nil {
			return err
		}
		return msg.SetMap(entries)
	case []any:
		values, err := toStreamValues(path, v)
		if err != nil {
			return err
		}
		return msg.SetStream(values)
	default:
		scalar, err := toScalar(path, v)
		if err != nil {
			return err
		}
		return msg.SetObject(scalar)
	}
}

func bodyOf(msg *canonical.Message) (amqpenv.Body, error) {
	switch msg.Kind {
	case canonical.KindEmpty:
		return amqpenv.NoBody(), nil
	case canonical.KindText:
		text, err := msg.Text()
		if err != nil {
			return amqpenv.Body{}, err
		}
		return amqpenv.ValueBody(text), nil
	case canonical.KindBytes:
		return amqpenv.DataBody(append([]byte(nil), msg.Body...)), nil
	case canonical.KindMap:
		entries, err := msg.Map()
		if err != nil {
			return amqpenv.Body{}, err
		}
		m := make(map[any]any, len(entries))
		for _, e := range entries {
			m[e.Key] = e.Value
		}
		return amqpenv.ValueBody(m), nil
	case canonical.KindStream:
		values, err := msg.Stream()
		if err != nil {
			return amqpenv.Body{}, err
		}
		return amqpenv.SequenceBody(values...), nil
	case canonical.KindObject:
		v, err := msg.Object()
		if err != nil {
			return amqpenv.Body{}, err
		}
		return amqpenv.ValueBody(v), nil
	default:
		return amqpenv.Body{}, unsupported("body", msg.Kind, "unknown payload kind")
	}
}
