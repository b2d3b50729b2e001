package transformer

import (
	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/canonical"
)

// Native stores the original AMQP bytes as an opaque byte payload and maps
// the AMQP header and properties onto the canonical message
type Native struct {
	passthrough
}

func newNative(o options) *Native {
	return &Native{passthrough{opts: o, fallback: newMapping(o)}}
}

// Mode implements Transformer
func (n *Native) Mode() Mode {
	return ModeNative
}

// Inbound implements Transformer
func (n *Native) Inbound(env *amqpenv.Envelope) (*canonical.Message, error) {
	msg, err := n.wrap(env)
	if err != nil {
		return nil, err
	}
	if err := n.opts.populate(env, msg, false); err != nil {
		return nil, err
	}
	nativeTagger.Tag(msg, env.MessageFormat)
	return msg, nil
}

// Raw stores the original AMQP bytes as an opaque byte payload without
// mapping any header field: priority and persistence keep broker defaults
type Raw struct {
	passthrough
}

func newRaw(o options) *Raw {
	return &Raw{passthrough{opts: o, fallback: newMapping(o)}}
}

// Mode implements Transformer
func (r *Raw) Mode() Mode {
	return ModeRaw
}

// Inbound implements Transformer
func (r *Raw) Inbound(env *amqpenv.Envelope) (*canonical.Message, error) {
	msg, err := r.wrap(env)
	if err != nil {
		return nil, err
	}
	nativeTagger.Tag(msg, env.MessageFormat)
	return msg, nil
}

// passthrough holds the byte handling shared by Native and Raw
type passthrough struct {
	opts     options
	fallback *Mapping
}

func (p passthrough) wrap(env *amqpenv.Envelope) (*canonical.Message, error) {
	if env == nil {
		return nil, ErrNilMessage
	}
	raw, err := amqpenv.Encode(env)
	if err != nil {
		return nil, err
	}
	msg := canonical.NewMessage()
	msg.SetBytes(raw)
	return msg, nil
}

// Outbound returns the stored AMQP bytes of a native message verbatim.
// Messages that did not arrive as native AMQP are structurally mapped.
func (p passthrough) Outbound(msg *canonical.Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}
	if out, ok := nativeBytes(msg); ok {
		return out, nil
	}
	return p.fallback.Outbound(msg)
}

// nativeBytes returns a copy of the AMQP bytes carried by a native message
func nativeBytes(msg *canonical.Message) ([]byte, bool) {
	if native, _ := ReadFormat(msg); !native || msg.Kind != canonical.KindBytes {
		return nil, false
	}
	out := make([]byte, len(msg.Body))
	copy(out, msg.Body)
	return out, true
}
