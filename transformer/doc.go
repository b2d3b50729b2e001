// Package transformer converts AMQP 1.0 messages to and from the broker's
// canonical message model.
//
// Three strategies are available, selected once per connector through the
// transport.transformer option:
//   - native (default): the original AMQP bytes become an opaque byte payload
//     and the AMQP header and properties are mapped onto the message
//   - raw: the original AMQP bytes become an opaque byte payload and nothing
//     else is mapped, so priority and persistence keep the broker defaults
//   - jms: the body is structurally converted into a text, bytes, map,
//     stream, object or empty payload and the header and properties are mapped
//
// Every strategy tags the resulting message with the JMS_AMQP_NATIVE and
// JMS_AMQP_MESSAGE_FORMAT properties. Transformers hold no mutable state and
// can be shared between goroutines.
//
// Basic usage:
//
//	t, err := transformer.Select("raw")
//	if err != nil {
//	    return err // *transformer.ConfigurationError
//	}
//	msg, err := t.Inbound(env)
package transformer
