// Package amqpenv provides the parsed representation of an AMQP 1.0 message.
//
// An Envelope carries the standard sections of an AMQP message:
//   - Header: durability, priority, ttl and delivery counters
//   - Delivery and message annotations
//   - Properties: immutable bare-message properties (ids, addresses, times)
//   - Application properties
//   - Body: exactly one of Data, AmqpSequence or AmqpValue, or no body at all
//   - Footer
//
// Binary encoding and decoding are delegated to github.com/Azure/go-amqp.
// Envelopes produced by Decode keep the exact bytes they were parsed from, and
// Encode hands those bytes back untouched so that a message can be relayed
// without any re-encoding drift.
//
// Basic usage:
//
//	env, err := amqpenv.Decode(raw)
//	if err != nil {
//	    var malformed *amqpenv.MalformedEnvelopeError
//	    errors.As(err, &malformed)
//	}
//	fmt.Println(env.Body.Kind, env.Header.Priority)
package amqpenv
