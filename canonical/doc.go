// Package canonical defines the broker's internal message model.
//
// A Message is protocol independent: it is produced at ingress by a
// transformer, stored and routed by the broker core, and rebuilt into the wire
// format of whichever protocol the consumer speaks. The payload is a byte
// slice interpreted according to the message's PayloadKind; the typed
// accessors (Text, Bytes, Map, Stream, Object) are the supported way to read
// and write it.
//
// Two marker fields, NativeFormat and MessageFormat, are mirrored into the
// property map under PropertyNativeFormat and PropertyMessageFormat so that
// consumers on any protocol can tell whether the body is opaque AMQP bytes or
// a structurally mapped value.
package canonical
