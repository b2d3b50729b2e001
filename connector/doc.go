// Package connector binds a transformer, chosen by the transport.transformer
// option, to the AMQP ingress and egress paths of a connection.
package connector
