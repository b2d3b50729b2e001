// Package rabbitmq carries canonical messages over AMQP 0-9-1.
//
// This package includes:
//   - Marshaler: maps canonical messages to publishings and deliveries back
//   - Publisher: publishes canonical messages with retries and backoff
//
// Canonical fields without an AMQP 0-9-1 property travel as headers; the
// payload kind is carried in the x-payload-kind header so typed payloads
// survive the hop.
package rabbitmq
