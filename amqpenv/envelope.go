package amqpenv

import (
	"time"
)

// DefaultPriority is the priority an AMQP header implies when it omits one
const DefaultPriority uint8 = 4

// DefaultMessageFormat is the message-format code of a standard AMQP message
const DefaultMessageFormat uint32 = 0

// Symbol is an AMQP symbolic value
type Symbol string

// Header carries the transport headers of a message
type Header struct {
	Durable       bool
	Priority      uint8
	TTL           *time.Duration
	FirstAcquirer bool
	DeliveryCount uint32
}

// NewHeader returns a header holding the AMQP defaults
func NewHeader() *Header {
	return &Header{Priority: DefaultPriority}
}

// Properties holds the immutable properties of the bare message.
// Empty strings and zero times mean the field is absent.
type Properties struct {
	// MessageID is one of string, uuid.UUID, uint64 or []byte
	MessageID          any
	UserID             []byte
	To                 string
	Subject            string
	ReplyTo            string
	CorrelationID      any
	ContentType        string
	ContentEncoding    string
	AbsoluteExpiryTime time.Time
	CreationTime       time.Time
	GroupID            string
	GroupSequence      *uint32
	ReplyToGroupID     string
}

// Envelope is the parsed structure of an AMQP message
type Envelope struct {
	Header                *Header
	DeliveryAnnotations   map[string]any
	MessageAnnotations    map[string]any
	Properties            *Properties
	ApplicationProperties map[string]any
	Body                  Body
	Footer                map[string]any

	// MessageFormat is the message-format code negotiated on the transfer
	MessageFormat uint32

	raw []byte
}

// NewEnvelope creates an envelope with the given body and default header
func NewEnvelope(body Body) *Envelope {
	return &Envelope{
		Header: NewHeader(),
		Body:   body,
	}
}

// Raw returns a copy of the bytes the envelope was decoded from, or nil when
// the envelope was built in memory
func (e *Envelope) Raw() []byte {
	if e.raw == nil {
		return nil
	}
	out := make([]byte, len(e.raw))
	copy(out, e.raw)
	return out
}

// IsDecoded reports whether the envelope still carries its original bytes
func (e *Envelope) IsDecoded() bool {
	return e.raw != nil
}

// Priority returns the header priority, or the AMQP default without a header
func (e *Envelope) Priority() uint8 {
	if e.Header == nil {
		return DefaultPriority
	}
	return e.Header.Priority
}

// ApplicationProperty looks up an application property
func (e *Envelope) ApplicationProperty(name string) (any, bool) {
	if e.ApplicationProperties == nil {
		return nil, false
	}
	v, ok := e.ApplicationProperties[name]
	return v, ok
}
