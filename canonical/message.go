package canonical

import (
	"fmt"
	"time"
)

const (
	// DefaultPriority is the broker priority for messages that do not set one
	DefaultPriority uint8 = 4
	// MaxPriority is the highest priority the broker distinguishes
	MaxPriority uint8 = 9
)

// Marker property names shared with consumers on every protocol
const (
	PropertyNativeFormat  = "JMS_AMQP_NATIVE"
	PropertyMessageFormat = "JMS_AMQP_MESSAGE_FORMAT"
)

// PayloadKind describes how a message body is interpreted
type PayloadKind int

const (
	KindEmpty PayloadKind = iota
	KindText
	KindBytes
	KindMap
	KindStream
	KindObject
)

var kindNames = map[PayloadKind]string{
	KindEmpty:  "empty",
	KindText:   "text",
	KindBytes:  "bytes",
	KindMap:    "map",
	KindStream: "stream",
	KindObject: "object",
}

// String returns the lowercase name of the kind
func (k PayloadKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParsePayloadKind resolves a kind from its name
func ParsePayloadKind(name string) (PayloadKind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindEmpty, fmt.Errorf("canonical: unknown payload kind %q", name)
}

// Message is the broker's protocol independent message. It is mutable until
// handed to the broker core and must be treated as read-only afterwards.
type Message struct {
	MessageID string
	Kind      PayloadKind
	// Body is interpreted according to Kind; use the typed accessors
	Body       []byte
	Properties map[string]any

	Priority      uint8
	Persistent    bool
	CorrelationID string
	ReplyTo       string
	Destination   string
	Type          string
	Timestamp     time.Time
	Expiration    time.Time
	UserID        string
	GroupID       string
	// GroupSequence is nil when the message belongs to no group sequence
	GroupSequence *int64
	DeliveryCount int32

	NativeFormat  bool
	MessageFormat int64
}

// NewMessage returns an empty message carrying the broker defaults
func NewMessage() *Message {
	return &Message{
		Kind:       KindEmpty,
		Properties: make(map[string]any),
		Priority:   DefaultPriority,
		Persistent: true,
	}
}

// SetProperty stores a user property after checking it is a scalar
func (m *Message) SetProperty(name string, value any) error {
	if name == "" {
		return fmt.Errorf("canonical: property name cannot be empty")
	}
	if err := ValidateScalar(value); err != nil {
		return fmt.Errorf("canonical: property %q: %w", name, err)
	}
	if m.Properties == nil {
		m.Properties = make(map[string]any)
	}
	m.Properties[name] = value
	return nil
}

// Property returns a property value
func (m *Message) Property(name string) (any, bool) {
	v, ok := m.Properties[name]
	return v, ok
}

// BoolProperty returns a boolean property, false when absent or of another type
func (m *Message) BoolProperty(name string) bool {
	v, _ := m.Properties[name].(bool)
	return v
}

// Int64Property returns an integer property widened to int64
func (m *Message) Int64Property(name string) (int64, bool) {
	switch v := m.Properties[name].(type) {
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

// Clone returns a deep copy of the message
func (m *Message) Clone() *Message {
	out := *m
	if m.Body != nil {
		out.Body = append([]byte(nil), m.Body...)
	}
	if m.GroupSequence != nil {
		seq := *m.GroupSequence
		out.GroupSequence = &seq
	}
	out.Properties = make(map[string]any, len(m.Properties))
	for k, v := range m.Properties {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out.Properties[k] = v
	}
	return &out
}
