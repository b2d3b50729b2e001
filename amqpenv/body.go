package amqpenv

// BodyKind identifies which body section a message carries
type BodyKind int

const (
	// BodyNone means the message has no body section
	BodyNone BodyKind = iota
	// BodyData is one or more data sections holding opaque bytes
	BodyData
	// BodySequence is one or more amqp-sequence sections
	BodySequence
	// BodyValue is a single amqp-value section
	BodyValue
)

// String returns the section name of the body kind
func (k BodyKind) String() string {
	switch k {
	case BodyNone:
		return "none"
	case BodyData:
		return "data"
	case BodySequence:
		return "amqp-sequence"
	case BodyValue:
		return "amqp-value"
	default:
		return "unknown"
	}
}

// Body is the tagged body variant of an envelope. Only the field matching
// Kind is meaningful.
type Body struct {
	Kind     BodyKind
	Data     []byte
	Sequence []any
	// Value is a scalar, a map[any]any, a []any or nil
	Value any
}

// NoBody returns an empty body
func NoBody() Body {
	return Body{Kind: BodyNone}
}

// DataBody returns a data body holding b
func DataBody(b []byte) Body {
	return Body{Kind: BodyData, Data: b}
}

// SequenceBody returns an amqp-sequence body
func SequenceBody(values ...any) Body {
	return Body{Kind: BodySequence, Sequence: values}
}

// ValueBody returns an amqp-value body
func ValueBody(v any) Body {
	return Body{Kind: BodyValue, Value: v}
}

// IsEmpty reports whether the body carries no content. A null amqp-value
// counts as empty.
func (b Body) IsEmpty() bool {
	switch b.Kind {
	case BodyNone:
		return true
	case BodyValue:
		return b.Value == nil
	default:
		return false
	}
}
