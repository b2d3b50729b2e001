package transformer

import (
	"github.com/glimte/mmate-amqp/canonical"
)

// FormatTagger writes the native marker and message-format code onto a
// canonical message, both as typed fields and as properties visible to
// consumers on other protocols.
type FormatTagger struct {
	native bool
}

var (
	nativeTagger = FormatTagger{native: true}
	mappedTagger = FormatTagger{native: false}
)

// Tag marks msg as produced from an AMQP message with the given format code
func (f FormatTagger) Tag(msg *canonical.Message, format uint32) {
	msg.NativeFormat = f.native
	msg.MessageFormat = int64(format)
	if msg.Properties == nil {
		msg.Properties = make(map[string]any)
	}
	msg.Properties[canonical.PropertyNativeFormat] = f.native
	msg.Properties[canonical.PropertyMessageFormat] = int64(format)
}

// ReadFormat returns the marker pair of msg. The property map wins over the
// typed fields because it is what crosses protocol boundaries.
func ReadFormat(msg *canonical.Message) (native bool, format int64) {
	native = msg.NativeFormat
	format = msg.MessageFormat
	if v, ok := msg.Properties[canonical.PropertyNativeFormat].(bool); ok {
		native = v
	}
	if v, ok := msg.Int64Property(canonical.PropertyMessageFormat); ok {
		format = v
	}
	return native, format
}
