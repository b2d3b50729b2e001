package transformer

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDEncoding(t *testing.T) {
	u := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")

	tests := []struct {
		name    string
		id      any
		encoded string
	}{
		{"absent", nil, ""},
		{"plain string", "order-1", "order-1"},
		{"uuid", u, "AMQP_UUID:0f8fad5b-d9cb-469f-a165-70867728950e"},
		{"ulong", uint64(42), "AMQP_ULONG:42"},
		{"binary", []byte{0xab, 0x01}, "AMQP_BINARY:AB01"},
		{"string that looks prefixed", "AMQP_ULONG:7", "AMQP_STRING:AMQP_ULONG:7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeID("properties.message-id", tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.encoded, got)
			assert.Equal(t, tt.id, decodeID(got))
		})
	}

	t.Run("unsupported id type", func(t *testing.T) {
		_, err := encodeID("properties.message-id", int32(5))
		var mErr *UnsupportedMappingError
		require.ErrorAs(t, err, &mErr)
		assert.Equal(t, "properties.message-id", mErr.Path)
		assert.Equal(t, "int32", mErr.Type)
	})

	t.Run("unparseable prefixed strings stay strings", func(t *testing.T) {
		assert.Equal(t, "AMQP_UUID:nope", decodeID("AMQP_UUID:nope"))
		assert.Equal(t, "AMQP_ULONG:-1", decodeID("AMQP_ULONG:-1"))
		assert.Equal(t, "AMQP_BINARY:zz", decodeID("AMQP_BINARY:zz"))
	})
}
