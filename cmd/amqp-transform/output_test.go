package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glimte/mmate-amqp/canonical"
	"github.com/glimte/mmate-amqp/transformer"
)

func TestPrintMessage(t *testing.T) {
	t.Run("map payload", func(t *testing.T) {
		msg := canonical.NewMessage()
		msg.MessageID = "ID:1"
		require.NoError(t, msg.SetMap([]canonical.MapEntry{
			{Key: "b", Value: "two"},
			{Key: "a", Value: int64(1)},
		}))

		var out bytes.Buffer
		require.NoError(t, printMessage(&out, msg))

		assert.Contains(t, out.String(), `"messageId": "ID:1"`)
		assert.Contains(t, out.String(), `"kind": "map"`)
		assert.Less(t, bytes.Index(out.Bytes(), []byte(`"b"`)), bytes.Index(out.Bytes(), []byte(`"a"`)))
	})

	t.Run("bytes are base64", func(t *testing.T) {
		msg := canonical.NewMessage()
		msg.SetBytes([]byte("hi"))

		var out bytes.Buffer
		require.NoError(t, printMessage(&out, msg))
		assert.Contains(t, out.String(), `"body": "aGk="`)
	})

	t.Run("empty payload has no body", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, printMessage(&out, canonical.NewMessage()))
		assert.NotContains(t, out.String(), `"body"`)
		assert.NotContains(t, out.String(), `"timestamp"`)
	})
}

func TestPrintRoundTrip(t *testing.T) {
	var out bytes.Buffer
	printRoundTrip(&out, transformer.ModeRaw, []byte{1, 2}, []byte{1, 2})
	assert.Contains(t, out.String(), "transformer: raw")
	assert.Contains(t, out.String(), "identical: yes")

	out.Reset()
	printRoundTrip(&out, transformer.ModeJMS, []byte{1, 2}, []byte{1})
	assert.Contains(t, out.String(), "identical: no")
}
