package canonical

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage()

	assert.Equal(t, KindEmpty, msg.Kind)
	assert.Equal(t, DefaultPriority, msg.Priority)
	assert.True(t, msg.Persistent)
	assert.NotNil(t, msg.Properties)
	assert.False(t, msg.NativeFormat)
	assert.Zero(t, msg.MessageFormat)
}

func TestPayloadKind(t *testing.T) {
	t.Run("names round trip", func(t *testing.T) {
		for _, kind := range []PayloadKind{KindEmpty, KindText, KindBytes, KindMap, KindStream, KindObject} {
			parsed, err := ParsePayloadKind(kind.String())
			require.NoError(t, err)
			assert.Equal(t, kind, parsed)
		}
	})

	t.Run("unknown name fails", func(t *testing.T) {
		_, err := ParsePayloadKind("blob")
		assert.Error(t, err)
		assert.Equal(t, "kind(42)", PayloadKind(42).String())
	})
}

func TestProperties(t *testing.T) {
	t.Run("scalar properties are stored", func(t *testing.T) {
		msg := NewMessage()
		require.NoError(t, msg.SetProperty("flag", true))
		require.NoError(t, msg.SetProperty("count", int32(3)))

		assert.True(t, msg.BoolProperty("flag"))
		n, ok := msg.Int64Property("count")
		assert.True(t, ok)
		assert.Equal(t, int64(3), n)
	})

	t.Run("non scalar properties are rejected", func(t *testing.T) {
		msg := NewMessage()
		err := msg.SetProperty("nested", map[string]any{"a": 1})
		assert.ErrorIs(t, err, ErrNotScalar)

		err = msg.SetProperty("", "x")
		assert.Error(t, err)
	})

	t.Run("typed getters tolerate absence", func(t *testing.T) {
		msg := NewMessage()
		assert.False(t, msg.BoolProperty("missing"))
		_, ok := msg.Int64Property("missing")
		assert.False(t, ok)
	})
}

func TestClone(t *testing.T) {
	msg := NewMessage()
	msg.SetBytes([]byte{1, 2, 3})
	require.NoError(t, msg.SetProperty("bin", []byte{9}))

	seq := int64(4)
	msg.GroupSequence = &seq

	clone := msg.Clone()
	*clone.GroupSequence = 5
	clone.Body[0] = 0xff
	clone.Properties["bin"].([]byte)[0] = 0
	clone.Properties["extra"] = "x"

	assert.Equal(t, []byte{1, 2, 3}, msg.Body)
	assert.Equal(t, []byte{9}, msg.Properties["bin"])
	assert.Equal(t, int64(4), *msg.GroupSequence)
	_, ok := msg.Properties["extra"]
	assert.False(t, ok)
}

func TestTypedPayloads(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		msg := NewMessage()
		msg.SetText("hello")

		text, err := msg.Text()
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
		assert.Equal(t, KindText, msg.Kind)
	})

	t.Run("accessor rejects other kinds", func(t *testing.T) {
		msg := NewMessage()
		msg.SetBytes([]byte("x"))

		_, err := msg.Text()
		assert.True(t, errors.Is(err, ErrKindMismatch))
	})

	t.Run("map keeps order and scalar widths", func(t *testing.T) {
		entries := []MapEntry{
			{Key: "z", Value: int8(-3)},
			{Key: "a", Value: int64(1) << 40},
			{Key: "f", Value: float32(1.5)},
			{Key: "b", Value: []byte{0xca, 0xfe}},
			{Key: "n", Value: nil},
			{Key: "s", Value: "text"},
		}
		msg := NewMessage()
		require.NoError(t, msg.SetMap(entries))

		got, err := msg.Map()
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("map rejects duplicate keys and nested values", func(t *testing.T) {
		msg := NewMessage()
		err := msg.SetMap([]MapEntry{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}})
		assert.Error(t, err)

		err = msg.SetMap([]MapEntry{{Key: "a", Value: []any{1}}})
		assert.ErrorIs(t, err, ErrNotScalar)
		assert.Equal(t, KindEmpty, msg.Kind)
	})

	t.Run("stream", func(t *testing.T) {
		values := []any{"a", int32(7), true, float64(2.25)}
		msg := NewMessage()
		require.NoError(t, msg.SetStream(values))

		got, err := msg.Stream()
		require.NoError(t, err)
		assert.Equal(t, values, got)
	})

	t.Run("object", func(t *testing.T) {
		msg := NewMessage()
		require.NoError(t, msg.SetObject(int16(12)))

		got, err := msg.Object()
		require.NoError(t, err)
		assert.Equal(t, int16(12), got)
	})

	t.Run("non-finite floats keep their value and width", func(t *testing.T) {
		msg := NewMessage()
		require.NoError(t, msg.SetMap([]MapEntry{
			{Key: "nan", Value: math.NaN()},
			{Key: "pos", Value: float32(math.Inf(1))},
			{Key: "neg", Value: math.Inf(-1)},
		}))
		entries, err := msg.Map()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		nan, ok := entries[0].Value.(float64)
		require.True(t, ok)
		assert.True(t, math.IsNaN(nan))
		assert.Equal(t, float32(math.Inf(1)), entries[1].Value)
		assert.Equal(t, math.Inf(-1), entries[2].Value)

		require.NoError(t, msg.SetStream([]any{math.Inf(1), float32(math.NaN()), 1.5}))
		values, err := msg.Stream()
		require.NoError(t, err)
		assert.Equal(t, math.Inf(1), values[0])
		f32, ok := values[1].(float32)
		require.True(t, ok)
		assert.True(t, math.IsNaN(float64(f32)))
		assert.Equal(t, 1.5, values[2])

		require.NoError(t, msg.SetObject(math.Inf(-1)))
		obj, err := msg.Object()
		require.NoError(t, err)
		assert.Equal(t, math.Inf(-1), obj)
	})

	t.Run("float strings other than the non-finite names fail", func(t *testing.T) {
		msg := NewMessage()
		msg.Kind = KindObject
		msg.Body = []byte(`{"t":"float64","v":"1.5"}`)
		_, err := msg.Object()
		assert.ErrorIs(t, err, ErrNotScalar)
	})

	t.Run("empty", func(t *testing.T) {
		msg := NewMessage()
		msg.SetText("x")
		msg.SetEmpty()
		assert.Equal(t, KindEmpty, msg.Kind)
		assert.Nil(t, msg.Body)
	})
}
