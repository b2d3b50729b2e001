package canonical

import (
	"errors"
	"fmt"
	"math"

	json "github.com/json-iterator/go"
)

// ErrKindMismatch is returned when a typed accessor does not match the payload kind
var ErrKindMismatch = errors.New("canonical: payload kind mismatch")

// typedValue keeps the scalar type next to its JSON value so integer widths
// and float precision survive a round trip
type typedValue struct {
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v,omitempty"`
}

type mapEntry struct {
	Key   string          `json:"k"`
	Type  string          `json:"t"`
	Value json.RawMessage `json:"v,omitempty"`
}

// SetText stores a UTF-8 text payload
func (m *Message) SetText(s string) {
	m.Kind = KindText
	m.Body = []byte(s)
}

// Text returns the text payload
func (m *Message) Text() (string, error) {
	if err := m.expect(KindText); err != nil {
		return "", err
	}
	return string(m.Body), nil
}

// SetBytes stores an opaque byte payload
func (m *Message) SetBytes(b []byte) {
	m.Kind = KindBytes
	m.Body = b
}

// Bytes returns the opaque byte payload
func (m *Message) Bytes() ([]byte, error) {
	if err := m.expect(KindBytes); err != nil {
		return nil, err
	}
	return m.Body, nil
}

// SetEmpty clears the payload
func (m *Message) SetEmpty() {
	m.Kind = KindEmpty
	m.Body = nil
}

// SetMap stores an ordered map payload. Keys must be unique and values scalar.
func (m *Message) SetMap(entries []MapEntry) error {
	seen := make(map[string]struct{}, len(entries))
	encoded := make([]mapEntry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Key]; dup {
			return fmt.Errorf("canonical: duplicate map key %q", e.Key)
		}
		seen[e.Key] = struct{}{}

		tv, err := encodeScalar(e.Value)
		if err != nil {
			return fmt.Errorf("canonical: map key %q: %w", e.Key, err)
		}
		encoded = append(encoded, mapEntry{Key: e.Key, Type: tv.Type, Value: tv.Value})
	}

	body, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("canonical: encode map payload: %w", err)
	}
	m.Kind = KindMap
	m.Body = body
	return nil
}

// Map returns the map payload in stored order
func (m *Message) Map() ([]MapEntry, error) {
	if err := m.expect(KindMap); err != nil {
		return nil, err
	}
	var encoded []mapEntry
	if err := json.Unmarshal(m.Body, &encoded); err != nil {
		return nil, fmt.Errorf("canonical: decode map payload: %w", err)
	}
	entries := make([]MapEntry, 0, len(encoded))
	for _, e := range encoded {
		v, err := decodeScalar(typedValue{Type: e.Type, Value: e.Value})
		if err != nil {
			return nil, fmt.Errorf("canonical: map key %q: %w", e.Key, err)
		}
		entries = append(entries, MapEntry{Key: e.Key, Value: v})
	}
	return entries, nil
}

// SetStream stores an ordered sequence of scalars
func (m *Message) SetStream(values []any) error {
	encoded := make([]typedValue, 0, len(values))
	for i, v := range values {
		tv, err := encodeScalar(v)
		if err != nil {
			return fmt.Errorf("canonical: stream element %d: %w", i, err)
		}
		encoded = append(encoded, tv)
	}
	body, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("canonical: encode stream payload: %w", err)
	}
	m.Kind = KindStream
	m.Body = body
	return nil
}

// Stream returns the stream payload
func (m *Message) Stream() ([]any, error) {
	if err := m.expect(KindStream); err != nil {
		return nil, err
	}
	var encoded []typedValue
	if err := json.Unmarshal(m.Body, &encoded); err != nil {
		return nil, fmt.Errorf("canonical: decode stream payload: %w", err)
	}
	values := make([]any, 0, len(encoded))
	for i, tv := range encoded {
		v, err := decodeScalar(tv)
		if err != nil {
			return nil, fmt.Errorf("canonical: stream element %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// SetObject stores a single typed scalar
func (m *Message) SetObject(v any) error {
	tv, err := encodeScalar(v)
	if err != nil {
		return fmt.Errorf("canonical: object payload: %w", err)
	}
	body, err := json.Marshal(tv)
	if err != nil {
		return fmt.Errorf("canonical: encode object payload: %w", err)
	}
	m.Kind = KindObject
	m.Body = body
	return nil
}

// Object returns the single typed scalar of an object payload
func (m *Message) Object() (any, error) {
	if err := m.expect(KindObject); err != nil {
		return nil, err
	}
	var tv typedValue
	if err := json.Unmarshal(m.Body, &tv); err != nil {
		return nil, fmt.Errorf("canonical: decode object payload: %w", err)
	}
	return decodeScalar(tv)
}

func (m *Message) expect(kind PayloadKind) error {
	if m.Kind != kind {
		return fmt.Errorf("%w: payload is %s, not %s", ErrKindMismatch, m.Kind, kind)
	}
	return nil
}

func encodeScalar(v any) (typedValue, error) {
	var tag string
	switch v.(type) {
	case nil:
		return typedValue{Type: "null"}, nil
	case bool:
		tag = "bool"
	case int8:
		tag = "int8"
	case int16:
		tag = "int16"
	case int32:
		tag = "int32"
	case int64:
		tag = "int64"
	case float32:
		tag = "float32"
	case float64:
		tag = "float64"
	case string:
		tag = "string"
	case []byte:
		tag = "bytes"
	default:
		return typedValue{}, fmt.Errorf("%w: %T", ErrNotScalar, v)
	}

	if name, ok := nonFinite(v); ok {
		v = name
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return typedValue{}, err
	}
	return typedValue{Type: tag, Value: raw}, nil
}

// nonFinite names NaN and the infinities, which JSON numbers cannot hold.
// They are stored as JSON strings under their float tag.
func nonFinite(v any) (string, bool) {
	var f float64
	switch t := v.(type) {
	case float32:
		f = float64(t)
	case float64:
		f = t
	default:
		return "", false
	}
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "+Inf", true
	case math.IsInf(f, -1):
		return "-Inf", true
	}
	return "", false
}

func parseNonFinite(raw json.RawMessage) (float64, bool, error) {
	if len(raw) == 0 || raw[0] != '"' {
		return 0, false, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return 0, false, err
	}
	switch name {
	case "NaN":
		return math.NaN(), true, nil
	case "+Inf":
		return math.Inf(1), true, nil
	case "-Inf":
		return math.Inf(-1), true, nil
	}
	return 0, false, fmt.Errorf("%w: invalid float %q", ErrNotScalar, name)
}

func unmarshalFloat[T float32 | float64](raw json.RawMessage) (any, error) {
	f, ok, err := parseNonFinite(raw)
	if err != nil {
		return nil, err
	}
	if ok {
		return T(f), nil
	}
	return unmarshalAs[T](raw)
}

func decodeScalar(tv typedValue) (any, error) {
	switch tv.Type {
	case "null":
		return nil, nil
	case "bool":
		return unmarshalAs[bool](tv.Value)
	case "int8":
		return unmarshalAs[int8](tv.Value)
	case "int16":
		return unmarshalAs[int16](tv.Value)
	case "int32":
		return unmarshalAs[int32](tv.Value)
	case "int64":
		return unmarshalAs[int64](tv.Value)
	case "float32":
		return unmarshalFloat[float32](tv.Value)
	case "float64":
		return unmarshalFloat[float64](tv.Value)
	case "string":
		return unmarshalAs[string](tv.Value)
	case "bytes":
		return unmarshalAs[[]byte](tv.Value)
	default:
		return nil, fmt.Errorf("%w: unknown type tag %q", ErrNotScalar, tv.Type)
	}
}

func unmarshalAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
