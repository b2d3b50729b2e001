package transformer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/canonical"
	"github.com/google/uuid"
)

// toScalar converts an AMQP value into a canonical scalar. Unsigned integers
// widen into the next signed type, symbols and uuids become strings and
// timestamps become milliseconds since the epoch.
func toScalar(path string, v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, int8, int16, int32, int64, float32, float64, string:
		return t, nil
	case []byte:
		return append([]byte(nil), t...), nil
	case int:
		return int64(t), nil
	case uint8:
		return int16(t), nil
	case uint16:
		return int32(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, unsupported(path, v, "ulong exceeds the signed 64-bit range")
		}
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return nil, unsupported(path, v, "uint exceeds the signed 64-bit range")
		}
		return int64(t), nil
	case amqpenv.Symbol:
		return string(t), nil
	case uuid.UUID:
		return t.String(), nil
	case time.Time:
		return t.UnixMilli(), nil
	case map[any]any, map[string]any, []any:
		return nil, unsupported(path, v, "nested containers have no canonical equivalent")
	default:
		return nil, unsupported(path, v, "type has no canonical equivalent")
	}
}

// toMapEntries converts an AMQP map into canonical entries sorted by key
func toMapEntries(path string, m map[any]any) ([]canonical.MapEntry, error) {
	entries := make([]canonical.MapEntry, 0, len(m))
	for k, v := range m {
		key, ok := k.(string)
		if !ok {
			return nil, unsupported(path+".key", k, "map keys must be strings")
		}
		value, err := toScalar(fmt.Sprintf("%s[%q]", path, key), v)
		if err != nil {
			return nil, err
		}
		entries = append(entries, canonical.MapEntry{Key: key, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

func toStreamValues(path string, values []any) ([]any, error) {
	out := make([]any, 0, len(values))
	for i, v := range values {
		s, err := toScalar(fmt.Sprintf("%s[%d]", path, i), v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func clampPriority(p uint8) uint8 {
	if p > canonical.MaxPriority {
		return canonical.MaxPriority
	}
	return p
}
