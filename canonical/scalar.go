package canonical

import (
	"errors"
	"fmt"
)

// ErrNotScalar is returned for values outside the canonical scalar set
var ErrNotScalar = errors.New("canonical: value is not a supported scalar")

// ValidateScalar accepts nil, bool, int8, int16, int32, int64, float32,
// float64, string and []byte.
func ValidateScalar(v any) error {
	switch v.(type) {
	case nil, bool, int8, int16, int32, int64, float32, float64, string, []byte:
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrNotScalar, v)
	}
}

// MapEntry is one key/value pair of a map payload
type MapEntry struct {
	Key   string
	Value any
}
