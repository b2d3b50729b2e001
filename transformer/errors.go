package transformer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every ConfigurationError
	ErrInvalidConfiguration = errors.New("transformer: invalid configuration")
	// ErrUnsupportedMapping is matched by every UnsupportedMappingError
	ErrUnsupportedMapping = errors.New("transformer: unsupported mapping")
	// ErrNilMessage is returned when there is nothing to transform
	ErrNilMessage = errors.New("transformer: message is nil")
)

// ConfigurationError reports an invalid transformer option. It is raised when
// a connector is created, never while messages flow.
type ConfigurationError struct {
	Option string // Option name, e.g. transport.transformer
	Value  string // Rejected value
	Err    error  // Underlying error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transformer: invalid configuration %s=%q: %v", e.Option, e.Value, e.Err)
	}
	return fmt.Sprintf("transformer: invalid configuration %s=%q", e.Option, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// UnsupportedMappingError reports an AMQP shape with no canonical equivalent.
// The message it belongs to must be rejected.
type UnsupportedMappingError struct {
	Path   string // Location in the envelope, e.g. body.value["key"]
	Type   string // Go type found at Path
	Reason string
}

func (e *UnsupportedMappingError) Error() string {
	return fmt.Sprintf("transformer: unsupported mapping at %s (%s): %s", e.Path, e.Type, e.Reason)
}

func (e *UnsupportedMappingError) Is(target error) bool {
	return target == ErrUnsupportedMapping
}

func unsupported(path string, v any, reason string) *UnsupportedMappingError {
	return &UnsupportedMappingError{
		Path:   path,
		Type:   fmt.Sprintf("%T", v),
		Reason: reason,
	}
}
