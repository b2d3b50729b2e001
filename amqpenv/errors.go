package amqpenv

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched by every MalformedEnvelopeError
	ErrMalformed = errors.New("amqpenv: malformed envelope")
	// ErrEmptyInput is returned when there are no bytes to decode
	ErrEmptyInput = errors.New("amqpenv: no bytes to decode")
	// ErrNoSections is returned when an envelope has nothing to encode
	ErrNoSections = errors.New("amqpenv: envelope has no sections")
)

// MalformedEnvelopeError reports bytes that are not a well-formed AMQP message
type MalformedEnvelopeError struct {
	Op   string // decode or encode
	Size int    // number of input bytes
	Err  error  // Underlying codec error
}

func (e *MalformedEnvelopeError) Error() string {
	return fmt.Sprintf("amqpenv: malformed envelope: %s of %d bytes failed: %v", e.Op, e.Size, e.Err)
}

func (e *MalformedEnvelopeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformed) hold for every malformed envelope
func (e *MalformedEnvelopeError) Is(target error) bool {
	return target == ErrMalformed
}
