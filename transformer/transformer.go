package transformer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/mmate-amqp/amqpenv"
	"github.com/glimte/mmate-amqp/canonical"
)

// OptionName is the connector option that selects the transformer
const OptionName = "transport.transformer"

// Mode names a transformation strategy
type Mode string

const (
	ModeNative Mode = "native"
	ModeRaw    Mode = "raw"
	ModeJMS    Mode = "jms"

	DefaultMode = ModeNative
)

// Transformer converts between AMQP envelopes and canonical messages
type Transformer interface {
	// Mode returns the strategy this transformer implements
	Mode() Mode

	// Inbound converts a parsed AMQP message into a canonical message
	Inbound(env *amqpenv.Envelope) (*canonical.Message, error)

	// Outbound produces the AMQP encoding of a canonical message
	Outbound(msg *canonical.Message) ([]byte, error)
}

// Option configures a transformer
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock sets the clock used to turn relative ttls into expirations
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// ParseMode resolves a configured mode name. Names match exactly; an empty
// value selects the default mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "":
		return DefaultMode, nil
	case ModeNative:
		return ModeNative, nil
	case ModeRaw:
		return ModeRaw, nil
	case ModeJMS:
		return ModeJMS, nil
	default:
		return "", &ConfigurationError{
			Option: OptionName,
			Value:  value,
			Err:    fmt.Errorf("expected one of %s, %s, %s", ModeNative, ModeRaw, ModeJMS),
		}
	}
}

// New returns the transformer for mode
func New(mode Mode, opts ...Option) (Transformer, error) {
	o := newOptions(opts)
	switch mode {
	case ModeNative:
		return newNative(o), nil
	case ModeRaw:
		return newRaw(o), nil
	case ModeJMS:
		return newMapping(o), nil
	default:
		return nil, &ConfigurationError{
			Option: OptionName,
			Value:  string(mode),
			Err:    fmt.Errorf("unknown transformer mode"),
		}
	}
}

// Select parses a configured option value and returns its transformer
func Select(value string, opts ...Option) (Transformer, error) {
	mode, err := ParseMode(value)
	if err != nil {
		return nil, err
	}
	return New(mode, opts...)
}
