package connector

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/glimte/mmate-amqp/transformer"
)

// Config holds the connector settings that are fixed at startup
type Config struct {
	// Transformer is one of native, raw or jms
	Transformer string `env:"TRANSPORT_TRANSFORMER" envDefault:"native"`
	// BatchConcurrency bounds parallel transformations in InboundBatch
	BatchConcurrency int `env:"TRANSPORT_BATCH_CONCURRENCY" envDefault:"4" validate:"min=1,max=256"`
	// AssignMessageIDs gives messages without an id a generated one
	AssignMessageIDs bool `env:"TRANSPORT_ASSIGN_MESSAGE_IDS" envDefault:"true"`
}

// option names used in error reports
var fieldOptions = map[string]string{
	"Transformer":      transformer.OptionName,
	"BatchConcurrency": "transport.batchConcurrency",
	"AssignMessageIDs": "transport.assignMessageIds",
}

var validate = validator.New()

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		Transformer:      string(transformer.DefaultMode),
		BatchConcurrency: 4,
		AssignMessageIDs: true,
	}
}

// LoadConfig reads the configuration from the environment
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, &transformer.ConfigurationError{Option: "environment", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ConfigFromURI reads connector options from the query of a connector URI,
// for example amqp://0.0.0.0:5672?transport.transformer=raw
func ConfigFromURI(uri string) (Config, error) {
	cfg := DefaultConfig()

	u, err := url.Parse(uri)
	if err != nil {
		return Config{}, &transformer.ConfigurationError{Option: "uri", Value: uri, Err: err}
	}
	query := u.Query()
	if query.Has(transformer.OptionName) {
		cfg.Transformer = query.Get(transformer.OptionName)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every option. Failures are *transformer.ConfigurationError.
func (c Config) Validate() error {
	if _, err := transformer.ParseMode(c.Transformer); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &transformer.ConfigurationError{
				Option: fieldOptions[fe.Field()],
				Value:  fmt.Sprint(fe.Value()),
				Err:    fmt.Errorf("failed %s=%s check", fe.Tag(), fe.Param()),
			}
		}
		return &transformer.ConfigurationError{Option: "config", Err: err}
	}
	return nil
}
