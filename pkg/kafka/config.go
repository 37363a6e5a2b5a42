package kafka

import (
	"errors"
	"fmt"
	"strings"
)

// Supported SASL mechanisms. An empty mechanism means PLAIN.
const (
	SASLPlain       = "PLAIN"
	SASLScramSHA256 = "SCRAM-SHA-256"
	SASLScramSHA512 = "SCRAM-SHA-512"
)

// Config holds the producer and consumer connection settings.
type Config struct {
	ClientID string
	Brokers  []string

	// ConsumerGroup is only read by NewConsumer.
	ConsumerGroup string

	TLS bool

	SASLEnabled   bool
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) == "" {
			return errors.New("kafka: empty broker address")
		}
	}
	if !c.SASLEnabled {
		return nil
	}
	switch strings.ToUpper(c.SASLMechanism) {
	case "", SASLPlain, SASLScramSHA256, SASLScramSHA512:
	default:
		return fmt.Errorf("kafka: unsupported SASL mechanism %q", c.SASLMechanism)
	}
	if c.SASLUsername == "" {
		return errors.New("kafka: SASL requires a username")
	}
	return nil
}
