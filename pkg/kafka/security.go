package kafka

import (
	"crypto/tls"
	"fmt"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// mechanism returns nil when SASL is disabled.
func (s SASLConfig) mechanism() (sasl.Mechanism, error) {
	switch strings.ToUpper(strings.TrimSpace(s.Mechanism)) {
	case "":
		return nil, nil
	case "PLAIN":
		return plain.Mechanism{Username: s.Username, Password: s.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, s.Username, s.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, s.Username, s.Password)
	default:
		return nil, fmt.Errorf("kafka: unsupported SASL mechanism %q", s.Mechanism)
	}
}

func (c Config) tls() *tls.Config {
	if !c.TLS {
		return nil
	}
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// transport is shared by every writer of a producer.
func (c Config) transport() (*kafkago.Transport, error) {
	mech, err := c.SASL.mechanism()
	if err != nil {
		return nil, err
	}
	return &kafkago.Transport{ClientID: c.ClientID, TLS: c.tls(), SASL: mech}, nil
}

// dialer returns nil when neither TLS nor SASL is configured, so the reader uses
// the kafka-go default dialer.
func (c Config) dialer() (*kafkago.Dialer, error) {
	mech, err := c.SASL.mechanism()
	if err != nil {
		return nil, err
	}
	if mech == nil && !c.TLS {
		return nil, nil
	}
	return &kafkago.Dialer{
		ClientID:      c.ClientID,
		DualStack:     true,
		TLS:           c.tls(),
		SASLMechanism: mech,
	}, nil
}
