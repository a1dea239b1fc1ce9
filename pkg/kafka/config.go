package kafka

import (
	"errors"
	"time"
)

// Config holds what producers and consumers need to reach the cluster.
type Config struct {
	Brokers  []string
	ClientID string

	// TLS dials brokers over TLS 1.2+ with the system roots.
	TLS  bool
	SASL SASLConfig

	// WriteTimeout bounds a single produce call. Zero keeps the kafka-go default.
	WriteTimeout time.Duration

	// Group is the consumer group. Consumers require it.
	Group string
	// StartAtEnd makes a group without committed offsets skip the backlog.
	StartAtEnd bool
}

// SASLConfig selects broker authentication. An empty Mechanism disables SASL.
type SASLConfig struct {
	Mechanism string // PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512
	Username  string
	Password  string
}

var errNoBrokers = errors.New("kafka: at least one broker is required")
