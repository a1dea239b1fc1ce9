package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Producer writes messages to any number of topics over one shared transport.
// Writers are created on first use and are safe for concurrent Publish calls.
type Producer struct {
	transport *kafkago.Transport
	writers   map[string]*kafkago.Writer
	brokers   []string
	timeout   time.Duration
	mu        sync.Mutex
}

// NewProducer validates cfg and prepares the transport. It does not dial.
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}
	transport, err := cfg.transport()
	if err != nil {
		return nil, err
	}
	return &Producer{
		transport: transport,
		writers:   map[string]*kafkago.Writer{},
		brokers:   cfg.Brokers,
		timeout:   cfg.WriteTimeout,
	}, nil
}

// Publish writes messages to topic as one batch. Messages with the same key land
// on the same partition.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	batch := make([]kafkago.Message, len(messages))
	for i, m := range messages {
		batch[i] = m.toKafka()
	}
	if err := p.writer(topic).WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("kafka: writing %d messages to %s: %w", len(batch), topic, err)
	}
	return nil
}

// Close flushes and closes every writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kafka: closing writer for %s: %w", topic, err))
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}

func (p *Producer) writer(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w := p.writers[topic]; w != nil {
		return w
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Transport:              p.transport,
		WriteTimeout:           p.timeout,
	}
	p.writers[topic] = w
	return w
}
