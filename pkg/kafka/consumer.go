package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"
)

const maxFetchBytes = 10 << 20

// Handler processes one consumed message. A returned error leaves the message
// uncommitted.
type Handler func(ctx context.Context, msg Message) error

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	logger  *slog.Logger
}

// NewConsumer validates cfg and creates the group reader. It does not dial.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}
	if cfg.Group == "" {
		return nil, errors.New("kafka: consumer group is required")
	}
	dialer, err := cfg.dialer()
	if err != nil {
		return nil, err
	}

	rc := kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     cfg.Group,
		MinBytes:    1,
		MaxBytes:    maxFetchBytes,
		StartOffset: kafkago.FirstOffset,
		Dialer:      dialer,
	}
	if cfg.StartAtEnd {
		rc.StartOffset = kafkago.LastOffset
	}

	return &Consumer{
		reader:  kafkago.NewReader(rc),
		handler: handler,
		logger:  logger.With("topic", topic, "group", cfg.Group),
	}, nil
}

// Start fetches and handles messages until ctx ends, which is not an error.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("kafka consumer started")
	for {
		m, err := c.reader.FetchMessage(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			c.logger.Info("kafka consumer stopped")
			return nil
		default:
			return fmt.Errorf("kafka: fetching from %s: %w", c.reader.Config().Topic, err)
		}
		c.process(ctx, m)
	}
}

func (c *Consumer) process(ctx context.Context, m kafkago.Message) {
	log := c.logger.With("partition", m.Partition, "offset", m.Offset)
	if err := c.handler(ctx, fromKafka(m)); err != nil {
		log.Error("handling message", "error", err)
		return
	}
	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		log.Error("committing offset", "error", err)
	}
}

// Close leaves the group and closes the reader.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("kafka: closing reader: %w", err)
	}
	return nil
}
