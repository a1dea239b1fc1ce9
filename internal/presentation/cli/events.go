package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	urfave "github.com/urfave/cli/v3"

	"github.com/bibbank/scamshield/internal/domain/event"
	"github.com/bibbank/scamshield/internal/infrastructure/messaging"
	"github.com/bibbank/scamshield/pkg/kafka"
)

const (
	brokersFlag      = "brokers"
	topicFlag        = "topic"
	groupFlag        = "group"
	maxFlag          = "max"
	highRiskOnlyFlag = "high-risk-only"
	kafkaTLSFlag     = "kafka-tls"
	saslMechFlag     = "sasl-mechanism"
	saslUserFlag     = "sasl-username"
	saslPassFlag     = "sasl-password"
)

// eventRecord is how a consumed domain event is printed.
type eventRecord struct {
	Time      time.Time `json:"time" yaml:"time"`
	Payload   any       `json:"payload" yaml:"payload"`
	EventType string    `json:"event_type" yaml:"event_type"`
	MessageID string    `json:"message_id" yaml:"message_id"`
	Partition int       `json:"partition" yaml:"partition"`
	Offset    int64     `json:"offset" yaml:"offset"`

	// TraceParent links the event to the request span that produced it.
	TraceParent string `json:"traceparent,omitempty" yaml:"traceparent,omitempty"`
}

func eventsCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "events",
		Usage: "Tails classification events from Kafka",
		Flags: []urfave.Flag{
			&urfave.StringSliceFlag{
				Name:    brokersFlag,
				Usage:   "Kafka brokers",
				Sources: urfave.EnvVars("KAFKA_BROKERS"),
			},
			&urfave.StringFlag{
				Name:    topicFlag,
				Usage:   "Topic the service publishes to",
				Value:   "scamshield.events",
				Sources: urfave.EnvVars("KAFKA_TOPIC"),
			},
			&urfave.StringFlag{
				Name:  groupFlag,
				Usage: "Consumer group (optional, a throwaway group starting at the latest offset when not set)",
			},
			&urfave.IntFlag{
				Name:  maxFlag,
				Usage: "Stop after this many events (optional, 0 tails until interrupted)",
			},
			&urfave.BoolFlag{
				Name:  highRiskOnlyFlag,
				Usage: "Print only " + event.EventTypeHighRiskDetected + " events",
			},
			&urfave.BoolFlag{
				Name:    kafkaTLSFlag,
				Usage:   "Dial brokers over TLS",
				Sources: urfave.EnvVars("KAFKA_TLS"),
			},
			&urfave.StringFlag{
				Name:    saslMechFlag,
				Usage:   "SASL mechanism: PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512 (optional)",
				Sources: urfave.EnvVars("KAFKA_SASL_MECHANISM"),
			},
			&urfave.StringFlag{
				Name:    saslUserFlag,
				Usage:   "SASL username",
				Sources: urfave.EnvVars("KAFKA_SASL_USERNAME"),
			},
			&urfave.StringFlag{
				Name:    saslPassFlag,
				Usage:   "SASL password",
				Sources: urfave.EnvVars("KAFKA_SASL_PASSWORD"),
			},
		},
		Action: cmdEvents,
	}
}

func cmdEvents(ctx context.Context, cmd *urfave.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}

	group := cmd.String(groupFlag)
	fromLatest := group == ""
	if fromLatest {
		group = "scamshield-tail-" + uuid.NewString()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := int(cmd.Int(maxFlag))
	highRiskOnly := cmd.Bool(highRiskOnlyFlag)
	seen := 0

	handler := func(_ context.Context, msg kafka.Message) error {
		rec := toEventRecord(msg)
		if highRiskOnly && rec.EventType != event.EventTypeHighRiskDetected {
			return nil
		}
		if err := e.writeEvent(rec); err != nil {
			return err
		}
		seen++
		if limit > 0 && seen >= limit {
			cancel()
		}
		return nil
	}

	consumer, err := kafka.NewConsumer(kafka.Config{
		Brokers:    nonEmpty(cmd.StringSlice(brokersFlag)),
		ClientID:   "scamshield-cli",
		Group:      group,
		StartAtEnd: fromLatest,
		TLS:        cmd.Bool(kafkaTLSFlag),
		SASL: kafka.SASLConfig{
			Mechanism: cmd.String(saslMechFlag),
			Username:  cmd.String(saslUserFlag),
			Password:  cmd.String(saslPassFlag),
		},
	}, cmd.String(topicFlag), handler, e.logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	return consumer.Start(ctx)
}

func (e *env) writeEvent(rec eventRecord) error {
	if e.format == formatYAML {
		if _, err := fmt.Fprintln(e.out, "---"); err != nil {
			return err
		}
		return e.encode(rec)
	}
	return writeJSONLine(e.out, rec)
}

func toEventRecord(msg kafka.Message) eventRecord {
	rec := eventRecord{
		Time:      msg.Time,
		EventType: msg.Headers[messaging.HeaderEventType],
		MessageID: string(msg.Key),
		Partition: msg.Partition,
		Offset:    msg.Offset,

		TraceParent: msg.Headers["traceparent"],
	}
	var payload map[string]any
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		rec.Payload = string(msg.Value)
		return rec
	}
	rec.Payload = payload
	return rec
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
