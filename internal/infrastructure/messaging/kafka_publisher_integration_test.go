//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/scamshield/internal/domain/event"
	"github.com/bibbank/scamshield/pkg/kafka"
	"github.com/bibbank/scamshield/pkg/testutil"
)

func TestKafkaPublisher_Integration(t *testing.T) {
	ctx := context.Background()
	kc := testutil.NewKafkaContainer(ctx, t)

	producer, err := kafka.NewProducer(kafka.Config{
		Brokers:      kc.Brokers,
		ClientID:     "scamshield-it",
		WriteTimeout: 10 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { producer.Close() }) //nolint:errcheck

	const topic = "scamshield.events.it"
	pub := NewKafkaPublisher(producer, topic, discardLogger())
	classified, flagged := sampleEvents()

	publishCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	require.NoError(t, pub.Publish(publishCtx, classified, flagged))

	msgs := kc.ReadMessages(t, topic, 2, 30*time.Second)

	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		assert.Equal(t, testutil.TestMessageID1.String(), string(m.Key))
		for _, h := range m.Headers {
			if h.Key == "event_type" {
				types = append(types, string(h.Value))
			}
		}
	}
	assert.ElementsMatch(t, []string{event.EventTypeMessageClassified, event.EventTypeHighRiskDetected}, types)

	var got event.MessageClassified
	for _, m := range msgs {
		if err := json.Unmarshal(m.Value, &got); err == nil && got.TextSHA256 != "" {
			break
		}
	}
	assert.Equal(t, classified.TextSHA256, got.TextSHA256)
	assert.Equal(t, classified.TextLength, got.TextLength)
}
