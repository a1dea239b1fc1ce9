package kafka

import (
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Message is a record as produced or consumed. Partition, Offset and Time are
// only set on consumed messages.
type Message struct {
	Time      time.Time
	Headers   map[string]string
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64
}

func (m Message) toKafka() kafkago.Message {
	out := kafkago.Message{Key: m.Key, Value: m.Value}
	if len(m.Headers) > 0 {
		out.Headers = make([]kafkago.Header, 0, len(m.Headers))
		for k, v := range m.Headers {
			out.Headers = append(out.Headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
	}
	return out
}

// fromKafka keeps the last value when a header key repeats.
func fromKafka(m kafkago.Message) Message {
	out := Message{
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Time:      m.Time,
		Headers:   make(map[string]string, len(m.Headers)),
	}
	for _, h := range m.Headers {
		out.Headers[h.Key] = string(h.Value)
	}
	return out
}
