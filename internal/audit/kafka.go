package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaStore ships events to the client's default produce topic, keyed by
// lead id so one lead's history stays in a single partition.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore returns a Kafka sink. An empty topic uses the client's
// default produce topic.
func NewKafkaStore(client *kgo.Client, topic string) *KafkaStore {
	return &KafkaStore{client: client, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if event.LeadID != 0 {
		record.Key = []byte(event.LeadID.String())
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// FanOut appends to every store in order and returns the first error after
// trying all of them.
type FanOut []Store

func (f FanOut) Append(ctx context.Context, event Event) error {
	var first error
	for _, store := range f {
		if err := store.Append(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
