//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"giyus/internal/audit"
	"giyus/internal/platform/config"
	"giyus/internal/platform/kafka"
	"giyus/pkg/testutil/containers"
)

func TestKafkaStore_ProducesKeyedEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker := containers.GetManager().GetRedpanda(t)
	cfg := config.KafkaConfig{
		Brokers:           broker.Brokers,
		AuditTopic:        "giyus.audit.test",
		Partitions:        1,
		ReplicationFactor: 1,
	}

	producer, err := kafka.New(ctx, cfg)
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg))
	require.NoError(t, kafka.EnsureTopic(ctx, producer, cfg), "second call tolerates an existing topic")

	store := audit.NewKafkaStore(producer, "")
	event := audit.Event{
		Timestamp:       time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		Action:          audit.ActionChangeRequestApplied,
		ActorID:         "manager-1",
		LeadID:          42,
		ChangeRequestID: 5,
		Field:           "city",
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(cfg.AuditTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.NotEmpty(t, records)

	assert.Equal(t, "42", string(records[0].Key))
	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, event, got)
}
