//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"carecoin/internal/ledger/events"
	"carecoin/pkg/testutil/containers"
)

func TestKafkaSinkDelivery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redpanda := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	topic := "carecoin.ledger.events.test"

	sink, err := events.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	t.Cleanup(sink.Close)

	emitted := events.Event{
		ID:        "evt-1",
		Type:      events.TypeTransfer,
		Actor:     "user-a",
		Sender:    "user-a",
		Recipient: "user-b",
		Amount:    250,
		Memo:      []byte("thanks"),
		Timestamp: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, sink.Deliver(ctx, emitted))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, []byte("user-a"), records[0].Key)

	var got events.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, emitted.ID, got.ID)
	assert.Equal(t, emitted.Type, got.Type)
	assert.Equal(t, emitted.Amount, got.Amount)
	assert.Equal(t, emitted.Memo, got.Memo)
	assert.True(t, got.Timestamp.Equal(emitted.Timestamp))
}

func TestKafkaSinkTopicEnsureIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redpanda := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	topic := "carecoin.ledger.events.idempotent"

	first, err := events.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	first.Close()

	// Reconnecting against an existing topic must not fail.
	second, err := events.NewKafkaSink(ctx, []string{redpanda.Broker}, topic)
	require.NoError(t, err)
	second.Close()
}
