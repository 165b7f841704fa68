package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"carecoin/internal/ledger/events"
	"carecoin/internal/ledger/events/mocks"
	"carecoin/internal/platform/logger"
	"carecoin/pkg/requestcontext"
)

func TestPublisherStampsEvents(t *testing.T) {
	log := logger.New()
	publisher := events.NewPublisher(log, 8)
	sink := events.NewMemorySink()
	worker := events.NewWorker(publisher, log, sink)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	publisher.Emit(ctx, events.Event{Type: events.TypeMint, Actor: "treasury", Amount: 5, MintID: 1})
	publisher.Close()

	require.NoError(t, worker.Run(context.Background()))

	delivered := sink.List()
	require.Len(t, delivered, 1)
	assert.NotEmpty(t, delivered[0].ID)
	assert.True(t, delivered[0].Timestamp.Equal(now))
	assert.Equal(t, events.TypeMint, delivered[0].Type)
}

func TestPublisherDropsWhenInboxFull(t *testing.T) {
	log := logger.New()
	var dropped atomic.Int32
	publisher := events.NewPublisher(log, 2,
		events.WithDropCounter(func() { dropped.Add(1) }))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		publisher.Emit(ctx, events.Event{Type: events.TypeTransfer})
	}

	assert.Equal(t, int32(3), dropped.Load())
}

func TestPublisherEmitAfterCloseIsIgnored(t *testing.T) {
	log := logger.New()
	publisher := events.NewPublisher(log, 4)
	sink := events.NewMemorySink()
	worker := events.NewWorker(publisher, log, sink)

	publisher.Close()
	publisher.Emit(context.Background(), events.Event{Type: events.TypeBurn})

	require.NoError(t, worker.Run(context.Background()))
	assert.Empty(t, sink.List())
}

func TestWorkerFansOutToAllSinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.New()

	first := mocks.NewMockSink(ctrl)
	second := mocks.NewMockSink(ctrl)
	first.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	second.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	publisher := events.NewPublisher(log, 8)
	worker := events.NewWorker(publisher, log, first, second)

	ctx := context.Background()
	publisher.Emit(ctx, events.Event{Type: events.TypePause, Actor: "treasury"})
	publisher.Emit(ctx, events.Event{Type: events.TypeUnpause, Actor: "treasury"})
	publisher.Close()

	require.NoError(t, worker.Run(ctx))
}

func TestWorkerSurvivesFailingSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := logger.New()

	failing := mocks.NewMockSink(ctrl)
	healthy := mocks.NewMockSink(ctrl)
	failing.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
	healthy.EXPECT().Deliver(gomock.Any(), gomock.Any()).Return(nil)

	publisher := events.NewPublisher(log, 8)
	worker := events.NewWorker(publisher, log, failing, healthy)

	publisher.Emit(context.Background(), events.Event{Type: events.TypeBlacklist, Account: "mallory"})
	publisher.Close()

	// A failing sink must not stop delivery to the others.
	require.NoError(t, worker.Run(context.Background()))
}

func TestWorkerDrainsBufferedEventsOnCancel(t *testing.T) {
	log := logger.New()
	publisher := events.NewPublisher(log, 8)
	sink := events.NewMemorySink()
	worker := events.NewWorker(publisher, log, sink)

	bg := context.Background()
	publisher.Emit(bg, events.Event{Type: events.TypeMint, MintID: 1})
	publisher.Emit(bg, events.Event{Type: events.TypeMint, MintID: 2})

	ctx, cancel := context.WithCancel(bg)
	cancel()
	err := worker.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	assert.Len(t, sink.List(), 2)
}
