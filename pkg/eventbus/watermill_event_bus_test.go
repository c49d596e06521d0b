package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docket-io/docket/pkg/channels/gochannel"
	"github.com/docket-io/docket/pkg/events"
	"github.com/docket-io/docket/pkg/models"
)

func testBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	return NewWatermillEventBus(pub, sub)
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := testBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan any, 1)

	require.NoError(t, bus.Handle(events.CasePhaseChangedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	event := events.CasePhaseChanged{
		BaseEvent:   events.NewBaseEvent(events.CasePhaseChangedEvent, "case-1"),
		FromPhase:   models.PhaseIntakeRiskAssessment,
		ToPhase:     models.PhasePreProceedingPreparation,
		PerformedBy: "user-1",
	}

	require.NoError(t, bus.Publish(ctx, "case-1", event))

	select {
	case got := <-received:
		changed, ok := got.(*events.CasePhaseChanged)
		require.True(t, ok)
		assert.Equal(t, "case-1", changed.CaseID)
		assert.Equal(t, models.PhasePreProceedingPreparation, changed.ToPhase)
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the handler")
	}
}

func TestWatermillEventBus_UnhandledTypeIsAcked(t *testing.T) {
	bus := testBus(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	event := events.TaskCreated{
		BaseEvent: events.NewBaseEvent(events.TaskCreatedEvent, "case-1"),
		TaskID:    "t-1",
	}

	assert.NoError(t, bus.Publish(ctx, "case-1", event),
		"publishing without a registered handler must not error")
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := testBus(t)

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
