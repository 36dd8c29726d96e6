package events_test

import (
	"testing"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInEmissionOrder(t *testing.T) {
	bus := events.NewBus()
	owner := uuid.New()

	var got []events.Type
	bus.Subscribe(func(e events.Event) {
		got = append(got, e.Type)
	})

	bus.OpponentRotated(owner, uuid.New())
	bus.FocusCompleted(domain.FocusSession{ID: uuid.New(), OwnerID: owner})
	bus.TimerTick(owner, 0, 0, false)
	bus.FocusCancelled(domain.FocusSession{ID: uuid.New(), OwnerID: owner})

	assert.Equal(t, []events.Type{
		events.TypeOpponentRotated,
		events.TypeFocusCompleted,
		events.TypeTimerTick,
		events.TypeFocusCancelled,
	}, got)
}

func TestBus_DispatchIsSynchronous(t *testing.T) {
	bus := events.NewBus()

	delivered := false
	bus.Subscribe(func(e events.Event) {
		delivered = true
	})

	bus.Publish(events.Event{Type: events.TypeTimerTick})
	assert.True(t, delivered, "Publish returns only after every subscriber ran")
}

func TestBus_FansOutToAllSubscribers(t *testing.T) {
	bus := events.NewBus()

	var first, second []events.Type
	bus.Subscribe(func(e events.Event) { first = append(first, e.Type) })
	bus.Subscribe(func(e events.Event) { second = append(second, e.Type) })

	bus.Publish(events.Event{Type: events.TypeOpponentRotated})
	bus.Publish(events.Event{Type: events.TypeChallengeResolved})

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := events.NewBus()

	var got int
	unsubscribe := bus.Subscribe(func(e events.Event) { got++ })

	bus.Publish(events.Event{Type: events.TypeTimerTick})
	unsubscribe()
	bus.Publish(events.Event{Type: events.TypeTimerTick})

	assert.Equal(t, 1, got)

	// Unsubscribing twice is harmless
	unsubscribe()
}

func TestBus_StampsTimestamp(t *testing.T) {
	bus := events.NewBus()

	var got events.Event
	bus.Subscribe(func(e events.Event) { got = e })

	bus.OpponentRotated(uuid.New(), uuid.New())
	require.False(t, got.Timestamp.IsZero())
}
