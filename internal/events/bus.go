package events

import (
	"sync"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
)

// Bus is an in-process publish/subscribe fan-out. Dispatch is synchronous and
// in emission order: Publish calls every subscriber before returning, in the
// order they subscribed. Subscribers must not block.
type Bus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all events and returns an unsubscribe
// function.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subscribers {
			if sub.id == id {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	subs := make([]subscription, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(event)
	}
}

// --- Typed publish helpers ---

func (b *Bus) OpponentRotated(ownerID, newOpponentID uuid.UUID) {
	b.Publish(Event{
		Type:    TypeOpponentRotated,
		OwnerID: ownerID,
		Payload: OpponentRotatedPayload{NewOpponentID: newOpponentID},
	})
}

func (b *Bus) ChallengeResolved(outcome domain.ChallengeOutcome) {
	b.Publish(Event{
		Type:    TypeChallengeResolved,
		OwnerID: outcome.UserID,
		Payload: ChallengeResolvedPayload{Outcome: outcome},
	})
}

func (b *Bus) FocusCompleted(session domain.FocusSession) {
	b.Publish(Event{
		Type:    TypeFocusCompleted,
		OwnerID: session.OwnerID,
		Payload: FocusCompletedPayload{Session: session},
	})
}

func (b *Bus) FocusCancelled(session domain.FocusSession) {
	b.Publish(Event{
		Type:    TypeFocusCancelled,
		OwnerID: session.OwnerID,
		Payload: FocusCancelledPayload{Session: session},
	})
}

func (b *Bus) TimerTick(ownerID uuid.UUID, rotationRemaining, focusRemaining time.Duration, focusActive bool) {
	b.Publish(Event{
		Type:    TypeTimerTick,
		OwnerID: ownerID,
		Payload: TimerTickPayload{
			RotationRemainingSeconds: int(rotationRemaining.Seconds()),
			FocusRemainingSeconds:    int(focusRemaining.Seconds()),
			FocusActive:              focusActive,
		},
	})
}
