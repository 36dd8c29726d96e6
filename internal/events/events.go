package events

import (
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
)

type Type string

const (
	TypeOpponentRotated   Type = "OPPONENT_ROTATED"
	TypeChallengeResolved Type = "CHALLENGE_RESOLVED"
	TypeFocusCompleted    Type = "FOCUS_COMPLETED"
	TypeFocusCancelled    Type = "FOCUS_CANCELLED"
	TypeTimerTick         Type = "TIMER_TICK"
)

// Event is one published occurrence. OwnerID identifies whose timers the
// event belongs to; Payload is one of the typed payload structs below.
type Event struct {
	Type      Type      `json:"type"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

type OpponentRotatedPayload struct {
	NewOpponentID uuid.UUID `json:"newOpponentId"`
}

type ChallengeResolvedPayload struct {
	Outcome domain.ChallengeOutcome `json:"outcome"`
}

type FocusCompletedPayload struct {
	Session domain.FocusSession `json:"session"`
}

type FocusCancelledPayload struct {
	Session domain.FocusSession `json:"session"`
}

type TimerTickPayload struct {
	RotationRemainingSeconds int  `json:"rotationRemainingSeconds"`
	FocusRemainingSeconds    int  `json:"focusRemainingSeconds"`
	FocusActive              bool `json:"focusActive"`
}
