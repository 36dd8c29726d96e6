package domain

import (
	"time"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionStateReady     SessionState = "ready"
	SessionStateRunning   SessionState = "running"
	SessionStateCompleted SessionState = "completed"
	SessionStateCancelled SessionState = "cancelled"
)

// FocusSession is a bounded countdown owned by the timer engine. The deadline
// is absolute wall-clock time; remaining time is always deadline minus now,
// never an incrementing counter, so a suspended process picks up where the
// clock actually is.
type FocusSession struct {
	ID              uuid.UUID    `json:"id"`
	OwnerID         uuid.UUID    `json:"ownerId"`
	Deadline        time.Time    `json:"deadline"`
	DurationSeconds int          `json:"durationSeconds"`
	CoinsReward     int          `json:"coinsReward"`
	State           SessionState `json:"state"`
}

func (s *FocusSession) Remaining(now time.Time) time.Duration {
	remaining := s.Deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RotationState tracks the current daily opponent and when the next rotation
// is due. LastResolution is the lower bound of the current challenge window:
// coin transactions before it do not count toward today's net score.
type RotationState struct {
	CurrentOpponentID uuid.UUID `json:"currentOpponentId"`
	NextRotation      time.Time `json:"nextRotation"`
	LastResolution    time.Time `json:"lastResolution"`
}

func (r *RotationState) Remaining(now time.Time) time.Duration {
	remaining := r.NextRotation.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
