package domain

import (
	"time"

	"github.com/google/uuid"
)

type OutcomeKind string

const (
	OutcomeWin  OutcomeKind = "win"
	OutcomeLoss OutcomeKind = "loss"
	OutcomeTie  OutcomeKind = "tie"
)

// Mirror returns the opponent's view of an outcome.
func (o OutcomeKind) Mirror() OutcomeKind {
	switch o {
	case OutcomeWin:
		return OutcomeLoss
	case OutcomeLoss:
		return OutcomeWin
	default:
		return OutcomeTie
	}
}

// ChallengeOutcome is the immutable audit record of a resolved challenge.
// At most one exists per (UserID, Day); once written it is never updated.
type ChallengeOutcome struct {
	ID               uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID   `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_outcome_user_day"`
	OpponentID       uuid.UUID   `json:"opponentId" gorm:"type:uuid;not null"`
	UserNetScore     int         `json:"userNetScore" gorm:"not null"`
	OpponentNetScore int         `json:"opponentNetScore" gorm:"not null"`
	Outcome          OutcomeKind `json:"outcome" gorm:"not null"`
	Day              string      `json:"day" gorm:"not null;uniqueIndex:idx_outcome_user_day"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// DayOf formats a timestamp as the calendar-day key used throughout the store.
func DayOf(t time.Time) string {
	return t.Format("2006-01-02")
}

// CompareNetScores applies the outcome rule for the user's side.
func CompareNetScores(userNet, opponentNet int) OutcomeKind {
	switch {
	case userNet > opponentNet:
		return OutcomeWin
	case userNet < opponentNet:
		return OutcomeLoss
	default:
		return OutcomeTie
	}
}
