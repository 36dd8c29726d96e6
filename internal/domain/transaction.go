package domain

import (
	"time"

	"github.com/google/uuid"
)

type TransactionSource string

const (
	TransactionSourceFocus  TransactionSource = "focus_session"
	TransactionSourceManual TransactionSource = "manual"
)

// CoinTransaction is an append-only ledger entry. The challenge window's net
// score is the sum of a user's entries at or after the rotation's last
// resolution timestamp; the lifetime coin total is the sum over all entries.
type CoinTransaction struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID         `json:"userId" gorm:"type:uuid;not null;index"`
	Amount    int               `json:"amount" gorm:"not null"`
	Source    TransactionSource `json:"source" gorm:"not null;default:'manual'"`
	SessionID *uuid.UUID        `json:"sessionId" gorm:"type:uuid"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index"`
}
