package service

import (
	"context"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/repository"
	"github.com/google/uuid"
)

// LedgerService owns the append-only coin ledger. Net scores for the current
// challenge window and the lifetime coin total are both derived from it by
// summing, never stored incrementally.
type LedgerService struct {
	txnRepo  repository.TransactionRepository
	userRepo repository.UserRepository
}

func NewLedgerService(txnRepo repository.TransactionRepository, userRepo repository.UserRepository) *LedgerService {
	return &LedgerService{
		txnRepo:  txnRepo,
		userRepo: userRepo,
	}
}

// Award appends a ledger entry for a completed focus session.
func (s *LedgerService) Award(ctx context.Context, userID uuid.UUID, amount int, sessionID uuid.UUID) error {
	txn := &domain.CoinTransaction{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Source:    domain.TransactionSourceFocus,
		SessionID: &sessionID,
		CreatedAt: time.Now(),
	}
	return s.txnRepo.Create(ctx, txn)
}

// NetSince returns the user's net score for entries at or after since.
func (s *LedgerService) NetSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	return s.txnRepo.SumForUserSince(ctx, userID, since)
}

// RefreshLifetimeTotal recomputes the user's lifetime coin total from the
// full ledger and persists it on the user record.
func (s *LedgerService) RefreshLifetimeTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	total, err := s.txnRepo.SumForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	user.Coins = total
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return 0, err
	}
	return total, nil
}

// History returns the user's most recent ledger entries.
func (s *LedgerService) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CoinTransaction, error) {
	return s.txnRepo.ListByUser(ctx, userID, limit)
}
