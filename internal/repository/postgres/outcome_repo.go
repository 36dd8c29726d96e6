package postgres

import (
	"context"
	"errors"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type outcomeRepository struct {
	db *gorm.DB
}

func NewOutcomeRepository(db *gorm.DB) *outcomeRepository {
	return &outcomeRepository{db: db}
}

func (r *outcomeRepository) Create(ctx context.Context, outcome *domain.ChallengeOutcome) error {
	return r.db.WithContext(ctx).Create(outcome).Error
}

func (r *outcomeRepository) GetByUserAndDay(ctx context.Context, userID uuid.UUID, day string) (*domain.ChallengeOutcome, error) {
	var outcome domain.ChallengeOutcome
	err := r.db.WithContext(ctx).First(&outcome, "user_id = ? AND day = ?", userID, day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (r *outcomeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ChallengeOutcome, error) {
	var outcomes []*domain.ChallengeOutcome
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("day DESC").
		Limit(limit).
		Find(&outcomes).Error
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}
