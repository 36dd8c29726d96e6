package postgres

import (
	"context"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type pairRepository struct {
	db *gorm.DB
}

func NewPairRepository(db *gorm.DB) *pairRepository {
	return &pairRepository{db: db}
}

func (r *pairRepository) ReplaceForDay(ctx context.Context, groupID uuid.UUID, day string, pairs []*domain.PairAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.PairAssignment{}, "group_id = ? AND day = ?", groupID, day).Error; err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		return tx.Create(pairs).Error
	})
}

func (r *pairRepository) GetForDay(ctx context.Context, groupID uuid.UUID, day string) ([]*domain.PairAssignment, error) {
	var pairs []*domain.PairAssignment
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND day = ?", groupID, day).
		Order("created_at ASC").
		Find(&pairs).Error
	if err != nil {
		return nil, err
	}
	return pairs, nil
}
