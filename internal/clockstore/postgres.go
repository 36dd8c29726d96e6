package clockstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Entry is the backing row for the persistent store.
type Entry struct {
	Key       string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "clock_entries" }

type postgresStore struct {
	db *gorm.DB
}

// NewPostgresStore returns a Store backed by the clock_entries table.
func NewPostgresStore(db *gorm.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Get(ctx context.Context, key string, out any) (bool, error) {
	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		return false, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	return true, nil
}

func (s *postgresStore) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	entry := Entry{Key: key, Value: datatypes.JSON(data), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *postgresStore) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&Entry{}, "key = ?", key).Error; err != nil {
		return &domain.StorageError{Op: "remove", Key: key, Err: err}
	}
	return nil
}
