package postgres

import (
	"github.com/dtran/focus-rival/internal/clockstore"
	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate tables
	err = db.AutoMigrate(
		&domain.User{},
		&domain.UserSession{},
		&domain.Group{},
		&domain.PairAssignment{},
		&domain.CoinTransaction{},
		&domain.ChallengeOutcome{},
		&clockstore.Entry{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:        NewUserRepository(db),
		Session:     NewSessionRepository(db),
		Group:       NewGroupRepository(db),
		Pair:        NewPairRepository(db),
		Transaction: NewTransactionRepository(db),
		Outcome:     NewOutcomeRepository(db),
	}
}
