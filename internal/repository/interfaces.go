package repository

import (
	"context"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *domain.UserSession) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserSession, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

type PairRepository interface {
	// ReplaceForDay discards any previously generated set for the group-day
	// and persists the new one atomically.
	ReplaceForDay(ctx context.Context, groupID uuid.UUID, day string, pairs []*domain.PairAssignment) error
	GetForDay(ctx context.Context, groupID uuid.UUID, day string) ([]*domain.PairAssignment, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, txn *domain.CoinTransaction) error
	SumForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	SumForUser(ctx context.Context, userID uuid.UUID) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CoinTransaction, error)
}

type OutcomeRepository interface {
	Create(ctx context.Context, outcome *domain.ChallengeOutcome) error
	GetByUserAndDay(ctx context.Context, userID uuid.UUID, day string) (*domain.ChallengeOutcome, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ChallengeOutcome, error)
}

type Repositories struct {
	User        UserRepository
	Session     SessionRepository
	Group       GroupRepository
	Pair        PairRepository
	Transaction TransactionRepository
	Outcome     OutcomeRepository
}
