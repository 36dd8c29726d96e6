package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FakeClock is a controllable clock for driving deadlines in tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MemUserRepo is an in-memory UserRepository. UpdateErr, when set, makes
// Update fail, for exercising partial-resolution paths.
type MemUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*domain.User
	UpdateErr error
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *MemUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *MemUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemUserRepo) GetByDisplayName(ctx context.Context, displayName string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.DisplayName == displayName {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateErr != nil {
		return r.UpdateErr
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// MemTransactionRepo is an in-memory TransactionRepository.
type MemTransactionRepo struct {
	mu        sync.Mutex
	txns      []*domain.CoinTransaction
	SumErr    error
	CreateErr error
}

func NewMemTransactionRepo() *MemTransactionRepo {
	return &MemTransactionRepo{}
}

func (r *MemTransactionRepo) Create(ctx context.Context, txn *domain.CoinTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	copied := *txn
	r.txns = append(r.txns, &copied)
	return nil
}

func (r *MemTransactionRepo) SumForUserSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SumErr != nil {
		return 0, r.SumErr
	}
	total := 0
	for _, txn := range r.txns {
		if txn.UserID == userID && !txn.CreatedAt.Before(since) {
			total += txn.Amount
		}
	}
	return total, nil
}

func (r *MemTransactionRepo) SumForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SumErr != nil {
		return 0, r.SumErr
	}
	total := 0
	for _, txn := range r.txns {
		if txn.UserID == userID {
			total += txn.Amount
		}
	}
	return total, nil
}

func (r *MemTransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CoinTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CoinTransaction
	for _, txn := range r.txns {
		if txn.UserID == userID {
			copied := *txn
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns every stored transaction, newest last.
func (r *MemTransactionRepo) All() []*domain.CoinTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.CoinTransaction, len(r.txns))
	copy(out, r.txns)
	return out
}

// MemOutcomeRepo is an in-memory OutcomeRepository.
type MemOutcomeRepo struct {
	mu        sync.Mutex
	outcomes  []*domain.ChallengeOutcome
	CreateErr error
}

func NewMemOutcomeRepo() *MemOutcomeRepo {
	return &MemOutcomeRepo{}
}

func (r *MemOutcomeRepo) Create(ctx context.Context, outcome *domain.ChallengeOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	copied := *outcome
	r.outcomes = append(r.outcomes, &copied)
	return nil
}

func (r *MemOutcomeRepo) GetByUserAndDay(ctx context.Context, userID uuid.UUID, day string) (*domain.ChallengeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.outcomes {
		if o.UserID == userID && o.Day == day {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemOutcomeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ChallengeOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ChallengeOutcome
	for _, o := range r.outcomes {
		if o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day > out[j].Day })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountFor reports how many outcome records exist for (userID, day).
func (r *MemOutcomeRepo) CountFor(userID uuid.UUID, day string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, o := range r.outcomes {
		if o.UserID == userID && o.Day == day {
			count++
		}
	}
	return count
}

// MemGroupRepo is an in-memory GroupRepository backed by a member list per
// group.
type MemGroupRepo struct {
	mu      sync.Mutex
	groups  map[uuid.UUID]*domain.Group
	members map[uuid.UUID][]uuid.UUID
}

func NewMemGroupRepo() *MemGroupRepo {
	return &MemGroupRepo{
		groups:  make(map[uuid.UUID]*domain.Group),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *MemGroupRepo) Create(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *MemGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *group
	return &copied, nil
}

func (r *MemGroupRepo) MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, len(r.members[groupID]))
	copy(out, r.members[groupID])
	return out, nil
}

// SetMembers replaces a group's member list.
func (r *MemGroupRepo) SetMembers(groupID uuid.UUID, memberIDs []uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[groupID] = memberIDs
}

// MemPairRepo is an in-memory PairRepository.
type MemPairRepo struct {
	mu    sync.Mutex
	pairs map[string][]*domain.PairAssignment
}

func NewMemPairRepo() *MemPairRepo {
	return &MemPairRepo{pairs: make(map[string][]*domain.PairAssignment)}
}

func pairKey(groupID uuid.UUID, day string) string {
	return groupID.String() + "|" + day
}

func (r *MemPairRepo) ReplaceForDay(ctx context.Context, groupID uuid.UUID, day string, pairs []*domain.PairAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make([]*domain.PairAssignment, len(pairs))
	for i, p := range pairs {
		c := *p
		copied[i] = &c
	}
	r.pairs[pairKey(groupID, day)] = copied
	return nil
}

func (r *MemPairRepo) GetForDay(ctx context.Context, groupID uuid.UUID, day string) ([]*domain.PairAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.pairs[pairKey(groupID, day)]
	out := make([]*domain.PairAssignment, len(stored))
	for i, p := range stored {
		c := *p
		out[i] = &c
	}
	return out, nil
}
