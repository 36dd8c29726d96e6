package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dtran/focus-rival/internal/clockstore"
	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/engine"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/dtran/focus-rival/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPicker always proposes the same opponent.
type stubPicker struct {
	opponentID uuid.UUID
}

func (p *stubPicker) NextOpponent(ctx context.Context, userID uuid.UUID, day string) (uuid.UUID, error) {
	return p.opponentID, nil
}

// flakyStore wraps a real store with injectable write failures.
type flakyStore struct {
	clockstore.Store
	mu     sync.Mutex
	setErr error
}

func (s *flakyStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setErr = err
}

func (s *flakyStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	err := s.setErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Store.Set(ctx, key, value)
}

// gatedStore parks every Set on a barrier so tests can hold several writers
// inside the persist step at once.
type gatedStore struct {
	clockstore.Store
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) Set(ctx context.Context, key string, value any) error {
	s.entered <- struct{}{}
	<-s.release
	return s.Store.Set(ctx, key, value)
}

// flakyResolver delegates to a real resolver but can be forced to fail.
type flakyResolver struct {
	inner engine.Resolver
	mu    sync.Mutex
	err   error
}

func (r *flakyResolver) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *flakyResolver) Resolve(ctx context.Context, userID, opponentID uuid.UUID, day string, since time.Time) (*domain.ChallengeOutcome, error) {
	r.mu.Lock()
	err := r.err
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.inner.Resolve(ctx, userID, opponentID, day, since)
}

type engineFixture struct {
	clock       *testutil.FakeClock
	store       *flakyStore
	bus         *events.Bus
	userRepo    *testutil.MemUserRepo
	txnRepo     *testutil.MemTransactionRepo
	outcomeRepo *testutil.MemOutcomeRepo
	resolver    *flakyResolver
	owner       *domain.User
	opponent    *domain.User
	engine      *engine.Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		clock:       testutil.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		store:       &flakyStore{Store: clockstore.NewMemoryStore()},
		bus:         events.NewBus(),
		userRepo:    testutil.NewMemUserRepo(),
		txnRepo:     testutil.NewMemTransactionRepo(),
		outcomeRepo: testutil.NewMemOutcomeRepo(),
	}
	f.owner = testutil.NewMemUser(t, f.userRepo, "owner")
	f.opponent = testutil.NewMemUser(t, f.userRepo, "rival")

	ledger := service.NewLedgerService(f.txnRepo, f.userRepo)
	f.resolver = &flakyResolver{
		inner: service.NewChallengeResolver(f.userRepo, f.outcomeRepo, ledger, f.bus, zerolog.Nop()),
	}
	f.engine = engine.NewEngine(
		f.owner.ID,
		f.clock,
		f.store,
		f.resolver,
		&stubPicker{opponentID: f.opponent.ID},
		ledger,
		f.bus,
		zerolog.Nop(),
		24*time.Hour,
	)
	return f
}

// restored builds a fixture and runs the first-boot reconciliation so the
// rotation window is open.
func restored(t *testing.T) *engineFixture {
	t.Helper()
	f := newEngineFixture(t)
	require.NoError(t, f.engine.Restore(t.Context()))
	return f
}

// record subscribes an event recorder; call it after setup so fixture noise
// stays out of the assertions.
func record(f *engineFixture) *[]events.Event {
	var got []events.Event
	var mu sync.Mutex
	f.bus.Subscribe(func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	return &got
}

func TestStartFocusSession_RemainingEqualsDuration(t *testing.T) {
	f := restored(t)

	session, err := f.engine.StartFocusSession(t.Context(), 1500, 25)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStateRunning, session.State)
	assert.Equal(t, f.owner.ID, session.OwnerID)

	assert.Equal(t, 1500*time.Second, f.engine.TickFocusSession(t.Context()))

	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 900*time.Second, f.engine.TickFocusSession(t.Context()))
}

func TestStartFocusSession_Conflict(t *testing.T) {
	f := restored(t)

	_, err := f.engine.StartFocusSession(t.Context(), 1500, 25)
	require.NoError(t, err)

	_, err = f.engine.StartFocusSession(t.Context(), 300, 5)
	assert.ErrorIs(t, err, domain.ErrSessionConflict)
}

func TestStartFocusSession_ConcurrentStartsYieldOneSession(t *testing.T) {
	clock := testutil.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	store := &gatedStore{
		Store:   clockstore.NewMemoryStore(),
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	bus := events.NewBus()
	userRepo := testutil.NewMemUserRepo()
	txnRepo := testutil.NewMemTransactionRepo()
	owner := testutil.NewMemUser(t, userRepo, "owner")
	rival := testutil.NewMemUser(t, userRepo, "rival")
	ledger := service.NewLedgerService(txnRepo, userRepo)
	resolver := &flakyResolver{
		inner: service.NewChallengeResolver(userRepo, testutil.NewMemOutcomeRepo(), ledger, bus, zerolog.Nop()),
	}
	eng := engine.NewEngine(
		owner.ID,
		clock,
		store,
		resolver,
		&stubPicker{opponentID: rival.ID},
		ledger,
		bus,
		zerolog.Nop(),
		24*time.Hour,
	)

	go func() {
		// Restore's rotation write parks on the barrier too.
		<-store.entered
		store.release <- struct{}{}
	}()
	require.NoError(t, eng.Restore(t.Context()))

	firstErr := make(chan error, 1)
	go func() {
		_, err := eng.StartFocusSession(context.Background(), 1500, 25)
		firstErr <- err
	}()

	// The first start is parked inside the durable write; the slot is
	// already reserved, so a second start must observe the conflict.
	<-store.entered
	_, err := eng.StartFocusSession(t.Context(), 300, 5)
	assert.ErrorIs(t, err, domain.ErrSessionConflict)

	store.release <- struct{}{}
	require.NoError(t, <-firstErr)

	current, _ := eng.Snapshot()
	require.NotNil(t, current)
	assert.Equal(t, 25*time.Minute, current.Remaining(clock.Now()))
}

func TestStartFocusSession_PersistFailure(t *testing.T) {
	f := restored(t)
	f.store.FailWrites(errors.New("disk full"))

	session, err := f.engine.StartFocusSession(t.Context(), 1500, 25)
	require.Error(t, err)
	assert.Nil(t, session)

	// The failed start left no trace: no countdown, and the slot is free
	assert.Equal(t, time.Duration(0), f.engine.TickFocusSession(t.Context()))
	current, _ := f.engine.Snapshot()
	assert.Nil(t, current)

	f.store.FailWrites(nil)
	_, err = f.engine.StartFocusSession(t.Context(), 1500, 25)
	assert.NoError(t, err)
}

func TestCancelFocusSession_NoopWithoutSession(t *testing.T) {
	f := restored(t)
	got := record(f)

	f.engine.CancelFocusSession(t.Context())
	assert.Empty(t, *got)
}

func TestCancelFocusSession_FreesSlotImmediately(t *testing.T) {
	f := restored(t)
	first, err := f.engine.StartFocusSession(t.Context(), 1500, 25)
	require.NoError(t, err)
	got := record(f)

	f.engine.CancelFocusSession(t.Context())

	require.Len(t, *got, 1)
	assert.Equal(t, events.TypeFocusCancelled, (*got)[0].Type)
	payload, ok := (*got)[0].Payload.(events.FocusCancelledPayload)
	require.True(t, ok)
	assert.Equal(t, first.ID, payload.Session.ID)
	assert.Equal(t, domain.SessionStateCancelled, payload.Session.State)

	// No reward for a cancelled session
	assert.Empty(t, f.txnRepo.All())

	second, err := f.engine.StartFocusSession(t.Context(), 300, 5)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFocusSession_CompletionAwardsReward(t *testing.T) {
	f := restored(t)
	session, err := f.engine.StartFocusSession(t.Context(), 30, 2)
	require.NoError(t, err)
	got := record(f)

	f.clock.Advance(29 * time.Second)
	assert.Equal(t, time.Second, f.engine.TickFocusSession(t.Context()))
	assert.Empty(t, *got)

	f.clock.Advance(time.Second)
	assert.Equal(t, time.Duration(0), f.engine.TickFocusSession(t.Context()))

	require.Len(t, *got, 1)
	assert.Equal(t, events.TypeFocusCompleted, (*got)[0].Type)

	txns := f.txnRepo.All()
	require.Len(t, txns, 1)
	assert.Equal(t, 2, txns[0].Amount)
	assert.Equal(t, f.owner.ID, txns[0].UserID)
	require.NotNil(t, txns[0].SessionID)
	assert.Equal(t, session.ID, *txns[0].SessionID)

	owner, err := f.userRepo.GetByID(t.Context(), f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, owner.Coins, "lifetime total recomputed from the ledger")

	// The durable slot is cleared and a new session can start
	_, err = f.engine.StartFocusSession(t.Context(), 1500, 25)
	assert.NoError(t, err)
}

func TestRestore_CompletesExpiredSessionWithoutTick(t *testing.T) {
	f := newEngineFixture(t)

	// A session persisted by a previous process whose deadline passed while
	// the process was down.
	stale := &domain.FocusSession{
		ID:              uuid.New(),
		OwnerID:         f.owner.ID,
		Deadline:        f.clock.Now().Add(-time.Minute),
		DurationSeconds: 60,
		CoinsReward:     3,
		State:           domain.SessionStateRunning,
	}
	require.NoError(t, f.store.Set(t.Context(), clockstore.ActiveSessionKey(f.owner.ID), stale))
	got := record(f)

	require.NoError(t, f.engine.Restore(t.Context()))

	require.NotEmpty(t, *got)
	assert.Equal(t, events.TypeFocusCompleted, (*got)[0].Type)
	payload, ok := (*got)[0].Payload.(events.FocusCompletedPayload)
	require.True(t, ok)
	assert.Equal(t, stale.ID, payload.Session.ID)

	txns := f.txnRepo.All()
	require.Len(t, txns, 1)
	assert.Equal(t, 3, txns[0].Amount)
}

func TestRestore_ResumesRunningSession(t *testing.T) {
	f := newEngineFixture(t)

	running := &domain.FocusSession{
		ID:              uuid.New(),
		OwnerID:         f.owner.ID,
		Deadline:        f.clock.Now().Add(10 * time.Minute),
		DurationSeconds: 1500,
		CoinsReward:     25,
		State:           domain.SessionStateRunning,
	}
	require.NoError(t, f.store.Set(t.Context(), clockstore.ActiveSessionKey(f.owner.ID), running))

	require.NoError(t, f.engine.Restore(t.Context()))

	// Remaining time is deadline minus now, not a resumed elapsed counter
	assert.Equal(t, 10*time.Minute, f.engine.TickFocusSession(t.Context()))
}

func TestRestore_FirstRunAssignsOpponent(t *testing.T) {
	f := newEngineFixture(t)
	got := record(f)

	require.NoError(t, f.engine.Restore(t.Context()))

	require.Len(t, *got, 1)
	assert.Equal(t, events.TypeOpponentRotated, (*got)[0].Type)

	_, rotation := f.engine.Snapshot()
	assert.Equal(t, f.opponent.ID, rotation.CurrentOpponentID)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), rotation.NextRotation)
}

func TestForceRotation_ResolvesBeforeRotating(t *testing.T) {
	f := restored(t)
	since := f.clock.Now()
	testutil.NewTransaction(t, f.txnRepo, f.owner.ID, 12, since.Add(time.Hour))
	testutil.NewTransaction(t, f.txnRepo, f.opponent.ID, 5, since.Add(time.Hour))
	f.clock.Advance(24 * time.Hour)
	got := record(f)

	require.NoError(t, f.engine.ForceRotation(t.Context()))

	require.Len(t, *got, 2)
	assert.Equal(t, events.TypeChallengeResolved, (*got)[0].Type, "previous window is scored before the new opponent is announced")
	assert.Equal(t, events.TypeOpponentRotated, (*got)[1].Type)

	payload, ok := (*got)[0].Payload.(events.ChallengeResolvedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeWin, payload.Outcome.Outcome)
	assert.Equal(t, 12, payload.Outcome.UserNetScore)

	_, rotation := f.engine.Snapshot()
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), rotation.NextRotation)
	assert.Equal(t, f.clock.Now(), rotation.LastResolution)
}

func TestRotation_ProceedsWhenResolutionFails(t *testing.T) {
	f := restored(t)
	f.clock.Advance(24 * time.Hour)
	f.resolver.Fail(errors.New("resolver unavailable"))
	got := record(f)

	require.NoError(t, f.engine.ForceRotation(t.Context()))

	// Rotation advanced anyway and the unresolved window was durably recorded
	require.Len(t, *got, 1)
	assert.Equal(t, events.TypeOpponentRotated, (*got)[0].Type)

	var pending map[string]any
	found, err := f.store.Get(t.Context(), clockstore.PendingResolutionKey(f.owner.ID), &pending)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRecheck_RetriesPendingResolution(t *testing.T) {
	f := restored(t)
	day := domain.DayOf(f.clock.Now().Add(24 * time.Hour))
	f.clock.Advance(24 * time.Hour)
	f.resolver.Fail(errors.New("resolver unavailable"))
	require.NoError(t, f.engine.ForceRotation(t.Context()))

	f.resolver.Fail(nil)
	require.NoError(t, f.engine.Recheck(t.Context()))

	assert.Equal(t, 1, f.outcomeRepo.CountFor(f.owner.ID, day))

	var pending map[string]any
	found, err := f.store.Get(t.Context(), clockstore.PendingResolutionKey(f.owner.ID), &pending)
	require.NoError(t, err)
	assert.False(t, found, "pending marker cleared after a successful retry")
}

func TestRecheck_RotatesWhenOverdue(t *testing.T) {
	f := restored(t)
	got := record(f)

	require.NoError(t, f.engine.Recheck(t.Context()))
	assert.Empty(t, *got, "nothing due, nothing emitted")

	f.clock.Advance(25 * time.Hour)
	require.NoError(t, f.engine.Recheck(t.Context()))

	var rotated bool
	for _, e := range *got {
		if e.Type == events.TypeOpponentRotated {
			rotated = true
		}
	}
	assert.True(t, rotated)
}

func TestTick_PublishesTimerTick(t *testing.T) {
	f := restored(t)
	_, err := f.engine.StartFocusSession(t.Context(), 120, 1)
	require.NoError(t, err)
	got := record(f)

	f.clock.Advance(30 * time.Second)
	f.engine.Tick(t.Context())

	require.Len(t, *got, 1)
	require.Equal(t, events.TypeTimerTick, (*got)[0].Type)
	payload, ok := (*got)[0].Payload.(events.TimerTickPayload)
	require.True(t, ok)
	assert.Equal(t, 90, payload.FocusRemainingSeconds)
	assert.True(t, payload.FocusActive)
	assert.Greater(t, payload.RotationRemainingSeconds, 0)
}
