package engine_test

import (
	"testing"
	"time"

	"github.com/dtran/focus-rival/internal/clockstore"
	"github.com/dtran/focus-rival/internal/engine"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/dtran/focus-rival/internal/service"
	"github.com/dtran/focus-rival/internal/testutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*engine.Manager, *testutil.MemUserRepo) {
	t.Helper()

	userRepo := testutil.NewMemUserRepo()
	txnRepo := testutil.NewMemTransactionRepo()
	outcomeRepo := testutil.NewMemOutcomeRepo()
	bus := events.NewBus()
	ledger := service.NewLedgerService(txnRepo, userRepo)
	resolver := service.NewChallengeResolver(userRepo, outcomeRepo, ledger, bus, zerolog.Nop())
	clock := testutil.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	return engine.NewManager(
		clock,
		clockstore.NewMemoryStore(),
		resolver,
		&stubPicker{opponentID: uuid.New()},
		ledger,
		bus,
		zerolog.Nop(),
		24*time.Hour,
		10*time.Millisecond,
	), userRepo
}

func TestManager_LazyEngineCreation(t *testing.T) {
	m, userRepo := newTestManager(t)
	owner := testutil.NewMemUser(t, userRepo, "owner")

	first, err := m.Engine(t.Context(), owner.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	// The restored engine opened a rotation window
	_, rotation := first.Snapshot()
	assert.False(t, rotation.NextRotation.IsZero())

	second, err := m.Engine(t.Context(), owner.ID)
	require.NoError(t, err)
	assert.Same(t, first, second, "one engine per owner")

	other, err := m.Engine(t.Context(), uuid.New())
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestManager_RunTicksEngines(t *testing.T) {
	m, userRepo := newTestManager(t)
	owner := testutil.NewMemUser(t, userRepo, "owner")

	eng, err := m.Engine(t.Context(), owner.ID)
	require.NoError(t, err)
	_, err = eng.StartFocusSession(t.Context(), 1500, 25)
	require.NoError(t, err)

	go m.Run()
	time.Sleep(50 * time.Millisecond)
	m.Stop()

	session, _ := eng.Snapshot()
	require.NotNil(t, session, "session survives ticks while its deadline is in the future")
}

func TestManager_StopIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)

	go m.Run()
	m.Stop()
	m.Stop()
}
