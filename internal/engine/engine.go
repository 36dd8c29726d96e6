// Package engine owns the two countdowns of the focus challenge: the daily
// opponent rotation and the bounded focus session. Both are expressed as
// absolute deadlines held in durable storage; remaining time is always
// recomputed as deadline minus now, so the countdowns survive the process
// being suspended or killed and resume from wherever the wall clock actually
// is.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dtran/focus-rival/internal/clockstore"
	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Resolver scores the finished rotation window. Satisfied by
// service.ChallengeResolver.
type Resolver interface {
	Resolve(ctx context.Context, userID, opponentID uuid.UUID, day string, since time.Time) (*domain.ChallengeOutcome, error)
}

// OpponentPicker selects the next daily opponent. Satisfied by
// service.PairingService.
type OpponentPicker interface {
	NextOpponent(ctx context.Context, userID uuid.UUID, day string) (uuid.UUID, error)
}

// Ledger records focus-session rewards. Satisfied by service.LedgerService.
type Ledger interface {
	Award(ctx context.Context, userID uuid.UUID, amount int, sessionID uuid.UUID) error
	RefreshLifetimeTotal(ctx context.Context, userID uuid.UUID) (int, error)
}

// pendingResolution is the durable marker for a window whose resolution
// failed outright while rotation proceeded. It is retried on the next
// foreground re-check.
type pendingResolution struct {
	OpponentID uuid.UUID `json:"opponentId"`
	Day        string    `json:"day"`
	Since      time.Time `json:"since"`
}

// Engine drives one owner's timers. In-memory state is authoritative for the
// current process lifetime; the durable store exists so a restarted process
// can reconcile. The engine is the sole mutator of the focus session and the
// rotation state.
type Engine struct {
	ownerID        uuid.UUID
	clock          Clock
	store          clockstore.Store
	resolver       Resolver
	picker         OpponentPicker
	ledger         Ledger
	bus            *events.Bus
	log            zerolog.Logger
	rotationPeriod time.Duration

	mu       sync.Mutex
	session  *domain.FocusSession
	rotation domain.RotationState

	// rotateMu serializes rotation from natural expiry, manual refresh, and
	// foreground re-check.
	rotateMu sync.Mutex
	rotating bool
}

func NewEngine(
	ownerID uuid.UUID,
	clock Clock,
	store clockstore.Store,
	resolver Resolver,
	picker OpponentPicker,
	ledger Ledger,
	bus *events.Bus,
	log zerolog.Logger,
	rotationPeriod time.Duration,
) *Engine {
	return &Engine{
		ownerID:        ownerID,
		clock:          clock,
		store:          store,
		resolver:       resolver,
		picker:         picker,
		ledger:         ledger,
		bus:            bus,
		log:            log.With().Str("component", "engine").Str("owner", ownerID.String()).Logger(),
		rotationPeriod: rotationPeriod,
	}
}

// Restore reconciles in-memory state against the durable store. A persisted
// session whose deadline has already passed is completed immediately, without
// waiting for a tick, so no session is lost to the process lifecycle. Reads
// are retried; a store that stays unreachable fails Restore.
func (e *Engine) Restore(ctx context.Context) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))

	var session domain.FocusSession
	var sessionFound bool
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		found, err := e.store.Get(ctx, clockstore.ActiveSessionKey(e.ownerID), &session)
		if err != nil {
			return retry.RetryableError(err)
		}
		sessionFound = found
		return nil
	})
	if err != nil {
		return err
	}

	if sessionFound {
		e.mu.Lock()
		e.session = &session
		e.mu.Unlock()
		if !session.Deadline.After(e.clock.Now()) {
			e.completeSession(ctx)
		}
	}

	var rotation domain.RotationState
	var rotationFound bool
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		found, err := e.store.Get(ctx, clockstore.RotationKey(e.ownerID), &rotation)
		if err != nil {
			return retry.RetryableError(err)
		}
		rotationFound = found
		return nil
	})
	if err != nil {
		return err
	}

	if rotationFound {
		e.mu.Lock()
		e.rotation = rotation
		e.mu.Unlock()
		return nil
	}

	// First run for this owner: assign an opponent and start the window.
	return e.initRotation(ctx)
}

func (e *Engine) initRotation(ctx context.Context) error {
	now := e.clock.Now()
	opponent, err := e.picker.NextOpponent(ctx, e.ownerID, domain.DayOf(now))
	if err != nil && !errors.Is(err, domain.ErrNoOpponent) {
		return err
	}

	rotation := domain.RotationState{
		CurrentOpponentID: opponent,
		NextRotation:      now.Add(e.rotationPeriod),
		LastResolution:    now,
	}
	if err := e.store.Set(ctx, clockstore.RotationKey(e.ownerID), rotation); err != nil {
		return err
	}

	e.mu.Lock()
	e.rotation = rotation
	e.mu.Unlock()

	if opponent != uuid.Nil {
		e.bus.OpponentRotated(e.ownerID, opponent)
	}
	return nil
}

// StartFocusSession begins a new countdown. The deadline is persisted before
// the session is returned: a session whose deadline was never durably
// recorded must not exist.
func (e *Engine) StartFocusSession(ctx context.Context, durationSeconds, coinsReward int) (*domain.FocusSession, error) {
	session := &domain.FocusSession{
		ID:              uuid.New(),
		OwnerID:         e.ownerID,
		Deadline:        e.clock.Now().Add(time.Duration(durationSeconds) * time.Second),
		DurationSeconds: durationSeconds,
		CoinsReward:     coinsReward,
		State:           domain.SessionStateRunning,
	}

	// Reserve the slot before the durable write so a concurrent start sees
	// the conflict instead of racing past the check.
	e.mu.Lock()
	if e.session != nil && e.session.State == domain.SessionStateRunning {
		e.mu.Unlock()
		return nil, domain.ErrSessionConflict
	}
	e.session = session
	e.mu.Unlock()

	if err := e.store.Set(ctx, clockstore.ActiveSessionKey(e.ownerID), session); err != nil {
		e.mu.Lock()
		if e.session == session {
			e.session = nil
		}
		e.mu.Unlock()
		return nil, err
	}

	e.log.Info().
		Str("session", session.ID.String()).
		Int("duration", durationSeconds).
		Int("reward", coinsReward).
		Msg("focus session started")

	copied := *session
	return &copied, nil
}

// TickFocusSession recomputes remaining time from the deadline and completes
// the session if it has expired.
func (e *Engine) TickFocusSession(ctx context.Context) time.Duration {
	e.mu.Lock()
	if e.session == nil || e.session.State != domain.SessionStateRunning {
		e.mu.Unlock()
		return 0
	}
	remaining := e.session.Remaining(e.clock.Now())
	e.mu.Unlock()

	if remaining > 0 {
		return remaining
	}

	e.completeSession(ctx)
	return 0
}

// completeSession transitions Running to Completed, clears the durable slot,
// awards the reward, and emits FocusCompleted. Post-transition failures are
// logged; the in-memory transition itself never rolls back.
func (e *Engine) completeSession(ctx context.Context) {
	e.mu.Lock()
	if e.session == nil || e.session.State != domain.SessionStateRunning {
		e.mu.Unlock()
		return
	}
	e.session.State = domain.SessionStateCompleted
	completed := *e.session
	e.session = nil
	e.mu.Unlock()

	if err := e.store.Remove(ctx, clockstore.ActiveSessionKey(e.ownerID)); err != nil {
		e.log.Error().Err(err).Msg("failed to clear completed session")
	}
	if err := e.ledger.Award(ctx, completed.OwnerID, completed.CoinsReward, completed.ID); err != nil {
		e.log.Error().Err(err).Str("session", completed.ID.String()).Msg("failed to award focus reward")
	} else if _, err := e.ledger.RefreshLifetimeTotal(ctx, completed.OwnerID); err != nil {
		e.log.Error().Err(err).Msg("failed to refresh lifetime total")
	}

	e.log.Info().Str("session", completed.ID.String()).Msg("focus session completed")
	e.bus.FocusCompleted(completed)
}

// CancelFocusSession transitions Running to Cancelled. The in-memory state
// flips before the durable record is cleared, so an immediate restart is not
// rejected as a conflict. Cancelling with no active session is a no-op.
func (e *Engine) CancelFocusSession(ctx context.Context) {
	e.mu.Lock()
	if e.session == nil || e.session.State != domain.SessionStateRunning {
		e.mu.Unlock()
		return
	}
	e.session.State = domain.SessionStateCancelled
	cancelled := *e.session
	e.session = nil
	e.mu.Unlock()

	if err := e.store.Remove(ctx, clockstore.ActiveSessionKey(e.ownerID)); err != nil {
		e.log.Error().Err(err).Msg("failed to clear cancelled session")
	}

	e.log.Info().Str("session", cancelled.ID.String()).Msg("focus session cancelled")
	e.bus.FocusCancelled(cancelled)
}

// TickRotation recomputes time until the next rotation and, when due, kicks
// off rotation in the background so the tick itself never blocks on the
// resolver's network calls.
func (e *Engine) TickRotation(ctx context.Context) time.Duration {
	e.mu.Lock()
	remaining := e.rotation.Remaining(e.clock.Now())
	if remaining > 0 || e.rotating {
		e.mu.Unlock()
		return remaining
	}
	e.rotating = true
	e.mu.Unlock()

	go func() {
		defer func() {
			e.mu.Lock()
			e.rotating = false
			e.mu.Unlock()
		}()
		if err := e.rotate(context.WithoutCancel(ctx)); err != nil {
			e.log.Error().Err(err).Msg("rotation failed")
		}
	}()
	return 0
}

// ForceRotation rotates on demand, with the same effect as a natural expiry.
// Safe to call concurrently with one: both paths serialize on rotateMu and
// the resolver is idempotent per (user, day).
func (e *Engine) ForceRotation(ctx context.Context) error {
	return e.rotate(ctx)
}

// rotate resolves the finished window, then commits the new opponent and
// deadline. The new opponent is never observable before the previous
// challenge has been scored or its failure durably recorded for retry.
func (e *Engine) rotate(ctx context.Context) error {
	e.rotateMu.Lock()
	defer e.rotateMu.Unlock()

	e.mu.Lock()
	opponent := e.rotation.CurrentOpponentID
	since := e.rotation.LastResolution
	e.mu.Unlock()

	now := e.clock.Now()
	day := domain.DayOf(now)

	if opponent != uuid.Nil {
		_, err := e.resolver.Resolve(ctx, e.ownerID, opponent, day, since)
		var partial *domain.PartialResolutionError
		switch {
		case err == nil:
		case errors.As(err, &partial):
			// Outcome committed; secondary failures were already logged.
		default:
			// Rotation still advances. Record the unresolved window so the
			// next foreground re-check can retry it.
			e.log.Error().Err(err).Str("day", day).Msg("resolution failed, recording for retry")
			pending := pendingResolution{OpponentID: opponent, Day: day, Since: since}
			if serr := e.store.Set(ctx, clockstore.PendingResolutionKey(e.ownerID), pending); serr != nil {
				e.log.Error().Err(serr).Msg("failed to record pending resolution")
			}
		}
	}

	next, err := e.picker.NextOpponent(ctx, e.ownerID, day)
	if err != nil {
		return err
	}

	rotation := domain.RotationState{
		CurrentOpponentID: next,
		NextRotation:      now.Add(e.rotationPeriod),
		LastResolution:    now,
	}

	e.mu.Lock()
	e.rotation = rotation
	e.mu.Unlock()

	if err := e.store.Set(ctx, clockstore.RotationKey(e.ownerID), rotation); err != nil {
		// In-memory state stays authoritative for this process lifetime.
		e.log.Error().Err(err).Msg("failed to persist rotation state")
	}

	e.log.Info().Str("opponent", next.String()).Msg("opponent rotated")
	e.bus.OpponentRotated(e.ownerID, next)
	return nil
}

// Tick advances both countdowns and publishes the per-second timer event.
func (e *Engine) Tick(ctx context.Context) {
	focusRemaining := e.TickFocusSession(ctx)
	rotationRemaining := e.TickRotation(ctx)

	e.mu.Lock()
	active := e.session != nil && e.session.State == domain.SessionStateRunning
	e.mu.Unlock()

	e.bus.TimerTick(e.ownerID, rotationRemaining, focusRemaining, active)
}

// Recheck runs the app-foreground reconciliation: complete an expired
// session, rotate if overdue, and retry a previously unresolved outcome.
func (e *Engine) Recheck(ctx context.Context) error {
	e.TickFocusSession(ctx)

	e.retryPendingResolution(ctx)

	e.mu.Lock()
	overdue := e.rotation.Remaining(e.clock.Now()) == 0
	e.mu.Unlock()
	if overdue {
		return e.rotate(ctx)
	}
	return nil
}

func (e *Engine) retryPendingResolution(ctx context.Context) {
	var pending pendingResolution
	found, err := e.store.Get(ctx, clockstore.PendingResolutionKey(e.ownerID), &pending)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to read pending resolution")
		return
	}
	if !found {
		return
	}

	_, err = e.resolver.Resolve(ctx, e.ownerID, pending.OpponentID, pending.Day, pending.Since)
	var partial *domain.PartialResolutionError
	if err != nil && !errors.As(err, &partial) {
		e.log.Warn().Err(err).Str("day", pending.Day).Msg("pending resolution retry failed")
		return
	}
	if err := e.store.Remove(ctx, clockstore.PendingResolutionKey(e.ownerID)); err != nil {
		e.log.Error().Err(err).Msg("failed to clear pending resolution")
	}
}

// Snapshot returns the current session (nil if none) and rotation state.
func (e *Engine) Snapshot() (*domain.FocusSession, domain.RotationState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var session *domain.FocusSession
	if e.session != nil {
		copied := *e.session
		session = &copied
	}
	return session, e.rotation
}
