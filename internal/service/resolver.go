package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/dtran/focus-rival/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	winPoints   = 10
	lossPenalty = 5
)

// ChallengeResolver scores a finished rotation window and applies its side
// effects exactly once per (user, day). Resolution can be triggered from a
// natural rotation expiry, a manual refresh, and an app-foreground re-check
// at the same time; calls for the same (user, day) are collapsed through a
// single-flight group and short-circuit on an already-persisted outcome.
type ChallengeResolver struct {
	userRepo    repository.UserRepository
	outcomeRepo repository.OutcomeRepository
	ledger      *LedgerService
	bus         *events.Bus
	log         zerolog.Logger

	flight    singleflight.Group
	pairLocks sync.Map
}

func NewChallengeResolver(
	userRepo repository.UserRepository,
	outcomeRepo repository.OutcomeRepository,
	ledger *LedgerService,
	bus *events.Bus,
	log zerolog.Logger,
) *ChallengeResolver {
	return &ChallengeResolver{
		userRepo:    userRepo,
		outcomeRepo: outcomeRepo,
		ledger:      ledger,
		bus:         bus,
		log:         log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve computes the challenge outcome for the window [since, now) and
// commits it. The returned error may be a *domain.PartialResolutionError, in
// which case the outcome itself was committed and only secondary effects
// failed; rotation must still proceed.
func (r *ChallengeResolver) Resolve(ctx context.Context, userID, opponentID uuid.UUID, day string, since time.Time) (*domain.ChallengeOutcome, error) {
	if userID == opponentID {
		return nil, domain.ErrSelfChallenge
	}

	key := userID.String() + "|" + day
	v, err, _ := r.flight.Do(key, func() (any, error) {
		// Serialize the two directions of the same pairing: the later
		// side then short-circuits on the mirror record instead of
		// re-applying the stat deltas.
		mu := r.pairLock(userID, opponentID, day)
		mu.Lock()
		defer mu.Unlock()
		return r.resolve(ctx, userID, opponentID, day, since)
	})
	outcome, _ := v.(*domain.ChallengeOutcome)
	return outcome, err
}

// pairLock returns the mutex for a pairing's day, keyed independently of
// which side initiates the resolution.
func (r *ChallengeResolver) pairLock(userID, opponentID uuid.UUID, day string) *sync.Mutex {
	lo, hi := userID.String(), opponentID.String()
	if hi < lo {
		lo, hi = hi, lo
	}
	mu, _ := r.pairLocks.LoadOrStore(lo+"|"+hi+"|"+day, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (r *ChallengeResolver) resolve(ctx context.Context, userID, opponentID uuid.UUID, day string, since time.Time) (*domain.ChallengeOutcome, error) {
	// Idempotent short-circuit: a committed outcome is final.
	existing, err := r.outcomeRepo.GetByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("check existing outcome: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	userNet, err := r.ledger.NetSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch net score for %s: %w", userID, err)
	}
	opponentNet, err := r.ledger.NetSince(ctx, opponentID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch net score for %s: %w", opponentID, err)
	}

	kind := domain.CompareNetScores(userNet, opponentNet)
	outcome := &domain.ChallengeOutcome{
		ID:               uuid.New(),
		UserID:           userID,
		OpponentID:       opponentID,
		UserNetScore:     userNet,
		OpponentNetScore: opponentNet,
		Outcome:          kind,
		Day:              day,
		CreatedAt:        time.Now(),
	}

	// Secondary effects are best-effort: failures are collected and reported,
	// never rolled back.
	var partial []error

	if err := r.applyStats(ctx, userID, kind); err != nil {
		partial = append(partial, fmt.Errorf("apply stats for %s: %w", userID, err))
	}
	if err := r.applyStats(ctx, opponentID, kind.Mirror()); err != nil {
		partial = append(partial, fmt.Errorf("apply stats for %s: %w", opponentID, err))
	}

	if _, err := r.ledger.RefreshLifetimeTotal(ctx, userID); err != nil {
		partial = append(partial, fmt.Errorf("refresh lifetime total for %s: %w", userID, err))
	}
	if _, err := r.ledger.RefreshLifetimeTotal(ctx, opponentID); err != nil {
		partial = append(partial, fmt.Errorf("refresh lifetime total for %s: %w", opponentID, err))
	}

	if err := r.outcomeRepo.Create(ctx, outcome); err != nil {
		partial = append(partial, fmt.Errorf("append outcome record: %w", err))
	}
	if err := r.appendMirrorRecord(ctx, outcome); err != nil {
		partial = append(partial, fmt.Errorf("append mirror record: %w", err))
	}

	r.bus.ChallengeResolved(*outcome)

	if len(partial) > 0 {
		perr := &domain.PartialResolutionError{UserID: userID.String(), Day: day, Errs: partial}
		r.log.Warn().Err(perr).Str("day", day).Msg("resolution committed with partial failures")
		return outcome, perr
	}

	r.log.Info().
		Str("user", userID.String()).
		Str("opponent", opponentID.String()).
		Str("day", day).
		Str("outcome", string(kind)).
		Int("userNet", userNet).
		Int("opponentNet", opponentNet).
		Msg("challenge resolved")

	return outcome, nil
}

// applyStats applies the win/loss deltas to one participant. A tie changes
// nothing. Cumulative score never drops below zero.
func (r *ChallengeResolver) applyStats(ctx context.Context, userID uuid.UUID, kind domain.OutcomeKind) error {
	if kind == domain.OutcomeTie {
		return nil
	}

	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	switch kind {
	case domain.OutcomeWin:
		user.Score += winPoints
		user.WinStreak++
	case domain.OutcomeLoss:
		user.Score -= lossPenalty
		if user.Score < 0 {
			user.Score = 0
		}
		user.WinStreak = 0
	}
	user.UpdatedAt = time.Now()

	return r.userRepo.Update(ctx, user)
}

// appendMirrorRecord writes the opponent's view of the outcome, skipping it
// if the opponent's day was already resolved from their own side.
func (r *ChallengeResolver) appendMirrorRecord(ctx context.Context, outcome *domain.ChallengeOutcome) error {
	existing, err := r.outcomeRepo.GetByUserAndDay(ctx, outcome.OpponentID, outcome.Day)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	mirror := &domain.ChallengeOutcome{
		ID:               uuid.New(),
		UserID:           outcome.OpponentID,
		OpponentID:       outcome.UserID,
		UserNetScore:     outcome.OpponentNetScore,
		OpponentNetScore: outcome.UserNetScore,
		Outcome:          outcome.Outcome.Mirror(),
		Day:              outcome.Day,
		CreatedAt:        outcome.CreatedAt,
	}
	return r.outcomeRepo.Create(ctx, mirror)
}

// History returns a user's most recent outcomes.
func (r *ChallengeResolver) History(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.ChallengeOutcome, error) {
	return r.outcomeRepo.ListByUser(ctx, userID, limit)
}
