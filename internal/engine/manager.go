package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dtran/focus-rival/internal/clockstore"
	"github.com/dtran/focus-rival/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager holds one Engine per owner and drives them all from a single
// repeating tick. Engines are created lazily on first use and restored from
// the durable store at that point.
type Manager struct {
	clock          Clock
	store          clockstore.Store
	resolver       Resolver
	picker         OpponentPicker
	ledger         Ledger
	bus            *events.Bus
	log            zerolog.Logger
	rotationPeriod time.Duration
	tickInterval   time.Duration

	mu      sync.RWMutex
	engines map[uuid.UUID]*Engine

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewManager(
	clock Clock,
	store clockstore.Store,
	resolver Resolver,
	picker OpponentPicker,
	ledger Ledger,
	bus *events.Bus,
	log zerolog.Logger,
	rotationPeriod, tickInterval time.Duration,
) *Manager {
	return &Manager{
		clock:          clock,
		store:          store,
		resolver:       resolver,
		picker:         picker,
		ledger:         ledger,
		bus:            bus,
		log:            log.With().Str("component", "engine_manager").Logger(),
		rotationPeriod: rotationPeriod,
		tickInterval:   tickInterval,
		engines:        make(map[uuid.UUID]*Engine),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Engine returns the owner's engine, creating and restoring it on first use.
func (m *Manager) Engine(ctx context.Context, ownerID uuid.UUID) (*Engine, error) {
	m.mu.RLock()
	eng, ok := m.engines[ownerID]
	m.mu.RUnlock()
	if ok {
		return eng, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if eng, ok := m.engines[ownerID]; ok {
		return eng, nil
	}

	eng = NewEngine(ownerID, m.clock, m.store, m.resolver, m.picker, m.ledger, m.bus, m.log, m.rotationPeriod)
	if err := eng.Restore(ctx); err != nil {
		return nil, err
	}
	m.engines[ownerID] = eng
	return eng, nil
}

// Run drives the tick loop until Stop is called. Storage errors never
// propagate out of a tick; each engine leaves prior in-memory state intact
// and retries on the next tick.
func (m *Manager) Run() {
	defer close(m.done)

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tickAll()
		}
	}
}

func (m *Manager) tickAll() {
	m.mu.RLock()
	engines := make([]*Engine, 0, len(m.engines))
	for _, eng := range m.engines {
		engines = append(engines, eng)
	}
	m.mu.RUnlock()

	ctx := context.Background()
	for _, eng := range engines {
		eng.Tick(ctx)
	}
}

// Stop halts the tick loop and waits for it to exit.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stop) })
	<-m.done
}
