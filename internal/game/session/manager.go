package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/game/clock"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
	"github.com/cory-johannsen/abyssidle/internal/observability"
	"github.com/cory-johannsen/abyssidle/internal/storage"
)

// Manager tracks all active sessions by player id.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	game   *Game
	store  storage.SaveStore
	clock  clock.Clock
	logger *zap.Logger
	opts   []Option
}

// NewManager creates an empty Manager. opts are applied to every session it opens.
//
// Precondition: game, store, clk, and logger must be non-nil.
func NewManager(game *Game, store storage.SaveStore, clk clock.Clock, logger *zap.Logger, opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		game:     game,
		store:    store,
		clock:    clk,
		logger:   logger,
		opts:     opts,
	}
}

// Open returns the active session for playerID, loading it from the store
// when absent. A missing save starts fresh; a malformed save is logged and
// replaced by a fresh state. Offline progress since the last save is credited
// before the session starts.
//
// Postcondition: the returned session is started and registered.
func (m *Manager) Open(ctx context.Context, playerID string) (*Session, error) {
	if s, ok := m.Get(playerID); ok {
		return s, nil
	}

	start := time.Now()
	logger := observability.ForPlayer(m.logger, playerID)
	now := m.clock.Now()
	src := dice.NewCryptoSource()

	st, fresh, err := m.load(ctx, playerID, now, src, logger)
	if err != nil {
		return nil, err
	}

	s := New(playerID, m.game, st, m.clock, m.store, logger, m.opts...)
	if !fresh {
		st.EnsureStageEnemy(m.game.tables.Monsters)
		d := stats.Compute(st, now)
		if sum, ok := m.game.opts.Offline.Apply(st, d, now); ok {
			s.offline = &sum
			logger.Info("offline progress credited",
				zap.Int("kills", sum.Kills),
				zap.Float64("gold", sum.Gold),
				zap.Float64("exp", sum.Exp),
			)
		}
	}

	m.mu.Lock()
	if existing, ok := m.sessions[playerID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[playerID] = s
	m.mu.Unlock()

	s.Start(ctx)
	logger.Info("session opened",
		zap.Bool("fresh", fresh),
		zap.Duration("elapsed", time.Since(start)),
	)
	return s, nil
}

func (m *Manager) load(ctx context.Context, playerID string, now time.Time, src dice.Source, logger *zap.Logger) (*state.GameState, bool, error) {
	blob, err := m.store.LoadSave(ctx, playerID)
	if errors.Is(err, storage.ErrSaveNotFound) {
		return m.game.NewState(now, src), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading save for %q: %w", playerID, err)
	}
	st, err := m.game.Decode(blob, now, src)
	if err != nil {
		logger.Warn("discarding malformed save", zap.Error(err))
		return m.game.NewState(now, src), true, nil
	}
	return st, false, nil
}

// Get returns the active session for playerID.
func (m *Manager) Get(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[playerID]
	return s, ok
}

// Close flushes and unregisters the session for playerID.
//
// Postcondition: returns an error if no session is active or the final flush fails.
func (m *Manager) Close(ctx context.Context, playerID string) error {
	m.mu.Lock()
	s, ok := m.sessions[playerID]
	delete(m.sessions, playerID)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("player %q not active", playerID)
	}
	return s.Flush(ctx)
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) snapshot() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// TickAll advances every active session by dt.
func (m *Manager) TickAll(dt time.Duration) {
	for _, s := range m.snapshot() {
		s.Tick(dt)
	}
}

// FlushAll persists every dirty session.
//
// Postcondition: returns the joined errors of all failed flushes.
func (m *Manager) FlushAll(ctx context.Context) error {
	var errs []error
	for _, s := range m.snapshot() {
		if err := s.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
