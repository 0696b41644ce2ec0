package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/game/clock"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/offline"
	"github.com/cory-johannsen/abyssidle/internal/game/prestige"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
	"github.com/cory-johannsen/abyssidle/internal/storage"
)

// StartMessage is logged when a session starts with an empty log.
const StartMessage = "Start! (boss every 10 stages)"

// Session is the single owner of one player's GameState. Actions, ticks, and
// reads are serialised by its mutex. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id      string
	game    *Game
	st      *state.GameState
	clock   clock.Clock
	ambient dice.Source
	roller  *dice.Roller
	store   storage.SaveStore
	logger  *zap.Logger

	dirty         bool
	started       bool
	prestigeArmed bool
	offline       *offline.Summary
}

// Option customises a Session at construction.
type Option func(*Session)

// WithAmbientSource replaces the crypto source used for enhancement rolls and
// reset seeds.
func WithAmbientSource(src dice.Source) Option {
	return func(s *Session) { s.ambient = src }
}

// New creates a Session owning st.
//
// Precondition: every argument must be non-nil.
// Postcondition: the session is not started; call Start before ticking.
func New(id string, game *Game, st *state.GameState, clk clock.Clock, store storage.SaveStore, logger *zap.Logger, opts ...Option) *Session {
	s := &Session{
		id:      id,
		game:    game,
		st:      st,
		clock:   clk,
		ambient: dice.NewCryptoSource(),
		store:   store,
		logger:  logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.roller = dice.NewLoggedRoller(s.ambient, logger)
	return s
}

// ID returns the player id.
func (s *Session) ID() string { return s.id }

// Game returns the shared rules the session plays under.
func (s *Session) Game() *Game { return s.game }

// View is a read-only snapshot handed to Read callbacks.
type View struct {
	State         *state.GameState
	Derived       stats.Derived
	Offline       *offline.Summary
	Now           time.Time
	PrestigeArmed bool
}

// Read calls fn with the current state under the session lock.
//
// Precondition: fn must not retain or mutate View.State.
func (s *Session) Read(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	fn(View{
		State:         s.st,
		Derived:       s.deriveLocked(now),
		Offline:       s.offline,
		Now:           now,
		PrestigeArmed: s.prestigeArmed,
	})
}

// Start applies any deferred offline experience and seeds the log on first
// run, then persists.
//
// Postcondition: PendingExp == 0. Repeated calls are no-ops.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	now := s.clock.Now()
	if s.st.PendingExp > 0 {
		s.st.AddExp(now, s.st.PendingExp)
		s.st.PendingExp = 0
	}
	if len(s.st.Log) == 0 {
		s.st.LogPush(now, state.CatSys, "", StartMessage)
	}
	s.dirty = true
	_ = s.persistLocked(ctx, now)
}

// Flush persists the state if anything changed since the last write.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx, s.clock.Now())
}

// Dirty reports whether unsaved changes exist.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// persistLocked stamps and writes the state. A failed write leaves the
// session dirty so the next flush retries.
func (s *Session) persistLocked(ctx context.Context, now time.Time) error {
	s.st.T = now.UnixMilli()
	blob, err := state.Encode(s.st)
	if err != nil {
		s.logger.Error("encoding save", zap.Error(err))
		return err
	}
	if err := s.store.WriteSave(ctx, s.id, blob); err != nil {
		s.logger.Warn("writing save", zap.Error(err))
		s.dirty = true
		return fmt.Errorf("writing save for %q: %w", s.id, err)
	}
	s.dirty = false
	return nil
}

// do runs one action under the lock and persists it on success. A rejected
// action returns its error and leaves state untouched. A failed write is
// logged and retried by the next flush; the action still counts as applied.
func (s *Session) do(ctx context.Context, name string, fn func(now time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if err := fn(now); err != nil {
		s.logger.Debug("action rejected", zap.String("action", name), zap.Error(err))
		return err
	}
	s.logger.Debug("action applied", zap.String("action", name))
	s.dirty = true
	_ = s.persistLocked(ctx, now)
	return nil
}

// deriveLocked makes sure the enemy matches the stage and computes the
// derived stats snapshot.
func (s *Session) deriveLocked(now time.Time) stats.Derived {
	s.st.EnsureStageEnemy(s.game.tables.Monsters)
	return stats.Compute(s.st, now)
}

// stream returns the state's seeded random stream.
func (s *Session) stream() *dice.Stream {
	return dice.NewStream(&s.st.Seed)
}

// Preview reports what a prestige would award now.
func (s *Session) Preview() (prestige.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return prestige.Evaluate(s.st, s.game.tables)
}
