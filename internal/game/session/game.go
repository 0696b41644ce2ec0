// Package session owns live game state: one Session per connected player,
// the Manager that tracks them, and the TickLoop that drives the simulation.
package session

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/combat"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/inventory"
	"github.com/cory-johannsen/abyssidle/internal/game/offline"
	"github.com/cory-johannsen/abyssidle/internal/game/skill"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Options tunes simulation limits shared by every session.
type Options struct {
	// MaxDT bounds the delta applied by one Tick.
	MaxDT time.Duration
	// Capacity is the backpack size enforced after every item gain.
	Capacity int
	// Offline converts time between saves into rewards on Open.
	Offline offline.Estimator
}

// DefaultOptions returns the stock limits.
func DefaultOptions() Options {
	return Options{
		MaxDT:    200 * time.Millisecond,
		Capacity: inventory.DefaultCapacity,
		Offline:  offline.Estimator{Cap: offline.DefaultCap, Min: offline.DefaultMin},
	}
}

// Game bundles the read-only collaborators every session shares: content
// tables, the item registry, the combat engine, the skill book, and an
// optional auto-cast policy.
type Game struct {
	tables *content.Tables
	reg    *inventory.Registry
	engine *combat.Engine
	book   *skill.Book
	policy skill.Policy
	opts   Options
}

// NewGame wires the shared collaborators.
//
// Precondition: tables must have passed Validate; policy may be nil.
// Postcondition: Returns a ready Game or a non-nil error.
func NewGame(tables *content.Tables, opts Options, policy skill.Policy) (*Game, error) {
	if opts.Capacity < 1 {
		return nil, fmt.Errorf("inventory capacity must be >= 1, got %d", opts.Capacity)
	}
	if opts.MaxDT <= 0 {
		return nil, fmt.Errorf("max dt must be positive, got %s", opts.MaxDT)
	}
	reg, err := inventory.NewRegistry(tables)
	if err != nil {
		return nil, fmt.Errorf("building item registry: %w", err)
	}
	return &Game{
		tables: tables,
		reg:    reg,
		engine: combat.NewEngine(reg, tables.Monsters, opts.Capacity),
		book:   skill.NewBook(tables.Skills),
		policy: policy,
		opts:   opts,
	}, nil
}

// Tables returns the content tables.
func (g *Game) Tables() *content.Tables { return g.tables }

// Book returns the skill book.
func (g *Game) Book() *skill.Book { return g.book }

// Options returns the configured limits.
func (g *Game) Options() Options { return g.opts }

// NewState builds a fresh default state with a seed drawn from src.
func (g *Game) NewState(now time.Time, src dice.Source) *state.GameState {
	return state.New(now, state.RandomSeed(src), g.tables.Monsters)
}

// Decode merges a persisted or imported document onto a fresh state.
//
// Postcondition: Returns an error wrapping state.ErrMalformedSave when data
// is not a JSON object.
func (g *Game) Decode(data []byte, now time.Time, src dice.Source) (*state.GameState, error) {
	return state.Decode(data, g.NewState(now, src), g.tables.Monsters)
}
