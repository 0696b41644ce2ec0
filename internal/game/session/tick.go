package session

import (
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/combat"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/pet"
	"github.com/cory-johannsen/abyssidle/internal/game/skill"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

// TickReport summarises what one Tick did.
type TickReport struct {
	// DT is the clamped delta in seconds.
	DT float64
	// Cast is the auto-cast skill key, or "".
	Cast string
	// Pets lists the pet skills that fired.
	Pets []pet.Fired
	// Kills lists the kills resolved this tick, in order.
	Kills []combat.KillResult
}

type tickFrame struct {
	now    time.Time
	dt     float64
	d      stats.Derived
	src    *dice.Stream
	report TickReport
}

type tickStage struct {
	name string
	run  func(s *Session, f *tickFrame)
}

// pipeline is the fixed per-tick stage order.
var pipeline = []tickStage{
	{"cooldowns", func(s *Session, f *tickFrame) {
		skill.TickCooldowns(s.st, f.dt)
	}},
	{"derive", func(s *Session, f *tickFrame) {
		f.d = s.deriveLocked(f.now)
	}},
	{"autocast", func(s *Session, f *tickFrame) {
		f.report.Cast = s.game.book.AutoCast(s.st, f.d, f.now, s.game.policy)
	}},
	{"pets", func(s *Session, f *tickFrame) {
		f.report.Pets = pet.Tick(s.st, f.dt, f.d, s.game.tables, f.now)
	}},
	{"autoattack", func(s *Session, f *tickFrame) {
		if k := s.game.engine.AutoTick(s.st, f.d, f.dt, f.src, f.now); k != nil {
			f.report.Kills = append(f.report.Kills, *k)
		}
	}},
	{"settle", func(s *Session, f *tickFrame) {
		if k := s.game.engine.Settle(s.st, f.d, f.src, f.now); k != nil {
			f.report.Kills = append(f.report.Kills, *k)
		}
	}},
}

// Tick advances the simulation by dt, clamped to [0, MaxDT]. The result is
// not persisted; the session is marked dirty for the next Flush.
func (s *Session) Tick(dt time.Duration) TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	dt = max(0, min(dt, s.game.opts.MaxDT))
	f := &tickFrame{
		now: s.clock.Now(),
		dt:  dt.Seconds(),
		src: s.stream(),
	}
	f.report.DT = f.dt
	for _, stage := range pipeline {
		stage.run(s, f)
	}
	s.dirty = true
	return f.report
}
