// Package prestige implements the full-progress reset that converts stage
// depth into permanent essence.
package prestige

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Preview is the outcome a prestige would have at the current stage.
type Preview struct {
	// Base is the essence earned from stage depth.
	Base int
	// Bonus is the one-time milestone essence for the new prestige count.
	Bonus int
	// Title is the milestone title, or "".
	Title string
	// Times is the prestige count after the reset.
	Times int
}

// Total returns Base + Bonus.
func (p Preview) Total() int {
	return p.Base + p.Bonus
}

// Evaluate computes the prestige outcome for s.
//
// Postcondition: returns ErrNotEligible when the stage yields no essence.
func Evaluate(s *state.GameState, tables *content.Tables) (Preview, error) {
	base := balance.EssenceForStage(s.Stage)
	if base == 0 {
		return Preview{}, state.ErrNotEligible
	}
	p := Preview{Base: base, Times: s.Prestige.Times + 1}
	if m, ok := tables.MilestoneFor(p.Times); ok {
		p.Bonus = m.BonusEssence
		p.Title = m.Title
	}
	return p, nil
}

// Apply resets s in place to a fresh state, keeping only the seed, the
// auto/auto-advance/auto-skills toggles, and the prestige record, which gains
// the evaluated essence.
//
// Postcondition: on success Stage == 1, the inventory is empty, Seed is
// unchanged, and Prestige.Essence grew by Preview.Total(). Returns
// ErrNotEligible without changing state when the stage yields no essence.
func Apply(s *state.GameState, tables *content.Tables, now time.Time) (Preview, error) {
	p, err := Evaluate(s, tables)
	if err != nil {
		return p, err
	}
	fresh := state.New(now, s.Seed, tables.Monsters)
	fresh.Auto = s.Auto
	fresh.AutoAdvance = s.AutoAdvance
	fresh.AutoSkills = s.AutoSkills
	fresh.Prestige = state.Prestige{
		Times:        p.Times,
		Essence:      s.Prestige.Essence + p.Total(),
		TotalEssence: s.Prestige.TotalEssence + p.Total(),
	}
	*s = *fresh

	msg := fmt.Sprintf("Prestige #%d: +%d essence", p.Times, p.Total())
	if p.Title != "" {
		msg += fmt.Sprintf(" (title: %s)", p.Title)
	}
	s.LogPush(now, state.CatSys, "", msg)
	return p, nil
}
