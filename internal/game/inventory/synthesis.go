package inventory

import (
	"fmt"
	"slices"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// SynthesisSize is the number of items consumed by one synthesis.
const SynthesisSize = 3

// ToggleSynthMode flips synthesis mode and clears the selection and lock.
func ToggleSynthMode(s *state.GameState) {
	s.Synth.Mode = !s.Synth.Mode
	s.Synth.Clear()
}

// ToggleSelect adds or removes the inventory item id from the synthesis
// selection. The first selected item locks the (type, rarity) pair; removing
// the last selected item releases it.
//
// Postcondition: returns ErrNotEligible outside synthesis mode, ErrNotFound
// for an unknown id, ErrMaxed when three items are already selected, and
// ErrInvalidTarget when the item does not match the lock.
func ToggleSelect(s *state.GameState, id string) error {
	if !s.Synth.Mode {
		return state.ErrNotEligible
	}
	it, _ := s.FindItem(id)
	if it == nil {
		return state.ErrNotFound
	}
	if slices.Contains(s.Synth.Selected, id) {
		removeSelection(s, id)
		return nil
	}
	if len(s.Synth.Selected) >= SynthesisSize {
		return state.ErrMaxed
	}
	if s.Synth.LockType == "" && s.Synth.LockRar == "" {
		s.Synth.LockType = it.Type
		s.Synth.LockRar = it.Rar
	} else if it.Type != s.Synth.LockType || it.Rar != s.Synth.LockRar {
		return state.ErrInvalidTarget
	}
	s.Synth.Selected = append(s.Synth.Selected, id)
	return nil
}

// Synthesize consumes the three selected items and adds one item of the next
// rarity tier, of the same type, at the highest origin stage among them. The
// output is rolled from src.
//
// Precondition: src should be the state's seeded stream.
// Postcondition: on success exactly three items are removed (unequipped
// first), one is added, the inventory is pruned to capacity, and the selection
// is cleared. Returns ErrNotEligible when not in synthesis mode or fewer than
// three items are selected, and ErrInvalidTarget when the selection does not
// share one (type, rarity).
func (r *Registry) Synthesize(s *state.GameState, src dice.Source, capacity int, now time.Time) (*state.Item, error) {
	if !s.Synth.Mode || len(s.Synth.Selected) != SynthesisSize {
		return nil, state.ErrNotEligible
	}
	items := make([]*state.Item, 0, SynthesisSize)
	for _, id := range s.Synth.Selected {
		if it, _ := s.FindItem(id); it != nil {
			items = append(items, it)
		}
	}
	if len(items) != SynthesisSize {
		return nil, state.ErrNotEligible
	}
	t, rar := items[0].Type, items[0].Rar
	outStage := 1
	for _, it := range items {
		if it.Type != t || it.Rar != rar {
			return nil, state.ErrInvalidTarget
		}
		outStage = max(outStage, it.Stage)
	}

	out := r.Make(src, Spec{Stage: outStage, Type: t, Rarity: balance.NextRarity(rar)})
	for _, it := range items {
		if s.IsEquipped(it) {
			s.Equipment.Set(it.Type, "")
		}
		if _, idx := s.FindItem(it.ID); idx >= 0 {
			s.Inventory = append(s.Inventory[:idx], s.Inventory[idx+1:]...)
		}
	}
	Add(s, out, capacity)
	s.LogPush(now, state.CatSynth, out.Rar, fmt.Sprintf("Synthesis: %s/%s x3 -> %s", t, rar, out.Rar))
	s.Synth.Clear()
	return out, nil
}
