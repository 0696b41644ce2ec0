package inventory

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Equip places the inventory item id into its type's slot, replacing any
// previous occupant.
//
// Postcondition: s.Equipment.Slot(it.Type) == id, or ErrNotFound.
func Equip(s *state.GameState, id string, now time.Time) error {
	it, _ := s.FindItem(id)
	if it == nil {
		return state.ErrNotFound
	}
	s.Equipment.Set(it.Type, it.ID)
	s.LogPush(now, state.CatSys, it.Rar, fmt.Sprintf("Equipped: %s +%d", it.Name, it.Enh))
	return nil
}

// Unequip empties slot t.
//
// Postcondition: s.Equipment.Slot(t) == "", or ErrInvalidTarget for an
// unknown slot.
func Unequip(s *state.GameState, t state.ItemType) error {
	if !t.Valid() {
		return state.ErrInvalidTarget
	}
	s.Equipment.Set(t, "")
	return nil
}
