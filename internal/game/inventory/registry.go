// Package inventory implements the item model: generation, enhancement,
// equipment, capacity-bounded pruning, selling, and 3-to-1 synthesis.
package inventory

import (
	"fmt"

	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Registry indexes the equipment base definitions by item type.
type Registry struct {
	bases map[state.ItemType][]*content.ItemBase
	byID  map[string]*content.ItemBase
}

// NewRegistry builds a Registry from the weapon, armor, and ring tables.
//
// Precondition: tables must not be nil.
// Postcondition: every item type has at least one base; returns error on an
// empty table or a duplicate id.
func NewRegistry(tables *content.Tables) (*Registry, error) {
	r := &Registry{
		bases: make(map[state.ItemType][]*content.ItemBase, len(state.ItemTypes)),
		byID:  make(map[string]*content.ItemBase),
	}
	lists := map[state.ItemType][]*content.ItemBase{
		state.Weapon: tables.Weapons,
		state.Armor:  tables.Armors,
		state.Ring:   tables.Rings,
	}
	for _, t := range state.ItemTypes {
		list := lists[t]
		if len(list) == 0 {
			return nil, fmt.Errorf("inventory: NewRegistry: no %s bases", t)
		}
		for _, b := range list {
			if _, exists := r.byID[b.ID]; exists {
				return nil, fmt.Errorf("inventory: NewRegistry: base ID %q already registered", b.ID)
			}
			r.byID[b.ID] = b
		}
		r.bases[t] = list
	}
	return r, nil
}

// Bases returns the base definitions of type t in table order.
func (r *Registry) Bases(t state.ItemType) []*content.ItemBase {
	return r.bases[t]
}

// Base returns the base definition with id.
//
// Postcondition: ok is true iff the id is registered.
func (r *Registry) Base(id string) (*content.ItemBase, bool) {
	b, ok := r.byID[id]
	return b, ok
}
