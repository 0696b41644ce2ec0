package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// DefaultCapacity is the inventory size limit.
const DefaultCapacity = 70

// Add appends it to the inventory and prunes down to capacity.
//
// Postcondition: returns the gold refunded by pruning.
func Add(s *state.GameState, it *state.Item, capacity int) float64 {
	s.Inventory = append(s.Inventory, it)
	return Prune(s, capacity)
}

// Prune evicts the lowest-sell items until the inventory fits capacity,
// refunding each evicted item's sell value. Equipped items are never evicted:
// one met during eviction is moved to the back of the list once, and eviction
// stops when only requeued equipped items remain ahead.
//
// Precondition: capacity >= 0.
// Postcondition: len(s.Inventory) <= capacity unless more than capacity items
// are equipped; the inventory is ordered by ascending sell value with requeued
// equipped items last. Returns the refunded gold.
func Prune(s *state.GameState, capacity int) float64 {
	if len(s.Inventory) <= capacity {
		return 0
	}
	queue := make([]*state.Item, len(s.Inventory))
	copy(queue, s.Inventory)
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].Sell < queue[j].Sell })

	refunded := 0.0
	requeued := make(map[string]bool)
	for len(queue) > capacity {
		it := queue[0]
		if s.IsEquipped(it) {
			if requeued[it.ID] {
				break
			}
			requeued[it.ID] = true
			queue = append(queue[1:], it)
			continue
		}
		queue = queue[1:]
		refunded += it.Sell
	}
	s.Gold += refunded
	s.Inventory = queue
	return refunded
}

// Sell removes the inventory item id for its sell value, clearing its
// equipment slot and synthesis selection.
//
// Postcondition: returns the gold gained, or ErrNotFound without changing state.
func Sell(s *state.GameState, id string, now time.Time) (float64, error) {
	it, idx := s.FindItem(id)
	if it == nil {
		return 0, state.ErrNotFound
	}
	if s.IsEquipped(it) {
		s.Equipment.Set(it.Type, "")
	}
	removeSelection(s, it.ID)
	s.Inventory = append(s.Inventory[:idx], s.Inventory[idx+1:]...)
	s.Gold += it.Sell
	s.LogPush(now, state.CatSys, "", fmt.Sprintf("Sold: +%.0fG", it.Sell))
	return it.Sell, nil
}

// removeSelection drops id from the synthesis selection, releasing the lock
// when it empties.
func removeSelection(s *state.GameState, id string) {
	kept := s.Synth.Selected[:0]
	for _, sel := range s.Synth.Selected {
		if sel != id {
			kept = append(kept, sel)
		}
	}
	s.Synth.Selected = kept
	if len(kept) == 0 {
		s.Synth.Clear()
	}
}
