package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Chancer performs a labelled probability check. *dice.Roller satisfies it.
type Chancer interface {
	Chance(label string, p float64) bool
}

// EnhanceCost is the gold price of one enhancement attempt on it.
//
// Postcondition: floor((40 + stage*2) * 1.28^enh * (1 + rarityIndex*0.55)).
func EnhanceCost(it *state.Item) float64 {
	rMul := 1.0 + float64(balance.RarityIndex(it.Rar))*0.55
	base := 40 + float64(max(1, it.Stage))*2.0
	return math.Floor(base * math.Pow(1.28, float64(it.Enh)) * rMul)
}

// Enhance attempts to raise the enhancement level of the inventory item id.
// The cost is spent whether or not the attempt succeeds.
//
// Precondition: roller must be non-nil.
// Postcondition: on nil error, gold decreased by the cost and ok reports
// whether Enh increased by one. Returns ErrNotFound, ErrMaxed, or
// ErrInsufficientGold without changing state.
func Enhance(s *state.GameState, id string, roller Chancer, now time.Time) (ok bool, err error) {
	it, _ := s.FindItem(id)
	if it == nil {
		return false, state.ErrNotFound
	}
	if it.Enh >= balance.EnhanceMax {
		return false, state.ErrMaxed
	}
	cost := EnhanceCost(it)
	if s.Gold < cost {
		return false, state.ErrInsufficientGold
	}

	s.Gold -= cost
	ok = roller.Chance("enhance", balance.EnhanceChance(it.Enh))
	if ok {
		it.Enh++
		s.LogPush(now, state.CatEnh, it.Rar, fmt.Sprintf("Enhance success: %s +%d", it.Name, it.Enh))
	} else {
		s.LogPush(now, state.CatEnh, it.Rar, fmt.Sprintf("Enhance failed: %s (stays +%d)", it.Name, it.Enh))
	}
	return ok, nil
}
