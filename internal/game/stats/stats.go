// Package stats computes the per-tick derived combat snapshot from base
// stats, equipment, timed buffs, upgrades, pets, and prestige essence.
package stats

import (
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/inventory"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Buff multipliers.
const (
	BerserkAtkMul = 1.35
	HasteAspdMul  = 1.50
	LuckyGoldMul  = 1.50
	LuckyDropAdd  = 0.08
)

// Derived is the effective combat snapshot of one tick.
type Derived struct {
	Atk        float64
	Aspd       float64
	Crit       float64
	CritMul    float64
	GoldBonus  float64
	DropChance float64
	DPSPlayer  float64
	DPSPets    float64
	DPSTotal   float64
}

// RefreshBuffs recomputes the buff multipliers from the expiry timestamps that
// are still in the future at now. At most one pet buff contributes.
//
// Postcondition: multipliers are >= 1 and DropAdd >= 0 for non-negative buff values.
func RefreshBuffs(s *state.GameState, now time.Time) {
	t := now.UnixMilli()
	b := &s.Buffs
	atkMul, aspdMul, goldMul, dropAdd := 1.0, 1.0, 1.0, 0.0

	if t < b.Expires.Berserk {
		atkMul *= BerserkAtkMul
	}
	if t < b.Expires.Haste {
		aspdMul *= HasteAspdMul
	}
	if t < b.Expires.Lucky {
		goldMul *= LuckyGoldMul
		dropAdd += LuckyDropAdd
	}
	if pb := b.PetBuff; pb != nil && t < b.Expires.Pet {
		switch pb.Kind {
		case content.KindBuffAspd:
			aspdMul *= 1 + pb.Value
		case content.KindBuffAtk:
			atkMul *= 1 + pb.Value
		case content.KindBuffGold:
			goldMul *= 1 + pb.Value
		case content.KindBuffDrop:
			dropAdd += pb.Value
		}
	}

	b.AtkMul, b.AspdMul, b.GoldMul, b.DropAdd = atkMul, aspdMul, goldMul, dropAdd
}

// PetDPSBonus is the summed, slot-weighted passive bonus of unlocked pets.
//
// Postcondition: result in [0, balance.MaxPetBonus].
func PetDPSBonus(s *state.GameState) float64 {
	bonus := 0.0
	for i, slot := range s.Pets.Slots {
		if i >= balance.PetSlots {
			break
		}
		if slot == nil || !slot.Unlocked {
			continue
		}
		bonus += balance.PetPassiveBonus(max(1, slot.Level)) * balance.PetSlotWeight(i)
	}
	return clamp(bonus, 0, balance.MaxPetBonus)
}

// Compute refreshes the buffs of s at now and returns the derived snapshot.
// Absent equipment and expired buffs contribute nothing.
//
// Postcondition: Crit in [0, 0.75]; GoldBonus in [0, 5]; DropChance in
// [0.05, 0.60]; DPSTotal == DPSPlayer + DPSPets.
func Compute(s *state.GameState, now time.Time) Derived {
	RefreshBuffs(s, now)
	b := s.Buffs
	p := s.Player
	u := s.Upgrades

	wAtk := inventory.EffectiveAtk(s.Equipped(state.Weapon))
	aAtk := inventory.EffectiveAtk(s.Equipped(state.Armor))
	rGold := inventory.EffectiveGold(s.Equipped(state.Ring))

	var d Derived
	d.Atk = (p.BaseAtk + float64(u.Atk)*2 + wAtk + aAtk) * b.AtkMul
	d.Aspd = (p.Aspd + float64(u.Aspd)*0.08) * b.AspdMul
	d.Crit = clamp(p.Crit+float64(u.Crit)*0.01, 0, 0.75)
	d.CritMul = p.CritMul
	d.GoldBonus = clamp(p.GoldBonus+float64(u.Gold)*0.03+rGold, 0, 5) * b.GoldMul
	d.DropChance = clamp(balance.DropChanceBase(s.Stage)+b.DropAdd, 0.05, 0.60)

	ess := float64(max(0, s.Prestige.Essence))
	d.Atk *= 1 + 0.02*ess
	d.GoldBonus = clamp(d.GoldBonus+0.015*ess, 0, 5)
	d.DropChance = min(0.60, d.DropChance+0.002*ess)

	d.DPSPlayer = d.Atk * d.Aspd * (1 + d.Crit*(d.CritMul-1))
	d.DPSPets = d.DPSPlayer * PetDPSBonus(s)
	d.DPSTotal = d.DPSPlayer + d.DPSPets
	return d
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
