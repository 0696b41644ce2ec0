// Package pet manages the three pet slots: unlocking, leveling, assignment,
// and the per-slot skill cooldowns that fire bursts or a shared timed buff.
package pet

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/combat"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

// Pet skill defaults applied when the table leaves a value unset.
const (
	DefaultBurstMul = 2.0
	DefaultDuration = 8.0
	DefaultCooldown = 20.0
)

func slot(s *state.GameState, i int) (*state.PetSlot, error) {
	if i < 0 || i >= len(s.Pets.Slots) || s.Pets.Slots[i] == nil {
		return nil, state.ErrInvalidTarget
	}
	return s.Pets.Slots[i], nil
}

// UnlockSlot buys slot i.
//
// Postcondition: on success the slot is unlocked at level 1 with a ready
// skill. Returns ErrInvalidTarget for a bad index, ErrNotEligible if already
// unlocked, and ErrInsufficientGold, each without changing state.
func UnlockSlot(s *state.GameState, i int, now time.Time) error {
	sl, err := slot(s, i)
	if err != nil {
		return err
	}
	if sl.Unlocked {
		return state.ErrNotEligible
	}
	cost := balance.PetUnlockCost(i)
	if s.Gold < cost {
		return state.ErrInsufficientGold
	}
	s.Gold -= cost
	sl.Unlocked = true
	sl.Level = 1
	sl.SkillCD = 0
	s.LogPush(now, state.CatSys, "", fmt.Sprintf("Pet slot %d unlocked", i+1))
	return nil
}

// LevelUp raises the level of the pet in unlocked slot i.
//
// Postcondition: returns ErrInvalidTarget for a bad index or locked slot and
// ErrInsufficientGold, each without changing state.
func LevelUp(s *state.GameState, i int, now time.Time) error {
	sl, err := slot(s, i)
	if err != nil {
		return err
	}
	if !sl.Unlocked {
		return state.ErrInvalidTarget
	}
	lvl := max(1, sl.Level)
	cost := balance.PetLevelUpCost(i, lvl)
	if s.Gold < cost {
		return state.ErrInsufficientGold
	}
	s.Gold -= cost
	sl.Level = lvl + 1
	s.LogPush(now, state.CatSys, "", fmt.Sprintf("Pet grew: slot %d Lv.%d", i+1, sl.Level))
	return nil
}

// SetPet assigns pet petID to slot i. The slot's running cooldown is kept.
//
// Postcondition: returns ErrInvalidTarget for a bad index and ErrNotFound for
// a pet absent from tables.
func SetPet(s *state.GameState, i int, petID string, tables *content.Tables) error {
	sl, err := slot(s, i)
	if err != nil {
		return err
	}
	if _, ok := tables.Pet(petID); !ok {
		return state.ErrNotFound
	}
	sl.PetID = petID
	return nil
}

// Fired records one pet skill activation.
type Fired struct {
	Slot   int
	Pet    string
	Skill  string
	Kind   string
	Damage float64
}

// Tick advances every unlocked slot's cooldown by dt and fires the assigned
// pet's skill when it reaches zero: burst_damage deals ATK * value
// immediately, any buff kind replaces the single shared pet buff. The slot's
// cooldown then restarts from the skill's configured value.
//
// Precondition: dt >= 0.
// Postcondition: locked slots are untouched; slots whose pet or skill is
// unknown only tick down.
func Tick(s *state.GameState, dt float64, d stats.Derived, tables *content.Tables, now time.Time) []Fired {
	var fired []Fired
	for i, sl := range s.Pets.Slots {
		if sl == nil || !sl.Unlocked {
			continue
		}
		sl.SkillCD = max(0, sl.SkillCD-dt)

		p, ok := tables.Pet(sl.PetID)
		if !ok {
			continue
		}
		sk, ok := tables.PetSkill(p.SkillID)
		if !ok || sl.SkillCD > 0 {
			continue
		}

		f := Fired{Slot: i, Pet: p.Name, Skill: sk.Name, Kind: sk.Kind}
		if sk.Kind == content.KindBurstDamage {
			f.Damage = combat.DealDamage(s, d.Atk*orDefault(sk.Value, DefaultBurstMul))
		} else {
			dur := orDefault(sk.Duration, DefaultDuration)
			s.Buffs.PetBuff = &state.PetBuff{Kind: sk.Kind, Value: sk.Value, Duration: dur}
			s.Buffs.Expires.Pet = now.Add(time.Duration(dur * float64(time.Second))).UnixMilli()
		}
		s.LogPush(now, state.CatCombat, "", fmt.Sprintf("Pet skill: %s - %s", p.Name, sk.Name))
		sl.SkillCD = orDefault(sk.Cooldown, DefaultCooldown)
		fired = append(fired, f)
	}
	return fired
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
