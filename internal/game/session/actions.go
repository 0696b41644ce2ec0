package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/combat"
	"github.com/cory-johannsen/abyssidle/internal/game/inventory"
	"github.com/cory-johannsen/abyssidle/internal/game/pet"
	"github.com/cory-johannsen/abyssidle/internal/game/prestige"
	"github.com/cory-johannsen/abyssidle/internal/game/skill"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Attack performs one manual click attack.
func (s *Session) Attack(ctx context.Context) (combat.AttackResult, error) {
	var res combat.AttackResult
	err := s.do(ctx, "attack", func(now time.Time) error {
		d := s.deriveLocked(now)
		res = s.game.engine.ClickAttack(s.st, d, s.stream(), now)
		return nil
	})
	return res, err
}

// ToggleAuto flips auto-attack.
func (s *Session) ToggleAuto(ctx context.Context) error {
	return s.do(ctx, "toggle_auto", func(time.Time) error {
		s.st.Auto = !s.st.Auto
		return nil
	})
}

// ToggleAutoAdvance flips advancing to the next stage after each kill.
func (s *Session) ToggleAutoAdvance(ctx context.Context) error {
	return s.do(ctx, "toggle_auto_advance", func(time.Time) error {
		s.st.AutoAdvance = !s.st.AutoAdvance
		return nil
	})
}

// ToggleAutoSkills flips the master auto-cast switch.
func (s *Session) ToggleAutoSkills(ctx context.Context) error {
	return s.do(ctx, "toggle_auto_skills", func(time.Time) error {
		s.st.AutoSkills = !s.st.AutoSkills
		return nil
	})
}

// StageUp moves to the next stage.
func (s *Session) StageUp(ctx context.Context) error {
	return s.do(ctx, "stage_up", func(time.Time) error {
		s.game.engine.StageUp(s.st)
		return nil
	})
}

// StageDown moves to the previous stage.
//
// Postcondition: returns state.ErrInvalidTarget at stage 1.
func (s *Session) StageDown(ctx context.Context) error {
	return s.do(ctx, "stage_down", func(time.Time) error {
		if s.st.Stage <= 1 {
			return state.ErrInvalidTarget
		}
		s.game.engine.StageDown(s.st)
		return nil
	})
}

// CastSkill casts key manually, ignoring its auto-cast condition, and
// resolves a kill if the cast depleted the enemy.
func (s *Session) CastSkill(ctx context.Context, key string) error {
	return s.do(ctx, "cast_skill", func(now time.Time) error {
		d := s.deriveLocked(now)
		if err := s.game.book.Cast(s.st, key, d, now); err != nil {
			return err
		}
		s.game.engine.Settle(s.st, d, s.stream(), now)
		return nil
	})
}

// SetSkillAuto sets the per-skill auto-cast flag.
func (s *Session) SetSkillAuto(ctx context.Context, key string, on bool) error {
	return s.do(ctx, "set_skill_auto", func(time.Time) error {
		return skill.SetAuto(s.st, key, on)
	})
}

// ToggleSkillAuto flips the per-skill auto-cast flag.
func (s *Session) ToggleSkillAuto(ctx context.Context, key string) error {
	return s.do(ctx, "toggle_skill_auto", func(time.Time) error {
		st, ok := s.st.Skills[key]
		if !ok || st == nil {
			return state.ErrNotFound
		}
		return skill.SetAuto(s.st, key, !st.Auto)
	})
}

// BuyUpgrade spends gold on one level of upgrade key.
//
// Postcondition: returns state.ErrNotFound for an unknown key and
// state.ErrInsufficientGold when Gold < cost.
func (s *Session) BuyUpgrade(ctx context.Context, key string) error {
	return s.do(ctx, "buy_upgrade", func(now time.Time) error {
		def, ok := balance.UpgradeByKey(key)
		lvl := s.st.Upgrades.Level(key)
		if !ok || lvl == nil {
			return state.ErrNotFound
		}
		cost := def.Cost(*lvl)
		if s.st.Gold < cost {
			return state.ErrInsufficientGold
		}
		s.st.Gold -= cost
		*lvl++
		s.st.LogPush(now, state.CatSys, "", fmt.Sprintf("Upgrade: %s Lv.%d", def.Name, *lvl))
		return nil
	})
}

// Equip puts inventory item id into its slot.
func (s *Session) Equip(ctx context.Context, id string) error {
	return s.do(ctx, "equip", func(now time.Time) error {
		return inventory.Equip(s.st, id, now)
	})
}

// Unequip clears slot t.
func (s *Session) Unequip(ctx context.Context, t state.ItemType) error {
	return s.do(ctx, "unequip", func(time.Time) error {
		return inventory.Unequip(s.st, t)
	})
}

// Sell removes item id for its sell value and returns the refund.
func (s *Session) Sell(ctx context.Context, id string) (float64, error) {
	var refund float64
	err := s.do(ctx, "sell", func(now time.Time) error {
		var err error
		refund, err = inventory.Sell(s.st, id, now)
		return err
	})
	return refund, err
}

// Enhance attempts one enhancement of item id. ok reports whether the roll
// succeeded; gold is spent either way.
func (s *Session) Enhance(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := s.do(ctx, "enhance", func(now time.Time) error {
		var err error
		ok, err = inventory.Enhance(s.st, id, s.roller, now)
		return err
	})
	return ok, err
}

// ToggleSynthMode enters or leaves synthesis selection mode.
func (s *Session) ToggleSynthMode(ctx context.Context) error {
	return s.do(ctx, "toggle_synth_mode", func(time.Time) error {
		inventory.ToggleSynthMode(s.st)
		return nil
	})
}

// ToggleSynthSelect adds or removes item id from the synthesis selection.
func (s *Session) ToggleSynthSelect(ctx context.Context, id string) error {
	return s.do(ctx, "toggle_synth_select", func(time.Time) error {
		return inventory.ToggleSelect(s.st, id)
	})
}

// Synthesize fuses the selected items and returns the result.
func (s *Session) Synthesize(ctx context.Context) (*state.Item, error) {
	var out *state.Item
	err := s.do(ctx, "synthesize", func(now time.Time) error {
		var err error
		out, err = s.game.reg.Synthesize(s.st, s.stream(), s.game.opts.Capacity, now)
		return err
	})
	return out, err
}

// UnlockPetSlot buys pet slot i.
func (s *Session) UnlockPetSlot(ctx context.Context, i int) error {
	return s.do(ctx, "unlock_pet_slot", func(now time.Time) error {
		return pet.UnlockSlot(s.st, i, now)
	})
}

// LevelUpPet buys one level for pet slot i.
func (s *Session) LevelUpPet(ctx context.Context, i int) error {
	return s.do(ctx, "level_up_pet", func(now time.Time) error {
		return pet.LevelUp(s.st, i, now)
	})
}

// SetPet assigns petID to slot i.
func (s *Session) SetPet(ctx context.Context, i int, petID string) error {
	return s.do(ctx, "set_pet", func(time.Time) error {
		return pet.SetPet(s.st, i, petID, s.game.tables)
	})
}

// RequestPrestige arms the prestige confirmation and returns what it would
// award. Nothing is persisted.
//
// Postcondition: returns state.ErrNotEligible below the minimum stage.
func (s *Session) RequestPrestige(_ context.Context) (prestige.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := prestige.Evaluate(s.st, s.game.tables)
	if err != nil {
		return p, err
	}
	s.prestigeArmed = true
	return p, nil
}

// CancelPrestige disarms a pending prestige confirmation.
func (s *Session) CancelPrestige() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prestigeArmed = false
}

// ConfirmPrestige performs an armed prestige reset.
//
// Postcondition: returns state.ErrNotEligible unless RequestPrestige
// succeeded first; the arm is consumed either way.
func (s *Session) ConfirmPrestige(ctx context.Context) (prestige.Preview, error) {
	var p prestige.Preview
	err := s.do(ctx, "confirm_prestige", func(now time.Time) error {
		armed := s.prestigeArmed
		s.prestigeArmed = false
		if !armed {
			return state.ErrNotEligible
		}
		var err error
		p, err = prestige.Apply(s.st, s.game.tables, now)
		return err
	})
	return p, err
}

// ResetAll deletes the stored save and starts over with a fresh state and a
// new seed, which is written straight away.
//
// Postcondition: a failed write of the fresh state is logged and leaves the
// session dirty; the reset itself still counts as applied.
func (s *Session) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteSave(ctx, s.id); err != nil {
		return fmt.Errorf("deleting save for %q: %w", s.id, err)
	}
	now := s.clock.Now()
	s.st = s.game.NewState(now, s.ambient)
	s.st.LogPush(now, state.CatSys, "", StartMessage)
	s.prestigeArmed = false
	s.offline = nil
	s.dirty = true
	s.logger.Info("save reset")
	_ = s.persistLocked(ctx, now)
	return nil
}

// Export returns the state as indented JSON.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return state.Export(s.st)
}

// Import replaces the state with data merged onto fresh defaults.
//
// Postcondition: returns an error wrapping state.ErrMalformedSave and leaves
// the current state untouched when data is not a JSON object.
func (s *Session) Import(ctx context.Context, data []byte) error {
	return s.do(ctx, "import", func(now time.Time) error {
		merged, err := s.game.Decode(data, now, s.ambient)
		if err != nil {
			return err
		}
		if merged.PendingExp > 0 {
			merged.AddExp(now, merged.PendingExp)
			merged.PendingExp = 0
		}
		merged.LogPush(now, state.CatSys, "", "Save imported")
		s.st = merged
		s.prestigeArmed = false
		return nil
	})
}
