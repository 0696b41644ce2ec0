// Package combat applies damage to the stage enemy and resolves kills into
// gold, experience, item drops, boss chests, stage advancement, and respawn.
package combat

import (
	"fmt"
	"math"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/inventory"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

const (
	// ClickMul scales attack for a manual click.
	ClickMul = 1.6
	// BossChestGoldMul scales the boss chest's gold bonus.
	BossChestGoldMul = 1.5
)

// KillResult describes the rewards of one resolved kill.
type KillResult struct {
	// Enemy is the name of the defeated enemy.
	Enemy string
	// Gold is the regular gold award.
	Gold float64
	// Exp is the experience granted.
	Exp float64
	// Levels is the number of levels gained from Exp.
	Levels int
	// Drop is the regular item drop, or nil.
	Drop *state.Item
	// BossGold is the boss chest gold, zero for regular enemies.
	BossGold float64
	// BossItem is the boss chest item, or nil.
	BossItem *state.Item
	// Stage is the stage after any auto-advance.
	Stage int
}

// AttackResult holds the outcome of a manual click attack.
type AttackResult struct {
	// Crit is true when the critical roll succeeded.
	Crit bool
	// Damage is the damage dealt after clamping.
	Damage float64
	// Kill is non-nil when the attack depleted the enemy.
	Kill *KillResult
}

// Engine resolves combat against the stage enemy. It holds only read-only
// collaborators and is safe to share between sessions.
type Engine struct {
	reg      *inventory.Registry
	monsters []*content.MonsterDef
	capacity int
}

// NewEngine creates an Engine.
//
// Precondition: reg must be non-nil; capacity > 0.
func NewEngine(reg *inventory.Registry, monsters []*content.MonsterDef, capacity int) *Engine {
	return &Engine{reg: reg, monsters: monsters, capacity: capacity}
}

// Monsters returns the monster table used for respawns; nil selects the
// built-in enemy cycle.
func (e *Engine) Monsters() []*content.MonsterDef {
	return e.monsters
}

// Registry returns the item registry used for drops.
func (e *Engine) Registry() *inventory.Registry {
	return e.reg
}

// Capacity returns the inventory capacity enforced on drops.
func (e *Engine) Capacity() int {
	return e.capacity
}

// DealDamage applies amount to the current enemy.
//
// Postcondition: negative amounts deal nothing; enemy HP is floored at 0;
// returns the damage actually applied.
func DealDamage(s *state.GameState, amount float64) float64 {
	return s.Enemy.TakeDamage(amount)
}

// OnKill resolves the defeat of the current enemy: gold, experience, one drop
// roll, the boss chest on boss stages, auto-advance, and respawn. Drop and
// chest items are rolled from src.
//
// Precondition: src should be the state's seeded stream; d is this tick's snapshot.
// Postcondition: Kills incremented by one; a fresh enemy for s.Stage is spawned.
func (e *Engine) OnKill(s *state.GameState, d stats.Derived, src dice.Source, now time.Time) KillResult {
	enemy := *s.Enemy
	res := KillResult{Enemy: enemy.Name}

	s.Kills++
	res.Gold = math.Floor(enemy.Gold * (1 + d.GoldBonus))
	s.Gold += res.Gold

	res.Exp = enemy.Exp
	res.Levels = s.AddExp(now, enemy.Exp)

	if src.Float64() < d.DropChance {
		it := e.reg.Make(src, inventory.Spec{Stage: s.Stage})
		s.Drops++
		inventory.Add(s, it, e.capacity)
		res.Drop = it
		s.LogPush(now, state.CatDrop, it.Rar, fmt.Sprintf("Drop: %s", it.Name))
	}

	if enemy.Boss {
		res.BossGold = math.Floor(enemy.Gold * (1 + d.GoldBonus) * BossChestGoldMul)
		s.Gold += res.BossGold
		it := e.reg.Make(src, inventory.Spec{Stage: s.Stage, Boosted: true})
		s.Drops++
		inventory.Add(s, it, e.capacity)
		res.BossItem = it
		s.LogPush(now, state.CatDrop, it.Rar, fmt.Sprintf("Boss chest! +%.0fG, %s", res.BossGold, it.Name))
	}

	if s.AutoAdvance {
		s.Stage++
	}
	s.Respawn(e.monsters)
	res.Stage = s.Stage
	return res
}

// ClickAttack performs a manual attack: one crit roll from src, then
// Atk * ClickMul * (CritMul on a crit) damage, resolving a kill on depletion.
func (e *Engine) ClickAttack(s *state.GameState, d stats.Derived, src dice.Source, now time.Time) AttackResult {
	var res AttackResult
	res.Crit = src.Float64() < d.Crit
	dmg := d.Atk * ClickMul
	if res.Crit {
		dmg *= d.CritMul
	}
	res.Damage = DealDamage(s, dmg)
	res.Kill = e.Settle(s, d, src, now)
	return res
}

// AutoTick applies DPSTotal * dt of continuous damage when auto-attack is on
// and resolves a kill on depletion.
//
// Precondition: dt >= 0.
func (e *Engine) AutoTick(s *state.GameState, d stats.Derived, dt float64, src dice.Source, now time.Time) *KillResult {
	if !s.Auto {
		return nil
	}
	DealDamage(s, d.DPSTotal*dt)
	return e.Settle(s, d, src, now)
}

// Settle resolves a kill if the enemy has been depleted by any source.
//
// Postcondition: returns nil iff the enemy was alive.
func (e *Engine) Settle(s *state.GameState, d stats.Derived, src dice.Source, now time.Time) *KillResult {
	if !s.Enemy.Dead() {
		return nil
	}
	res := e.OnKill(s, d, src, now)
	return &res
}

// StageUp moves one stage forward and respawns the enemy.
func (e *Engine) StageUp(s *state.GameState) {
	s.SetStage(s.Stage+1, e.monsters)
}

// StageDown moves one stage back, never below 1, and respawns the enemy.
func (e *Engine) StageDown(s *state.GameState) {
	s.SetStage(s.Stage-1, e.monsters)
}
