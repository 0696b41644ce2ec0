package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/combat"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/inventory"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

var now = time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC)

func newEngine(t testing.TB) *combat.Engine {
	t.Helper()
	reg, err := inventory.NewRegistry(&content.Tables{
		Weapons: []*content.ItemBase{{ID: "w", Name: "Sword", BaseAtk: 4, AtkScale: 1}},
		Armors:  []*content.ItemBase{{ID: "a", Name: "Vest", BaseAtk: 1, AtkScale: 0.5}},
		Rings:   []*content.ItemBase{{ID: "r", Name: "Band", BaseGold: 0.05, GoldScale: 0.002}},
	})
	require.NoError(t, err)
	return combat.NewEngine(reg, nil, inventory.DefaultCapacity)
}

func TestClickAttack_NoCritScenario(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	d := stats.Compute(s, now)
	require.Equal(t, 2.0, d.Atk)

	res := eng.ClickAttack(s, d, &dice.Fixed{Values: []float64{0.99}}, now)
	assert.False(t, res.Crit)
	assert.InDelta(t, 3.2, res.Damage, 1e-12)
	assert.InDelta(t, balance.EnemyForStage(1, nil).HP-3.2, s.Enemy.HP, 1e-12)
	assert.Nil(t, res.Kill)
}

func TestClickAttack_Crit(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	d := stats.Compute(s, now)
	res := eng.ClickAttack(s, d, &dice.Fixed{Values: []float64{0}}, now)
	assert.True(t, res.Crit)
	assert.InDelta(t, 4.8, res.Damage, 1e-12)
}

func TestClickAttack_KillsAndAdvances(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	s.Enemy.HP = 1
	d := stats.Compute(s, now)

	res := eng.ClickAttack(s, d, &dice.Fixed{Values: []float64{0.99}}, now)
	require.NotNil(t, res.Kill)
	assert.Equal(t, 1, s.Kills)
	assert.Equal(t, 3.0, s.Gold)
	assert.Equal(t, 5.0, s.Player.Exp)
	assert.Equal(t, 2, s.Stage)
	assert.Equal(t, 2, res.Kill.Stage)
	assert.Nil(t, res.Kill.Drop)
	assert.Equal(t, balance.EnemyForStage(2, nil).HP, s.Enemy.HP)
}

func TestOnKill_DropRoll(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	d := stats.Compute(s, now)
	res := eng.OnKill(s, d, &dice.Fixed{Values: []float64{0}}, now)
	require.NotNil(t, res.Drop)
	assert.Equal(t, 1, s.Drops)
	require.Len(t, s.Inventory, 1)
	assert.Equal(t, res.Drop.ID, s.Inventory[0].ID)
	assert.Equal(t, state.CatDrop, s.Log[0].Cat)
}

func TestOnKill_BossChest(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	s.SetStage(10, nil)
	s.AutoAdvance = false
	d := stats.Compute(s, now)
	require.True(t, s.Enemy.Boss)

	res := eng.OnKill(s, d, &dice.Fixed{Values: []float64{0.99}}, now)
	assert.Equal(t, 24.0, res.Gold)
	assert.Equal(t, 36.0, res.BossGold)
	assert.Equal(t, 60.0, s.Gold)
	require.NotNil(t, res.BossItem)
	assert.Nil(t, res.Drop)
	assert.Equal(t, 1, s.Drops)
	assert.Equal(t, 10, s.Stage, "auto-advance disabled keeps the stage")
	assert.Equal(t, s.Enemy.HPMax, s.Enemy.HP)
}

func TestOnKill_GoldBonusApplied(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	s.Player.GoldBonus = 1.0
	d := stats.Compute(s, now)
	res := eng.OnKill(s, d, &dice.Fixed{Values: []float64{0.99}}, now)
	assert.Equal(t, 6.0, res.Gold)
}

func TestAutoTick(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	d := stats.Compute(s, now)

	s.Auto = false
	assert.Nil(t, eng.AutoTick(s, d, 0.2, &dice.Fixed{}, now))
	assert.Equal(t, s.Enemy.HPMax, s.Enemy.HP)

	s.Auto = true
	assert.Nil(t, eng.AutoTick(s, d, 0.1, &dice.Fixed{Values: []float64{0.99}}, now))
	assert.InDelta(t, s.Enemy.HPMax-d.DPSTotal*0.1, s.Enemy.HP, 1e-9)

	d.DPSTotal = 1e6
	kill := eng.AutoTick(s, d, 0.1, &dice.Fixed{Values: []float64{0.99}}, now)
	require.NotNil(t, kill)
	assert.Equal(t, 2, s.Stage)
}

func TestSettle_OnlyWhenDepleted(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	d := stats.Compute(s, now)
	assert.Nil(t, eng.Settle(s, d, &dice.Fixed{}, now))
	combat.DealDamage(s, 1e9)
	assert.NotNil(t, eng.Settle(s, d, &dice.Fixed{Values: []float64{0.99}}, now))
	assert.Equal(t, 1, s.Kills)
}

func TestStageNavigation(t *testing.T) {
	eng := newEngine(t)
	s := state.New(now, 1, nil)
	eng.StageDown(s)
	assert.Equal(t, 1, s.Stage)
	eng.StageUp(s)
	eng.StageUp(s)
	assert.Equal(t, 3, s.Stage)
	assert.Equal(t, balance.EnemyForStage(3, nil).HP, s.Enemy.HPMax)
}

func TestProperty_OnKill_DeterministicForSeed(t *testing.T) {
	eng := newEngine(t)
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int32().Filter(func(v int32) bool { return v != 0 }).Draw(t, "seed")
		kills := rapid.IntRange(1, 40).Draw(t, "kills")
		a, b := state.New(now, seed, nil), state.New(now, seed, nil)
		for i := 0; i < kills; i++ {
			for _, s := range []*state.GameState{a, b} {
				d := stats.Compute(s, now)
				eng.OnKill(s, d, dice.NewStream(&s.Seed), now)
			}
		}
		if a.Seed != b.Seed || a.Gold != b.Gold || len(a.Inventory) != len(b.Inventory) {
			t.Fatalf("runs diverged")
		}
		for i := range a.Inventory {
			if *a.Inventory[i] != *b.Inventory[i] {
				t.Fatalf("item %d diverged", i)
			}
		}
	})
}
