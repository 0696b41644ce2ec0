package balance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
)

func TestIsBossStage_MultiplesOfTen(t *testing.T) {
	for s := 1; s <= 1000; s++ {
		if got, want := balance.IsBossStage(s), s%10 == 0; got != want {
			t.Fatalf("IsBossStage(%d) = %v, want %v", s, got, want)
		}
	}
}

func TestEnemyForStage_Fallback(t *testing.T) {
	cases := []struct {
		stage              int
		name               string
		hp, atk, exp, gold float64
		boss               bool
	}{
		{1, "Slime", 18, 2, 5, 3, false},
		{2, "Slime", 21, 2, 5, 3, false},
		{10, "Slime (Boss)", 395, 3, 24, 24, true},
		{11, "Goblin", 101, 4, 12, 9, false},
	}
	for _, tc := range cases {
		e := balance.EnemyForStage(tc.stage, nil)
		assert.Equal(t, tc.name, e.Name, "stage %d", tc.stage)
		assert.Equal(t, tc.hp, e.HP, "stage %d hp", tc.stage)
		assert.Equal(t, tc.atk, e.Atk, "stage %d atk", tc.stage)
		assert.Equal(t, tc.exp, e.Exp, "stage %d exp", tc.stage)
		assert.Equal(t, tc.gold, e.Gold, "stage %d gold", tc.stage)
		assert.Equal(t, tc.boss, e.Boss, "stage %d boss", tc.stage)
	}
}

func TestEnemyForStage_MonsterTable(t *testing.T) {
	monsters := []*content.MonsterDef{
		{Name: "Bat", Sprite: "bat", HP: 20, Atk: 3, Gold: 6, Exp: 4},
		{},
	}
	boss := balance.EnemyForStage(10, monsters)
	assert.Equal(t, "Mob 2", boss.Name)
	assert.True(t, boss.Boss)

	e := balance.EnemyForStage(1, monsters)
	assert.Equal(t, "Bat", e.Name)
	assert.Equal(t, "bat", e.Sprite)
	assert.Equal(t, 20.0, e.HP)

	// Stage 3 cycles back to the first entry; the second uses defaults.
	assert.Equal(t, "Bat", balance.EnemyForStage(3, monsters).Name)
	d := balance.EnemyForStage(2, []*content.MonsterDef{{Name: "x"}, {}})
	assert.Equal(t, 20.0, d.HP) // floor(18*1.16)
}

func TestEnemyForStage_TableBossMultipliers(t *testing.T) {
	monsters := []*content.MonsterDef{{Name: "Bat", HP: 20, Atk: 3, Gold: 6, Exp: 4}}
	e := balance.EnemyForStage(10, monsters)
	assert.Equal(t, 342.0, e.HP)
	assert.Equal(t, 7.0, e.Atk)
	assert.Equal(t, 17.0, e.Exp)
	assert.Equal(t, 45.0, e.Gold)
}

func TestProperty_EnemyForStage_Minimums(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stage := rapid.IntRange(-5, 400).Draw(t, "stage")
		e := balance.EnemyForStage(stage, nil)
		if e.HP < 5 || e.Atk < 1 || e.Exp < 1 || e.Gold < 1 {
			t.Fatalf("stage %d below minimums: %+v", stage, e)
		}
	})
}

func TestDropChanceBase_Clamped(t *testing.T) {
	assert.InDelta(t, 0.102, balance.DropChanceBase(1), 1e-12)
	assert.InDelta(t, 0.30, balance.DropChanceBase(100), 1e-12)
	assert.Equal(t, 0.35, balance.DropChanceBase(1000))
	assert.Equal(t, 0.10, balance.DropChanceBase(-50))
}

func TestEnhanceChance_NonIncreasing(t *testing.T) {
	prev := 1.0
	for lvl := 0; lvl <= balance.EnhanceMax; lvl++ {
		c := balance.EnhanceChance(lvl)
		require.LessOrEqual(t, c, prev, "level %d", lvl)
		prev = c
	}
	assert.Equal(t, 0.90, balance.EnhanceChance(0))
	assert.Equal(t, 0.05, balance.EnhanceChance(10))
	assert.Equal(t, 0.05, balance.EnhanceChance(25))
}

func TestRarity_Ladder(t *testing.T) {
	assert.Equal(t, "U", balance.NextRarity("C"))
	assert.Equal(t, "R", balance.NextRarity("U"))
	assert.Equal(t, "E", balance.NextRarity("R"))
	assert.Equal(t, "E", balance.NextRarity("E"))
	assert.Equal(t, 0, balance.RarityIndex("nope"))
	assert.Equal(t, "Common", balance.RarityByKey("nope").Name)
	assert.Equal(t, 2.50, balance.RarityByKey("E").Mult)
	assert.Equal(t, 5.0, balance.BoostedWeight("E"))
	assert.Len(t, balance.Rarities(), 4)
}

func TestPetCurves(t *testing.T) {
	assert.Equal(t, 0.0, balance.PetUnlockCost(0))
	assert.Equal(t, 500.0, balance.PetUnlockCost(1))
	assert.Equal(t, 2500.0, balance.PetUnlockCost(2))
	assert.Equal(t, 120.0, balance.PetLevelUpCost(0, 1))
	assert.Equal(t, 312.0, balance.PetLevelUpCost(1, 2))
	assert.InDelta(t, 0.06, balance.PetPassiveBonus(1), 1e-12)
	assert.Equal(t, 0.25, balance.PetPassiveBonus(99))
	assert.Equal(t, 1.0, balance.PetSlotWeight(0))
	assert.Equal(t, 0.85, balance.PetSlotWeight(1))
	assert.Equal(t, 0.70, balance.PetSlotWeight(2))
}

func TestUpgradeCosts(t *testing.T) {
	atk, ok := balance.UpgradeByKey(balance.UpgradeAtk)
	require.True(t, ok)
	assert.Equal(t, 12.0, atk.Cost(0))
	assert.Equal(t, 14.0, atk.Cost(1))
	_, ok = balance.UpgradeByKey("nope")
	assert.False(t, ok)
	assert.Len(t, balance.Upgrades(), 4)
}

func TestEssenceForStage(t *testing.T) {
	assert.Equal(t, 0, balance.EssenceForStage(29))
	assert.Equal(t, 1, balance.EssenceForStage(30))
	assert.Equal(t, 2, balance.EssenceForStage(55))
	assert.Equal(t, 3, balance.EssenceForStage(76))
}
