package pet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/pet"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

var now = time.Date(2026, 6, 6, 6, 6, 6, 0, time.UTC)

func testTables() *content.Tables {
	return &content.Tables{
		Pets: []*content.PetDef{
			{ID: "p_wolf", Name: "Wolf", SkillID: "ps_bite"},
			{ID: "p_owl", Name: "Owl", SkillID: "ps_swift"},
			{ID: "p_cat", Name: "Cat", SkillID: "ps_fortune"},
			{ID: "p_mute", Name: "Mute", SkillID: "ps_missing"},
		},
		PetSkills: []*content.PetSkillDef{
			{ID: "ps_bite", Name: "Bite", Kind: content.KindBurstDamage},
			{ID: "ps_swift", Name: "Swift", Kind: content.KindBuffAspd, Value: 0.25, Cooldown: 12},
			{ID: "ps_fortune", Name: "Fortune", Kind: content.KindBuffGold, Value: 0.3, Duration: 5},
		},
	}
}

func TestUnlockSlot(t *testing.T) {
	s := state.New(now, 1, nil)
	s.Gold = 499
	assert.ErrorIs(t, pet.UnlockSlot(s, 1, now), state.ErrInsufficientGold)
	assert.False(t, s.Pets.Slots[1].Unlocked)
	assert.Empty(t, s.Log)

	s.Gold = 600
	require.NoError(t, pet.UnlockSlot(s, 1, now))
	assert.True(t, s.Pets.Slots[1].Unlocked)
	assert.Equal(t, 1, s.Pets.Slots[1].Level)
	assert.Equal(t, 100.0, s.Gold)

	assert.ErrorIs(t, pet.UnlockSlot(s, 1, now), state.ErrNotEligible)
	assert.ErrorIs(t, pet.UnlockSlot(s, 3, now), state.ErrInvalidTarget)
	assert.ErrorIs(t, pet.UnlockSlot(s, -1, now), state.ErrInvalidTarget)
}

func TestLevelUp(t *testing.T) {
	s := state.New(now, 1, nil)
	s.Gold = 1000
	require.NoError(t, pet.LevelUp(s, 0, now))
	assert.Equal(t, 2, s.Pets.Slots[0].Level)
	assert.Equal(t, 880.0, s.Gold)
	require.NoError(t, pet.LevelUp(s, 0, now))
	assert.Equal(t, 880.0-156.0, s.Gold)

	assert.ErrorIs(t, pet.LevelUp(s, 2, now), state.ErrInvalidTarget)
	s.Gold = 0
	assert.ErrorIs(t, pet.LevelUp(s, 0, now), state.ErrInsufficientGold)
	assert.Equal(t, 3, s.Pets.Slots[0].Level)
}

func TestSetPet(t *testing.T) {
	tables := testTables()
	s := state.New(now, 1, nil)
	s.Pets.Slots[0].SkillCD = 4
	require.NoError(t, pet.SetPet(s, 0, "p_owl", tables))
	assert.Equal(t, "p_owl", s.Pets.Slots[0].PetID)
	assert.Equal(t, 4.0, s.Pets.Slots[0].SkillCD)
	assert.ErrorIs(t, pet.SetPet(s, 0, "p_dragon", tables), state.ErrNotFound)
	assert.ErrorIs(t, pet.SetPet(s, 9, "p_owl", tables), state.ErrInvalidTarget)
}

func TestTick_BurstDamage(t *testing.T) {
	tables := testTables()
	s := state.New(now, 1, nil)
	d := stats.Compute(s, now)

	fired := pet.Tick(s, 0.1, d, tables, now)
	require.Len(t, fired, 1)
	assert.Equal(t, 4.0, fired[0].Damage) // ATK 2 x default 2.0
	assert.Equal(t, 14.0, s.Enemy.HP)
	assert.Equal(t, pet.DefaultCooldown, s.Pets.Slots[0].SkillCD)
	assert.Equal(t, "Pet skill: Wolf - Bite", s.Log[0].Msg)

	assert.Empty(t, pet.Tick(s, 19.9, d, tables, now))
	assert.InDelta(t, 0.1, s.Pets.Slots[0].SkillCD, 1e-9)
	assert.Len(t, pet.Tick(s, 0.2, d, tables, now), 1)
}

func TestTick_BuffLastWriterWins(t *testing.T) {
	tables := testTables()
	s := state.New(now, 1, nil)
	for i := range s.Pets.Slots {
		s.Pets.Slots[i].Unlocked = true
		s.Pets.Slots[i].Level = 1
	}
	s.Pets.Slots[0].PetID = "p_owl"
	s.Pets.Slots[1].PetID = "p_cat"
	s.Pets.Slots[2].PetID = "p_mute"
	d := stats.Compute(s, now)

	fired := pet.Tick(s, 0, d, tables, now)
	require.Len(t, fired, 2)
	require.NotNil(t, s.Buffs.PetBuff)
	assert.Equal(t, content.KindBuffGold, s.Buffs.PetBuff.Kind)
	assert.Equal(t, now.Add(5*time.Second).UnixMilli(), s.Buffs.Expires.Pet)
	assert.Equal(t, 12.0, s.Pets.Slots[0].SkillCD)
	assert.Equal(t, pet.DefaultCooldown, s.Pets.Slots[1].SkillCD)
	assert.Equal(t, 0.0, s.Pets.Slots[2].SkillCD, "unknown skill never fires")
}

func TestTick_LockedSlotsUntouched(t *testing.T) {
	tables := testTables()
	s := state.New(now, 1, nil)
	s.Pets.Slots[1].SkillCD = 5
	pet.Tick(s, 1, stats.Compute(s, now), tables, now)
	assert.Equal(t, 5.0, s.Pets.Slots[1].SkillCD)
}
