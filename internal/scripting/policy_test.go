package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/scripting"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func loadPolicy(t *testing.T, path string) *scripting.Policy {
	t.Helper()
	p, err := scripting.LoadPolicy(path, 10_000, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func gameState(stage int, boss bool, hp, hpMax float64) *state.GameState {
	return &state.GameState{
		Stage:  stage,
		Gold:   42,
		Player: state.Player{Level: 3},
		Enemy:  &state.Enemy{Name: "Slime", Boss: boss, HP: hp, HPMax: hpMax},
	}
}

func TestPolicy_Allow_Results(t *testing.T) {
	p := loadPolicy(t, writeScript(t, `
		function autocast(skill, view)
			if skill == "power" then return true end
			if skill == "execute" then return false end
			if skill == "haste" then return 7 end
			return nil
		end
	`))
	s := gameState(3, false, 10, 20)

	allow, ok := p.Allow(state.SkillPower, s)
	assert.True(t, ok)
	assert.True(t, allow)

	allow, ok = p.Allow(state.SkillExecute, s)
	assert.True(t, ok)
	assert.False(t, allow)

	_, ok = p.Allow(state.SkillHaste, s)
	assert.False(t, ok, "non-boolean defers to the built-in condition")

	_, ok = p.Allow(state.SkillLucky, s)
	assert.False(t, ok, "nil defers to the built-in condition")
}

func TestPolicy_Allow_SeesView(t *testing.T) {
	p := loadPolicy(t, writeScript(t, `
		function autocast(skill, view)
			return view.stage == 10 and view.boss and view.enemy_hp == 5
				and view.enemy_hp_max == 50 and view.gold == 42 and view.level == 3
		end
	`))
	allow, ok := p.Allow(state.SkillPower, gameState(10, true, 5, 50))
	assert.True(t, ok)
	assert.True(t, allow)
}

func TestPolicy_Allow_RuntimeErrorFallsBack(t *testing.T) {
	p := loadPolicy(t, writeScript(t, `function autocast(skill, view) error("boom") end`))
	_, ok := p.Allow(state.SkillPower, gameState(1, false, 1, 1))
	assert.False(t, ok)
}

func TestPolicy_Allow_RunawayFallsBack(t *testing.T) {
	p := loadPolicy(t, writeScript(t, `
		function autocast(skill, view)
			if skill == "power" then while true do end end
			return true
		end
	`))
	_, ok := p.Allow(state.SkillPower, gameState(1, false, 1, 1))
	assert.False(t, ok)

	allow, ok := p.Allow(state.SkillBerserk, gameState(1, false, 1, 1))
	assert.True(t, ok, "the VM stays usable after a runaway call")
	assert.True(t, allow)
}

func TestPolicy_MissingHook(t *testing.T) {
	p := loadPolicy(t, writeScript(t, `x = 1`))
	_, ok := p.Allow(state.SkillPower, gameState(1, false, 1, 1))
	assert.False(t, ok)
}

func TestLoadPolicy_Errors(t *testing.T) {
	_, err := scripting.LoadPolicy(filepath.Join(t.TempDir(), "absent.lua"), 0, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = scripting.LoadPolicy(writeScript(t, `function (`), 0, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestPolicy_ShippedScript(t *testing.T) {
	p := loadPolicy(t, "../../content/policy.lua")

	allow, ok := p.Allow(state.SkillPower, gameState(10, true, 100, 100))
	assert.True(t, ok)
	assert.True(t, allow)

	allow, ok = p.Allow(state.SkillPower, gameState(10, true, 10, 100))
	assert.True(t, ok)
	assert.False(t, allow, "hold power strike for a nearly dead boss")

	allow, ok = p.Allow(state.SkillLucky, gameState(3, false, 10, 10))
	assert.True(t, ok)
	assert.False(t, allow)

	_, ok = p.Allow(state.SkillHaste, gameState(3, false, 10, 10))
	assert.False(t, ok)
}
