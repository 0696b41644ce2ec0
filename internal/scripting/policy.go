package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// PolicyHook is the global Lua function consulted before each auto-cast.
const PolicyHook = "autocast"

// Policy lets a Lua script override the built-in auto-cast conditions. The
// script defines autocast(skill, view) returning true (cast), false (hold),
// or nil (use the built-in condition).
//
// Policy is safe for concurrent use; calls are serialised on one VM.
type Policy struct {
	mu     sync.Mutex
	box    *Sandbox
	logger *zap.Logger
}

// LoadPolicy compiles the script at path into a fresh sandbox.
//
// Precondition: path must name a readable Lua file; logger must be non-nil.
// Postcondition: Returns a ready Policy or a non-nil error.
func LoadPolicy(path string, instLimit int, logger *zap.Logger) (*Policy, error) {
	box := NewSandbox(instLimit)
	if err := box.DoFile(path); err != nil {
		box.Close()
		return nil, fmt.Errorf("scripting: loading policy %q: %w", path, err)
	}
	if box.L.GetGlobal(PolicyHook).Type() != lua.LTFunction {
		logger.Warn("scripting: policy defines no hook; built-in conditions apply",
			zap.String("path", path),
			zap.String("hook", PolicyHook),
		)
	}
	return &Policy{box: box, logger: logger}, nil
}

// Allow asks the script whether skill key may be auto-cast against s.
//
// Postcondition: ok is false when the hook is missing, errors, exceeds its
// budget, or returns a non-boolean; the caller then falls back to the
// built-in condition.
func (p *Policy) Allow(key string, s *state.GameState) (allow bool, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ret, found, err := p.box.Call(PolicyHook, lua.LString(key), p.view(s))
	if err != nil {
		p.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", PolicyHook),
			zap.String("skill", key),
			zap.Error(err),
		)
		return false, false
	}
	if !found {
		return false, false
	}
	b, isBool := ret.(lua.LBool)
	if !isBool {
		return false, false
	}
	return bool(b), true
}

// view builds the read-only snapshot table passed to the hook.
func (p *Policy) view(s *state.GameState) *lua.LTable {
	L := p.box.L
	t := L.NewTable()
	t.RawSetString("stage", lua.LNumber(s.Stage))
	t.RawSetString("gold", lua.LNumber(s.Gold))
	t.RawSetString("level", lua.LNumber(s.Player.Level))
	if s.Enemy != nil {
		t.RawSetString("boss", lua.LBool(s.Enemy.Boss))
		t.RawSetString("enemy_hp", lua.LNumber(s.Enemy.HP))
		t.RawSetString("enemy_hp_max", lua.LNumber(s.Enemy.HPMax))
	}
	return t
}

// Close releases the VM.
func (p *Policy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.box.Close()
}
