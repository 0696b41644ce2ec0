// Package scripting provides a sandboxed GopherLua environment for
// player-tunable auto-cast policies. Scripts only see the snapshot tables
// handed to them; they cannot reach the filesystem, the process, or game state.
package scripting

import (
	"context"
	"fmt"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// bounded call when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's mainLoopWithContext calls Done() once
// per opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done decrements the remaining budget and fires cancel when it is spent.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// newCountingContext returns a context that cancels after limit calls to Done().
// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// Sandbox is a restricted Lua VM. Every DoFile, DoString, and Call gets a
// fresh instruction budget. A Sandbox is single-threaded; callers serialise access.
type Sandbox struct {
	L     *lua.LState
	limit int
}

// NewSandbox creates a VM with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//   - Each bounded operation limited to at most instLimit Lua opcodes
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the Sandbox and must call Close when done.
func NewSandbox(instLimit int) *Sandbox {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &Sandbox{L: L, limit: limit}
}

// bounded runs fn with a fresh instruction budget installed on the VM.
func (s *Sandbox) bounded(fn func() error) error {
	ctx, cancel := newCountingContext(s.limit)
	s.L.SetContext(ctx)
	defer func() {
		s.L.RemoveContext()
		cancel()
	}()
	if err := fn(); err != nil {
		s.L.SetTop(0)
		return err
	}
	return nil
}

// DoFile executes the Lua file at path.
func (s *Sandbox) DoFile(path string) error {
	return s.bounded(func() error { return s.L.DoFile(path) })
}

// DoString executes src.
func (s *Sandbox) DoString(src string) error {
	return s.bounded(func() error { return s.L.DoString(src) })
}

// Call invokes the global function name with args and returns its first
// result. A missing global yields (LNil, false, nil).
//
// Postcondition: found reports whether name is a function; runtime errors and
// budget exhaustion are returned as err.
func (s *Sandbox) Call(name string, args ...lua.LValue) (ret lua.LValue, found bool, err error) {
	fn := s.L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, false, nil
	}
	err = s.bounded(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...)
	})
	if err != nil {
		return lua.LNil, true, fmt.Errorf("calling %s: %w", name, err)
	}
	ret = s.L.Get(-1)
	s.L.Pop(1)
	return ret, true, nil
}

// Close releases the VM.
func (s *Sandbox) Close() {
	s.L.Close()
}
