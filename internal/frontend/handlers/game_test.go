package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/abyssidle/internal/frontend/telnet"
	"github.com/cory-johannsen/abyssidle/internal/game/clock"
	"github.com/cory-johannsen/abyssidle/internal/game/command"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/storage"
	"github.com/cory-johannsen/abyssidle/internal/storage/file"
	"github.com/cory-johannsen/abyssidle/internal/testutil"
)

type gameFixture struct {
	store *file.Store
	mgr   *session.Manager
	game  *GameHandler
}

func newGameFixture(t *testing.T) *gameFixture {
	t.Helper()
	tables, err := content.LoadDir("../../../content")
	require.NoError(t, err)
	g, err := session.NewGame(tables, session.DefaultOptions(), nil)
	require.NoError(t, err)
	store, err := file.NewStore(t.TempDir())
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)
	mgr := session.NewManager(g, store, clock.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)), logger)
	return &gameFixture{
		store: store,
		mgr:   mgr,
		game:  NewGameHandler(mgr, command.NewDispatcher(command.DefaultRegistry()), logger),
	}
}

func (f *gameFixture) serve(t *testing.T, username string) *testutil.TelnetClient {
	t.Helper()
	h := telnet.HandlerFunc(func(ctx context.Context, conn *telnet.Conn) error {
		return f.game.Play(ctx, conn, storage.Account{ID: 1, Username: username})
	})
	return testutil.NewTelnetClient(t, testServer(t, h))
}

func TestGameHandler_PlayAndQuit(t *testing.T) {
	f := newGameFixture(t)
	c := f.serve(t, "delver")

	arrival := telnet.StripANSI(c.ReadUntil("Type 'help' for commands.", 3*time.Second))
	assert.Contains(t, arrival, session.StartMessage)
	assert.Contains(t, arrival, "Stage 1")
	c.ReadUntil("[St.1 ", 2*time.Second)

	c.Send("auto")
	c.ReadUntil("Auto-attack: OFF", 2*time.Second)
	c.Send("up")
	c.ReadUntil("Stage 2:", 2*time.Second)
	c.Send("quit")
	c.ReadUntil("Progress saved.", 2*time.Second)

	assert.Eventually(t, func() bool { return f.mgr.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	blob, err := f.store.LoadSave(context.Background(), "delver")
	require.NoError(t, err)
	assert.Contains(t, string(blob), `"stage":2`)
	assert.Contains(t, string(blob), `"auto":false`)
}

func TestGameHandler_RejectsSecondConnection(t *testing.T) {
	f := newGameFixture(t)
	first := f.serve(t, "delver")
	first.ReadUntil("Type 'help' for commands.", 3*time.Second)

	second := f.serve(t, "delver")
	second.ReadUntil("already connected", 2*time.Second)
	assert.Equal(t, 1, f.mgr.Len())
}

func TestGameHandler_UnknownCommand(t *testing.T) {
	f := newGameFixture(t)
	c := f.serve(t, "delver")
	c.ReadUntil("Type 'help' for commands.", 3*time.Second)
	c.Send("xyzzy")
	c.ReadUntil("Unknown command", 2*time.Second)
}

func TestGameHandler_Play_ClaimReleased(t *testing.T) {
	f := newGameFixture(t)
	c := f.serve(t, "delver")
	c.ReadUntil("Type 'help' for commands.", 3*time.Second)
	c.Send("quit")
	c.ReadUntil("Progress saved.", 2*time.Second)

	assert.Eventually(t, func() bool { return f.game.claim("delver") }, 2*time.Second, 10*time.Millisecond)
}
