package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/frontend/telnet"
	"github.com/cory-johannsen/abyssidle/internal/game/command"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/observability"
	"github.com/cory-johannsen/abyssidle/internal/storage"
)

// ErrAlreadyPlaying is returned when an account is already connected.
var ErrAlreadyPlaying = errors.New("account already connected")

// GameHandler runs the command loop for logged-in players. One connection
// per account may play at a time.
type GameHandler struct {
	mgr        *session.Manager
	dispatcher *command.Dispatcher
	logger     *zap.Logger

	mu     sync.Mutex
	active map[string]bool
}

// NewGameHandler creates a GameHandler.
//
// Precondition: mgr, dispatcher, and logger must be non-nil.
func NewGameHandler(mgr *session.Manager, dispatcher *command.Dispatcher, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		mgr:        mgr,
		dispatcher: dispatcher,
		logger:     logger,
		active:     make(map[string]bool),
	}
}

func (h *GameHandler) claim(playerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active[playerID] {
		return false
	}
	h.active[playerID] = true
	return true
}

func (h *GameHandler) release(playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.active, playerID)
}

// Play opens the account's session and processes commands until the client
// quits, disconnects, or ctx is cancelled. The session is flushed and closed
// on every exit path.
//
// Postcondition: returns ErrAlreadyPlaying, after telling the client, when
// the account is connected elsewhere.
func (h *GameHandler) Play(ctx context.Context, conn *telnet.Conn, acct storage.Account) error {
	playerID := acct.Username
	logger := observability.ForPlayer(h.logger, playerID)
	if !h.claim(playerID) {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That account is already connected."))
		return ErrAlreadyPlaying
	}
	defer h.release(playerID)

	sess, err := h.mgr.Open(ctx, playerID)
	if err != nil {
		logger.Error("opening session", zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Your save could not be loaded. Please try again later."))
		return fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if err := h.mgr.Close(context.WithoutCancel(ctx), playerID); err != nil {
			logger.Warn("closing session", zap.Error(err))
		}
	}()

	if err := conn.WriteText(RenderArrival(sess)); err != nil {
		return err
	}
	for {
		if ctx.Err() != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Your progress has been saved."))
			return ctx.Err()
		}
		if err := conn.WritePrompt(RenderPrompt(sess)); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		res := h.dispatcher.Execute(ctx, sess, line)
		if res.Output != "" {
			if err := conn.WriteLine(res.Output); err != nil {
				return err
			}
		}
		if res.Quit {
			logger.Info("player quit")
			return nil
		}
	}
}
