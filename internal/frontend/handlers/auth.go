// Package handlers implements the telnet conversation: account login and
// registration, then the game command loop for the logged-in player.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/abyssidle/internal/frontend/telnet"
	"github.com/cory-johannsen/abyssidle/internal/storage"
)

// Player plays the game for an authenticated account until the client quits
// or disconnects.
type Player interface {
	Play(ctx context.Context, conn *telnet.Conn, acct storage.Account) error
}

// Username and password limits for registration.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 32
	MinPasswordLen = 6
)

var welcomeBanner = "\r\n" +
	telnet.Colorize(telnet.Bold+telnet.BrightMagenta, "  ~~~  A B Y S S   I D L E  ~~~") + "\r\n" +
	telnet.Colorize(telnet.Dim, "  Descend forever. The abyss keeps fighting while you sleep.") + "\r\n\r\n" +
	"  Type " + telnet.Colorize(telnet.Green, "login <username> <password>") + " to connect.\r\n" +
	"  Type " + telnet.Colorize(telnet.Green, "register <username> <password>") + " to create an account.\r\n" +
	"  Type " + telnet.Colorize(telnet.Green, "quit") + " to disconnect.\r\n"

// AuthHandler implements telnet.SessionHandler: it runs the login loop and
// hands authenticated clients to a Player.
type AuthHandler struct {
	accounts storage.AccountStore
	player   Player
	logger   *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
//
// Precondition: accounts, player, and logger must be non-nil.
func NewAuthHandler(accounts storage.AccountStore, player Player, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, player: player, logger: logger}
}

// HandleSession shows the banner and processes login commands until the
// client logs in or quits. A successful login plays the game, and the
// session ends when play ends.
//
// Postcondition: returns nil on a clean quit.
func (h *AuthHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	if err := conn.WriteText(welcomeBanner); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	for {
		if ctx.Err() != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return ctx.Err()
		}
		if err := conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> ")); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		args := parts[1:]

		switch strings.ToLower(parts[0]) {
		case "quit", "exit":
			_ = conn.WriteLine(telnet.Colorize(telnet.Cyan, "Goodbye!"))
			return nil
		case "login":
			acct, ok := h.login(ctx, conn, args)
			if !ok {
				continue
			}
			h.logger.Info("player logged in",
				zap.String("player", acct.Username),
				zap.Duration("login_time", time.Since(start)),
			)
			return h.player.Play(ctx, conn, acct)
		case "register":
			h.register(ctx, conn, args)
		case "help":
			h.showHelp(conn)
		default:
			_ = conn.WriteLine(telnet.Colorf(telnet.Red, "Unknown command: %s. Type 'help' for available commands.", parts[0]))
		}
	}
}

// login authenticates args. Failures are reported to the client.
func (h *AuthHandler) login(ctx context.Context, conn *telnet.Conn, args []string) (storage.Account, bool) {
	if len(args) < 2 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: login <username> <password>"))
		return storage.Account{}, false
	}
	acct, err := h.accounts.Authenticate(ctx, args[0], args[1])
	switch {
	case errors.Is(err, storage.ErrAccountNotFound):
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Account not found. Use 'register' to create one."))
		return storage.Account{}, false
	case errors.Is(err, storage.ErrInvalidCredentials):
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Invalid password."))
		return storage.Account{}, false
	case err != nil:
		h.logger.Error("authentication error", zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
		return storage.Account{}, false
	}
	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Welcome back, %s!", acct.Username))
	if !acct.LastLoginAt.IsZero() {
		_ = conn.WriteLine(fmt.Sprintf("Last login: %s", acct.LastLoginAt.Local().Format(time.DateTime)))
	}
	return acct, true
}

func (h *AuthHandler) register(ctx context.Context, conn *telnet.Conn, args []string) {
	if len(args) < 2 {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "Usage: register <username> <password>"))
		return
	}
	username, password := args[0], args[1]
	if msg := validateCredentials(username, password); msg != "" {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, msg))
		return
	}

	acct, err := h.accounts.Create(ctx, username, password)
	if errors.Is(err, storage.ErrAccountExists) {
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "That username is already taken."))
		return
	}
	if err != nil {
		h.logger.Error("registration error", zap.Error(err))
		_ = conn.WriteLine(telnet.Colorize(telnet.Red, "An internal error occurred. Please try again."))
		return
	}
	h.logger.Info("account registered", zap.String("player", acct.Username))
	_ = conn.WriteLine(telnet.Colorf(telnet.BrightGreen, "Account created: %s. You may now 'login'.", acct.Username))
}

// validateCredentials returns a message describing the first problem with a
// registration, or "".
func validateCredentials(username, password string) string {
	if len(username) < MinUsernameLen || len(username) > MaxUsernameLen {
		return fmt.Sprintf("Username must be %d-%d characters.", MinUsernameLen, MaxUsernameLen)
	}
	for _, r := range username {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return "Username may contain only letters, digits, '_' and '-'."
		}
	}
	if len(password) < MinPasswordLen {
		return fmt.Sprintf("Password must be at least %d characters.", MinPasswordLen)
	}
	return ""
}

func (h *AuthHandler) showHelp(conn *telnet.Conn) {
	_ = conn.WriteLine(telnet.Colorize(telnet.BrightWhite, "Available commands:"))
	_ = conn.WriteLine("  " + telnet.Colorize(telnet.Green, "login <username> <password>") + "     log in to your account")
	_ = conn.WriteLine("  " + telnet.Colorize(telnet.Green, "register <username> <password>") + "  create a new account")
	_ = conn.WriteLine("  " + telnet.Colorize(telnet.Green, "help") + "                            show this help")
	_ = conn.WriteLine("  " + telnet.Colorize(telnet.Green, "quit") + "                            disconnect")
}
