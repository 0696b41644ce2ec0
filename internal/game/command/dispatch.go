package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// Result is the outcome of one executed command line.
type Result struct {
	// Output is the text to show the player; it may be empty.
	Output string
	// Quit is set when the player asked to disconnect.
	Quit bool
}

// handlerFunc runs one command against a session.
type handlerFunc func(ctx context.Context, sess *session.Session, p ParseResult) (string, error)

// errQuit signals the quit command; it never reaches the player.
var errQuit = errors.New("quit")

// ErrAmbiguousItem is returned when an id prefix matches several items.
var ErrAmbiguousItem = errors.New("ambiguous item")

// usageError reports a malformed invocation of cmd.
type usageError struct {
	cmd *Command
}

func (e usageError) Error() string {
	if e.cmd.Usage == "" {
		return "Usage: " + e.cmd.Name
	}
	return fmt.Sprintf("Usage: %s %s", e.cmd.Name, e.cmd.Usage)
}

// Dispatcher resolves command lines through a Registry and runs the matching
// handler against a session.
type Dispatcher struct {
	reg      *Registry
	handlers map[string]handlerFunc
}

// NewDispatcher creates a Dispatcher over reg.
//
// Precondition: reg must be non-nil.
// Postcondition: every built-in handler id is bound.
func NewDispatcher(reg *Registry) *Dispatcher {
	d := &Dispatcher{reg: reg}
	d.handlers = map[string]handlerFunc{
		HandlerAttack:     HandleAttack,
		HandlerAuto:       HandleAuto,
		HandlerUp:         HandleUp,
		HandlerDown:       HandleDown,
		HandlerAdvance:    HandleAdvance,
		HandlerAutoSkills: HandleAutoSkills,
		HandlerCast:       HandleCast,
		HandlerSkillAuto:  HandleSkillAuto,
		HandlerBuy:        HandleBuy,
		HandlerEquip:      HandleEquip,
		HandlerUnequip:    HandleUnequip,
		HandlerSell:       HandleSell,
		HandlerEnhance:    HandleEnhance,
		HandlerSynth:      HandleSynth,
		HandlerSelect:     HandleSelect,
		HandlerFuse:       HandleFuse,
		HandlerPet:        HandlePet,
		HandlerPets:       HandlePets,
		HandlerPrestige:   HandlePrestige,
		HandlerConfirm:    HandleConfirm,
		HandlerReset:      HandleReset,
		HandlerExport:     HandleExport,
		HandlerImport:     HandleImport,
		HandlerStatus:     HandleStatus,
		HandlerInventory:  HandleInventory,
		HandlerSkills:     HandleSkills,
		HandlerLog:        HandleLog,
		HandlerHelp: func(context.Context, *session.Session, ParseResult) (string, error) {
			return HelpText(d.reg), nil
		},
		HandlerQuit: func(context.Context, *session.Session, ParseResult) (string, error) {
			return "", errQuit
		},
	}
	return d
}

// Execute parses line and runs it against sess. Rejected actions come back as
// player-facing messages, never as errors; storage failures are reported the
// same way.
//
// Precondition: sess must be non-nil.
func (d *Dispatcher) Execute(ctx context.Context, sess *session.Session, line string) Result {
	p := Parse(line)
	if p.Command == "" {
		return Result{}
	}
	cmd, ok := d.reg.Resolve(p.Command)
	if !ok {
		return Result{Output: fmt.Sprintf("Unknown command %q. Type 'help' for a list.", p.Command)}
	}
	h, ok := d.handlers[cmd.Handler]
	if !ok {
		return Result{Output: fmt.Sprintf("Command %q is not available.", cmd.Name)}
	}

	out, err := h(ctx, sess, p)
	switch {
	case errors.Is(err, errQuit):
		return Result{Output: "Progress saved. Farewell.", Quit: true}
	case errors.Is(err, errUsage):
		return Result{Output: usageError{cmd: cmd}.Error()}
	case err != nil:
		return Result{Output: Describe(err)}
	}
	return Result{Output: out}
}

// errUsage marks a malformed invocation; Execute renders the usage line.
var errUsage = errors.New("usage")

// Describe maps an action error to the message shown to the player.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, state.ErrInsufficientGold):
		return "Not enough gold."
	case errors.Is(err, state.ErrOnCooldown):
		return "That skill is still on cooldown."
	case errors.Is(err, state.ErrMaxed):
		return "Already at the maximum."
	case errors.Is(err, state.ErrNotEligible):
		return "You can't do that right now."
	case errors.Is(err, state.ErrInvalidTarget):
		return "Invalid target."
	case errors.Is(err, state.ErrNotFound):
		return "No such thing."
	case errors.Is(err, state.ErrMalformedSave):
		return "That save data could not be read."
	case errors.Is(err, ErrAmbiguousItem):
		return "More than one item matches; use more of the id or its number."
	}
	return "Something went wrong: " + err.Error()
}

// resolveItem finds an inventory item by 1-based list number or by id prefix.
//
// Postcondition: returns state.ErrNotFound when nothing matches and
// ErrAmbiguousItem when a prefix matches more than one item.
func resolveItem(sess *session.Session, ref string) (*state.Item, error) {
	var (
		found *state.Item
		err   error
	)
	sess.Read(func(v session.View) {
		inv := v.State.Inventory
		if n, convErr := strconv.Atoi(ref); convErr == nil {
			if n < 1 || n > len(inv) {
				err = state.ErrNotFound
				return
			}
			cp := *inv[n-1]
			found = &cp
			return
		}
		for _, it := range inv {
			if !strings.HasPrefix(it.ID, ref) {
				continue
			}
			if found != nil {
				err = ErrAmbiguousItem
				return
			}
			cp := *it
			found = &cp
		}
		if found == nil {
			err = state.ErrNotFound
		}
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// slotArg parses a 1-based pet slot number into a 0-based index.
func slotArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errUsage
	}
	return n - 1, nil
}
