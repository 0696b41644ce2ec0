package state

import "errors"

// Gameplay rejections. A rejected transition leaves the state unchanged and
// writes no log entry.
var (
	// ErrInsufficientGold is returned when an action costs more gold than is held.
	ErrInsufficientGold = errors.New("insufficient gold")
	// ErrNotFound is returned when an item, skill, pet, or upgrade id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTarget is returned when the target exists but cannot be acted on,
	// such as a locked pet slot or a mismatched synthesis candidate.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrOnCooldown is returned when a skill is cast before its cooldown elapses.
	ErrOnCooldown = errors.New("on cooldown")
	// ErrMaxed is returned when an item or slot is already at its ceiling.
	ErrMaxed = errors.New("already at maximum")
	// ErrNotEligible is returned when a transition's precondition does not hold,
	// such as synthesis outside synthesis mode or prestige without a request.
	ErrNotEligible = errors.New("not eligible")
	// ErrMalformedSave is returned when persisted or imported data is not a JSON object.
	ErrMalformedSave = errors.New("malformed save data")
)
