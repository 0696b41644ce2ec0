package command

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// HandleAttack strikes the enemy once.
func HandleAttack(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	res, err := sess.Attack(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if res.Crit {
		fmt.Fprintf(&b, "Critical hit for %s!", FormatNumber(res.Damage))
	} else {
		fmt.Fprintf(&b, "You hit for %s.", FormatNumber(res.Damage))
	}
	if k := res.Kill; k != nil {
		fmt.Fprintf(&b, "\r\n%s defeated! +%sG +%s EXP", k.Enemy, FormatNumber(k.Gold), FormatNumber(k.Exp))
		if k.Drop != nil {
			fmt.Fprintf(&b, "\r\nDrop: %s", k.Drop.Name)
		}
		if k.BossItem != nil {
			fmt.Fprintf(&b, "\r\nBoss chest! +%sG, %s", FormatNumber(k.BossGold), k.BossItem.Name)
		}
	}
	return b.String(), nil
}

// toggle runs fn and reports the flag read back through get.
func toggle(ctx context.Context, sess *session.Session, label string, fn func(context.Context) error, get func(*state.GameState) bool) (string, error) {
	if err := fn(ctx); err != nil {
		return "", err
	}
	var on bool
	sess.Read(func(v session.View) { on = get(v.State) })
	return fmt.Sprintf("%s: %s", label, onOff(on)), nil
}

// HandleAuto flips auto-attack.
func HandleAuto(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return toggle(ctx, sess, "Auto-attack", sess.ToggleAuto, func(s *state.GameState) bool { return s.Auto })
}

// HandleAdvance flips auto-advance.
func HandleAdvance(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return toggle(ctx, sess, "Auto-advance", sess.ToggleAutoAdvance, func(s *state.GameState) bool { return s.AutoAdvance })
}

// HandleAutoSkills flips the master auto-cast switch.
func HandleAutoSkills(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return toggle(ctx, sess, "Auto-skills", sess.ToggleAutoSkills, func(s *state.GameState) bool { return s.AutoSkills })
}

func stageLine(sess *session.Session) string {
	var line string
	sess.Read(func(v session.View) {
		line = fmt.Sprintf("Stage %d: %s appears.", v.State.Stage, enemyLabel(v.State.Enemy))
	})
	return line
}

// HandleUp moves to the next stage.
func HandleUp(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	if err := sess.StageUp(ctx); err != nil {
		return "", err
	}
	return stageLine(sess), nil
}

// HandleDown moves back one stage.
func HandleDown(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	if err := sess.StageDown(ctx); err != nil {
		return "", err
	}
	return stageLine(sess), nil
}

// HandleCast casts the named skill.
func HandleCast(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	key, err := skillArg(sess, p.Arg(0))
	if err != nil {
		return "", err
	}
	if err := sess.CastSkill(ctx, key); err != nil {
		return "", err
	}
	def, _ := sess.Game().Book().Lookup(key)
	return fmt.Sprintf("You use %s.", def.Name), nil
}

// HandleSkillAuto sets or toggles one skill's auto-cast flag.
func HandleSkillAuto(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	key, err := skillArg(sess, p.Arg(0))
	if err != nil {
		return "", err
	}
	switch p.Arg(1) {
	case "":
		err = sess.ToggleSkillAuto(ctx, key)
	case "on":
		err = sess.SetSkillAuto(ctx, key, true)
	case "off":
		err = sess.SetSkillAuto(ctx, key, false)
	default:
		return "", errUsage
	}
	if err != nil {
		return "", err
	}
	var on bool
	sess.Read(func(v session.View) { on = v.State.Skills[key].Auto })
	def, _ := sess.Game().Book().Lookup(key)
	return fmt.Sprintf("%s auto-cast: %s", def.Name, onOff(on)), nil
}

// skillArg matches a skill by key or by a case-insensitive prefix of its name.
func skillArg(sess *session.Session, arg string) (string, error) {
	if arg == "" {
		return "", errUsage
	}
	for _, def := range sess.Game().Book().Defs() {
		if def.Key == arg || strings.HasPrefix(strings.ToLower(def.Name), arg) {
			return def.Key, nil
		}
	}
	return "", state.ErrNotFound
}

// HandleBuy buys an upgrade level, or lists upgrades with no argument.
func HandleBuy(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	key := p.Arg(0)
	if key == "" {
		return UpgradesText(sess), nil
	}
	def, ok := balance.UpgradeByKey(key)
	if !ok {
		return "", state.ErrNotFound
	}
	if err := sess.BuyUpgrade(ctx, key); err != nil {
		return "", err
	}
	var lvl int
	sess.Read(func(v session.View) { lvl = *v.State.Upgrades.Level(key) })
	return fmt.Sprintf("%s is now Lv.%d.", def.Name, lvl), nil
}

// HandleEquip equips an inventory item.
func HandleEquip(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if len(p.Args) == 0 {
		return "", errUsage
	}
	it, err := resolveItem(sess, p.Args[0])
	if err != nil {
		return "", err
	}
	if err := sess.Equip(ctx, it.ID); err != nil {
		return "", err
	}
	return fmt.Sprintf("You equip %s.", itemLabel(it)), nil
}

// HandleUnequip empties an equipment slot.
func HandleUnequip(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	t := state.ItemType(p.Arg(0))
	if !t.Valid() {
		return "", errUsage
	}
	if err := sess.Unequip(ctx, t); err != nil {
		return "", err
	}
	return fmt.Sprintf("Your %s slot is now empty.", t), nil
}

// HandleSell sells an inventory item.
func HandleSell(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if len(p.Args) == 0 {
		return "", errUsage
	}
	it, err := resolveItem(sess, p.Args[0])
	if err != nil {
		return "", err
	}
	refund, err := sess.Sell(ctx, it.ID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Sold %s for %sG.", itemLabel(it), FormatNumber(refund)), nil
}

// HandleEnhance attempts one enhancement.
func HandleEnhance(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if len(p.Args) == 0 {
		return "", errUsage
	}
	it, err := resolveItem(sess, p.Args[0])
	if err != nil {
		return "", err
	}
	ok, err := sess.Enhance(ctx, it.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Enhancement of %s failed.", it.Name), nil
	}
	return fmt.Sprintf("Enhancement succeeded: %s +%d.", it.Name, it.Enh+1), nil
}

// HandleSynth toggles synthesis mode.
func HandleSynth(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return toggle(ctx, sess, "Synthesis mode", sess.ToggleSynthMode, func(s *state.GameState) bool { return s.Synth.Mode })
}

// HandleSelect toggles an item in the synthesis selection.
func HandleSelect(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if len(p.Args) == 0 {
		return "", errUsage
	}
	it, err := resolveItem(sess, p.Args[0])
	if err != nil {
		return "", err
	}
	if err := sess.ToggleSynthSelect(ctx, it.ID); err != nil {
		return "", err
	}
	var n int
	sess.Read(func(v session.View) { n = len(v.State.Synth.Selected) })
	return fmt.Sprintf("Selected %d/3.", n), nil
}

// HandleFuse synthesizes the selected items.
func HandleFuse(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	it, err := sess.Synthesize(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Synthesis complete: %s.", itemLabel(it)), nil
}

// HandlePet dispatches the pet subcommands, or shows the slots with no
// argument.
func HandlePet(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	sub := p.Arg(0)
	if sub == "" {
		return PetsText(sess), nil
	}
	if len(p.Args) < 2 {
		return "", errUsage
	}
	i, err := slotArg(p.Args[1])
	if err != nil {
		return "", err
	}
	switch sub {
	case "unlock":
		if err := sess.UnlockPetSlot(ctx, i); err != nil {
			return "", err
		}
		return fmt.Sprintf("Pet slot %d unlocked.", i+1), nil
	case "level":
		if err := sess.LevelUpPet(ctx, i); err != nil {
			return "", err
		}
		return fmt.Sprintf("Pet slot %d leveled up.", i+1), nil
	case "set":
		if len(p.Args) < 3 {
			return "", errUsage
		}
		petID, err := petArg(sess, p.Arg(2))
		if err != nil {
			return "", err
		}
		if err := sess.SetPet(ctx, i, petID); err != nil {
			return "", err
		}
		pd, _ := sess.Game().Tables().Pet(petID)
		return fmt.Sprintf("%s now rides in slot %d.", pd.Name, i+1), nil
	}
	return "", errUsage
}

// petArg matches a pet by id or case-insensitive name prefix.
func petArg(sess *session.Session, arg string) (string, error) {
	for _, pd := range sess.Game().Tables().Pets {
		if strings.EqualFold(pd.ID, arg) || strings.HasPrefix(strings.ToLower(pd.Name), arg) {
			return pd.ID, nil
		}
	}
	return "", state.ErrNotFound
}

// HandlePrestige previews a prestige and arms the confirmation.
func HandlePrestige(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if p.Arg(0) == "cancel" {
		sess.CancelPrestige()
		return "Prestige cancelled.", nil
	}
	pv, err := sess.RequestPrestige(ctx)
	if errors.Is(err, state.ErrNotEligible) {
		return fmt.Sprintf("Prestige unlocks at stage %d.", balance.PrestigeMinStage), nil
	}
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Prestige #%d will reset your run for %d essence", pv.Times, pv.Total())
	if pv.Bonus > 0 {
		fmt.Fprintf(&b, " (%d base + %d milestone bonus)", pv.Base, pv.Bonus)
	}
	b.WriteString(".")
	if pv.Title != "" {
		fmt.Fprintf(&b, "\r\nTitle earned: %s", pv.Title)
	}
	b.WriteString("\r\nType 'confirm' to proceed or 'prestige cancel' to back out.")
	return b.String(), nil
}

// HandleConfirm performs an armed prestige.
func HandleConfirm(ctx context.Context, sess *session.Session, _ ParseResult) (string, error) {
	pv, err := sess.ConfirmPrestige(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Prestige complete! +%d essence. Prestige count: %d.", pv.Total(), pv.Times), nil
}

// HandleReset erases all progress once the player types "reset confirm".
func HandleReset(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if p.Arg(0) != "confirm" {
		return "This erases ALL progress, including prestige. Type 'reset confirm' to proceed.", nil
	}
	if err := sess.ResetAll(ctx); err != nil {
		return "", err
	}
	return "All progress erased. " + session.StartMessage, nil
}

// HandleExport prints the save as one line of compact JSON, so the whole
// document can be pasted back after "import".
func HandleExport(_ context.Context, sess *session.Session, _ ParseResult) (string, error) {
	data, err := sess.Export()
	if err != nil {
		return "", err
	}
	var line bytes.Buffer
	if err := json.Compact(&line, data); err != nil {
		return "", fmt.Errorf("compacting export: %w", err)
	}
	return line.String(), nil
}

// HandleImport replaces the save with pasted JSON.
func HandleImport(ctx context.Context, sess *session.Session, p ParseResult) (string, error) {
	if p.RawArgs == "" {
		return "", errUsage
	}
	if err := sess.Import(ctx, []byte(p.RawArgs)); err != nil {
		return "", err
	}
	return "Save imported.", nil
}

// HandleStatus shows the status summary.
func HandleStatus(_ context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return StatusText(sess), nil
}

// HandleInventory lists the backpack.
func HandleInventory(_ context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return InventoryText(sess), nil
}

// HandleSkills lists skills.
func HandleSkills(_ context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return SkillsText(sess), nil
}

// HandlePets lists pet slots.
func HandlePets(_ context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return PetsText(sess), nil
}

// HandleLog shows recent events.
func HandleLog(_ context.Context, sess *session.Session, _ ParseResult) (string, error) {
	return LogText(sess), nil
}
