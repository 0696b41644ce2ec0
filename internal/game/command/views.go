package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/inventory"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// LogLines is how many recent events the log command shows.
const LogLines = 15

func enemyLabel(e *state.Enemy) string {
	if e == nil {
		return "nothing"
	}
	if e.Boss {
		return e.Name + " [BOSS]"
	}
	return e.Name
}

func itemLabel(it *state.Item) string {
	if it == nil {
		return "-"
	}
	if it.Enh > 0 {
		return fmt.Sprintf("%s +%d", it.Name, it.Enh)
	}
	return it.Name
}

func itemStat(it *state.Item) string {
	if it.Type.Stat() == state.StatGold {
		return fmt.Sprintf("gold +%.1f%%", inventory.EffectiveGold(it)*100)
	}
	return "atk +" + FormatNumber(inventory.EffectiveAtk(it))
}

// StatusText renders the stage, enemy, player, and toggle summary.
func StatusText(sess *session.Session) string {
	var b strings.Builder
	sess.Read(func(v session.View) {
		s, d := v.State, v.Derived
		p := s.Player
		fmt.Fprintf(&b, "Stage %d  Gold %s  Lv.%d (EXP %s/%s)\r\n",
			s.Stage, FormatNumber(s.Gold), p.Level, FormatNumber(p.Exp), FormatNumber(p.ExpNeed))
		if e := s.Enemy; e != nil {
			fmt.Fprintf(&b, "Enemy: %s  HP %s/%s\r\n", enemyLabel(e), FormatNumber(e.HP), FormatNumber(e.HPMax))
		}
		fmt.Fprintf(&b, "ATK %s  DPS %s  ASPD %.2f  Crit %.1f%% x%.1f\r\n",
			FormatNumber(d.Atk), FormatNumber(d.DPSTotal), d.Aspd, d.Crit*100, d.CritMul)
		fmt.Fprintf(&b, "Gold bonus %s  Drop %.1f%%  Pet DPS %s\r\n",
			FormatPercent(d.GoldBonus), d.DropChance*100, FormatNumber(d.DPSPets))
		fmt.Fprintf(&b, "Kills %d  Drops %d  Essence %d  Prestige %d\r\n",
			s.Kills, s.Drops, s.Prestige.Essence, s.Prestige.Times)
		for _, t := range state.ItemTypes {
			fmt.Fprintf(&b, "%-6s: %s\r\n", t, itemLabel(s.Equipped(t)))
		}
		fmt.Fprintf(&b, "Auto %s  Advance %s  Skills %s",
			onOff(s.Auto), onOff(s.AutoAdvance), onOff(s.AutoSkills))
		if v.PrestigeArmed {
			b.WriteString("\r\nPrestige armed: type 'confirm'.")
		}
	})
	return b.String()
}

// InventoryText lists the backpack with 1-based numbers usable as item
// references.
func InventoryText(sess *session.Session) string {
	var b strings.Builder
	sess.Read(func(v session.View) {
		s := v.State
		if len(s.Inventory) == 0 {
			b.WriteString("Your backpack is empty.")
			return
		}
		selected := make(map[string]bool, len(s.Synth.Selected))
		for _, id := range s.Synth.Selected {
			selected[id] = true
		}
		fmt.Fprintf(&b, "Backpack (%d/%d):", len(s.Inventory), sess.Game().Options().Capacity)
		for i, it := range s.Inventory {
			mark := " "
			switch {
			case s.IsEquipped(it):
				mark = "E"
			case selected[it.ID]:
				mark = "*"
			}
			fmt.Fprintf(&b, "\r\n%s %3d. [%s] %-24s %-6s %-14s sell %sG  id:%s",
				mark, i+1, balance.RarityByKey(it.Rar).Name, itemLabel(it), it.Type, itemStat(it),
				FormatNumber(it.Sell), shortID(it.ID))
		}
		if s.Synth.Mode {
			fmt.Fprintf(&b, "\r\nSynthesis mode: %d/3 selected", len(s.Synth.Selected))
		}
	})
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SkillsText renders every skill with its cooldown and auto flag.
func SkillsText(sess *session.Session) string {
	var b strings.Builder
	book := sess.Game().Book()
	sess.Read(func(v session.View) {
		for i, def := range book.Defs() {
			if i > 0 {
				b.WriteString("\r\n")
			}
			st := v.State.Skills[def.Key]
			fmt.Fprintf(&b, "%-8s %-14s %-7s auto:%-3s %s",
				def.Key, def.Name, FormatCooldown(st.CD), onOff(st.Auto), def.Desc)
		}
	})
	return b.String()
}

// UpgradesText renders upgrade levels and the price of the next level.
func UpgradesText(sess *session.Session) string {
	var b strings.Builder
	sess.Read(func(v session.View) {
		for i, u := range balance.Upgrades() {
			if i > 0 {
				b.WriteString("\r\n")
			}
			lvl := *v.State.Upgrades.Level(u.Key)
			fmt.Fprintf(&b, "%-5s %-17s Lv.%-3d next %sG  (%s)",
				u.Key, u.Name, lvl, FormatNumber(u.Cost(lvl)), u.Desc)
		}
	})
	return b.String()
}

// PetsText renders the pet slots with costs and assigned pets.
func PetsText(sess *session.Session) string {
	var b strings.Builder
	tables := sess.Game().Tables()
	sess.Read(func(v session.View) {
		for i, sl := range v.State.Pets.Slots {
			if i > 0 {
				b.WriteString("\r\n")
			}
			if !sl.Unlocked {
				fmt.Fprintf(&b, "Slot %d: locked (unlock %sG)", i+1, FormatNumber(balance.PetUnlockCost(i)))
				continue
			}
			name := sl.PetID
			if pd, ok := tables.Pet(sl.PetID); ok {
				name = pd.Name
			}
			lvl := max(1, sl.Level)
			fmt.Fprintf(&b, "Slot %d: %s Lv.%d  skill %s  (level up %sG)",
				i+1, name, lvl, FormatCooldown(sl.SkillCD), FormatNumber(balance.PetLevelUpCost(i, lvl)))
		}
		fmt.Fprintf(&b, "\r\nPets:")
		for _, pd := range tables.Pets {
			fmt.Fprintf(&b, " %s(%s)", pd.Name, pd.ID)
		}
	})
	return b.String()
}

// LogText renders the newest events, newest first.
func LogText(sess *session.Session) string {
	var b strings.Builder
	sess.Read(func(v session.View) {
		if o := v.Offline; o != nil {
			fmt.Fprintf(&b, "While you were away: %d kills, +%sG, +%s EXP\r\n",
				o.Kills, FormatNumber(o.Gold), FormatNumber(o.Exp))
		}
		entries := v.State.Log
		if len(entries) > LogLines {
			entries = entries[:LogLines]
		}
		for i, e := range entries {
			if i > 0 {
				b.WriteString("\r\n")
			}
			fmt.Fprintf(&b, "[%s] %s", time.UnixMilli(e.T).UTC().Format("15:04:05"), e.Msg)
		}
	})
	return b.String()
}

// HelpText lists every command grouped by category.
func HelpText(reg *Registry) string {
	var b strings.Builder
	byCat := reg.CommandsByCategory()
	for i, cat := range reg.Categories() {
		if i > 0 {
			b.WriteString("\r\n")
		}
		fmt.Fprintf(&b, "%s:", strings.ToUpper(cat))
		for _, cmd := range byCat[cat] {
			name := cmd.Name
			if cmd.Usage != "" {
				name += " " + cmd.Usage
			}
			fmt.Fprintf(&b, "\r\n  %-34s %s", name, cmd.Help)
		}
	}
	return b.String()
}
