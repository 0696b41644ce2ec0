package handlers

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/abyssidle/internal/frontend/telnet"
	"github.com/cory-johannsen/abyssidle/internal/game/command"
	"github.com/cory-johannsen/abyssidle/internal/game/session"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// arrivalLogLines is how many recent events greet a returning player.
const arrivalLogLines = 3

// RarityColor returns the display color for a rarity key.
func RarityColor(rar string) string {
	switch rar {
	case "U":
		return telnet.BrightGreen
	case "R":
		return telnet.BrightBlue
	case "E":
		return telnet.BrightMagenta
	}
	return ""
}

// RenderPrompt renders the input prompt with the stage, gold, and enemy
// health.
func RenderPrompt(sess *session.Session) string {
	var p string
	sess.Read(func(v session.View) {
		s := v.State
		stage := fmt.Sprintf("St.%d", s.Stage)
		if s.Enemy != nil && s.Enemy.Boss {
			stage = telnet.Colorize(telnet.BrightRed, stage+"!")
		}
		hp := ""
		if s.Enemy != nil {
			hp = fmt.Sprintf(" %s/%sHP", command.FormatNumber(s.Enemy.HP), command.FormatNumber(s.Enemy.HPMax))
		}
		p = fmt.Sprintf("[%s %s%s]> ", stage,
			telnet.Colorize(telnet.Yellow, command.FormatNumber(s.Gold)+"G"), hp)
	})
	return p
}

// RenderArrival renders the greeting shown once a session opens: offline
// rewards, the newest events, and the status summary.
func RenderArrival(sess *session.Session) string {
	var b strings.Builder
	sess.Read(func(v session.View) {
		if o := v.Offline; o != nil {
			b.WriteString(telnet.Colorf(telnet.BrightCyan,
				"While you were away: %d kills, +%sG, +%s EXP",
				o.Kills, command.FormatNumber(o.Gold), command.FormatNumber(o.Exp)))
			b.WriteString("\n")
		}
		entries := v.State.Log
		if len(entries) > arrivalLogLines {
			entries = entries[:arrivalLogLines]
		}
		for _, e := range entries {
			b.WriteString(renderEntry(e))
			b.WriteString("\n")
		}
	})
	b.WriteString(command.StatusText(sess))
	b.WriteString("\n")
	b.WriteString(telnet.Colorize(telnet.Dim, "Type 'help' for commands."))
	b.WriteString("\n")
	return b.String()
}

func renderEntry(e state.LogEntry) string {
	color := RarityColor(e.Rar)
	if color == "" && e.Cat == state.CatCombat {
		color = telnet.Cyan
	}
	return "* " + telnet.Colorize(color, e.Msg)
}
