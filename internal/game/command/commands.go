// Package command provides the text command registry, parser, and the
// handlers that map each command onto a session action or view.
package command

// Categories for organizing commands.
const (
	CategoryCombat   = "combat"
	CategoryGear     = "gear"
	CategoryPets     = "pets"
	CategoryProgress = "progress"
	CategoryInfo     = "info"
	CategorySystem   = "system"
)

// Handler identifiers mapping commands to handler functions.
const (
	HandlerAttack     = "attack"
	HandlerAuto       = "auto"
	HandlerUp         = "up"
	HandlerDown       = "down"
	HandlerAdvance    = "advance"
	HandlerAutoSkills = "autoskills"
	HandlerCast       = "cast"
	HandlerSkillAuto  = "skillauto"
	HandlerBuy        = "buy"
	HandlerEquip      = "equip"
	HandlerUnequip    = "unequip"
	HandlerSell       = "sell"
	HandlerEnhance    = "enhance"
	HandlerSynth      = "synth"
	HandlerSelect     = "select"
	HandlerFuse       = "fuse"
	HandlerPet        = "pet"
	HandlerPrestige   = "prestige"
	HandlerConfirm    = "confirm"
	HandlerReset      = "reset"
	HandlerExport     = "export"
	HandlerImport     = "import"
	HandlerStatus     = "status"
	HandlerInventory  = "inventory"
	HandlerSkills     = "skills"
	HandlerPets       = "pets"
	HandlerLog        = "log"
	HandlerHelp       = "help"
	HandlerQuit       = "quit"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument syntax, empty when the command takes none.
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command in help output.
	Category string
	// Handler selects the handler function.
	Handler string
}

// BuiltinCommands returns all built-in commands for the game.
func BuiltinCommands() []Command {
	return []Command{
		// Combat
		{Name: "attack", Aliases: []string{"a", "hit"}, Help: "Strike the enemy once", Category: CategoryCombat, Handler: HandlerAttack},
		{Name: "auto", Help: "Toggle auto-attack", Category: CategoryCombat, Handler: HandlerAuto},
		{Name: "up", Aliases: []string{"next"}, Help: "Go to the next stage", Category: CategoryCombat, Handler: HandlerUp},
		{Name: "down", Aliases: []string{"prev"}, Help: "Go back one stage", Category: CategoryCombat, Handler: HandlerDown},
		{Name: "advance", Help: "Toggle auto-advance after kills", Category: CategoryCombat, Handler: HandlerAdvance},
		{Name: "autoskills", Help: "Toggle automatic skill casting", Category: CategoryCombat, Handler: HandlerAutoSkills},
		{Name: "cast", Aliases: []string{"c"}, Usage: "<skill>", Help: "Cast a skill", Category: CategoryCombat, Handler: HandlerCast},
		{Name: "skillauto", Usage: "<skill> [on|off]", Help: "Set or toggle auto-cast for one skill", Category: CategoryCombat, Handler: HandlerSkillAuto},

		// Gear
		{Name: "equip", Aliases: []string{"eq"}, Usage: "<item>", Help: "Equip an item by number or id", Category: CategoryGear, Handler: HandlerEquip},
		{Name: "unequip", Aliases: []string{"ueq"}, Usage: "<weapon|armor|ring>", Help: "Empty an equipment slot", Category: CategoryGear, Handler: HandlerUnequip},
		{Name: "sell", Usage: "<item>", Help: "Sell an item for gold", Category: CategoryGear, Handler: HandlerSell},
		{Name: "enhance", Aliases: []string{"enh"}, Usage: "<item>", Help: "Try to enhance an item (+1)", Category: CategoryGear, Handler: HandlerEnhance},
		{Name: "synth", Help: "Toggle synthesis mode", Category: CategoryGear, Handler: HandlerSynth},
		{Name: "select", Aliases: []string{"sel"}, Usage: "<item>", Help: "Toggle an item in the synthesis selection", Category: CategoryGear, Handler: HandlerSelect},
		{Name: "fuse", Help: "Fuse three selected items into one of the next rarity", Category: CategoryGear, Handler: HandlerFuse},

		// Pets
		{Name: "pet", Usage: "unlock <slot> | level <slot> | set <slot> <pet>", Help: "Manage pet slots", Category: CategoryPets, Handler: HandlerPet},
		{Name: "pets", Help: "Show pet slots", Category: CategoryPets, Handler: HandlerPets},

		// Progress
		{Name: "buy", Usage: "[atk|aspd|crit|gold]", Help: "Buy an upgrade, or list upgrades", Category: CategoryProgress, Handler: HandlerBuy},
		{Name: "prestige", Help: "Preview and arm a prestige reset", Category: CategoryProgress, Handler: HandlerPrestige},
		{Name: "confirm", Help: "Confirm an armed prestige", Category: CategoryProgress, Handler: HandlerConfirm},
		{Name: "reset", Usage: "confirm", Help: "Erase all progress", Category: CategoryProgress, Handler: HandlerReset},
		{Name: "export", Help: "Print your save as JSON", Category: CategoryProgress, Handler: HandlerExport},
		{Name: "import", Usage: "<json>", Help: "Replace your save with pasted JSON", Category: CategoryProgress, Handler: HandlerImport},

		// Info
		{Name: "status", Aliases: []string{"st", "score"}, Help: "Show stage, enemy, and stats", Category: CategoryInfo, Handler: HandlerStatus},
		{Name: "inventory", Aliases: []string{"inv", "i"}, Help: "List backpack items", Category: CategoryInfo, Handler: HandlerInventory},
		{Name: "skills", Help: "Show skills and cooldowns", Category: CategoryInfo, Handler: HandlerSkills},
		{Name: "log", Help: "Show recent events", Category: CategoryInfo, Handler: HandlerLog},

		// System
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Save and disconnect", Category: CategorySystem, Handler: HandlerQuit},
	}
}
