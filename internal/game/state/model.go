// Package state defines the persisted GameState aggregate of the idle engine,
// its canonical default, and the transitions every subsystem shares: leveling,
// the player-facing event log, enemy respawn, and schema backfill on load.
package state

// ItemType is the equipment slot an item occupies.
type ItemType string

// Item types.
const (
	Weapon ItemType = "weapon"
	Armor  ItemType = "armor"
	Ring   ItemType = "ring"
)

// ItemTypes lists every item type in generation order.
var ItemTypes = []ItemType{Weapon, Armor, Ring}

// StatKind is the stat an item type contributes.
type StatKind string

// Stat kinds.
const (
	StatAtk  StatKind = "atk"
	StatGold StatKind = "gold"
)

// Stat returns the stat kind contributed by items of type t.
func (t ItemType) Stat() StatKind {
	if t == Ring {
		return StatGold
	}
	return StatAtk
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == Weapon || t == Armor || t == Ring
}

// Item is an owned piece of equipment.
type Item struct {
	ID     string   `json:"id"`
	BaseID string   `json:"baseId"`
	Type   ItemType `json:"type"`
	Name   string   `json:"name"`
	Rar    string   `json:"rar"`
	Atk    float64  `json:"atk"`
	Gold   float64  `json:"gold"`
	Sell   float64  `json:"sell"`
	Stage  int      `json:"stage"`
	Enh    int      `json:"enh"`
}

// Player holds the base stats mutated by leveling and upgrades.
type Player struct {
	Level     int     `json:"level"`
	Exp       float64 `json:"exp"`
	ExpNeed   float64 `json:"expNeed"`
	BaseAtk   float64 `json:"baseAtk"`
	Aspd      float64 `json:"aspd"`
	Crit      float64 `json:"crit"`
	CritMul   float64 `json:"critMul"`
	GoldBonus float64 `json:"goldBonus"`
}

// Upgrades holds purchased upgrade levels.
type Upgrades struct {
	Atk  int `json:"atk"`
	Aspd int `json:"aspd"`
	Crit int `json:"crit"`
	Gold int `json:"gold"`
}

// Level returns a pointer to the level of upgrade key, or nil for unknown keys.
func (u *Upgrades) Level(key string) *int {
	switch key {
	case "atk":
		return &u.Atk
	case "aspd":
		return &u.Aspd
	case "crit":
		return &u.Crit
	case "gold":
		return &u.Gold
	}
	return nil
}

// Equipment maps each slot to an inventory item id; "" means empty.
type Equipment struct {
	Weapon string `json:"weapon"`
	Armor  string `json:"armor"`
	Ring   string `json:"ring"`
}

// Slot returns the item id equipped in slot t.
func (e *Equipment) Slot(t ItemType) string {
	switch t {
	case Weapon:
		return e.Weapon
	case Armor:
		return e.Armor
	case Ring:
		return e.Ring
	}
	return ""
}

// Set equips id into slot t. Unknown types are ignored.
func (e *Equipment) Set(t ItemType, id string) {
	switch t {
	case Weapon:
		e.Weapon = id
	case Armor:
		e.Armor = id
	case Ring:
		e.Ring = id
	}
}

// Synth is the synthesis selection. LockType and LockRar are set by the first
// selected item and released when the selection empties.
type Synth struct {
	Mode     bool     `json:"mode"`
	Selected []string `json:"selected"`
	LockType ItemType `json:"lockType"`
	LockRar  string   `json:"lockRar"`
}

// Clear empties the selection and releases the lock.
func (s *Synth) Clear() {
	s.Selected = []string{}
	s.LockType = ""
	s.LockRar = ""
}

// Expires holds buff expiry timestamps in Unix milliseconds.
type Expires struct {
	Berserk int64 `json:"berserk"`
	Haste   int64 `json:"haste"`
	Lucky   int64 `json:"lucky"`
	Pet     int64 `json:"pet"`
}

// PetBuff is the single pet-sourced buff overlaying the Pet expiry.
type PetBuff struct {
	Kind     string  `json:"kind"`
	Value    float64 `json:"value"`
	Duration float64 `json:"duration"`
}

// Buffs holds the multipliers refreshed each tick from the expiry timestamps.
type Buffs struct {
	AtkMul  float64  `json:"atkMul"`
	AspdMul float64  `json:"aspdMul"`
	GoldMul float64  `json:"goldMul"`
	DropAdd float64  `json:"dropAdd"`
	Expires Expires  `json:"expires"`
	PetBuff *PetBuff `json:"_petBuff,omitempty"`
}

// SkillState is the runtime state of one skill.
type SkillState struct {
	CD   float64 `json:"cd"`
	Auto bool    `json:"auto"`
}

// Skill keys in auto-cast priority order.
const (
	SkillPower   = "power"
	SkillExecute = "execute"
	SkillBerserk = "berserk"
	SkillHaste   = "haste"
	SkillLucky   = "lucky"
)

// SkillKeys lists every skill in auto-cast priority order.
var SkillKeys = []string{SkillPower, SkillExecute, SkillBerserk, SkillHaste, SkillLucky}

// PetSlot is one of the fixed pet slots.
type PetSlot struct {
	Unlocked bool    `json:"unlocked"`
	Level    int     `json:"level"`
	PetID    string  `json:"petId"`
	SkillCD  float64 `json:"skillCd"`
}

// Pets holds the pet slots.
type Pets struct {
	Slots []*PetSlot `json:"slots"`
}

// Prestige is the permanent reset record.
type Prestige struct {
	Times        int `json:"times"`
	Essence      int `json:"essence"`
	TotalEssence int `json:"totalEssence"`
}

// Enemy is the live enemy of the current stage.
type Enemy struct {
	Name   string  `json:"name"`
	Sprite string  `json:"sprite"`
	HPMax  float64 `json:"hpMax"`
	HP     float64 `json:"hp"`
	Atk    float64 `json:"atk"`
	Exp    float64 `json:"exp"`
	Gold   float64 `json:"gold"`
	Boss   bool    `json:"boss"`
}

// TakeDamage subtracts amount from HP.
//
// Postcondition: negative amounts deal nothing; HP is floored at 0; the
// clamped amount is returned.
func (e *Enemy) TakeDamage(amount float64) float64 {
	dmg := max(0, amount)
	e.HP = max(0, e.HP-dmg)
	return dmg
}

// Dead reports whether the enemy has been depleted.
func (e *Enemy) Dead() bool {
	return e.HP <= 0
}

// Log categories.
const (
	CatSys    = "sys"
	CatDrop   = "drop"
	CatEnh    = "enh"
	CatSynth  = "synth"
	CatCombat = "combat"
)

// LogEntry is one line of the player-facing event feed.
type LogEntry struct {
	T   int64  `json:"t"`
	Cat string `json:"cat"`
	Rar string `json:"rar,omitempty"`
	Msg string `json:"msg"`
}

// GameState is the aggregate root persisted as one JSON document.
type GameState struct {
	V           int                    `json:"v"`
	T           int64                  `json:"t"`
	Seed        int32                  `json:"seed"`
	Gold        float64                `json:"gold"`
	Kills       int                    `json:"kills"`
	Drops       int                    `json:"drops"`
	Stage       int                    `json:"stage"`
	Auto        bool                   `json:"auto"`
	AutoAdvance bool                   `json:"autoAdvance"`
	AutoSkills  bool                   `json:"autoSkills"`
	Prestige    Prestige               `json:"prestige"`
	Player      Player                 `json:"player"`
	Upgrades    Upgrades               `json:"upgrades"`
	Equipment   Equipment              `json:"equipment"`
	Inventory   []*Item                `json:"inventory"`
	Synth       Synth                  `json:"synth"`
	Buffs       Buffs                  `json:"buffs"`
	Skills      map[string]*SkillState `json:"skills"`
	Pets        Pets                   `json:"pets"`
	Enemy       *Enemy                 `json:"enemy"`
	Log         []LogEntry             `json:"log"`
	PendingExp  float64                `json:"_offlineExpGain,omitempty"`
}
