package state

import (
	"fmt"
	"math"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
)

const (
	// SchemaVersion is the persisted document version written by Encode.
	SchemaVersion = 1
	// LogCap bounds the event feed.
	LogCap = 60
	// LogKeepOnLoad is how many of the newest entries survive a load.
	LogKeepOnLoad = 10
	// FallbackSeed replaces a zero seed, which is a fixed point of the stream.
	FallbackSeed int32 = 123456789
	// DefaultPetID is assigned to every slot of a fresh state.
	DefaultPetID = "p_wolf"
)

// RandomSeed draws a non-zero seed from src.
//
// Postcondition: result != 0.
func RandomSeed(src dice.Source) int32 {
	s := int32(math.Floor(src.Float64() * 2147483647))
	if s == 0 {
		return FallbackSeed
	}
	return s
}

// New builds the canonical default state: stage 1, no gold, pet slot 0
// unlocked, all toggles on.
//
// Precondition: seed != 0; a zero seed is replaced with FallbackSeed.
// Postcondition: Enemy is the canonical enemy of stage 1.
func New(now time.Time, seed int32, monsters []*content.MonsterDef) *GameState {
	if seed == 0 {
		seed = FallbackSeed
	}
	s := &GameState{
		V:           SchemaVersion,
		T:           now.UnixMilli(),
		Seed:        seed,
		Stage:       1,
		Auto:        true,
		AutoAdvance: true,
		AutoSkills:  true,
		Player: Player{
			Level:   1,
			ExpNeed: 25,
			BaseAtk: 2,
			Aspd:    1.0,
			Crit:    0.05,
			CritMul: 1.5,
		},
		Inventory: []*Item{},
		Synth:     Synth{Selected: []string{}},
		Buffs:     Buffs{AtkMul: 1, AspdMul: 1, GoldMul: 1},
		Skills:    make(map[string]*SkillState, len(SkillKeys)),
		Log:       []LogEntry{},
	}
	for _, k := range SkillKeys {
		s.Skills[k] = &SkillState{Auto: true}
	}
	s.Pets.Slots = defaultPetSlots()
	s.Respawn(monsters)
	return s
}

func defaultPetSlots() []*PetSlot {
	slots := make([]*PetSlot, balance.PetSlots)
	for i := range slots {
		slots[i] = &PetSlot{PetID: DefaultPetID}
	}
	slots[0].Unlocked = true
	slots[0].Level = 1
	return slots
}

// LogPush prepends an entry to the event feed and truncates it to LogCap.
// An empty cat defaults to CatSys.
func (s *GameState) LogPush(now time.Time, cat, rar, msg string) {
	if cat == "" {
		cat = CatSys
	}
	entry := LogEntry{T: now.UnixMilli(), Cat: cat, Rar: rar, Msg: msg}
	s.Log = append([]LogEntry{entry}, s.Log...)
	if len(s.Log) > LogCap {
		s.Log = s.Log[:LogCap]
	}
}

// AddExp grants amount experience and resolves every level-up it pays for.
// Each level consumes exactly ExpNeed, adds one base attack, and grows ExpNeed
// to floor(ExpNeed*1.22+8).
//
// Precondition: amount >= 0.
// Postcondition: Player.Exp < Player.ExpNeed; returns the number of levels gained.
func (s *GameState) AddExp(now time.Time, amount float64) int {
	p := &s.Player
	p.Exp += max(0, amount)
	gained := 0
	for p.Exp >= p.ExpNeed {
		p.Exp -= p.ExpNeed
		p.Level++
		p.BaseAtk++
		p.ExpNeed = math.Floor(p.ExpNeed*1.22 + 8)
		gained++
		s.LogPush(now, CatSys, "", fmt.Sprintf("Level up! Lv.%d", p.Level))
	}
	return gained
}

// FindItem returns the inventory item with id and its index, or (nil, -1).
func (s *GameState) FindItem(id string) (*Item, int) {
	for i, it := range s.Inventory {
		if it.ID == id {
			return it, i
		}
	}
	return nil, -1
}

// Equipped returns the item equipped in slot t, or nil.
func (s *GameState) Equipped(t ItemType) *Item {
	id := s.Equipment.Slot(t)
	if id == "" {
		return nil
	}
	it, _ := s.FindItem(id)
	return it
}

// IsEquipped reports whether it occupies its type's slot.
func (s *GameState) IsEquipped(it *Item) bool {
	return it != nil && it.ID != "" && s.Equipment.Slot(it.Type) == it.ID
}

// Respawn replaces the enemy with the canonical enemy of the current stage.
func (s *GameState) Respawn(monsters []*content.MonsterDef) {
	spec := balance.EnemyForStage(s.Stage, monsters)
	s.Enemy = &Enemy{
		Name:   spec.Name,
		Sprite: spec.Sprite,
		HPMax:  spec.HP,
		HP:     spec.HP,
		Atk:    spec.Atk,
		Exp:    spec.Exp,
		Gold:   spec.Gold,
		Boss:   spec.Boss,
	}
}

// EnsureStageEnemy respawns the enemy when it is missing or has drifted from
// the stage formula (hpMax or boss flag mismatch).
//
// Postcondition: returns true iff the enemy was replaced.
func (s *GameState) EnsureStageEnemy(monsters []*content.MonsterDef) bool {
	want := balance.EnemyForStage(s.Stage, monsters)
	e := s.Enemy
	if e == nil || e.HPMax == 0 || e.HPMax != want.HP || e.Boss != want.Boss {
		s.Respawn(monsters)
		return true
	}
	return false
}

// SetStage moves to stage, floored at 1, and respawns the enemy.
func (s *GameState) SetStage(stage int, monsters []*content.MonsterDef) {
	s.Stage = max(1, stage)
	s.Respawn(monsters)
}
