package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cory-johannsen/abyssidle/internal/game/content"
)

// Encode serialises s as the persisted JSON document.
func Encode(s *GameState) ([]byte, error) {
	s.V = SchemaVersion
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding game state: %w", err)
	}
	return data, nil
}

// Export serialises s as indented, human-editable JSON.
func Export(s *GameState) ([]byte, error) {
	s.V = SchemaVersion
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("exporting game state: %w", err)
	}
	return data, nil
}

// Decode merges the persisted document data onto base field by field and
// backfills every field group. Fields whose JSON shape does not match the
// model keep their base value; unknown fields are ignored.
//
// Precondition: base is a fresh state from New.
// Postcondition: on success the returned state is base, normalised. Returns an
// error wrapping ErrMalformedSave iff data is not a syntactically valid JSON
// object; base is then left unchanged.
func Decode(data []byte, base *GameState, monsters []*content.MonsterDef) (*GameState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: document is not a JSON object", ErrMalformedSave)
	}
	if err := json.Unmarshal(trimmed, base); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSave, err)
		}
	}
	Normalize(base, monsters)
	if len(base.Log) > LogKeepOnLoad {
		base.Log = base.Log[:LogKeepOnLoad]
	}
	return base, nil
}

// backfill repairs one field group of a merged state.
type backfill struct {
	group string
	apply func(s *GameState, monsters []*content.MonsterDef)
}

// backfills run in order; later groups may rely on earlier ones (equipment and
// synthesis selection are checked against the repaired inventory).
var backfills = []backfill{
	{"core", backfillCore},
	{"player", backfillPlayer},
	{"prestige", backfillPrestige},
	{"inventory", backfillInventory},
	{"equipment", backfillEquipment},
	{"synth", backfillSynth},
	{"buffs", backfillBuffs},
	{"skills", backfillSkills},
	{"pets", backfillPets},
	{"enemy", backfillEnemy},
	{"log", backfillLog},
}

// Normalize applies every backfill group to s and stamps SchemaVersion.
//
// Postcondition: Seed != 0; Stage >= 1; every equipped id exists in the
// inventory with a matching type; len(Pets.Slots) == 3; every skill key is
// present; Enemy matches the stage formula; len(Log) <= LogCap.
func Normalize(s *GameState, monsters []*content.MonsterDef) {
	for _, b := range backfills {
		b.apply(s, monsters)
	}
	s.V = SchemaVersion
}

func backfillCore(s *GameState, _ []*content.MonsterDef) {
	if s.Seed == 0 {
		s.Seed = FallbackSeed
	}
	s.Stage = max(1, s.Stage)
	s.Gold = max(0, s.Gold)
	s.Kills = max(0, s.Kills)
	s.Drops = max(0, s.Drops)
	s.PendingExp = max(0, s.PendingExp)
}

func backfillPlayer(s *GameState, _ []*content.MonsterDef) {
	p := &s.Player
	p.Level = max(1, p.Level)
	if p.ExpNeed <= 0 {
		p.ExpNeed = 25
	}
	p.Exp = max(0, p.Exp)
	if p.CritMul < 1 {
		p.CritMul = 1.5
	}
	if p.Aspd <= 0 {
		p.Aspd = 1.0
	}
}

func backfillPrestige(s *GameState, _ []*content.MonsterDef) {
	p := &s.Prestige
	p.Times = max(0, p.Times)
	p.Essence = max(0, p.Essence)
	p.TotalEssence = max(p.Essence, p.TotalEssence)
}

func backfillInventory(s *GameState, _ []*content.MonsterDef) {
	kept := make([]*Item, 0, len(s.Inventory))
	seen := make(map[string]bool, len(s.Inventory))
	for _, it := range s.Inventory {
		if it == nil || it.ID == "" || !it.Type.Valid() || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		it.Enh = max(0, it.Enh)
		it.Stage = max(1, it.Stage)
		kept = append(kept, it)
	}
	s.Inventory = kept
}

func backfillEquipment(s *GameState, _ []*content.MonsterDef) {
	for _, t := range ItemTypes {
		id := s.Equipment.Slot(t)
		if id == "" {
			continue
		}
		if it, _ := s.FindItem(id); it == nil || it.Type != t {
			s.Equipment.Set(t, "")
		}
	}
}

func backfillSynth(s *GameState, _ []*content.MonsterDef) {
	selected := make([]string, 0, 3)
	for _, id := range s.Synth.Selected {
		if len(selected) == 3 {
			break
		}
		if it, _ := s.FindItem(id); it == nil {
			continue
		}
		dup := false
		for _, other := range selected {
			dup = dup || other == id
		}
		if !dup {
			selected = append(selected, id)
		}
	}
	s.Synth.Selected = selected
	if len(selected) == 0 {
		s.Synth.LockType = ""
		s.Synth.LockRar = ""
	}
}

func backfillBuffs(s *GameState, _ []*content.MonsterDef) {
	b := &s.Buffs
	if b.AtkMul <= 0 {
		b.AtkMul = 1
	}
	if b.AspdMul <= 0 {
		b.AspdMul = 1
	}
	if b.GoldMul <= 0 {
		b.GoldMul = 1
	}
}

func backfillSkills(s *GameState, _ []*content.MonsterDef) {
	skills := make(map[string]*SkillState, len(SkillKeys))
	for _, k := range SkillKeys {
		st := s.Skills[k]
		if st == nil {
			st = &SkillState{Auto: true}
		}
		st.CD = max(0, st.CD)
		skills[k] = st
	}
	s.Skills = skills
}

func backfillPets(s *GameState, _ []*content.MonsterDef) {
	defaults := defaultPetSlots()
	slots := make([]*PetSlot, 0, len(defaults))
	for _, sl := range s.Pets.Slots {
		if sl != nil && len(slots) < len(defaults) {
			slots = append(slots, sl)
		}
	}
	for len(slots) < len(defaults) {
		slots = append(slots, defaults[len(slots)])
	}
	for _, sl := range slots {
		if sl.PetID == "" {
			sl.PetID = DefaultPetID
		}
		if sl.Unlocked && sl.Level < 1 {
			sl.Level = 1
		}
		sl.SkillCD = max(0, sl.SkillCD)
	}
	s.Pets.Slots = slots
}

func backfillEnemy(s *GameState, monsters []*content.MonsterDef) {
	s.EnsureStageEnemy(monsters)
	s.Enemy.HP = max(0, min(s.Enemy.HPMax, s.Enemy.HP))
}

func backfillLog(s *GameState, _ []*content.MonsterDef) {
	if s.Log == nil {
		s.Log = []LogEntry{}
	}
	if len(s.Log) > LogCap {
		s.Log = s.Log[:LogCap]
	}
}
