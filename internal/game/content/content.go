// Package content defines the read-only table collaborators of the idle
// engine (equipment bases, pets, pet skills, monsters, skill flavor, prestige
// milestones) and loads them from a directory of YAML files.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Pet skill kinds.
const (
	KindBurstDamage = "burst_damage"
	KindBuffAtk     = "buff_atk"
	KindBuffAspd    = "buff_aspd"
	KindBuffGold    = "buff_gold"
	KindBuffDrop    = "buff_drop"
)

// ItemBase is one base equipment definition. Attack-type bases use BaseAtk and
// AtkScale; rings use BaseGold and GoldScale.
type ItemBase struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	BaseAtk   float64 `yaml:"base_atk"`
	AtkScale  float64 `yaml:"atk_scale"`
	BaseGold  float64 `yaml:"base_gold"`
	GoldScale float64 `yaml:"gold_scale"`
}

// PetDef is an assignable pet. SkillID may reference a PetSkillDef.
type PetDef struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	SkillID string `yaml:"skill_id"`
}

// PetSkillDef describes the skill a pet fires when its slot cooldown elapses.
// Zero Value, Duration, and Cooldown fall back to the engine defaults.
type PetSkillDef struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Kind     string  `yaml:"kind"`
	Value    float64 `yaml:"value"`
	Duration float64 `yaml:"duration"`
	Cooldown float64 `yaml:"cooldown"`
}

// MonsterDef is one entry of the optional monster table. Zero stats fall back
// to the balance defaults.
type MonsterDef struct {
	Name   string  `yaml:"name"`
	Sprite string  `yaml:"sprite"`
	HP     float64 `yaml:"hp"`
	Atk    float64 `yaml:"atk"`
	Gold   float64 `yaml:"gold"`
	Exp    float64 `yaml:"exp"`
}

// SkillFlavor overrides the display name and description of a built-in skill.
type SkillFlavor struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Desc string `yaml:"desc"`
}

// Milestone grants a one-time essence bonus and a title when the prestige
// count reaches Times.
type Milestone struct {
	Times        int    `yaml:"times"`
	BonusEssence int    `yaml:"bonus_essence"`
	Title        string `yaml:"title"`
}

// Tables is the full set of table collaborators. It is read-only after load
// and safe for concurrent readers.
type Tables struct {
	Weapons    []*ItemBase
	Armors     []*ItemBase
	Rings      []*ItemBase
	Pets       []*PetDef
	PetSkills  []*PetSkillDef
	Monsters   []*MonsterDef
	Skills     []*SkillFlavor
	Milestones []*Milestone
}

// Pet returns the pet with the given id.
//
// Postcondition: ok is true iff a pet with id exists.
func (t *Tables) Pet(id string) (*PetDef, bool) {
	for _, p := range t.Pets {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// PetSkill returns the pet skill with the given id.
func (t *Tables) PetSkill(id string) (*PetSkillDef, bool) {
	for _, s := range t.PetSkills {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SkillFlavor returns the flavor override for skill key, if any.
func (t *Tables) SkillFlavor(key string) (*SkillFlavor, bool) {
	for _, s := range t.Skills {
		if s.Key == key {
			return s, true
		}
	}
	return nil, false
}

// MilestoneFor returns the milestone reached exactly at prestige count times.
func (t *Tables) MilestoneFor(times int) (*Milestone, bool) {
	for _, m := range t.Milestones {
		if m.Times == times {
			return m, true
		}
	}
	return nil, false
}

// Validate checks the required tables and per-entry invariants.
//
// Postcondition: Returns nil iff every required table is non-empty and every
// entry is well formed; all violations are joined into one error.
func (t *Tables) Validate() error {
	var errs []error
	for name, list := range map[string][]*ItemBase{"weapons": t.Weapons, "armors": t.Armors, "rings": t.Rings} {
		if len(list) == 0 {
			errs = append(errs, fmt.Errorf("%s table must not be empty", name))
		}
		for i, b := range list {
			if b.ID == "" || b.Name == "" {
				errs = append(errs, fmt.Errorf("%s[%d] must have id and name", name, i))
			}
		}
	}
	if len(t.Pets) == 0 {
		errs = append(errs, errors.New("pets table must not be empty"))
	}
	for i, p := range t.Pets {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("pets[%d] must have an id", i))
		}
	}
	for i, s := range t.PetSkills {
		switch s.Kind {
		case KindBurstDamage, KindBuffAtk, KindBuffAspd, KindBuffGold, KindBuffDrop:
		default:
			errs = append(errs, fmt.Errorf("pet_skills[%d] %q has unknown kind %q", i, s.ID, s.Kind))
		}
		if s.Value < 0 || s.Duration < 0 || s.Cooldown < 0 {
			errs = append(errs, fmt.Errorf("pet_skills[%d] %q must not have negative values", i, s.ID))
		}
	}
	for i, m := range t.Milestones {
		if m.Times < 1 || m.BonusEssence < 0 {
			errs = append(errs, fmt.Errorf("milestones[%d] must have times >= 1 and bonus_essence >= 0", i))
		}
	}
	return errors.Join(errs...)
}

// LoadDir reads the table files from dir. weapons.yaml, armors.yaml,
// rings.yaml, pets.yaml, and pet_skills.yaml are required; monsters.yaml,
// skills.yaml, and milestones.yaml are optional.
//
// Precondition: dir is a readable directory path.
// Postcondition: Returns validated Tables or a non-nil error naming the file.
func LoadDir(dir string) (*Tables, error) {
	t := &Tables{}
	required := []struct {
		file string
		dst  any
	}{
		{"weapons.yaml", &t.Weapons},
		{"armors.yaml", &t.Armors},
		{"rings.yaml", &t.Rings},
		{"pets.yaml", &t.Pets},
		{"pet_skills.yaml", &t.PetSkills},
	}
	for _, r := range required {
		if err := loadFile(filepath.Join(dir, r.file), r.dst); err != nil {
			return nil, err
		}
	}

	optional := []struct {
		file string
		dst  any
	}{
		{"monsters.yaml", &t.Monsters},
		{"skills.yaml", &t.Skills},
		{"milestones.yaml", &t.Milestones},
	}
	for _, o := range optional {
		path := filepath.Join(dir, o.file)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := loadFile(path, o.dst); err != nil {
			return nil, err
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("LoadDir: invalid tables in %q: %w", dir, err)
	}
	return t, nil
}

func loadFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("LoadDir: cannot read file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("LoadDir: cannot parse file %q: %w", path, err)
	}
	return nil
}
