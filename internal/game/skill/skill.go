// Package skill implements the five fixed player skills, their cooldown
// timers, and the auto-cast policy.
package skill

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/abyssidle/internal/game/combat"
	"github.com/cory-johannsen/abyssidle/internal/game/content"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
	"github.com/cory-johannsen/abyssidle/internal/game/stats"
)

// Kind classifies a skill.
type Kind string

// Skill kinds.
const (
	KindDamage  Kind = "damage"
	KindBuff    Kind = "buff"
	KindUtility Kind = "utility"
)

// BuffDuration is how long a buff skill lasts.
const BuffDuration = 10 * time.Second

// Def is one skill definition.
type Def struct {
	Key      string
	Name     string
	Desc     string
	Kind     Kind
	Cooldown float64
	// Condition gates auto-casting; manual casts ignore it.
	Condition func(s *state.GameState, now time.Time) bool
	effect    func(s *state.GameState, d stats.Derived, now time.Time)
}

// Policy optionally overrides the built-in auto-cast condition. ok == false
// defers to the condition.
type Policy interface {
	Allow(key string, s *state.GameState) (allow bool, ok bool)
}

func defaults() []Def {
	return []Def{
		{
			Key: state.SkillPower, Name: "Power Strike", Desc: "Instant heavy blow (ATK x4).",
			Kind: KindDamage, Cooldown: 8,
			Condition: func(s *state.GameState, _ time.Time) bool { return s.Enemy.HP > 0 },
			effect: func(s *state.GameState, d stats.Derived, _ time.Time) {
				combat.DealDamage(s, d.Atk*4.0)
			},
		},
		{
			Key: state.SkillExecute, Name: "Execute", Desc: "Stronger the lower the enemy's health (up to ATK x10).",
			Kind: KindDamage, Cooldown: 16,
			Condition: func(s *state.GameState, _ time.Time) bool { return hpRatio(s) < 0.45 },
			effect: func(s *state.GameState, d stats.Derived, _ time.Time) {
				missing := max(0, min(0.9, 1-hpRatio(s)))
				combat.DealDamage(s, d.Atk*(3.0+missing*7.0))
			},
		},
		{
			Key: state.SkillBerserk, Name: "Berserk", Desc: "ATK +35% for 10 seconds.",
			Kind: KindBuff, Cooldown: 30,
			Condition: func(s *state.GameState, now time.Time) bool { return now.UnixMilli() > s.Buffs.Expires.Berserk },
			effect: func(s *state.GameState, _ stats.Derived, now time.Time) {
				s.Buffs.Expires.Berserk = now.Add(BuffDuration).UnixMilli()
			},
		},
		{
			Key: state.SkillHaste, Name: "Haste", Desc: "Attack speed +50% for 10 seconds.",
			Kind: KindBuff, Cooldown: 30,
			Condition: func(s *state.GameState, now time.Time) bool { return now.UnixMilli() > s.Buffs.Expires.Haste },
			effect: func(s *state.GameState, _ stats.Derived, now time.Time) {
				s.Buffs.Expires.Haste = now.Add(BuffDuration).UnixMilli()
			},
		},
		{
			Key: state.SkillLucky, Name: "Fortune", Desc: "Gold +50% and drop chance +8%p for 10 seconds.",
			Kind: KindUtility, Cooldown: 45,
			Condition: func(s *state.GameState, now time.Time) bool { return now.UnixMilli() > s.Buffs.Expires.Lucky },
			effect: func(s *state.GameState, _ stats.Derived, now time.Time) {
				s.Buffs.Expires.Lucky = now.Add(BuffDuration).UnixMilli()
			},
		},
	}
}

func hpRatio(s *state.GameState) float64 {
	if s.Enemy.HPMax <= 0 {
		return 0
	}
	return s.Enemy.HP / s.Enemy.HPMax
}

// Book is the ordered skill list with display flavor applied. It is read-only
// after construction.
type Book struct {
	defs []Def
}

// NewBook builds the skill book, overriding names and descriptions with any
// matching flavor entries.
func NewBook(flavors []*content.SkillFlavor) *Book {
	defs := defaults()
	for i := range defs {
		for _, f := range flavors {
			if f.Key != defs[i].Key {
				continue
			}
			if f.Name != "" {
				defs[i].Name = f.Name
			}
			if f.Desc != "" {
				defs[i].Desc = f.Desc
			}
		}
	}
	return &Book{defs: defs}
}

// Defs returns the skills in auto-cast priority order.
func (b *Book) Defs() []Def {
	return b.defs
}

// Lookup returns the skill with key.
func (b *Book) Lookup(key string) (*Def, bool) {
	for i := range b.defs {
		if b.defs[i].Key == key {
			return &b.defs[i], true
		}
	}
	return nil, false
}

// TickCooldowns advances every skill cooldown by dt seconds. It is the only
// place cooldowns decrease.
//
// Postcondition: every cooldown is max(0, previous - dt).
func TickCooldowns(s *state.GameState, dt float64) {
	for _, st := range s.Skills {
		st.CD = max(0, st.CD-dt)
	}
}

// Cast fires skill key regardless of its condition and starts its cooldown.
// Damage dealt is not resolved into a kill here.
//
// Postcondition: returns ErrNotFound for an unknown key and ErrOnCooldown
// while the cooldown is running, without changing state.
func (b *Book) Cast(s *state.GameState, key string, d stats.Derived, now time.Time) error {
	def, ok := b.Lookup(key)
	st := s.Skills[key]
	if !ok || st == nil {
		return state.ErrNotFound
	}
	if st.CD > 0 {
		return state.ErrOnCooldown
	}
	b.fire(s, def, st, d, now)
	return nil
}

func (b *Book) fire(s *state.GameState, def *Def, st *state.SkillState, d stats.Derived, now time.Time) {
	def.effect(s, d, now)
	st.CD = def.Cooldown
	s.LogPush(now, state.CatCombat, "", fmt.Sprintf("%s: %s", kindLabel(def.Kind), def.Name))
}

func kindLabel(k Kind) string {
	switch k {
	case KindBuff:
		return "Buff"
	case KindUtility:
		return "Utility"
	default:
		return "Skill"
	}
}

// AutoCast casts the first skill, in priority order, that is ready, has its
// auto flag set, and whose condition holds. policy, when non-nil, may
// override the condition. Nothing is cast while auto-skills is off.
//
// Postcondition: at most one skill is cast; returns its key or "".
func (b *Book) AutoCast(s *state.GameState, d stats.Derived, now time.Time, policy Policy) string {
	if !s.AutoSkills {
		return ""
	}
	for i := range b.defs {
		def := &b.defs[i]
		st := s.Skills[def.Key]
		if st == nil || st.CD > 0 || !st.Auto {
			continue
		}
		allow := def.Condition(s, now)
		if policy != nil {
			if v, ok := policy.Allow(def.Key, s); ok {
				allow = v
			}
		}
		if allow {
			b.fire(s, def, st, d, now)
			return def.Key
		}
	}
	return ""
}

// SetAuto sets the auto-cast flag of skill key.
func SetAuto(s *state.GameState, key string, on bool) error {
	st := s.Skills[key]
	if st == nil {
		return state.ErrNotFound
	}
	st.Auto = on
	return nil
}
