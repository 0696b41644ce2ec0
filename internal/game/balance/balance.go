// Package balance holds the pure tuning functions of the idle engine: enemy
// scaling per stage, rarity weights, drop and enhancement curves, pet and
// upgrade costs, and prestige essence yield.
package balance

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/abyssidle/internal/game/content"
)

// EnhanceMax is the highest enhancement level an item can reach.
const EnhanceMax = 10

// Rarity is one tier of the item rarity ladder.
type Rarity struct {
	Key    string
	Name   string
	Weight float64
	Mult   float64
	Sell   float64
}

var rarities = []Rarity{
	{Key: "C", Name: "Common", Weight: 70, Mult: 1.00, Sell: 8},
	{Key: "U", Name: "Uncommon", Weight: 22, Mult: 1.35, Sell: 20},
	{Key: "R", Name: "Rare", Weight: 7, Mult: 1.80, Sell: 55},
	{Key: "E", Name: "Epic", Weight: 1, Mult: 2.50, Sell: 140},
}

// boostedWeights replaces the standard weights for guaranteed-better drops.
var boostedWeights = map[string]float64{"C": 45, "U": 32, "R": 18, "E": 5}

// Rarities returns the rarity ladder from lowest to highest tier.
func Rarities() []Rarity {
	out := make([]Rarity, len(rarities))
	copy(out, rarities)
	return out
}

// RarityIndex returns the ladder position of key; unknown keys map to 0.
func RarityIndex(key string) int {
	for i, r := range rarities {
		if r.Key == key {
			return i
		}
	}
	return 0
}

// RarityByKey returns the tier for key; unknown keys map to Common.
func RarityByKey(key string) Rarity {
	return rarities[RarityIndex(key)]
}

// NextRarity returns the key one tier above key, capped at the top tier.
func NextRarity(key string) string {
	return rarities[min(len(rarities)-1, RarityIndex(key)+1)].Key
}

// BoostedWeight returns the boss-chest weight of rarity key.
func BoostedWeight(key string) float64 {
	return boostedWeights[key]
}

// IsBossStage reports whether stage hosts a boss.
//
// Postcondition: true iff stage % 10 == 0.
func IsBossStage(stage int) bool {
	return stage%10 == 0
}

// EnemySpec is the canonical enemy of a stage before any damage is applied.
type EnemySpec struct {
	Name   string
	Sprite string
	Boss   bool
	HP     float64
	Atk    float64
	Exp    float64
	Gold   float64
}

// FallbackEnemyNames is the built-in enemy cycle used when no monster table is
// configured. The tier advances every 10 stages.
var FallbackEnemyNames = []string{"Slime", "Goblin", "Wolf", "Skeleton", "Orc", "Dark Mage", "Gargoyle", "Lich"}

// EnemyForStage computes the enemy of stage. When monsters is non-empty it is
// indexed cyclically by (stage-1) % len(monsters); otherwise the built-in cycle
// is used.
//
// Precondition: stage values below 1 are treated as 1.
// Postcondition: HP >= 5, Atk >= 1, Exp >= 1, Gold >= 1; Boss == IsBossStage(stage).
func EnemyForStage(stage int, monsters []*content.MonsterDef) EnemySpec {
	stage = max(1, stage)
	boss := IsBossStage(stage)
	n := float64(stage - 1)

	if len(monsters) > 0 {
		idx := (stage - 1) % len(monsters)
		m := monsters[idx]
		hp := math.Floor(orDefault(m.HP, 18) * math.Pow(1.16, n))
		atk := math.Floor(orDefault(m.Atk, 2) * math.Pow(1.10, n))
		gold := math.Floor(orDefault(m.Gold, 5) * math.Pow(1.11, n))
		exp := math.Floor(orDefault(m.Exp, 5) * math.Pow(1.09, n))
		if boss {
			hp = math.Floor(hp * 4.5)
			gold = math.Floor(gold * 3.0)
			exp = math.Floor(exp * 2.2)
		}
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("Mob %d", idx+1)
		}
		return EnemySpec{
			Name:   name,
			Sprite: m.Sprite,
			Boss:   boss,
			HP:     max(5, hp),
			Atk:    max(1, atk),
			Exp:    max(1, exp),
			Gold:   max(1, gold),
		}
	}

	idx := ((stage - 1) / 10) % len(FallbackEnemyNames)
	hp := math.Floor(18 * math.Pow(1.18, n) * (1 + 0.08*float64(idx)))
	gold := math.Floor(3 * math.Pow(1.12, n))
	exp := math.Floor(5 * math.Pow(1.10, n))
	name := FallbackEnemyNames[idx]
	if boss {
		hp = math.Floor(hp * 5.0)
		gold = math.Floor(gold * 3.0)
		exp = math.Floor(exp * 2.2)
		name += " (Boss)"
	}
	return EnemySpec{
		Name: name,
		Boss: boss,
		HP:   max(5, hp),
		Atk:  max(1, math.Floor(2*math.Pow(1.08, n))),
		Exp:  max(1, exp),
		Gold: max(1, gold),
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// DropChanceBase is the item drop probability of stage before buffs.
//
// Postcondition: result in [0.10, 0.35].
func DropChanceBase(stage int) float64 {
	return clamp(0.10+float64(stage)*0.002, 0.10, 0.35)
}

var enhanceChances = [EnhanceMax + 1]float64{0.90, 0.82, 0.74, 0.64, 0.52, 0.40, 0.28, 0.18, 0.12, 0.08, 0.05}

// EnhanceChance is the success probability of enhancing from level.
//
// Postcondition: non-increasing in level; levels beyond EnhanceMax use the
// final entry and negative levels the first.
func EnhanceChance(level int) float64 {
	return enhanceChances[max(0, min(EnhanceMax, level))]
}

// PetSlots is the fixed number of pet slots.
const PetSlots = 3

// PetUnlockCost is the gold price of unlocking slot.
func PetUnlockCost(slot int) float64 {
	switch slot {
	case 1:
		return 500
	case 2:
		return 2500
	default:
		return 0
	}
}

// PetLevelUpCost is the gold price of raising the pet in slot from level.
func PetLevelUpCost(slot, level int) float64 {
	base := 120 * float64(slot+1)
	return math.Floor(base * math.Pow(1.30, float64(max(0, level-1))))
}

// PetPassiveBonus is the DPS bonus fraction a pet of level contributes before
// slot weighting.
//
// Postcondition: result in [0.05, 0.25], non-decreasing in level.
func PetPassiveBonus(level int) float64 {
	return clamp(0.05+float64(level)*0.01, 0.05, 0.25)
}

// PetSlotWeight scales a slot's passive bonus; slot 0 is weighted highest.
func PetSlotWeight(slot int) float64 {
	switch slot {
	case 0:
		return 1.0
	case 1:
		return 0.85
	default:
		return 0.70
	}
}

// MaxPetBonus caps the summed pet DPS bonus.
const MaxPetBonus = 0.60

// Upgrade keys.
const (
	UpgradeAtk  = "atk"
	UpgradeAspd = "aspd"
	UpgradeCrit = "crit"
	UpgradeGold = "gold"
)

// UpgradeDef describes one purchasable permanent upgrade track.
type UpgradeDef struct {
	Key    string
	Name   string
	Desc   string
	base   float64
	growth float64
}

// Cost is the gold price of buying the next level from level.
func (u UpgradeDef) Cost(level int) float64 {
	return math.Floor(u.base * math.Pow(u.growth, float64(level)))
}

var upgrades = []UpgradeDef{
	{Key: UpgradeAtk, Name: "Attack Training", Desc: "+2 base attack", base: 12, growth: 1.17},
	{Key: UpgradeAspd, Name: "Flurry Training", Desc: "+0.08 attacks per second", base: 18, growth: 1.18},
	{Key: UpgradeCrit, Name: "Precision Drills", Desc: "+1% critical chance", base: 30, growth: 1.20},
	{Key: UpgradeGold, Name: "Lucky Hand", Desc: "+3% gold bonus", base: 25, growth: 1.19},
}

// Upgrades returns the upgrade tracks in display order.
func Upgrades() []UpgradeDef {
	out := make([]UpgradeDef, len(upgrades))
	copy(out, upgrades)
	return out
}

// UpgradeByKey returns the upgrade track named key.
func UpgradeByKey(key string) (UpgradeDef, bool) {
	for _, u := range upgrades {
		if u.Key == key {
			return u, true
		}
	}
	return UpgradeDef{}, false
}

// PrestigeMinStage is the lowest stage at which prestige yields essence.
const PrestigeMinStage = 30

// EssenceForStage is the base essence earned by prestiging at stage.
//
// Postcondition: 0 when stage < PrestigeMinStage, else max(1, floor((stage-1)/25)).
func EssenceForStage(stage int) int {
	if stage < PrestigeMinStage {
		return 0
	}
	return max(1, (stage-1)/25)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
