package inventory

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/abyssidle/internal/game/balance"
	"github.com/cory-johannsen/abyssidle/internal/game/dice"
	"github.com/cory-johannsen/abyssidle/internal/game/state"
)

// itemNamespace scopes the name-based UUIDs derived from the seeded stream.
var itemNamespace = uuid.MustParse("5f0c8c8e-3a53-4a8b-9d0e-6c1f2b7a9e41")

// seeded is implemented by sources whose position can be read back, such as
// dice.Stream.
type seeded interface {
	Seed() int32
}

// StatWithEnh scales value by enhancement level enh: attack stats gain 10% per
// level and are floored; gold stats gain 8% per level and round to 2 decimals.
//
// Postcondition: returns 0 when value is 0.
func StatWithEnh(value float64, enh int, kind state.StatKind) float64 {
	if value == 0 {
		return 0
	}
	switch kind {
	case state.StatAtk:
		return math.Floor(value * (1 + 0.10*float64(enh)))
	case state.StatGold:
		return math.Round(value*(1+0.08*float64(enh))*100) / 100
	}
	return value
}

// EffectiveAtk returns the enhanced attack contribution of it, or 0 for nil.
func EffectiveAtk(it *state.Item) float64 {
	if it == nil {
		return 0
	}
	return StatWithEnh(it.Atk, it.Enh, state.StatAtk)
}

// EffectiveGold returns the enhanced gold bonus contribution of it, or 0 for nil.
func EffectiveGold(it *state.Item) float64 {
	if it == nil {
		return 0
	}
	return StatWithEnh(it.Gold, it.Enh, state.StatGold)
}

// Spec constrains a generated item. Zero fields are rolled.
type Spec struct {
	Stage   int
	Type    state.ItemType
	Rarity  string
	Boosted bool
}

// Make generates an item. Draws are taken from src in a fixed order: rarity
// (unless forced), type (unless forced), base definition, stat roll.
//
// Precondition: src must be non-nil; spec.Stage >= 1.
// Postcondition: attack items have Atk >= 1; rings have Gold in [0.01, 1.50];
// Enh == 0. When src is a seeded stream the item id is derived from the
// stream position, so identical seeds produce identical items.
func (r *Registry) Make(src dice.Source, spec Spec) *state.Item {
	stage := max(1, spec.Stage)

	var rar balance.Rarity
	switch {
	case spec.Rarity != "":
		rar = balance.RarityByKey(spec.Rarity)
	case spec.Boosted:
		rar = dice.PickWeighted(balance.Rarities(), func(x balance.Rarity) float64 { return balance.BoostedWeight(x.Key) }, src.Float64())
	default:
		rar = dice.PickWeighted(balance.Rarities(), func(x balance.Rarity) float64 { return x.Weight }, src.Float64())
	}

	t := spec.Type
	if !t.Valid() {
		t = state.ItemTypes[dice.Intn(src, len(state.ItemTypes))]
	}
	bases := r.bases[t]
	base := bases[dice.Intn(src, len(bases))]
	roll := 0.85 + src.Float64()*0.45

	it := &state.Item{
		BaseID: base.ID,
		Type:   t,
		Name:   fmt.Sprintf("%s · %s", base.Name, rar.Name),
		Rar:    rar.Key,
		Sell:   math.Floor(rar.Sell * rar.Mult * (1 + float64(stage)*0.02)),
		Stage:  stage,
	}
	if t.Stat() == state.StatAtk {
		raw := (base.BaseAtk + float64(stage)*base.AtkScale) * rar.Mult * roll
		it.Atk = max(1, math.Floor(raw))
	} else {
		raw := (base.BaseGold + float64(stage)*base.GoldScale) * rar.Mult * roll
		it.Gold = max(0.01, min(1.50, math.Round(raw*100)/100))
	}
	it.ID = newItemID(src)
	return it
}

func newItemID(src dice.Source) string {
	s, ok := src.(seeded)
	if !ok {
		return uuid.NewString()
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(s.Seed()))
	return uuid.NewSHA1(itemNamespace, buf[:]).String()
}
