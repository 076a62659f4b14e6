package battle

import (
	"math"
	"math/rand"
)

// Effectiveness messages.
const (
	MsgSuperEffective = "It's super effective!"
	MsgNotEffective   = "It's not very effective..."
	MsgNoEffect       = "It had no effect."
)

// DefaultCritDenominator gives the 1-in-24 critical hit rate.
const DefaultCritDenominator = 24

// DamageResult holds the outcome of a damage calculation.
type DamageResult struct {
	Damage        int
	Messages      []string
	Crit          bool
	Effectiveness float64
}

// DamageCalc computes damage and accuracy. Its RNG is shared with the
// battle so a seeded battle is reproducible.
type DamageCalc struct {
	Dex             Dex
	Chart           TypeChart
	RNG             *rand.Rand
	CritDenominator int
}

// NewDamageCalc builds a calculator with the default crit rate.
func NewDamageCalc(dex Dex, chart TypeChart, rng *rand.Rand) *DamageCalc {
	if chart == nil {
		chart = DefaultTypeChart()
	}
	return &DamageCalc{Dex: dex, Chart: chart, RNG: rng, CritDenominator: DefaultCritDenominator}
}

// resolve fills unset fields of move from the dex entry of the same id.
func (dc *DamageCalc) resolve(move *MoveDef) (power, accuracy int, moveType string, category Category) {
	power, accuracy, moveType, category = move.Power, move.Accuracy, move.Type, move.Category
	if dc.Dex == nil {
		return
	}
	id := move.ID
	if id == "" {
		id = move.Name
	}
	def, ok := dc.Dex.Move(id)
	if !ok {
		return
	}
	if power == 0 {
		power = def.Power
	}
	if accuracy == 0 {
		accuracy = def.Accuracy
	}
	if moveType == "" {
		moveType = def.Type
	}
	if category == "" {
		category = def.Category
	}
	return
}

// typesOf returns c's types, falling back to its species entry.
func (dc *DamageCalc) typesOf(c *Creature) []string {
	if len(c.Types) > 0 || dc.Dex == nil {
		return c.Types
	}
	if sp, ok := dc.Dex.Species(c.Species); ok {
		return sp.Types
	}
	return nil
}

// BaseDamage is floor(floor(floor(2L/5+2) * P * A / D) / 50) + 2.
func BaseDamage(level, power, attack, defense int) int {
	if defense < 1 {
		defense = 1
	}
	return (2*level/5+2)*power*attack/defense/50 + 2
}

// StageMultiplier returns the numerator and denominator for a stat stage.
func StageMultiplier(stage int) (num, den int) {
	stage = clampStage(stage)
	if stage >= 0 {
		return 2 + stage, 2
	}
	return 2, 2 - stage
}

// AccuracyMultiplier returns the numerator and denominator for an
// accuracy/evasion stage.
func AccuracyMultiplier(stage int) (num, den int) {
	stage = clampStage(stage)
	if stage >= 0 {
		return 3 + stage, 3
	}
	return 3, 3 - stage
}

func clampStage(s int) int {
	if s > MaxBoost {
		return MaxBoost
	}
	if s < MinBoost {
		return MinBoost
	}
	return s
}

// BoostedStat applies c's stage for st to its raw stat.
func BoostedStat(c *Creature, st Stat) int {
	num, den := StageMultiplier(c.Boosts.Get(st))
	return c.Stats.Get(st) * num / den
}

// Compute runs the damage pipeline: base damage, variance, crit, STAB,
// type effectiveness, burn and weather, then the minimum-1 clamp.
func (dc *DamageCalc) Compute(attacker, defender *Creature, move *MoveDef, field *Field) DamageResult {
	res := DamageResult{Effectiveness: 1}
	power, _, moveType, category := dc.resolve(move)
	if power <= 0 || category == CategoryStatus {
		return res
	}

	mult, super, resisted := dc.Chart.Effectiveness(moveType, dc.typesOf(defender))
	res.Effectiveness = mult
	if mult == 0 {
		res.Messages = []string{MsgNoEffect}
		return res
	}

	atkStat, defStat := StatAtk, StatDef
	if category == CategorySpecial {
		atkStat, defStat = StatSpA, StatSpD
	}

	den := dc.CritDenominator
	if den <= 0 {
		den = DefaultCritDenominator
	}
	res.Crit = dc.RNG.Intn(den) == 0

	a := BoostedStat(attacker, atkStat)
	d := BoostedStat(defender, defStat)
	if res.Crit {
		// Crits ignore the attacker's drops and the defender's raises.
		if attacker.Boosts.Get(atkStat) < 0 {
			a = attacker.Stats.Get(atkStat)
		}
		if defender.Boosts.Get(defStat) > 0 {
			d = defender.Stats.Get(defStat)
		}
	}
	if a < 1 {
		a = 1
	}

	dmg := float64(BaseDamage(attacker.Level, power, a, d))
	dmg = math.Floor(dmg * float64(dc.RNG.Intn(16)+85) / 100)
	if res.Crit {
		dmg = math.Floor(dmg * 1.5)
	}
	for _, t := range dc.typesOf(attacker) {
		if ToID(t) == ToID(moveType) {
			dmg = math.Floor(dmg * 1.5)
			break
		}
	}
	dmg = math.Floor(dmg * mult)
	if attacker.Status == StatusBurn && category == CategoryPhysical && !attacker.HasAbility("guts") {
		dmg = math.Floor(dmg / 2)
	}
	if field != nil {
		dmg = math.Floor(dmg * weatherModifier(field.Weather, moveType))
	}

	res.Damage = int(dmg)
	if res.Damage < 1 {
		res.Damage = 1
	}
	for i := 0; i < super; i++ {
		res.Messages = append(res.Messages, MsgSuperEffective)
	}
	for i := 0; i < resisted; i++ {
		res.Messages = append(res.Messages, MsgNotEffective)
	}
	return res
}

func weatherModifier(weather, moveType string) float64 {
	t := ToID(moveType)
	switch weather {
	case WeatherRain:
		if t == "water" {
			return 1.5
		}
		if t == "fire" {
			return 0.5
		}
	case WeatherSun:
		if t == "fire" {
			return 1.5
		}
		if t == "water" {
			return 0.5
		}
	}
	return 1
}

// Accuracy returns the move's base accuracy with the dex fallback applied.
// 0 means the move cannot miss.
func (dc *DamageCalc) Accuracy(move *MoveDef) int {
	if move.AlwaysHit {
		return 0
	}
	_, acc, _, _ := dc.resolve(move)
	return acc
}

// CheckAccuracy rolls accuracy (as returned by Accuracy, possibly modified)
// against the attacker's accuracy and the defender's evasion stages.
func (dc *DamageCalc) CheckAccuracy(attacker, defender *Creature, move *MoveDef, accuracy int) bool {
	if move.AlwaysHit || accuracy <= 0 {
		return true
	}
	num, den := AccuracyMultiplier(attacker.Boosts.Accuracy - defender.Boosts.Evasion)
	acc := accuracy * num / den
	return dc.RNG.Intn(100) < acc
}
