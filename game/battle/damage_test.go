package battle

import (
	"math/rand"
	"testing"
)

func newCalc(chart TypeChart, seed int64) *DamageCalc {
	return NewDamageCalc(testDex, chart, rand.New(rand.NewSource(seed)))
}

func TestBaseDamage(t *testing.T) {
	if got := BaseDamage(50, 40, 100, 100); got != 19 {
		t.Errorf("BaseDamage(50,40,100,100) = %d, want 19", got)
	}
	if got := BaseDamage(1, 40, 1, 0); got < 2 {
		t.Errorf("zero defense should be treated as 1, got %d", got)
	}
}

func TestDamageNeverBelowOne(t *testing.T) {
	chart := TypeChart{"fire": {"fire": 0.5, "water": 0.5}}
	calc := newCalc(chart, 1)
	atk := &Creature{Name: "A", Level: 1, HP: 10, MaxHP: 10, Types: []string{"Normal"}, Stats: Stats{Atk: 1, SpA: 1}}
	def := &Creature{Name: "D", Level: 1, HP: 10, MaxHP: 10, Types: []string{"Fire", "Water"}, Stats: Stats{Def: 200, SpD: 200}}
	move := &MoveDef{ID: "ember", Name: "Ember", Type: "Fire", Category: CategorySpecial, Power: 40, Accuracy: 100}

	for i := 0; i < 50; i++ {
		res := calc.Compute(atk, def, move, nil)
		if res.Damage != 1 {
			t.Fatalf("iteration %d: damage = %d, want 1", i, res.Damage)
		}
		if res.Effectiveness != 0.25 {
			t.Fatalf("effectiveness = %v, want 0.25", res.Effectiveness)
		}
		if len(res.Messages) != 2 || res.Messages[0] != MsgNotEffective {
			t.Fatalf("messages = %v", res.Messages)
		}
	}
}

func TestDamageEffectivenessMessages(t *testing.T) {
	calc := newCalc(nil, 2)
	atk := mon("Squirtle", 30, "Water Gun")
	def := &Creature{Name: "Rocky", Level: 30, HP: 80, MaxHP: 80, Types: []string{"Fire", "Rock"}, Stats: Stats{Def: 50, SpD: 50}}
	move, _ := testDex.Move("Water Gun")

	res := calc.Compute(atk, def, move, nil)
	if res.Effectiveness != 4 {
		t.Errorf("effectiveness = %v, want 4", res.Effectiveness)
	}
	if len(res.Messages) != 2 || res.Messages[0] != MsgSuperEffective || res.Messages[1] != MsgSuperEffective {
		t.Errorf("messages = %v", res.Messages)
	}
}

func TestDamageNoEffect(t *testing.T) {
	calc := newCalc(nil, 3)
	atk := mon("Rattata", 30, "Tackle")
	ghost := mon("Gastly", 30, "Tackle")
	move, _ := testDex.Move("Tackle")

	res := calc.Compute(atk, ghost, move, nil)
	if res.Damage != 0 || res.Effectiveness != 0 {
		t.Errorf("damage = %d effectiveness = %v", res.Damage, res.Effectiveness)
	}
	if len(res.Messages) != 1 || res.Messages[0] != MsgNoEffect {
		t.Errorf("messages = %v", res.Messages)
	}
}

func TestStatusMoveDealsNothing(t *testing.T) {
	calc := newCalc(nil, 4)
	move, _ := testDex.Move("Growl")
	res := calc.Compute(mon("Rattata", 10), mon("Pidgey", 10), move, nil)
	if res.Damage != 0 || len(res.Messages) != 0 {
		t.Errorf("status move result = %+v", res)
	}
}

func TestDamageFallsBackToDex(t *testing.T) {
	calc := newCalc(nil, 5)
	// Only the id is set; power, type and category come from the dex.
	res := calc.Compute(mon("Charmander", 30), mon("Bulbasaur", 30), &MoveDef{ID: "flamethrower"}, nil)
	if res.Damage <= 1 || res.Effectiveness != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestBurnHalvesPhysicalUnlessGuts(t *testing.T) {
	move, _ := testDex.Move("Tackle")
	def := mon("Wobbuffet", 50)
	compute := func(c *Creature) int {
		return newCalc(nil, 42).Compute(c, def, move, nil).Damage
	}

	healthy := mon("Rattata", 50)
	burned := mon("Rattata", 50)
	burned.Status = StatusBurn
	gutsy := mon("Rattata", 50)
	gutsy.Status = StatusBurn
	gutsy.Ability = "Guts"

	base := compute(healthy)
	if got := compute(burned); got >= base {
		t.Errorf("burned damage %d should be below %d", got, base)
	}
	if got := compute(gutsy); got != base {
		t.Errorf("guts damage %d, want %d", got, base)
	}
}

func TestWeatherModifiesDamage(t *testing.T) {
	move, _ := testDex.Move("Water Gun")
	atk, def := mon("Squirtle", 50), mon("Rattata", 50)
	rain := NewField()
	rain.SetWeather(WeatherRain, 5)
	sun := NewField()
	sun.SetWeather(WeatherSun, 5)

	plain := newCalc(nil, 9).Compute(atk, def, move, nil).Damage
	wet := newCalc(nil, 9).Compute(atk, def, move, rain).Damage
	dry := newCalc(nil, 9).Compute(atk, def, move, sun).Damage
	if !(dry < plain && plain < wet) {
		t.Errorf("sun=%d plain=%d rain=%d", dry, plain, wet)
	}
}

func TestStabBoostsDamage(t *testing.T) {
	move, _ := testDex.Move("Ember")
	def := mon("Rattata", 50)
	fire := mon("Charmander", 50)
	notFire := mon("Charmander", 50)
	notFire.Types = []string{"Normal"}

	with := newCalc(nil, 10).Compute(fire, def, move, nil).Damage
	without := newCalc(nil, 10).Compute(notFire, def, move, nil).Damage
	if with <= without {
		t.Errorf("stab %d should exceed %d", with, without)
	}
}

func TestStageMultiplier(t *testing.T) {
	cases := []struct {
		stage    int
		num, den int
	}{
		{0, 2, 2},
		{2, 4, 2},
		{-1, 2, 3},
		{6, 8, 2},
		{9, 8, 2},
		{-6, 2, 8},
	}
	for _, c := range cases {
		n, d := StageMultiplier(c.stage)
		if n != c.num || d != c.den {
			t.Errorf("stage %d: got %d/%d, want %d/%d", c.stage, n, d, c.num, c.den)
		}
	}
}

func TestAccuracy(t *testing.T) {
	calc := newCalc(nil, 11)
	swift, _ := testDex.Move("Swift")
	if calc.Accuracy(swift) != 0 {
		t.Error("swift should never miss")
	}
	hypnosis, _ := testDex.Move("Hypnosis")
	if calc.Accuracy(hypnosis) != 60 {
		t.Errorf("hypnosis accuracy = %d", calc.Accuracy(hypnosis))
	}
	a, d := mon("Rattata", 10), mon("Pidgey", 10)
	d.Boosts.Evasion = 6
	hits := 0
	for i := 0; i < 200; i++ {
		if calc.CheckAccuracy(a, d, hypnosis, 60) {
			hits++
		}
	}
	// 60 * 3/9 = 20% hit chance.
	if hits > 80 {
		t.Errorf("hits = %d out of 200 against +6 evasion", hits)
	}
}

func TestTypeChart(t *testing.T) {
	chart := DefaultTypeChart()
	if v := chart.Multiplier("Electric", "Ground"); v != 0 {
		t.Errorf("electric vs ground = %v", v)
	}
	if v := chart.Multiplier("Dragon", "Fairy"); v != 0 {
		t.Errorf("dragon vs fairy = %v", v)
	}
	if v := chart.Multiplier("Unknown", "Water"); v != 1 {
		t.Errorf("unknown type = %v", v)
	}
	mult, super, resisted := chart.Effectiveness("Ice", []string{"Dragon", "Flying"})
	if mult != 4 || super != 2 || resisted != 0 {
		t.Errorf("ice vs dragon/flying = %v %d %d", mult, super, resisted)
	}
}
