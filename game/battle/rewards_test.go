package battle

import (
	"reflect"
	"testing"
)

func TestExpGain(t *testing.T) {
	if got := ExpGain(64, 10); got != 91 {
		t.Errorf("ExpGain(64, 10) = %d, want 91", got)
	}
	if got := ExpGain(50, 1); got != 7 {
		t.Errorf("ExpGain(50, 1) = %d, want 7", got)
	}
}

func TestDistributeExperience(t *testing.T) {
	if got := DistributeExperience(10, 3); !reflect.DeepEqual(got, []int{4, 3, 3}) {
		t.Errorf("got %v", got)
	}
	if got := DistributeExperience(10, 0); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestEVGainItems(t *testing.T) {
	c := mon("Rattata", 10)
	yield := Stats{Spe: 1}
	if got := EVGain(c, yield); got != yield {
		t.Errorf("plain gain = %+v", got)
	}
	c.Item = "Macho Brace"
	if got := EVGain(c, yield); got.Spe != 2 {
		t.Errorf("macho brace gain = %+v", got)
	}
	c.Item = "Power Bracer"
	if got := EVGain(c, yield); got.Atk != 8 || got.Spe != 1 {
		t.Errorf("power bracer gain = %+v", got)
	}
}

func TestAddEVsCaps(t *testing.T) {
	c := mon("Rattata", 10)
	c.EVs.Atk = 250
	AddEVs(c, Stats{Atk: 10})
	if c.EVs.Atk != MaxEVPerStat {
		t.Errorf("atk EVs = %d, want %d", c.EVs.Atk, MaxEVPerStat)
	}

	c.EVs = Stats{HP: 252, Atk: 252, Def: 4}
	AddEVs(c, Stats{Spe: 10})
	if c.EVs.Total() != MaxEVTotal || c.EVs.Spe != 2 {
		t.Errorf("EVs = %+v total %d", c.EVs, c.EVs.Total())
	}
}

func TestLuckyEggAndExpShare(t *testing.T) {
	b := NewBattle(Config{Kind: KindWild, Dex: testDex, ExpShare: true})
	lead := mon("Pikachu", 50, "Thunder Shock")
	lead.Item = "Lucky Egg"
	bench := mon("Squirtle", 10, "Tackle")
	b.AddSide("Player", false, lead, bench)
	wild := mon("Pidgey", 7, "Tackle")
	owner := b.AddSide("Wild", true, wild)

	wild.HP = 0
	b.awardExperience(wild, owner)

	total := ExpGain(50, 7)
	shares := DistributeExperience(total, 2)
	if want := shares[0] * 3 / 2; lead.Experience != want {
		t.Errorf("lead exp = %d, want %d", lead.Experience, want)
	}
	if bench.Experience != shares[1] {
		t.Errorf("bench exp = %d, want %d", bench.Experience, shares[1])
	}
}

func TestNoExperienceFromHumanSides(t *testing.T) {
	b := newTestBattle(KindPVP, 1)
	winner := mon("Pikachu", 50)
	loser := mon("Pidgey", 10)
	b.AddSide("Red", false, winner)
	owner := b.AddSide("Blue", false, loser)

	b.awardExperience(loser, owner)
	if winner.Experience != 0 {
		t.Errorf("PvP should award nothing, got %d", winner.Experience)
	}
}

func TestExpShareHolderSplitsReward(t *testing.T) {
	b := NewBattle(Config{Kind: KindWild, Dex: testDex})
	lead := mon("Pikachu", 50, "Thunder Shock")
	holder := mon("Squirtle", 10, "Tackle")
	holder.Item = "Exp Share"
	idle := mon("Charmander", 10, "Ember")
	b.AddSide("Player", false, lead, idle, holder)
	wild := mon("Pidgey", 7, "Tackle")
	owner := b.AddSide("Wild", true, wild)

	wild.HP = 0
	b.awardExperience(wild, owner)

	shares := DistributeExperience(ExpGain(50, 7), 2)
	if lead.Experience != shares[0] || holder.Experience != shares[1] {
		t.Errorf("exp lead=%d holder=%d, want %v", lead.Experience, holder.Experience, shares)
	}
	if idle.Experience != 0 {
		t.Errorf("bench without exp share got %d", idle.Experience)
	}
}
