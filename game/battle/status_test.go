package battle

import "testing"

func statusBattle(seed int64, player, foe *Creature) *Battle {
	b := newTestBattle(KindPVP, seed)
	b.AddSide("Red", false, player)
	b.AddSide("Blue", false, foe)
	return b
}

func TestStatusTypeImmunity(t *testing.T) {
	fire, rat := mon("Charmander", 20), mon("Rattata", 20)
	b := statusBattle(1, rat, fire)

	if b.TryApplyStatus(fire, StatusBurn, rat, true) {
		t.Error("fire types cannot be burned")
	}
	if !logHas(b.PendingLog(), "But it failed!") {
		t.Errorf("log = %v", b.PendingLog())
	}
	if !b.TryApplyStatus(rat, StatusBurn, fire, false) || rat.Status != StatusBurn {
		t.Error("rattata should burn")
	}
	if b.TryApplyStatus(rat, StatusParalysis, fire, false) {
		t.Error("a second status must not replace the first")
	}
}

func TestCorrosionPoisonsSteel(t *testing.T) {
	user, steel := mon("Gastly", 20), mon("Magnemite", 20)
	b := statusBattle(2, user, steel)

	if b.CanApplyStatus(steel, StatusToxic, user) {
		t.Fatal("steel should resist poison")
	}
	user.Ability = "Corrosion"
	if !b.TryApplyStatus(steel, StatusToxic, user, false) {
		t.Error("corrosion should poison steel")
	}
	if steel.ToxicCounter != 1 {
		t.Errorf("toxic counter = %d", steel.ToxicCounter)
	}
}

func TestSafeguardAndMistyTerrain(t *testing.T) {
	rat, foe := mon("Rattata", 20), mon("Pikachu", 20)
	b := statusBattle(3, rat, foe)

	b.Field.AddSideCondition("Red", "Safeguard")
	if b.CanApplyStatus(rat, StatusParalysis, foe) {
		t.Error("safeguard should block foe statuses")
	}
	if !b.CanApplyStatus(rat, StatusSleep, rat) {
		t.Error("safeguard does not block self-inflicted status")
	}

	b.Field.SideEffects = nil
	b.Field.SetTerrain(TerrainMisty, 5)
	if b.CanApplyStatus(rat, StatusParalysis, foe) {
		t.Error("misty terrain protects grounded creatures")
	}
	bird := mon("Pidgey", 20)
	b2 := statusBattle(4, bird, foe)
	b2.Field.SetTerrain(TerrainMisty, 5)
	if !b2.CanApplyStatus(bird, StatusParalysis, foe) {
		t.Error("flying creatures are not grounded")
	}
}

func TestPoisonResiduals(t *testing.T) {
	rat, foe := mon("Rattata", 50), mon("Wobbuffet", 50)
	b := statusBattle(5, rat, foe)

	rat.Status = StatusPoison
	b.Residual()
	if want := rat.MaxHP - rat.MaxHP/8; rat.HP != want {
		t.Errorf("poison: hp = %d, want %d", rat.HP, want)
	}

	rat.HP = rat.MaxHP
	rat.Status = StatusToxic
	rat.ToxicCounter = 1
	b.Residual()
	if want := rat.MaxHP - rat.MaxHP/16; rat.HP != want {
		t.Errorf("toxic 1: hp = %d, want %d", rat.HP, want)
	}
	b.Residual()
	if want := rat.MaxHP - rat.MaxHP/16 - rat.MaxHP*2/16; rat.HP != want {
		t.Errorf("toxic 2: hp = %d, want %d", rat.HP, want)
	}
	if rat.ToxicCounter != 3 {
		t.Errorf("toxic counter = %d, want 3", rat.ToxicCounter)
	}
}

func TestPoisonHealAndMagicGuard(t *testing.T) {
	rat, foe := mon("Rattata", 50), mon("Wobbuffet", 50)
	b := statusBattle(6, rat, foe)

	rat.Status = StatusPoison
	rat.Ability = "Poison Heal"
	rat.HP = 10
	b.Residual()
	if want := 10 + rat.MaxHP/8; rat.HP != want {
		t.Errorf("poison heal: hp = %d, want %d", rat.HP, want)
	}

	rat.Ability = "Magic Guard"
	hp := rat.HP
	b.Residual()
	if rat.HP != hp {
		t.Errorf("magic guard: hp %d -> %d", hp, rat.HP)
	}
}

func TestBurnResidualAndHeatproof(t *testing.T) {
	rat, foe := mon("Rattata", 50), mon("Wobbuffet", 50)
	b := statusBattle(7, rat, foe)

	rat.Status = StatusBurn
	b.Residual()
	if want := rat.MaxHP - rat.MaxHP/16; rat.HP != want {
		t.Errorf("burn: hp = %d, want %d", rat.HP, want)
	}
	rat.HP = rat.MaxHP
	rat.Ability = "Heatproof"
	b.Residual()
	if want := rat.MaxHP - rat.MaxHP/32; rat.HP != want {
		t.Errorf("heatproof: hp = %d, want %d", rat.HP, want)
	}
}

func TestLeftoversResidual(t *testing.T) {
	rat, foe := mon("Rattata", 50), mon("Wobbuffet", 50)
	rat.Item = "Leftovers"
	rat.HP = 20
	b := statusBattle(8, rat, foe)

	b.Residual()
	if want := 20 + rat.MaxHP/16; rat.HP != want {
		t.Errorf("leftovers: hp = %d, want %d", rat.HP, want)
	}
	if !logHas(b.PendingLog(), "restored a little HP using its Leftovers") {
		t.Errorf("log = %v", b.PendingLog())
	}
}

func TestSleepCountsDown(t *testing.T) {
	rat, foe := mon("Rattata", 50), mon("Wobbuffet", 50)
	b := statusBattle(9, rat, foe)

	if !b.TryApplyStatus(rat, StatusSleep, foe, false) {
		t.Fatal("sleep not applied")
	}
	turns := rat.Temp(TempSleepTurns)
	if turns < 1 || turns > 3 {
		t.Fatalf("sleep turns = %d", turns)
	}
	for i := 0; i < turns; i++ {
		if !b.statusPreventsMove(rat) {
			t.Fatalf("turn %d: should still be asleep", i)
		}
	}
	if b.statusPreventsMove(rat) || rat.Status != StatusNone {
		t.Error("should wake up once the counter runs out")
	}
	if !logHas(b.PendingLog(), "Rattata woke up!") {
		t.Errorf("log = %v", b.PendingLog())
	}
}

func TestParalysisHalvesSpeed(t *testing.T) {
	rat, foe := mon("Rattata", 50), mon("Wobbuffet", 50)
	b := statusBattle(10, rat, foe)

	full := b.EffectiveSpeed(rat)
	rat.Status = StatusParalysis
	if got := b.EffectiveSpeed(rat); got != full/2 {
		t.Errorf("paralyzed speed = %d, want %d", got, full/2)
	}
}

func TestSwiftSwimInRain(t *testing.T) {
	fish, foe := mon("Squirtle", 50), mon("Wobbuffet", 50)
	fish.Ability = "Swift Swim"
	b := statusBattle(11, fish, foe)

	dry := b.EffectiveSpeed(fish)
	b.Field.SetWeather(WeatherRain, 5)
	if got := b.EffectiveSpeed(fish); got != dry*2 {
		t.Errorf("rain speed = %d, want %d", got, dry*2)
	}
}

func TestStatusMoveThroughTurn(t *testing.T) {
	rat, foe := mon("Rattata", 50, "Toxic"), mon("Wobbuffet", 50, "Growl")
	b := statusBattle(12, rat, foe)

	// Toxic has 90 accuracy; retry a few turns until it lands.
	for i := 0; i < 10 && foe.Status == StatusNone; i++ {
		_ = b.Declare("A1", NewMoveAction("Red", "", "Toxic", 0))
		_ = b.Declare("B1", NewMoveAction("Blue", "", "Growl", 0))
		if _, err := b.RunTurn(); err != nil {
			t.Fatal(err)
		}
	}
	if foe.Status != StatusToxic {
		t.Fatalf("status = %q", foe.Status)
	}
	if foe.HP == foe.MaxHP {
		t.Error("toxic residual should have dealt damage")
	}
}
