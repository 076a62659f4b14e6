package battle

import "testing"

func TestRunAwayEscapesArenaTrap(t *testing.T) {
	b := newTestBattle(KindWild, 1)
	runner := mon("Rattata", 5, "Tackle")
	runner.Ability = "Run Away"
	trapper := mon("Diglett", 5, "Tackle")
	trapper.Ability = "Arena Trap"
	p := b.AddSide("Player", false, runner)
	b.AddSide("Wild", true, trapper)

	if !b.AttemptFlee(p) {
		t.Fatal("run away should always escape")
	}
	if !b.Over || b.Winner != NoWinner {
		t.Errorf("over=%v winner=%d", b.Over, b.Winner)
	}
	if !logHas(b.PendingLog(), "fled from the battle") {
		t.Errorf("log = %v", b.PendingLog())
	}
}

func TestArenaTrapHoldsSlowerRunner(t *testing.T) {
	b := newTestBattle(KindWild, 2)
	rec := &eventRecorder{}
	b.SetSink(rec.sink)
	runner := mon("Rattata", 5, "Tackle")
	trapper := mon("Diglett", 5, "Tackle")
	trapper.Ability = "Arena Trap"
	p := b.AddSide("Player", false, runner)
	b.AddSide("Wild", true, trapper)

	if b.AttemptFlee(p) {
		t.Fatal("trapped runner escaped")
	}
	if p.FleeAttempts != 1 {
		t.Errorf("flee attempts = %d, want 1", p.FleeAttempts)
	}
	if !logHas(b.PendingLog(), "Player's Rattata is trapped by Arena Trap!") {
		t.Errorf("log = %v", b.PendingLog())
	}
	if b.Over {
		t.Error("battle should continue")
	}
	evts := rec.ofType("flee")
	if len(evts) != 1 || evts[0].(*EventFlee).Success {
		t.Errorf("flee events = %v", evts)
	}
}

func TestArenaTrapIgnoresFlyers(t *testing.T) {
	b := newTestBattle(KindWild, 3)
	runner := mon("Pidgey", 50, "Tackle")
	trapper := mon("Diglett", 5, "Tackle")
	trapper.Ability = "Arena Trap"
	p := b.AddSide("Player", false, runner)
	b.AddSide("Wild", true, trapper)

	if !b.AttemptFlee(p) {
		t.Error("a faster flying runner should escape")
	}
}

func TestShadowTagTrapsAll(t *testing.T) {
	b := newTestBattle(KindWild, 4)
	runner := mon("Pidgey", 50, "Tackle")
	trapper := mon("Wobbuffet", 5, "Tackle")
	trapper.Ability = "Shadow Tag"
	p := b.AddSide("Player", false, runner)
	b.AddSide("Wild", true, trapper)

	if b.AttemptFlee(p) {
		t.Error("shadow tag should trap")
	}
}

func TestCannotFleeTrainerBattle(t *testing.T) {
	b := newTestBattle(KindTrainer, 5)
	p := b.AddSide("Player", false, mon("Pikachu", 50, "Tackle"))
	b.AddSide("Joey", true, mon("Rattata", 2, "Tackle"))

	if b.AttemptFlee(p) {
		t.Fatal("fled from a trainer battle")
	}
	if !logHas(b.PendingLog(), "can't run from this battle") {
		t.Errorf("log = %v", b.PendingLog())
	}
	if p.FleeAttempts != 1 {
		t.Errorf("flee attempts = %d", p.FleeAttempts)
	}
}

func TestFasterRunnerEscapes(t *testing.T) {
	b := newTestBattle(KindWild, 6)
	p := b.AddSide("Player", false, mon("Pikachu", 50, "Tackle"))
	b.AddSide("Wild", true, mon("Geodude", 5, "Tackle"))

	if !b.AttemptFlee(p) {
		t.Error("faster runner should escape")
	}
}

func TestRepeatedAttemptsEventuallySucceed(t *testing.T) {
	b := newTestBattle(KindWild, 7)
	p := b.AddSide("Player", false, mon("Geodude", 5, "Tackle"))
	b.AddSide("Wild", true, mon("Pikachu", 50, "Tackle"))

	// Each failure adds 30 to the threshold, which passes 255 by the
	// tenth attempt.
	for i := 0; i < 10 && !b.Over; i++ {
		b.AttemptFlee(p)
	}
	if !b.Over {
		t.Errorf("still trapped after %d attempts", p.FleeAttempts)
	}
}

func TestRunActionInTurn(t *testing.T) {
	b := newTestBattle(KindWild, 8)
	b.AddSide("Player", false, mon("Pikachu", 50, "Tackle"))
	b.AddSide("Wild", true, mon("Rattata", 3, "Tackle"))
	_ = b.Declare("A1", NewRunAction("Player"))
	b.DeclareAI()

	lines, err := b.RunTurn()
	if err != nil {
		t.Fatal(err)
	}
	if !b.Over || logHas(lines, "Rattata used Tackle!") {
		t.Errorf("run should resolve before the wild move: %v", lines)
	}
}
