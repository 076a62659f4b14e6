package battle

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

type vetoAll struct{ id string }

func (v vetoAll) ID() string                         { return v.id }
func (vetoAll) OnTryHit(*HookContext) (bool, error) { return false, nil }

type erroringVeto struct{}

func (erroringVeto) ID() string { return "Faulty Shield" }
func (erroringVeto) OnTryHit(*HookContext) (bool, error) {
	return false, errors.New("shield cracked")
}

type doubler struct{}

func (doubler) ID() string { return "Doubler" }
func (doubler) OnModifyDamage(_ *HookContext, v int) (int, error) {
	return v * 2, nil
}

type panicModifier struct{}

func (panicModifier) ID() string { return "Panic Button" }
func (panicModifier) OnModifyDamage(*HookContext, int) (int, error) {
	panic("pressed")
}

func TestHookRegistryRegister(t *testing.T) {
	r := NewHookRegistry()
	if err := r.Register(vetoAll{id: ""}); !errors.Is(err, ErrEmptyEffectID) {
		t.Errorf("empty id: %v", err)
	}
	if err := r.Register(vetoAll{id: "Wonder Wall"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(vetoAll{id: "wonder-wall"}); !errors.Is(err, ErrDuplicateEffectID) {
		t.Errorf("duplicate id: %v", err)
	}
	if !r.Has("WonderWall", HookTryHit) {
		t.Error("capability lookup should normalise ids")
	}
	if r.Has("Wonder Wall", HookResidual) {
		t.Error("effect does not implement residual")
	}
	if r.Len() != 1 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestDefaultHooksCapabilities(t *testing.T) {
	r := DefaultHooks()
	checks := []struct {
		id    string
		point HookPoint
	}{
		{"Run Away", HookEscape},
		{"Arena Trap", HookFoeTrap},
		{"Levitate", HookTryHit},
		{"Leftovers", HookResidual},
		{"Life Orb", HookModifyDamage},
		{"Life Orb", HookAfterMoveSecondarySelf},
		{"Mirror Herb", HookFoeAfterBoost},
		{"Trick Room", HookFieldStart},
		{"Trick Room", HookFieldRestart},
		{"Lucky Egg", HookModifyExp},
		{"Moxie", HookAfterMoveSecondarySelf},
		{"Sticky Barb", HookResidual},
		{"Sticky Barb", HookDamagingHit},
		{"Sticky Barb", HookTakeItem},
	}
	for _, c := range checks {
		if !r.Has(c.id, c.point) {
			t.Errorf("%s should implement %s", c.id, c.point)
		}
	}
	if _, ok := r.Get("Exp Share"); !ok {
		t.Error("exp share should be registered")
	}
	if _, ok := r.Get("Magic Guard"); !ok {
		t.Error("passive abilities should still be registered")
	}
}

func TestDispatcherVetoAndFailures(t *testing.T) {
	r := NewHookRegistry()
	r.MustRegister(vetoAll{id: "Wonder Wall"}, erroringVeto{})
	d := NewDispatcher(r, zap.NewNop())
	call := func(e Effect) (bool, error) { return e.(TryHitHook).OnTryHit(nil) }

	// A failing hook never vetoes.
	holder := &Creature{Name: "A", Ability: "Faulty Shield"}
	if v := d.Veto(HookTryHit, &HookContext{Holder: holder}, call); v.Vetoed {
		t.Error("an erroring hook vetoed")
	}
	if len(d.Failures()) != 1 || d.Failures()[0].Effect != "Faulty Shield" {
		t.Errorf("failures = %+v", d.Failures())
	}

	holder.Ability = "Wonder Wall"
	holder.Item = "Faulty Shield"
	v := d.Veto(HookTryHit, &HookContext{Holder: holder}, call)
	if !v.Vetoed || v.By != "Wonder Wall" {
		t.Errorf("veto = %+v", v)
	}
}

func TestDispatcherModifyRecoversPanics(t *testing.T) {
	r := NewHookRegistry()
	r.MustRegister(doubler{}, panicModifier{})
	d := NewDispatcher(r, zap.NewNop())
	holder := &Creature{Ability: "Doubler", Item: "Panic Button"}
	hc := &HookContext{Holder: holder}

	got := d.Modify(HookModifyDamage, hc, 10, func(e Effect, v int) (int, error) {
		return e.(ModifyDamageHook).OnModifyDamage(hc, v)
	})
	if got != 20 {
		t.Errorf("modified = %d, want 20", got)
	}
	fails := d.Failures()
	if len(fails) != 1 || fails[0].Point != HookModifyDamage {
		t.Errorf("failures = %+v", fails)
	}
}

func TestDispatcherSkipsUnknownEffects(t *testing.T) {
	d := NewDispatcher(DefaultHooks(), zap.NewNop())
	holder := &Creature{Ability: "Totally Made Up", Item: "Mystery Rock"}
	called := false
	d.Run(HookResidual, &HookContext{Holder: holder}, func(Effect) error {
		called = true
		return nil
	})
	if called {
		t.Error("unknown effects should be skipped")
	}
	if d.RunEffect("nothing", HookFieldStart, func(Effect) error { return nil }) {
		t.Error("RunEffect on an unknown id should report false")
	}
}

func TestHookPointNames(t *testing.T) {
	if HookFoeTrap.String() != "onFoeTrapPokemon" || HookTryHit.String() != "onTryHit" {
		t.Errorf("names: %s %s", HookFoeTrap, HookTryHit)
	}
}

func TestMoxieBoostsOnKnockOut(t *testing.T) {
	b := newTestBattle(KindWild, 21)
	pika := mon("Pikachu", 50, "Tackle")
	pika.Ability = "Moxie"
	wild := mon("Pidgey", 5, "Tackle")
	wild.HP = 1
	b.AddSide("Player", false, pika)
	b.AddSide("Wild", true, wild, mon("Rattata", 5, "Tackle"))

	b.UseMove(b.Position("A1"), NewMoveAction("Player", "", "Tackle", 0))
	if !wild.Fainted() {
		t.Fatal("pidgey should faint")
	}
	if pika.Boosts.Atk != 1 {
		t.Errorf("atk stage = %d, want 1", pika.Boosts.Atk)
	}
	if !logHas(b.PendingLog(), "Pikachu's Attack rose!") {
		t.Errorf("log = %v", b.PendingLog())
	}
}

func TestMoxieIgnoresSurvivors(t *testing.T) {
	b := newTestBattle(KindWild, 22)
	pika := mon("Pikachu", 10, "Tackle")
	pika.Ability = "Moxie"
	b.AddSide("Player", false, pika)
	b.AddSide("Wild", true, mon("Wobbuffet", 50, "Tackle"))

	b.UseMove(b.Position("A1"), NewMoveAction("Player", "", "Tackle", 0))
	if pika.Boosts.Atk != 0 {
		t.Errorf("atk stage = %d, want 0", pika.Boosts.Atk)
	}
}

func TestStickyBarbLatchesOnContactAndChips(t *testing.T) {
	b := newTestBattle(KindWild, 23)
	pika := mon("Pikachu", 30, "Tackle")
	foe := mon("Wobbuffet", 30, "Tackle")
	foe.Item = "Sticky Barb"
	b.AddSide("Player", false, pika)
	b.AddSide("Wild", true, foe)

	b.UseMove(b.Position("A1"), NewMoveAction("Player", "", "Tackle", 0))
	if pika.Item != "Sticky Barb" || foe.Item != "" {
		t.Fatalf("items after contact: pika=%q foe=%q", pika.Item, foe.Item)
	}

	before := pika.HP
	b.Residual()
	if want := before - fractionOf(pika.MaxHP, 1, 8); pika.HP != want {
		t.Errorf("hp after residual = %d, want %d", pika.HP, want)
	}
	if !logHas(b.PendingLog(), "Pikachu is hurt by its Sticky Barb!") {
		t.Errorf("log = %v", b.PendingLog())
	}
}

func TestStickyBarbCannotBeTaken(t *testing.T) {
	d := NewDispatcher(DefaultHooks(), zap.NewNop())
	holder := &Creature{Name: "Ferroseed", Item: "Sticky Barb"}
	hc := &HookContext{Holder: holder}
	v := d.Veto(HookTakeItem, hc, func(e Effect) (bool, error) {
		return e.(TakeItemHook).OnTakeItem(hc, holder.Item)
	})
	if !v.Vetoed || v.By != "Sticky Barb" {
		t.Errorf("veto = %+v", v)
	}
}
