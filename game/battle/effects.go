package battle

// Built-in abilities, items and field effects. Each type implements only
// the hook interfaces it needs.

type runAway struct{}

func (runAway) ID() string                             { return "Run Away" }
func (runAway) OnTryEscape(*HookContext) (bool, error) { return true, nil }

type arenaTrap struct{}

func (arenaTrap) ID() string { return "Arena Trap" }

func (arenaTrap) OnFoeTrap(hc *HookContext) (bool, error) {
	return hc.Target != nil && isGrounded(hc.Target), nil
}

type shadowTag struct{}

func (shadowTag) ID() string { return "Shadow Tag" }

func (shadowTag) OnFoeTrap(hc *HookContext) (bool, error) {
	return hc.Target != nil && !hc.Target.HasAbility("shadowtag"), nil
}

type levitate struct{}

func (levitate) ID() string { return "Levitate" }

func (levitate) OnTryHit(hc *HookContext) (bool, error) {
	if hc.Move == nil || ToID(hc.Move.Type) != "ground" || hc.Move.Category == CategoryStatus {
		return true, nil
	}
	hc.Logf("It doesn't affect %s...", hc.Holder.Name)
	return false, nil
}

type intimidate struct{}

func (intimidate) ID() string { return "Intimidate" }

func (intimidate) OnStart(hc *HookContext) error {
	for _, foe := range hc.Battle.FoesOf(hc.Holder) {
		hc.Logf("%s's Intimidate cuts %s's attack!", hc.Holder.Name, foe.Name)
		hc.Battle.Boost(foe, map[Stat]int{StatAtk: -1}, hc.Holder)
	}
	return nil
}

type pressure struct{}

func (pressure) ID() string { return "Pressure" }

func (pressure) OnSwitchIn(hc *HookContext) error {
	hc.Logf("%s is exerting its pressure!", hc.Holder.Name)
	return nil
}

type roughSkin struct{}

func (roughSkin) ID() string { return "Rough Skin" }

func (roughSkin) OnDamagingHit(hc *HookContext, _ int) error {
	if hc.Source == nil || hc.Move == nil || !hc.Move.Flag("contact") || hc.Source.HasAbility("magicguard") {
		return nil
	}
	hc.Source.Damage(fractionOf(hc.Source.MaxHP, 1, 8))
	hc.Logf("%s was hurt by %s's Rough Skin!", hc.Source.Name, hc.Holder.Name)
	return nil
}

type guts struct{}

func (guts) ID() string { return "Guts" }

func (guts) OnModifyDamage(hc *HookContext, damage int) (int, error) {
	if hc.Holder.Status != StatusNone && hc.Move != nil && hc.Move.Category == CategoryPhysical {
		return damage * 3 / 2, nil
	}
	return damage, nil
}

type swiftSwim struct{}

func (swiftSwim) ID() string { return "Swift Swim" }

func (swiftSwim) OnModifySpe(hc *HookContext, speed int) (int, error) {
	if hc.Field != nil && hc.Field.Weather == WeatherRain {
		return speed * 2, nil
	}
	return speed, nil
}

type prankster struct{}

func (prankster) ID() string { return "Prankster" }

func (prankster) OnModifyPriority(hc *HookContext, priority int) (int, error) {
	if hc.Move != nil && hc.Move.Category == CategoryStatus {
		return priority + 1, nil
	}
	return priority, nil
}

type compoundEyes struct{}

func (compoundEyes) ID() string { return "Compound Eyes" }

func (compoundEyes) OnModifyAccuracy(_ *HookContext, accuracy int) (int, error) {
	return accuracy * 13 / 10, nil
}

type normalize struct{}

func (normalize) ID() string { return "Normalize" }

func (normalize) OnModifyMove(hc *HookContext) error {
	if hc.Move != nil {
		hc.Move.Type = "Normal"
	}
	return nil
}

type stickyHold struct{}

func (stickyHold) ID() string { return "Sticky Hold" }

func (stickyHold) OnTakeItem(hc *HookContext, _ string) (bool, error) {
	hc.Logf("%s's item cannot be removed!", hc.Holder.Name)
	return false, nil
}

type aftermath struct{}

func (aftermath) ID() string { return "Aftermath" }

func (aftermath) OnFaint(hc *HookContext) error {
	src := hc.Source
	if src == nil || src.Fainted() || src.HasAbility("magicguard") {
		return nil
	}
	src.Damage(fractionOf(src.MaxHP, 1, 4))
	hc.Logf("%s was caught in the aftermath!", src.Name)
	return nil
}

type moxie struct{}

func (moxie) ID() string { return "Moxie" }

// OnAfterMoveSecondarySelf raises Attack when the move just knocked the
// target out.
func (moxie) OnAfterMoveSecondarySelf(hc *HookContext) error {
	if hc.Target == nil || !hc.Target.Fainted() || hc.Holder.Temp(TempDealtDamage) == 0 || hc.Holder.Fainted() {
		return nil
	}
	hc.Battle.Boost(hc.Holder, map[Stat]int{StatAtk: 1}, hc.Holder)
	return nil
}

// Abilities whose behaviour lives in the engine itself.
type passiveAbility string

func (p passiveAbility) ID() string { return string(p) }

type leftovers struct{}

func (leftovers) ID() string { return "Leftovers" }

func (leftovers) OnResidual(hc *HookContext) error {
	c := hc.Holder
	if c.HP >= c.MaxHP {
		return nil
	}
	c.Heal(fractionOf(c.MaxHP, 1, 16))
	hc.Logf("%s restored a little HP using its Leftovers!", c.Name)
	return nil
}

type luckyEgg struct{}

func (luckyEgg) ID() string { return "Lucky Egg" }

func (luckyEgg) OnModifyExp(_ *HookContext, exp int) (int, error) {
	return exp * 3 / 2, nil
}

type lifeOrb struct{}

func (lifeOrb) ID() string { return "Life Orb" }

func (lifeOrb) OnModifyDamage(_ *HookContext, damage int) (int, error) {
	return damage * 13 / 10, nil
}

func (lifeOrb) OnAfterMoveSecondarySelf(hc *HookContext) error {
	c := hc.Holder
	if c.Temp(TempDealtDamage) == 0 || c.Fainted() || c.HasAbility("magicguard") {
		return nil
	}
	c.Damage(fractionOf(c.MaxHP, 1, 10))
	hc.Logf("%s lost some of its HP!", c.Name)
	return nil
}

type mirrorHerb struct{}

func (mirrorHerb) ID() string { return "Mirror Herb" }

func (mirrorHerb) OnFoeAfterBoost(hc *HookContext, boosts map[Stat]int) error {
	holder := hc.Holder
	if !holder.HasItem("mirrorherb") {
		return nil
	}
	holder.Item = ""
	hc.Logf("%s used its Mirror Herb to mirror its opponent's stat changes!", holder.Name)
	hc.Battle.Boost(holder, boosts, holder)
	return nil
}

type stickyBarb struct{}

func (stickyBarb) ID() string { return "Sticky Barb" }

func (stickyBarb) OnResidual(hc *HookContext) error {
	c := hc.Holder
	if c.HasAbility("magicguard") {
		return nil
	}
	c.Damage(fractionOf(c.MaxHP, 1, 8))
	hc.Logf("%s is hurt by its Sticky Barb!", c.Name)
	return nil
}

// OnDamagingHit latches the barb onto an empty-handed attacker that made
// contact.
func (stickyBarb) OnDamagingHit(hc *HookContext, _ int) error {
	src := hc.Source
	if src == nil || src.Fainted() || src.Item != "" || hc.Move == nil || !hc.Move.Flag("contact") {
		return nil
	}
	src.Item = hc.Holder.Item
	hc.Holder.Item = ""
	hc.Logf("The Sticky Barb attached itself to %s!", src.Name)
	return nil
}

func (stickyBarb) OnTakeItem(hc *HookContext, _ string) (bool, error) {
	hc.Logf("The Sticky Barb clung to %s!", hc.Holder.Name)
	return false, nil
}

type passiveItem string

func (p passiveItem) ID() string { return string(p) }

type trickRoom struct{}

func (trickRoom) ID() string { return "Trick Room" }

func (trickRoom) OnFieldStart(hc *HookContext, st *EffectState) error {
	st.Duration = 5
	name := "Someone"
	if hc.Source != nil {
		name = hc.Source.Name
	}
	hc.Logf("%s twisted the dimensions!", name)
	return nil
}

func (trickRoom) OnFieldRestart(hc *HookContext, st *EffectState) error {
	st.Duration = -1
	hc.Logf("The twisted dimensions returned to normal!")
	return nil
}

// RegisterBuiltins adds the built-in effects to r.
func RegisterBuiltins(r *HookRegistry) error {
	effects := []Effect{
		runAway{}, arenaTrap{}, shadowTag{}, levitate{}, intimidate{}, pressure{},
		roughSkin{}, guts{}, swiftSwim{}, prankster{}, compoundEyes{}, normalize{},
		stickyHold{}, aftermath{}, moxie{},
		passiveAbility("Magic Guard"), passiveAbility("Poison Heal"),
		passiveAbility("Heatproof"), passiveAbility("Corrosion"), passiveAbility("Rock Head"),
		leftovers{}, luckyEgg{}, lifeOrb{}, mirrorHerb{}, stickyBarb{},
		passiveItem("Exp Share"), passiveItem("Macho Brace"), passiveItem("Power Weight"), passiveItem("Power Bracer"),
		passiveItem("Power Belt"), passiveItem("Power Lens"), passiveItem("Power Band"),
		passiveItem("Power Anklet"),
		trickRoom{},
	}
	for _, e := range effects {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// DefaultHooks returns a registry holding the built-in effects.
func DefaultHooks() *HookRegistry {
	r := NewHookRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}
