package battle

// Tempval keys used by the engine.
const (
	TempSleepTurns  = "slp_turns"
	TempDealtDamage = "dealt_damage"
	TempLastHitBy   = "last_hit_by"
	TempMoved       = "moved"
	TempSwitchedIn  = "switched_in"
)

// perTurnTemps are cleared at the start of every turn.
var perTurnTemps = []string{TempDealtDamage, TempLastHitBy, TempMoved, TempSwitchedIn}

// perTurnVolatiles are cleared at the start of every turn.
var perTurnVolatiles = []string{"flinch", "protect"}

var statusApplied = map[Status]string{
	StatusPoison:    "%s was poisoned!",
	StatusToxic:     "%s was badly poisoned!",
	StatusBurn:      "%s was burned!",
	StatusParalysis: "%s is paralyzed! It may be unable to move!",
	StatusSleep:     "%s fell asleep!",
	StatusFreeze:    "%s was frozen solid!",
}

// statusImmuneTypes lists the types that can never receive a status.
var statusImmuneTypes = map[Status][]string{
	StatusBurn:      {"Fire"},
	StatusPoison:    {"Poison", "Steel"},
	StatusToxic:     {"Poison", "Steel"},
	StatusParalysis: {"Electric"},
	StatusFreeze:    {"Ice"},
}

// isGrounded reports whether c touches the ground for terrain purposes.
func isGrounded(c *Creature) bool {
	return !c.HasType("Flying") && !c.HasAbility("levitate")
}

// CanApplyStatus reports whether st may be inflicted on target by source.
func (b *Battle) CanApplyStatus(target *Creature, st Status, source *Creature) bool {
	if target == nil || target.Fainted() || st == StatusNone {
		return false
	}
	if target.Status != StatusNone {
		return false
	}
	corrosion := source != nil && source.HasAbility("corrosion")
	for _, t := range statusImmuneTypes[st] {
		if target.HasType(t) {
			if corrosion && (st == StatusPoison || st == StatusToxic) {
				continue
			}
			return false
		}
	}
	if b.Field.Terrain == TerrainMisty && isGrounded(target) {
		return false
	}
	if source != nil && source != target {
		if owner := b.ParticipantOf(target); owner != nil && b.Field.HasSideCondition(owner.Name, "safeguard") {
			return false
		}
	}
	return true
}

// TryApplyStatus inflicts st when allowed and logs the outcome. When
// announceFailure is set a refused status logs "But it failed!".
func (b *Battle) TryApplyStatus(target *Creature, st Status, source *Creature, announceFailure bool) bool {
	if !b.CanApplyStatus(target, st, source) {
		if announceFailure {
			b.Logf("But it failed!")
		}
		return false
	}
	target.Status = st
	switch st {
	case StatusToxic:
		target.ToxicCounter = 1
	case StatusSleep:
		target.SetTemp(TempSleepTurns, b.rng.Intn(3)+1)
	}
	b.Logf(statusApplied[st], target.Name)
	return true
}

// CureStatus clears any status condition.
func CureStatus(c *Creature) {
	c.Status = StatusNone
	c.ToxicCounter = 0
	c.ClearTemp(TempSleepTurns)
}

// statusPreventsMove applies paralysis, sleep and freeze gating for a
// creature about to act.
func (b *Battle) statusPreventsMove(c *Creature) bool {
	switch c.Status {
	case StatusParalysis:
		if b.rng.Intn(100) < 25 {
			b.Logf("%s is paralyzed! It can't move!", c.Name)
			return true
		}
	case StatusSleep:
		turns := c.Temp(TempSleepTurns)
		if turns <= 0 {
			CureStatus(c)
			b.Logf("%s woke up!", c.Name)
			return false
		}
		c.SetTemp(TempSleepTurns, turns-1)
		b.Logf("%s is fast asleep.", c.Name)
		return true
	case StatusFreeze:
		if b.rng.Intn(100) < 20 {
			CureStatus(c)
			b.Logf("%s thawed out!", c.Name)
			return false
		}
		b.Logf("%s is frozen solid!", c.Name)
		return true
	}
	return false
}

func fractionOf(max, num, den int) int {
	v := max * num / den
	if v < 1 {
		v = 1
	}
	return v
}

// statusResidual applies end-of-turn status damage or Poison Heal recovery.
func (b *Battle) statusResidual(c *Creature) {
	switch c.Status {
	case StatusPoison, StatusToxic:
		if c.HasAbility("poisonheal") {
			if c.HP < c.MaxHP {
				c.Heal(fractionOf(c.MaxHP, 1, 8))
				b.Logf("%s is healed by Poison Heal!", c.Name)
			}
			if c.Status == StatusToxic && c.ToxicCounter < 15 {
				c.ToxicCounter++
			}
			return
		}
		if c.HasAbility("magicguard") {
			return
		}
		if c.Status == StatusPoison {
			c.Damage(fractionOf(c.MaxHP, 1, 8))
		} else {
			if c.ToxicCounter < 1 {
				c.ToxicCounter = 1
			}
			c.Damage(fractionOf(c.MaxHP, c.ToxicCounter, 16))
			if c.ToxicCounter < 15 {
				c.ToxicCounter++
			}
		}
		b.Logf("%s is hurt by poison!", c.Name)
	case StatusBurn:
		if c.HasAbility("magicguard") {
			return
		}
		den := 16
		if c.HasAbility("heatproof") {
			den = 32
		}
		c.Damage(fractionOf(c.MaxHP, 1, den))
		b.Logf("%s is hurt by its burn!", c.Name)
	}
}
