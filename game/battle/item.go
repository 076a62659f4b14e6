package battle

import "math"

// UseItem resolves an Item action from pos: bag medicine on the user's own
// active creature, or a ball thrown at a wild target.
func (b *Battle) UseItem(pos *Position, a *Action) {
	p := b.Participants[pos.Participant]
	item, ok := b.dex.Item(a.Item)
	if !ok {
		b.Logf("%s tried to use an unknown item!", p.Name)
		return
	}
	b.Logf("%s used %s!", p.Name, item.Name)

	if item.IsBall() {
		if b.Kind != KindWild {
			b.Logf("The trainer blocked the ball! Don't be a thief!")
			return
		}
		target := b.targetFor(pos, a.Target)
		if target == nil {
			b.Logf("But there was no target...")
			return
		}
		b.tryCapture(p, target, item)
		return
	}

	c := b.Arena.Get(pos.Creature)
	acted := false
	if item.Heal > 0 && c.HP < c.MaxHP {
		healed := c.Heal(item.Heal)
		b.Logf("%s's HP was restored by %d points.", c.Name, healed)
		acted = true
	}
	if item.Cure && c.Status != StatusNone {
		CureStatus(c)
		b.Logf("%s was cured of its status condition!", c.Name)
		acted = true
	}
	if !acted {
		b.Logf("But it had no effect!")
	}
}

// statusCatchBonus returns the capture multiplier for a status.
func statusCatchBonus(s Status) float64 {
	switch s {
	case StatusSleep, StatusFreeze:
		return 2.5
	case StatusNone:
		return 1
	}
	return 1.5
}

// CatchChance returns the probability in [0, 1] that ball captures c.
func CatchChance(c *Creature, catchRate int, ballBonus float64) float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	a := float64(3*c.MaxHP-2*c.HP) * float64(catchRate) * ballBonus / float64(3*c.MaxHP)
	a *= statusCatchBonus(c.Status)
	return math.Min(1, a/255)
}

func (b *Battle) tryCapture(p *Participant, target *Creature, ball *ItemDef) {
	rate := 45
	if sp, ok := b.dex.Species(target.Species); ok && sp.CatchRate > 0 {
		rate = sp.CatchRate
	}
	caught := b.rng.Float64() < CatchChance(target, rate, ball.BallBonus)
	b.emit(&EventCapture{Participant: p.Name, Creature: target.Name, Success: caught})
	if !caught {
		b.Logf("Oh no! %s broke free!", target.Name)
		return
	}
	target.Caught = true
	b.Logf("Gotcha! %s was caught!", target.Name)
	_, idx := b.Participant(p.Name)
	b.end(idx, "captured")
}
