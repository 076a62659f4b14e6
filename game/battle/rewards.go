package battle

import "go.uber.org/zap"

// EV caps.
const (
	MaxEVPerStat = 252
	MaxEVTotal   = 510
)

// powerItems maps a power item id to the stat it trains.
var powerItems = map[string]func(*Stats) *int{
	"powerweight": func(s *Stats) *int { return &s.HP },
	"powerbracer": func(s *Stats) *int { return &s.Atk },
	"powerbelt":   func(s *Stats) *int { return &s.Def },
	"powerlens":   func(s *Stats) *int { return &s.SpA },
	"powerband":   func(s *Stats) *int { return &s.SpD },
	"poweranklet": func(s *Stats) *int { return &s.Spe },
}

// ExpGain is floor(baseExp * level / 7).
func ExpGain(baseExp, level int) int {
	return baseExp * level / 7
}

// DistributeExperience splits amount across n recipients; the remainder
// goes one point each to the first recipients.
func DistributeExperience(amount, n int) []int {
	if n <= 0 {
		return nil
	}
	shares := make([]int, n)
	each, rem := amount/n, amount%n
	for i := range shares {
		shares[i] = each
		if i < rem {
			shares[i]++
		}
	}
	return shares
}

// EVGain returns the EVs c earns from yield, applying Macho Brace and
// power items.
func EVGain(c *Creature, yield Stats) Stats {
	gain := yield
	if c.HasItem("machobrace") {
		gain = Stats{yield.HP * 2, yield.Atk * 2, yield.Def * 2, yield.SpA * 2, yield.SpD * 2, yield.Spe * 2}
	}
	if f, ok := powerItems[ToID(c.Item)]; ok {
		*f(&gain) += 8
	}
	return gain
}

// AddEVs adds gain to c's EVs honouring the per-stat and total caps.
func AddEVs(c *Creature, gain Stats) {
	fields := []struct {
		cur *int
		add int
	}{
		{&c.EVs.HP, gain.HP}, {&c.EVs.Atk, gain.Atk}, {&c.EVs.Def, gain.Def},
		{&c.EVs.SpA, gain.SpA}, {&c.EVs.SpD, gain.SpD}, {&c.EVs.Spe, gain.Spe},
	}
	for _, f := range fields {
		room := MaxEVTotal - c.EVs.Total()
		add := f.add
		if add > room {
			add = room
		}
		if *f.cur+add > MaxEVPerStat {
			add = MaxEVPerStat - *f.cur
		}
		if add > 0 {
			*f.cur += add
		}
	}
}

// expRecipients returns who shares the reward: every healthy roster member
// with exp share on, otherwise the first active creature plus any healthy
// bench member holding an Exp Share.
func (b *Battle) expRecipients(p *Participant) []*Creature {
	var out []*Creature
	if b.ExpShare {
		for _, id := range p.Team.Members() {
			if c := b.Arena.Get(id); c != nil && !c.Fainted() {
				out = append(out, c)
			}
		}
		return out
	}
	active := b.ActiveCreatures(p)
	if len(active) > 0 {
		out = append(out, active[0])
	}
	for _, id := range p.Team.Members() {
		c := b.Arena.Get(id)
		if c == nil || c.Fainted() || !c.HasItem("expshare") {
			continue
		}
		if len(active) > 0 && c == active[0] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// awardExperience rewards the human sides opposing owner for defeating c.
// Only creatures belonging to AI-controlled sides give rewards.
func (b *Battle) awardExperience(defeated *Creature, owner *Participant) {
	if !owner.IsAI {
		return
	}
	sp, ok := b.dex.Species(defeated.Species)
	if !ok {
		b.logger.Debug("no species data for reward", zap.String("species", defeated.Species))
		return
	}
	amount := ExpGain(sp.BaseExp, defeated.Level)
	for _, q := range b.OpponentsOf(owner) {
		if q.IsAI {
			continue
		}
		recipients := b.expRecipients(q)
		shares := DistributeExperience(amount, len(recipients))
		for i, c := range recipients {
			hc := b.hookContext(c, c, defeated, nil)
			gain := b.hooks.Modify(HookModifyExp, hc, shares[i], func(e Effect, v int) (int, error) {
				return e.(ModifyExpHook).OnModifyExp(hc, v)
			})
			if gain <= 0 {
				continue
			}
			c.Experience += gain
			AddEVs(c, EVGain(c, sp.EVYield))
			b.Logf("%s gained %d experience points!", c.Name, gain)
			b.emit(&EventExperience{Creature: c.Name, Amount: gain})
		}
	}
}
