package battle

// DefaultDex returns a small built-in dex used when no dex file is
// configured and by tests.
func DefaultDex() *MemoryDex {
	d := NewMemoryDex()
	contact := map[string]bool{"contact": true}
	for _, m := range []*MoveDef{
		{Name: "Tackle", Type: "Normal", Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 35, Flags: contact},
		{Name: "Quick Attack", Type: "Normal", Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 30, Priority: 1, Flags: contact},
		{Name: "Double-Edge", Type: "Normal", Category: CategoryPhysical, Power: 120, Accuracy: 100, PP: 15, Recoil: Fraction{1, 3}, Flags: contact},
		{Name: "Swift", Type: "Normal", Category: CategorySpecial, Power: 60, AlwaysHit: true, PP: 20},
		{Name: "Ember", Type: "Fire", Category: CategorySpecial, Power: 40, Accuracy: 100, PP: 25,
			Secondary: &Secondary{Chance: 10, Status: StatusBurn}},
		{Name: "Flamethrower", Type: "Fire", Category: CategorySpecial, Power: 90, Accuracy: 100, PP: 15,
			Secondary: &Secondary{Chance: 10, Status: StatusBurn}},
		{Name: "Water Gun", Type: "Water", Category: CategorySpecial, Power: 40, Accuracy: 100, PP: 25},
		{Name: "Vine Whip", Type: "Grass", Category: CategoryPhysical, Power: 45, Accuracy: 100, PP: 25, Flags: contact},
		{Name: "Absorb", Type: "Grass", Category: CategorySpecial, Power: 20, Accuracy: 100, PP: 25, Drain: Fraction{1, 2}},
		{Name: "Giga Drain", Type: "Grass", Category: CategorySpecial, Power: 75, Accuracy: 100, PP: 10, Drain: Fraction{1, 2}},
		{Name: "Thunder Shock", Type: "Electric", Category: CategorySpecial, Power: 40, Accuracy: 100, PP: 30,
			Secondary: &Secondary{Chance: 10, Status: StatusParalysis}},
		{Name: "Ice Beam", Type: "Ice", Category: CategorySpecial, Power: 90, Accuracy: 100, PP: 10,
			Secondary: &Secondary{Chance: 10, Status: StatusFreeze}},
		{Name: "Earthquake", Type: "Ground", Category: CategoryPhysical, Power: 100, Accuracy: 100, PP: 10},
		{Name: "Psychic", Type: "Psychic", Category: CategorySpecial, Power: 90, Accuracy: 100, PP: 10,
			Secondary: &Secondary{Chance: 10, Boosts: map[string]int{"spd": -1}}},
		{Name: "Shadow Ball", Type: "Ghost", Category: CategorySpecial, Power: 80, Accuracy: 100, PP: 15},
		{Name: "Bite", Type: "Dark", Category: CategoryPhysical, Power: 60, Accuracy: 100, PP: 25, Flags: contact,
			Secondary: &Secondary{Chance: 30, Volatile: "flinch"}},
		{Name: "Thief", Type: "Dark", Category: CategoryPhysical, Power: 60, Accuracy: 100, PP: 25,
			Flags: map[string]bool{"contact": true, "takeitem": true}},
		{Name: "Knock Off", Type: "Dark", Category: CategoryPhysical, Power: 65, Accuracy: 100, PP: 20,
			Flags: map[string]bool{"contact": true, "takeitem": true}},
		{Name: "Growl", Type: "Normal", Category: CategoryStatus, Accuracy: 100, PP: 40, Boosts: map[string]int{"atk": -1}},
		{Name: "Swords Dance", Type: "Normal", Category: CategoryStatus, AlwaysHit: true, PP: 20, Target: "self",
			SelfBoosts: map[string]int{"atk": 2}},
		{Name: "Recover", Type: "Normal", Category: CategoryStatus, AlwaysHit: true, PP: 10, Target: "self", Heal: Fraction{1, 2}},
		{Name: "Toxic", Type: "Poison", Category: CategoryStatus, Accuracy: 90, PP: 10, Status: StatusToxic},
		{Name: "Thunder Wave", Type: "Electric", Category: CategoryStatus, Accuracy: 90, PP: 20, Status: StatusParalysis},
		{Name: "Hypnosis", Type: "Psychic", Category: CategoryStatus, Accuracy: 60, PP: 20, Status: StatusSleep},
		{Name: "Will-O-Wisp", Type: "Fire", Category: CategoryStatus, Accuracy: 85, PP: 15, Status: StatusBurn},
		{Name: "Trick Room", Type: "Psychic", Category: CategoryStatus, AlwaysHit: true, PP: 5, Priority: -7,
			Target: "field", Effect: PseudoTrickRoom},
		{Name: "Rain Dance", Type: "Water", Category: CategoryStatus, AlwaysHit: true, PP: 5, Target: "field", Effect: WeatherRain},
		{Name: "Safeguard", Type: "Normal", Category: CategoryStatus, AlwaysHit: true, PP: 25, Target: "side", Effect: "safeguard"},
		{Name: "Pay Day", Type: "Normal", Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 20, Effect: "payday"},
	} {
		d.AddMove(m)
	}

	for _, s := range []*SpeciesDef{
		{Name: "Bulbasaur", Types: []string{"Grass", "Poison"}, BaseStats: Stats{45, 49, 49, 65, 65, 45}, BaseExp: 64, EVYield: Stats{SpA: 1}, CatchRate: 45},
		{Name: "Charmander", Types: []string{"Fire"}, BaseStats: Stats{39, 52, 43, 60, 50, 65}, BaseExp: 62, EVYield: Stats{Spe: 1}, CatchRate: 45},
		{Name: "Squirtle", Types: []string{"Water"}, BaseStats: Stats{44, 48, 65, 50, 64, 43}, BaseExp: 63, EVYield: Stats{Def: 1}, CatchRate: 45},
		{Name: "Pikachu", Types: []string{"Electric"}, BaseStats: Stats{35, 55, 40, 50, 50, 90}, BaseExp: 112, EVYield: Stats{Spe: 2}, CatchRate: 190},
		{Name: "Pidgey", Types: []string{"Normal", "Flying"}, BaseStats: Stats{40, 45, 40, 35, 35, 56}, BaseExp: 50, EVYield: Stats{Spe: 1}, CatchRate: 255},
		{Name: "Rattata", Types: []string{"Normal"}, BaseStats: Stats{30, 56, 35, 25, 35, 72}, BaseExp: 51, EVYield: Stats{Spe: 1}, CatchRate: 255},
		{Name: "Diglett", Types: []string{"Ground"}, BaseStats: Stats{10, 55, 25, 35, 45, 95}, BaseExp: 53, EVYield: Stats{Spe: 1}, CatchRate: 255},
		{Name: "Gastly", Types: []string{"Ghost", "Poison"}, BaseStats: Stats{30, 35, 30, 100, 35, 80}, BaseExp: 62, EVYield: Stats{SpA: 1}, CatchRate: 190},
		{Name: "Geodude", Types: []string{"Rock", "Ground"}, BaseStats: Stats{40, 80, 100, 30, 30, 20}, BaseExp: 60, EVYield: Stats{Def: 1}, CatchRate: 255},
		{Name: "Magnemite", Types: []string{"Electric", "Steel"}, BaseStats: Stats{25, 35, 70, 95, 55, 45}, BaseExp: 65, EVYield: Stats{SpA: 1}, CatchRate: 190},
		{Name: "Wobbuffet", Types: []string{"Psychic"}, BaseStats: Stats{190, 33, 58, 33, 58, 33}, BaseExp: 142, EVYield: Stats{HP: 2}, CatchRate: 45},
		{Name: "Ponyta", Types: []string{"Fire"}, BaseStats: Stats{50, 85, 55, 65, 65, 90}, BaseExp: 82, EVYield: Stats{Spe: 1}, CatchRate: 190},
	} {
		d.AddSpecies(s)
	}

	for _, it := range []*ItemDef{
		{Name: "Potion", Heal: 20},
		{Name: "Super Potion", Heal: 60},
		{Name: "Hyper Potion", Heal: 120},
		{Name: "Full Heal", Cure: true},
		{Name: "Poke Ball", BallBonus: 1},
		{Name: "Great Ball", BallBonus: 1.5},
		{Name: "Ultra Ball", BallBonus: 2},
	} {
		d.AddItem(it)
	}
	return d
}

const defaultIV = 31

func calcStat(base, ev, level int) int {
	return (2*base+defaultIV+ev/4)*level/100 + 5
}

func calcHP(base, ev, level int) int {
	return (2*base+defaultIV+ev/4)*level/100 + level + 10
}

// NewCreature builds a full-HP creature of species at level with the given
// moves, computing stats from the species' base stats. Unknown moves get
// zero PP; unknown species get flat 50 base stats.
func NewCreature(dex Dex, species string, level int, moves ...string) *Creature {
	base := Stats{50, 50, 50, 50, 50, 50}
	name := DisplayName(species)
	var types []string
	if sp, ok := dex.Species(species); ok {
		base = sp.BaseStats
		name = sp.Name
		types = append(types, sp.Types...)
	}
	c := &Creature{
		Name:    name,
		Species: name,
		Level:   level,
		Types:   types,
	}
	c.Recalculate(base)
	c.HP = c.MaxHP
	for i, id := range moves {
		if i >= MaxMoves {
			break
		}
		slot := MoveSlot{Move: id}
		if m, ok := dex.Move(id); ok {
			slot.Move = m.ID
			slot.PP = m.PP
			slot.MaxPP = m.PP
		}
		c.Moves = append(c.Moves, slot)
	}
	return c
}

// Recalculate derives Stats and MaxHP from base stats, level and EVs,
// keeping current HP within range.
func (c *Creature) Recalculate(base Stats) {
	c.Stats = Stats{
		HP:  calcHP(base.HP, c.EVs.HP, c.Level),
		Atk: calcStat(base.Atk, c.EVs.Atk, c.Level),
		Def: calcStat(base.Def, c.EVs.Def, c.Level),
		SpA: calcStat(base.SpA, c.EVs.SpA, c.Level),
		SpD: calcStat(base.SpD, c.EVs.SpD, c.Level),
		Spe: calcStat(base.Spe, c.EVs.Spe, c.Level),
	}
	c.MaxHP = c.Stats.HP
	c.SetHP(c.HP)
}
