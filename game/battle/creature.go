package battle

import "fmt"

// Status is a non-volatile status condition.
type Status string

const (
	StatusNone      Status = ""
	StatusPoison    Status = "psn"
	StatusToxic     Status = "tox"
	StatusBurn      Status = "brn"
	StatusParalysis Status = "par"
	StatusSleep     Status = "slp"
	StatusFreeze    Status = "frz"
)

// Stat indexes a boostable stat.
type Stat int

const (
	StatAtk Stat = iota
	StatDef
	StatSpA
	StatSpD
	StatSpe
	StatAccuracy
	StatEvasion
)

var statNames = [...]string{"Attack", "Defense", "Sp. Atk", "Sp. Def", "Speed", "accuracy", "evasiveness"}

func (s Stat) String() string {
	if s < 0 || int(s) >= len(statNames) {
		return fmt.Sprintf("stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat maps short stat ids ("atk", "spe", ...) to a Stat.
func ParseStat(id string) (Stat, bool) {
	switch ToID(id) {
	case "atk", "attack":
		return StatAtk, true
	case "def", "defense":
		return StatDef, true
	case "spa", "specialattack":
		return StatSpA, true
	case "spd", "specialdefense":
		return StatSpD, true
	case "spe", "speed":
		return StatSpe, true
	case "accuracy":
		return StatAccuracy, true
	case "evasion":
		return StatEvasion, true
	}
	return 0, false
}

const (
	MaxBoost = 6
	MinBoost = -6
)

// Stats holds the six battle stats.
type Stats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

// Get returns the value for a boostable stat. Accuracy and evasion return 0.
func (s Stats) Get(st Stat) int {
	switch st {
	case StatAtk:
		return s.Atk
	case StatDef:
		return s.Def
	case StatSpA:
		return s.SpA
	case StatSpD:
		return s.SpD
	case StatSpe:
		return s.Spe
	}
	return 0
}

// Total sums all six values.
func (s Stats) Total() int {
	return s.HP + s.Atk + s.Def + s.SpA + s.SpD + s.Spe
}

// Boosts holds stat stages, each within [MinBoost, MaxBoost].
type Boosts struct {
	Atk      int `json:"atk"`
	Def      int `json:"def"`
	SpA      int `json:"spa"`
	SpD      int `json:"spd"`
	Spe      int `json:"spe"`
	Accuracy int `json:"accuracy"`
	Evasion  int `json:"evasion"`
}

func (b *Boosts) ptr(st Stat) *int {
	switch st {
	case StatAtk:
		return &b.Atk
	case StatDef:
		return &b.Def
	case StatSpA:
		return &b.SpA
	case StatSpD:
		return &b.SpD
	case StatSpe:
		return &b.Spe
	case StatAccuracy:
		return &b.Accuracy
	case StatEvasion:
		return &b.Evasion
	}
	return nil
}

// Get returns the current stage of st.
func (b Boosts) Get(st Stat) int {
	if p := b.ptr(st); p != nil {
		return *p
	}
	return 0
}

// Add changes the stage of st by delta and returns the change actually applied.
func (b *Boosts) Add(st Stat, delta int) int {
	p := b.ptr(st)
	if p == nil {
		return 0
	}
	next := *p + delta
	if next > MaxBoost {
		next = MaxBoost
	}
	if next < MinBoost {
		next = MinBoost
	}
	applied := next - *p
	*p = next
	return applied
}

// Reset clears all stages.
func (b *Boosts) Reset() { *b = Boosts{} }

// MoveSlot is one of a creature's known moves.
type MoveSlot struct {
	Move  string `json:"move"`
	PP    int    `json:"pp"`
	MaxPP int    `json:"max_pp"`
}

// MaxMoves is the number of move slots a creature has.
const MaxMoves = 4

// Creature is a single battling monster. All creatures of a battle are owned
// by its Arena; other structures refer to them by CreatureID.
type Creature struct {
	Name         string          `json:"name"`
	Species      string          `json:"species"`
	Level        int             `json:"level"`
	HP           int             `json:"hp"`
	MaxHP        int             `json:"max_hp"`
	Status       Status          `json:"status,omitempty"`
	ToxicCounter int             `json:"toxic_counter,omitempty"`
	Moves        []MoveSlot      `json:"moves"`
	Item         string          `json:"item,omitempty"`
	Ability      string          `json:"ability,omitempty"`
	Types        []string        `json:"types,omitempty"`
	Stats        Stats           `json:"stats"`
	Boosts       Boosts          `json:"boosts"`
	Tempvals     map[string]int  `json:"tempvals,omitempty"`
	Volatiles    map[string]bool `json:"volatiles,omitempty"`
	EVs          Stats           `json:"evs"`
	Experience   int             `json:"experience,omitempty"`
	Gender       string          `json:"gender,omitempty"`
	ModelID      string          `json:"model_id,omitempty"`
	Caught       bool            `json:"caught,omitempty"`
}

// SetHP sets HP clamped to [0, MaxHP].
func (c *Creature) SetHP(v int) {
	if v < 0 {
		v = 0
	}
	if v > c.MaxHP {
		v = c.MaxHP
	}
	c.HP = v
}

// Damage subtracts n HP and returns the HP actually lost.
func (c *Creature) Damage(n int) int {
	before := c.HP
	c.SetHP(c.HP - n)
	return before - c.HP
}

// Heal restores n HP and returns the HP actually gained.
func (c *Creature) Heal(n int) int {
	if c.Fainted() {
		return 0
	}
	before := c.HP
	c.SetHP(c.HP + n)
	return c.HP - before
}

// Fainted reports whether the creature is at 0 HP.
func (c *Creature) Fainted() bool { return c.HP <= 0 }

// HasType reports whether the creature has the given type.
func (c *Creature) HasType(t string) bool {
	id := ToID(t)
	for _, own := range c.Types {
		if ToID(own) == id {
			return true
		}
	}
	return false
}

// HasAbility compares the ability by id.
func (c *Creature) HasAbility(id string) bool {
	return c.Ability != "" && ToID(c.Ability) == ToID(id)
}

// HasItem compares the held item by id.
func (c *Creature) HasItem(id string) bool {
	return c.Item != "" && ToID(c.Item) == ToID(id)
}

// Slot returns the move slot for the given move id.
func (c *Creature) Slot(move string) (*MoveSlot, bool) {
	id := ToID(move)
	for i := range c.Moves {
		if ToID(c.Moves[i].Move) == id {
			return &c.Moves[i], true
		}
	}
	return nil, false
}

// Temp returns a tempval, 0 if unset.
func (c *Creature) Temp(key string) int {
	if c.Tempvals == nil {
		return 0
	}
	return c.Tempvals[key]
}

// SetTemp stores a tempval.
func (c *Creature) SetTemp(key string, v int) {
	if c.Tempvals == nil {
		c.Tempvals = make(map[string]int)
	}
	c.Tempvals[key] = v
}

// ClearTemp removes a tempval.
func (c *Creature) ClearTemp(key string) {
	delete(c.Tempvals, key)
}

// Volatile reports whether a volatile condition is set.
func (c *Creature) Volatile(name string) bool {
	return c.Volatiles[name]
}

// SetVolatile toggles a volatile condition.
func (c *Creature) SetVolatile(name string, on bool) {
	if !on {
		delete(c.Volatiles, name)
		return
	}
	if c.Volatiles == nil {
		c.Volatiles = make(map[string]bool)
	}
	c.Volatiles[name] = true
}

// Key is the synthetic identity used when no ModelID is present.
func (c *Creature) Key() string {
	return fmt.Sprintf("%s|%d|%d", c.Name, c.Level, c.MaxHP)
}

// Clone returns a deep copy.
func (c *Creature) Clone() *Creature {
	cp := *c
	cp.Moves = append([]MoveSlot(nil), c.Moves...)
	cp.Types = append([]string(nil), c.Types...)
	if c.Tempvals != nil {
		cp.Tempvals = make(map[string]int, len(c.Tempvals))
		for k, v := range c.Tempvals {
			cp.Tempvals[k] = v
		}
	}
	if c.Volatiles != nil {
		cp.Volatiles = make(map[string]bool, len(c.Volatiles))
		for k, v := range c.Volatiles {
			cp.Volatiles[k] = v
		}
	}
	return &cp
}

// CreatureID addresses a creature inside an Arena.
type CreatureID int

// NoCreature marks an empty team slot or an unfilled position.
const NoCreature CreatureID = -1

// Arena owns every creature taking part in one battle.
type Arena struct {
	creatures []*Creature
}

// NewArena creates an empty arena.
func NewArena() *Arena { return &Arena{} }

// Add stores c and returns its id.
func (a *Arena) Add(c *Creature) CreatureID {
	a.creatures = append(a.creatures, c)
	return CreatureID(len(a.creatures) - 1)
}

// Get returns the creature for id, or nil when id is out of range.
func (a *Arena) Get(id CreatureID) *Creature {
	if id < 0 || int(id) >= len(a.creatures) {
		return nil
	}
	return a.creatures[id]
}

// Len returns the number of creatures.
func (a *Arena) Len() int { return len(a.creatures) }

// Find returns the id of c, or NoCreature.
func (a *Arena) Find(c *Creature) CreatureID {
	for i, own := range a.creatures {
		if own == c {
			return CreatureID(i)
		}
	}
	return NoCreature
}
