package battle

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySnapshot   = errors.New("battle: snapshot has no roster")
	ErrMissingCreature = errors.New("battle: snapshot references an unknown creature")
)

// CreatureLoader resolves an external creature reference (model id).
type CreatureLoader func(ref string) (*Creature, bool)

// CreatureSnapshot stores one roster member. Ref points at the external
// record when the creature has a model id; otherwise Base holds a full
// inline copy. The remaining fields are the values battle resolution
// mutates and are always stored.
type CreatureSnapshot struct {
	Slot         int             `json:"slot"`
	Ref          string          `json:"ref,omitempty"`
	Key          string          `json:"key"`
	Base         *Creature       `json:"base,omitempty"`
	HP           int             `json:"hp"`
	Status       Status          `json:"status,omitempty"`
	ToxicCounter int             `json:"toxic_counter,omitempty"`
	Boosts       Boosts          `json:"boosts"`
	Tempvals     map[string]int  `json:"tempvals,omitempty"`
	Volatiles    map[string]bool `json:"volatiles,omitempty"`
	PP           []int           `json:"pp"`
	Item         string          `json:"item,omitempty"`
	Experience   int             `json:"experience,omitempty"`
	EVs          Stats           `json:"evs"`
	Caught       bool            `json:"caught,omitempty"`
}

// TeamSnapshot stores one participant.
type TeamSnapshot struct {
	Name         string             `json:"name"`
	Trainer      string             `json:"trainer"`
	IsAI         bool               `json:"is_ai,omitempty"`
	Player       string             `json:"player,omitempty"`
	TeamTag      string             `json:"team_tag,omitempty"`
	HasLost      bool               `json:"has_lost,omitempty"`
	FleeAttempts int                `json:"flee_attempts,omitempty"`
	MaxActive    int                `json:"max_active"`
	Members      []CreatureSnapshot `json:"members"`
	Active       []int              `json:"active"`
}

// PositionSnapshot stores a position and a reference to its creature.
type PositionSnapshot struct {
	Label       string `json:"label"`
	Participant int    `json:"participant"`
	Ref         string `json:"ref,omitempty"`
	Key         string `json:"key,omitempty"`
	Empty       bool   `json:"empty,omitempty"`
}

// Data is the battle section of a snapshot.
type Data struct {
	ID        string             `json:"id"`
	Kind      Kind               `json:"kind"`
	Turn      int                `json:"turn"`
	Over      bool               `json:"over,omitempty"`
	Winner    int                `json:"winner"`
	Teams     []TeamSnapshot     `json:"teams"`
	Field     *Field             `json:"field,omitempty"`
	Positions []PositionSnapshot `json:"positions,omitempty"`
}

// Snapshot is everything needed to rebuild a battle.
type Snapshot struct {
	Data  *Data  `json:"data"`
	State *State `json:"state"`
}

// Logic pairs a live battle with its serialisable state.
type Logic struct {
	Battle *Battle
	State  *State
}

// NewLogic wraps b. A nil state gets host defaults.
func NewLogic(b *Battle, s *State) *Logic {
	if s == nil {
		s = NewState(b.Kind)
	}
	s.Kind = b.Kind
	s.ExpShare = b.ExpShare
	l := &Logic{Battle: b, State: s}
	l.SyncState()
	return l
}

// SyncState copies the battle's turn and declarations into State and
// refreshes the derived team and moveset views.
func (l *Logic) SyncState() {
	b := l.Battle
	l.State.Turn = b.Turn
	l.State.Declare = make(map[string]*Action)
	for _, pos := range b.Positions {
		if pos.Action != nil {
			l.State.Declare[pos.Label] = pos.Action.Clone()
		}
	}
	l.rebuildViews()
}

func (l *Logic) rebuildViews() {
	b := l.Battle
	teams := make(map[string][]string, len(b.Participants))
	movesets := make(map[string][]string)
	for _, p := range b.Participants {
		for _, id := range p.Team.Members() {
			c := b.Arena.Get(id)
			if c == nil {
				continue
			}
			teams[p.Name] = append(teams[p.Name], c.Name)
			moves := make([]string, 0, len(c.Moves))
			for _, m := range c.Moves {
				moves = append(moves, m.Move)
			}
			movesets[c.Key()] = moves
		}
	}
	l.State.Teams = teams
	l.State.Movesets = movesets
}

func snapshotCreature(slot int, c *Creature) CreatureSnapshot {
	cs := CreatureSnapshot{
		Slot:         slot,
		Ref:          c.ModelID,
		Key:          c.Key(),
		HP:           c.HP,
		Status:       c.Status,
		ToxicCounter: c.ToxicCounter,
		Boosts:       c.Boosts,
		Item:         c.Item,
		Experience:   c.Experience,
		EVs:          c.EVs,
		Caught:       c.Caught,
	}
	cp := c.Clone()
	cs.Tempvals = cp.Tempvals
	cs.Volatiles = cp.Volatiles
	cs.PP = make([]int, len(c.Moves))
	for i, m := range c.Moves {
		cs.PP[i] = m.PP
	}
	if c.ModelID == "" {
		cs.Base = cp
	}
	return cs
}

// apply writes the mutable fields back onto c.
func (cs *CreatureSnapshot) apply(c *Creature) {
	c.HP = cs.HP
	c.SetHP(c.HP)
	c.Status = cs.Status
	c.ToxicCounter = cs.ToxicCounter
	c.Boosts = cs.Boosts
	c.Tempvals = nil
	for k, v := range cs.Tempvals {
		c.SetTemp(k, v)
	}
	c.Volatiles = nil
	for k, v := range cs.Volatiles {
		c.SetVolatile(k, v)
	}
	for i := range c.Moves {
		if i < len(cs.PP) {
			c.Moves[i].PP = cs.PP[i]
		}
	}
	c.Item = cs.Item
	c.Experience = cs.Experience
	c.EVs = cs.EVs
	c.Caught = cs.Caught
}

func cloneField(f *Field) *Field {
	if f == nil {
		return NewField()
	}
	out := f.Clone()
	if out.PseudoWeather == nil {
		out.PseudoWeather = make(map[string]*EffectState)
	}
	return out
}

// ToSnapshot captures the battle and its state.
func (l *Logic) ToSnapshot() *Snapshot {
	l.SyncState()
	b := l.Battle
	data := &Data{
		ID:     b.ID,
		Kind:   b.Kind,
		Turn:   b.Turn,
		Over:   b.Over,
		Winner: b.Winner,
		Field:  cloneField(b.Field),
	}
	for _, p := range b.Participants {
		ts := TeamSnapshot{
			Name:         p.Name,
			Trainer:      p.Team.Trainer,
			IsAI:         p.IsAI,
			Player:       p.Player,
			TeamTag:      p.TeamTag,
			HasLost:      p.HasLost,
			FleeAttempts: p.FleeAttempts,
			MaxActive:    p.MaxActive,
		}
		for slot, id := range p.Team.Slots {
			if c := b.Arena.Get(id); c != nil {
				ts.Members = append(ts.Members, snapshotCreature(slot, c))
			}
		}
		for _, id := range p.Active {
			ts.Active = append(ts.Active, p.Team.SlotOf(id))
		}
		data.Teams = append(data.Teams, ts)
	}
	for _, pos := range b.Positions {
		ps := PositionSnapshot{Label: pos.Label, Participant: pos.Participant}
		if c := b.Arena.Get(pos.Creature); c != nil {
			ps.Ref = c.ModelID
			ps.Key = c.Key()
		} else {
			ps.Empty = true
		}
		data.Positions = append(data.Positions, ps)
	}
	return &Snapshot{Data: data, State: l.State.Clone()}
}

// FromSnapshot rebuilds a Logic from snap. cfg supplies the collaborators
// (dex, hooks, rng, logger); its ID and Kind are taken from the snapshot.
// loader resolves creature refs and may be nil when every member is
// stored inline.
func FromSnapshot(snap *Snapshot, cfg Config, loader CreatureLoader) (*Logic, error) {
	if snap == nil || snap.Data == nil || len(snap.Data.Teams) == 0 {
		return nil, ErrEmptySnapshot
	}
	data := snap.Data
	cfg.ID = data.ID
	cfg.Kind = data.Kind
	state := snap.State
	if state == nil {
		state = NewState(data.Kind)
	} else {
		state = state.Clone()
	}
	cfg.ExpShare = state.ExpShare
	b := NewBattle(cfg)
	b.Turn = data.Turn
	b.Over = data.Over
	b.Winner = data.Winner
	b.Field = cloneField(data.Field)

	for _, ts := range data.Teams {
		team := NewTeam(ts.Trainer)
		for _, cs := range ts.Members {
			c, err := restoreCreature(cs, loader)
			if err != nil {
				return nil, fmt.Errorf("team %s slot %d: %w", ts.Name, cs.Slot, err)
			}
			if cs.Slot < 0 || cs.Slot >= TeamSize {
				return nil, fmt.Errorf("team %s: slot %d out of range", ts.Name, cs.Slot)
			}
			team.Slots[cs.Slot] = b.Arena.Add(c)
		}
		p := &Participant{
			Name:         ts.Name,
			Team:         team,
			MaxActive:    ts.MaxActive,
			IsAI:         ts.IsAI,
			Player:       ts.Player,
			TeamTag:      ts.TeamTag,
			HasLost:      ts.HasLost,
			FleeAttempts: ts.FleeAttempts,
		}
		if p.MaxActive <= 0 {
			p.MaxActive = 1
		}
		for _, slot := range ts.Active {
			if slot >= 0 && slot < TeamSize && team.Slots[slot] != NoCreature {
				p.Active = append(p.Active, team.Slots[slot])
			}
		}
		b.Participants = append(b.Participants, p)
	}

	if len(data.Positions) == 0 {
		rebuildPositions(b)
	} else if err := relinkPositions(b, data.Positions); err != nil {
		return nil, err
	}

	l := &Logic{Battle: b, State: state}
	for label, act := range state.Declare {
		pos := b.Position(label)
		if pos == nil || act == nil || !b.livePosition(pos) {
			delete(state.Declare, label)
			continue
		}
		pos.Action = act.Clone()
		b.Participants[pos.Participant].Pending = pos.Action
	}
	state.Turn = b.Turn
	state.Kind = b.Kind
	if state.Teams == nil || state.Movesets == nil {
		l.rebuildViews()
	}
	return l, nil
}

func restoreCreature(cs CreatureSnapshot, loader CreatureLoader) (*Creature, error) {
	var c *Creature
	if cs.Ref != "" && loader != nil {
		if ext, ok := loader(cs.Ref); ok && ext != nil {
			c = ext.Clone()
			c.ModelID = cs.Ref
		}
	}
	if c == nil && cs.Base != nil {
		c = cs.Base.Clone()
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingCreature, cs.Ref)
	}
	cs.apply(c)
	return c, nil
}

// rebuildPositions opens positions from each participant's active list
// when the snapshot carried none.
func rebuildPositions(b *Battle) {
	for idx, p := range b.Participants {
		for slot := 0; slot < p.MaxActive; slot++ {
			id := NoCreature
			if slot < len(p.Active) {
				id = p.Active[slot]
			}
			b.Positions = append(b.Positions, &Position{Label: PositionLabel(idx, slot), Participant: idx, Creature: id})
		}
	}
}

// relinkPositions points each position at the roster creature it stood
// for: by model id, then by synthetic key, then the first unassigned
// active creature of the owning side.
func relinkPositions(b *Battle, stored []PositionSnapshot) error {
	assigned := make(map[CreatureID]bool)
	for _, ps := range stored {
		if ps.Participant < 0 || ps.Participant >= len(b.Participants) {
			return fmt.Errorf("position %s: participant %d out of range", ps.Label, ps.Participant)
		}
		pos := &Position{Label: ps.Label, Participant: ps.Participant, Creature: NoCreature}
		b.Positions = append(b.Positions, pos)
		if ps.Empty {
			continue
		}
		p := b.Participants[ps.Participant]
		members := p.Team.Members()
		match := func(pred func(*Creature) bool) CreatureID {
			for _, id := range members {
				if !assigned[id] && pred(b.Arena.Get(id)) {
					return id
				}
			}
			return NoCreature
		}
		id := NoCreature
		if ps.Ref != "" {
			id = match(func(c *Creature) bool { return c.ModelID == ps.Ref })
		}
		if id == NoCreature && ps.Key != "" {
			id = match(func(c *Creature) bool { return c.Key() == ps.Key })
		}
		if id == NoCreature {
			for _, a := range p.Active {
				if !assigned[a] {
					id = a
					break
				}
			}
		}
		if id == NoCreature {
			continue
		}
		assigned[id] = true
		pos.Creature = id
		if !p.IsActive(id) {
			p.Active = append(p.Active, id)
		}
	}
	return nil
}
