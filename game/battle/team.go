package battle

import "fmt"

// TeamSize is the number of roster slots a trainer has.
const TeamSize = 6

// Team is a trainer's roster. Empty slots hold NoCreature.
type Team struct {
	Trainer string               `json:"trainer"`
	Slots   [TeamSize]CreatureID `json:"slots"`
}

// NewTeam fills the first len(ids) slots and leaves the rest empty.
// Extra ids past TeamSize are ignored.
func NewTeam(trainer string, ids ...CreatureID) Team {
	t := Team{Trainer: trainer}
	for i := range t.Slots {
		t.Slots[i] = NoCreature
	}
	for i, id := range ids {
		if i >= TeamSize {
			break
		}
		t.Slots[i] = id
	}
	return t
}

// Members returns the occupied slots in order.
func (t Team) Members() []CreatureID {
	var out []CreatureID
	for _, id := range t.Slots {
		if id != NoCreature {
			out = append(out, id)
		}
	}
	return out
}

// SlotOf returns the slot index holding id, or -1.
func (t Team) SlotOf(id CreatureID) int {
	for i, own := range t.Slots {
		if own == id && id != NoCreature {
			return i
		}
	}
	return -1
}

// Participant is one side of a battle.
type Participant struct {
	Name         string       `json:"name"`
	Team         Team         `json:"team"`
	Active       []CreatureID `json:"active"`
	MaxActive    int          `json:"max_active"`
	IsAI         bool         `json:"is_ai"`
	Player       string       `json:"player,omitempty"`
	TeamTag      string       `json:"team_tag,omitempty"`
	HasLost      bool         `json:"has_lost"`
	Pending      *Action      `json:"pending,omitempty"`
	FleeAttempts int          `json:"flee_attempts,omitempty"`
}

// NewParticipant builds a participant whose first healthy roster members
// become active.
func NewParticipant(name string, team Team, arena *Arena) *Participant {
	p := &Participant{Name: name, Team: team, MaxActive: 1}
	p.fillActive(arena)
	return p
}

func (p *Participant) fillActive(arena *Arena) {
	if p.MaxActive <= 0 {
		p.MaxActive = 1
	}
	for _, id := range p.Team.Members() {
		if len(p.Active) >= p.MaxActive {
			return
		}
		if c := arena.Get(id); c != nil && !c.Fainted() && !p.IsActive(id) {
			p.Active = append(p.Active, id)
		}
	}
}

// IsActive reports whether id is on the field for this side.
func (p *Participant) IsActive(id CreatureID) bool {
	for _, a := range p.Active {
		if a == id {
			return true
		}
	}
	return false
}

// RemoveActive takes id off the field.
func (p *Participant) RemoveActive(id CreatureID) {
	n := 0
	for _, a := range p.Active {
		if a != id {
			p.Active[n] = a
			n++
		}
	}
	p.Active = p.Active[:n]
}

// ReplaceActive swaps out for in, keeping the active order.
func (p *Participant) ReplaceActive(out, in CreatureID) {
	for i, a := range p.Active {
		if a == out {
			p.Active[i] = in
			return
		}
	}
	p.Active = append(p.Active, in)
}

// HasHealthy reports whether any roster member has HP left.
func (p *Participant) HasHealthy(arena *Arena) bool {
	for _, id := range p.Team.Members() {
		if c := arena.Get(id); c != nil && !c.Fainted() {
			return true
		}
	}
	return false
}

// NextHealthy returns the first healthy benched member, or NoCreature.
func (p *Participant) NextHealthy(arena *Arena) CreatureID {
	for _, id := range p.Team.Members() {
		if p.IsActive(id) {
			continue
		}
		if c := arena.Get(id); c != nil && !c.Fainted() {
			return id
		}
	}
	return NoCreature
}

// Position binds a label to one active creature and its declared action.
type Position struct {
	Label       string     `json:"label"`
	Participant int        `json:"participant"`
	Creature    CreatureID `json:"creature"`
	Action      *Action    `json:"action,omitempty"`
}

// PositionLabel builds labels like "A1" for participant 0, slot 0.
func PositionLabel(participant, slot int) string {
	return fmt.Sprintf("%c%d", 'A'+rune(participant), slot+1)
}
