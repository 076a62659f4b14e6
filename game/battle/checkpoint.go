package battle

// checkpoint is a copy of everything a turn may change. RunTurn takes one
// before resolving and rolls back to it when the turn fails, so a retry
// starts from the same state.
type checkpoint struct {
	turn         int
	over         bool
	winner       int
	creatures    []*Creature
	participants []Participant
	positions    []Position
	field        *Field
	log          []string
}

func (b *Battle) checkpoint() *checkpoint {
	cp := &checkpoint{
		turn:   b.Turn,
		over:   b.Over,
		winner: b.Winner,
		field:  b.Field.Clone(),
		log:    append([]string(nil), b.log...),
	}
	for _, c := range b.Arena.creatures {
		cp.creatures = append(cp.creatures, c.Clone())
	}
	for _, p := range b.Participants {
		q := *p
		q.Active = append([]CreatureID(nil), p.Active...)
		cp.participants = append(cp.participants, q)
	}
	for _, pos := range b.Positions {
		cp.positions = append(cp.positions, *pos)
	}
	return cp
}

// rollback writes cp back into the live structures. Pointers held by
// callers (creatures, participants, positions) stay valid.
func (b *Battle) rollback(cp *checkpoint) {
	b.Turn = cp.turn
	b.Over = cp.over
	b.Winner = cp.winner
	b.Field = cp.field
	b.log = cp.log

	b.Arena.creatures = b.Arena.creatures[:len(cp.creatures)]
	for i, c := range cp.creatures {
		*b.Arena.creatures[i] = *c
	}
	for i := range cp.participants {
		*b.Participants[i] = cp.participants[i]
	}
	for i := range cp.positions {
		*b.Positions[i] = cp.positions[i]
	}
}
