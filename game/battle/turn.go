package battle

import (
	"math/rand"
	"sort"
)

// SpeedJitter bounds the random tie-breaker added to effective speed.
const SpeedJitter = 0.1

// OrderEntry is one position's input to turn ordering.
type OrderEntry struct {
	Label    string
	Action   *Action
	Speed    int
	Priority int
	// Alive is false when the position has no living creature.
	Alive bool
}

// TurnManager determines the execution order of declared actions.
type TurnManager interface {
	// ResolveOrder returns the labels to execute, highest priority bucket
	// first. Entries without an action or a live creature are skipped.
	ResolveOrder(entries []OrderEntry, rng *rand.Rand) []string
}

// DefaultTurnManager buckets by priority and sorts each bucket by speed
// descending. Every entry's speed gets a jitter in [-SpeedJitter, SpeedJitter)
// drawn from rng, so a seeded rng reproduces the same order.
type DefaultTurnManager struct {
	// Reverse orders slower creatures first inside a bucket (Trick Room).
	Reverse bool
}

func (tm DefaultTurnManager) ResolveOrder(entries []OrderEntry, rng *rand.Rand) []string {
	type keyed struct {
		label    string
		priority int
		speed    float64
	}
	var list []keyed
	for _, e := range entries {
		if e.Action == nil || !e.Alive {
			continue
		}
		jitter := (rng.Float64()*2 - 1) * SpeedJitter
		speed := float64(e.Speed)
		if tm.Reverse {
			speed = -speed
		}
		list = append(list, keyed{label: e.Label, priority: e.Priority, speed: speed + jitter})
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority > list[j].priority
		}
		return list[i].speed > list[j].speed
	})

	out := make([]string, len(list))
	for i, k := range list {
		out[i] = k.label
	}
	return out
}
