package session

import "sort"

// Target is a live messaging endpoint for one identity.
type Target interface {
	// Location is the key of the room the target is currently in.
	Location() string
	// IgnoresNotify reports whether the target opted out of battle messages.
	IgnoresNotify() bool
	Send(msg string) error
}

// BattleAttacher is implemented by targets that track which battle they
// belong to. Registry.Rebuild uses it after a restore.
type BattleAttacher interface {
	AttachBattle(battleID string)
}

// Directory resolves identities to live targets.
type Directory interface {
	Resolve(id string) (Target, bool)
}

// Notify delivers msg to every watcher that resolves, is in location and
// has not opted out. Anything else is skipped silently. It returns the
// number of deliveries.
func Notify(dir Directory, location string, ids []string, msg string) int {
	if dir == nil {
		return 0
	}
	sent := 0
	for _, id := range ids {
		t, ok := dir.Resolve(id)
		if !ok || t == nil {
			continue
		}
		if t.Location() != location || t.IgnoresNotify() {
			continue
		}
		if err := t.Send(msg); err != nil {
			continue
		}
		sent++
	}
	return sent
}

// Normalize sorts ids, dropping blanks and duplicates.
func Normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
