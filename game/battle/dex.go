package battle

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Category is a move's damage class.
type Category string

const (
	CategoryPhysical Category = "Physical"
	CategorySpecial  Category = "Special"
	CategoryStatus   Category = "Status"
)

// Fraction is a numerator/denominator pair such as drain [1, 2].
type Fraction [2]int

// Of applies the fraction to n, rounding down. A zero fraction yields 0.
func (f Fraction) Of(n int) int {
	if f[1] == 0 {
		return 0
	}
	return n * f[0] / f[1]
}

// IsZero reports whether the fraction is unset.
func (f Fraction) IsZero() bool { return f[0] == 0 || f[1] == 0 }

// Secondary is a chance-based extra effect of a move.
type Secondary struct {
	Chance   int            `json:"chance"`
	Status   Status         `json:"status,omitempty"`
	Volatile string         `json:"volatile,omitempty"`
	Boosts   map[string]int `json:"boosts,omitempty"`
	Self     bool           `json:"self,omitempty"`
}

// MoveDef is the immutable dex entry for a move.
type MoveDef struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Category   Category        `json:"category"`
	Power      int             `json:"power"`
	Accuracy   int             `json:"accuracy"`
	AlwaysHit  bool            `json:"always_hit,omitempty"`
	Priority   int             `json:"priority"`
	PP         int             `json:"pp"`
	Drain      Fraction        `json:"drain,omitempty"`
	Recoil     Fraction        `json:"recoil,omitempty"`
	Heal       Fraction        `json:"heal,omitempty"`
	Status     Status          `json:"status,omitempty"`
	Boosts     map[string]int  `json:"boosts,omitempty"`
	SelfBoosts map[string]int  `json:"self_boosts,omitempty"`
	Secondary  *Secondary      `json:"secondary,omitempty"`
	Target     string          `json:"target,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
	Effect     string          `json:"effect,omitempty"`
}

// Clone returns a per-use copy that hooks may modify.
func (m *MoveDef) Clone() *MoveDef {
	cp := *m
	return &cp
}

// Flag reports whether the move has the named flag (contact, takeitem, ...).
func (m *MoveDef) Flag(name string) bool { return m.Flags[name] }

// SelfTargeting reports whether a status move acts on its user.
func (m *MoveDef) SelfTargeting() bool { return m.Target == "self" }

// SpeciesDef is the dex entry for a species.
type SpeciesDef struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Types     []string `json:"types"`
	BaseStats Stats    `json:"base_stats"`
	BaseExp   int      `json:"base_exp"`
	EVYield   Stats    `json:"ev_yield"`
	CatchRate int      `json:"catch_rate"`
}

// ItemDef is the dex entry for an item usable from the bag.
type ItemDef struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Heal      int     `json:"heal,omitempty"`
	Cure      bool    `json:"cure,omitempty"`
	BallBonus float64 `json:"ball_bonus,omitempty"`
}

// IsBall reports whether the item is a capture ball.
func (d *ItemDef) IsBall() bool { return d.BallBonus > 0 }

// Dex is the read-only static data collaborator.
type Dex interface {
	Move(id string) (*MoveDef, bool)
	Species(id string) (*SpeciesDef, bool)
	Item(id string) (*ItemDef, bool)
}

// MemoryDex is an in-memory Dex keyed by ToID.
type MemoryDex struct {
	mu      sync.RWMutex
	moves   map[string]*MoveDef
	species map[string]*SpeciesDef
	items   map[string]*ItemDef
}

// NewMemoryDex creates an empty dex.
func NewMemoryDex() *MemoryDex {
	return &MemoryDex{
		moves:   make(map[string]*MoveDef),
		species: make(map[string]*SpeciesDef),
		items:   make(map[string]*ItemDef),
	}
}

func (d *MemoryDex) Move(id string) (*MoveDef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.moves[ToID(id)]
	return m, ok
}

func (d *MemoryDex) Species(id string) (*SpeciesDef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.species[ToID(id)]
	return s, ok
}

func (d *MemoryDex) Item(id string) (*ItemDef, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	it, ok := d.items[ToID(id)]
	return it, ok
}

// AddMove stores m, deriving ID and Name from each other when one is missing.
func (d *MemoryDex) AddMove(m *MoveDef) {
	if m.ID == "" {
		m.ID = ToID(m.Name)
	}
	if m.Name == "" {
		m.Name = DisplayName(m.ID)
	}
	if m.Category == "" {
		m.Category = CategoryStatus
	}
	d.mu.Lock()
	d.moves[ToID(m.ID)] = m
	d.mu.Unlock()
}

func (d *MemoryDex) AddSpecies(s *SpeciesDef) {
	if s.ID == "" {
		s.ID = ToID(s.Name)
	}
	if s.Name == "" {
		s.Name = DisplayName(s.ID)
	}
	d.mu.Lock()
	d.species[ToID(s.ID)] = s
	d.mu.Unlock()
}

func (d *MemoryDex) AddItem(it *ItemDef) {
	if it.ID == "" {
		it.ID = ToID(it.Name)
	}
	if it.Name == "" {
		it.Name = DisplayName(it.ID)
	}
	d.mu.Lock()
	d.items[ToID(it.ID)] = it
	d.mu.Unlock()
}

type dexFile struct {
	Moves   []*MoveDef    `json:"moves"`
	Species []*SpeciesDef `json:"species"`
	Items   []*ItemDef    `json:"items"`
}

// LoadFile merges a JSON dex file ({"moves": [...], "species": [...],
// "items": [...]}) into d.
func (d *MemoryDex) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var raw dexFile
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return fmt.Errorf("decode dex %s: %w", path, err)
	}
	for _, m := range raw.Moves {
		d.AddMove(m)
	}
	for _, s := range raw.Species {
		d.AddSpecies(s)
	}
	for _, it := range raw.Items {
		d.AddItem(it)
	}
	return nil
}
