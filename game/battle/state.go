package battle

import (
	"encoding/json"
	"sort"
)

// State is the serialisable mirror of a battle's control data: who
// declared what, who watches, and who controls which creature.
type State struct {
	AIType         string             `json:"ai_type,omitempty"`
	Kind           Kind               `json:"kind"`
	Turn           int                `json:"-"`
	Declare        map[string]*Action `json:"declare,omitempty"`
	Watchers       []string           `json:"watchers,omitempty"`
	PokemonControl map[string]string  `json:"pokemon_control,omitempty"`
	Debug          bool               `json:"debug,omitempty"`
	XP             bool               `json:"xp"`
	TXP            bool               `json:"txp"`
	Tier           int                `json:"tier"`
	FourMoves      bool               `json:"four_moves"`
	ExpShare       bool               `json:"expshare,omitempty"`

	// Teams and Movesets are derived views, rebuilt from the roster on
	// restore rather than persisted.
	Teams    map[string][]string `json:"-"`
	Movesets map[string][]string `json:"-"`
}

// NewState returns a state with host defaults.
func NewState(kind Kind) *State {
	return &State{
		Kind:           kind,
		Declare:        make(map[string]*Action),
		PokemonControl: make(map[string]string),
		XP:             true,
		TXP:            true,
		Tier:           1,
	}
}

// persistedState is the compact on-disk form: options equal to their
// defaults are omitted.
type persistedState struct {
	AIType         string             `json:"ai_type,omitempty"`
	Kind           Kind               `json:"kind"`
	Declare        map[string]*Action `json:"declare,omitempty"`
	Watchers       []string           `json:"watchers,omitempty"`
	PokemonControl map[string]string  `json:"pokemon_control,omitempty"`
	Debug          bool               `json:"debug,omitempty"`
	XP             *bool              `json:"xp,omitempty"`
	TXP            *bool              `json:"txp,omitempty"`
	Tier           *int               `json:"tier,omitempty"`
	FourMoves      *bool              `json:"four_moves,omitempty"`
	ExpShare       bool               `json:"expshare,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	p := persistedState{
		AIType:         s.AIType,
		Kind:           s.Kind,
		Watchers:       s.Watchers,
		PokemonControl: s.PokemonControl,
		Debug:          s.Debug,
		ExpShare:       s.ExpShare,
	}
	if len(s.Declare) > 0 {
		p.Declare = s.Declare
	}
	if !s.XP {
		p.XP = &s.XP
	}
	if !s.TXP {
		p.TXP = &s.TXP
	}
	if s.Tier != 1 {
		p.Tier = &s.Tier
	}
	if s.FourMoves {
		p.FourMoves = &s.FourMoves
	}
	return json.Marshal(p)
}

func (s *State) UnmarshalJSON(b []byte) error {
	var p persistedState
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = *NewState(p.Kind)
	s.AIType = p.AIType
	s.Watchers = p.Watchers
	s.Debug = p.Debug
	s.ExpShare = p.ExpShare
	if p.Declare != nil {
		s.Declare = p.Declare
	}
	if p.PokemonControl != nil {
		s.PokemonControl = p.PokemonControl
	}
	if p.XP != nil {
		s.XP = *p.XP
	}
	if p.TXP != nil {
		s.TXP = *p.TXP
	}
	if p.Tier != nil {
		s.Tier = *p.Tier
	}
	if p.FourMoves != nil {
		s.FourMoves = *p.FourMoves
	}
	return nil
}

// AddWatcher adds id to the watcher set. It reports whether id was new.
func (s *State) AddWatcher(id string) bool {
	if id == "" || s.HasWatcher(id) {
		return false
	}
	s.Watchers = append(s.Watchers, id)
	sort.Strings(s.Watchers)
	return true
}

// RemoveWatcher drops id from the watcher set.
func (s *State) RemoveWatcher(id string) bool {
	for i, w := range s.Watchers {
		if w == id {
			s.Watchers = append(s.Watchers[:i], s.Watchers[i+1:]...)
			return true
		}
	}
	return false
}

// HasWatcher reports whether id is watching.
func (s *State) HasWatcher(id string) bool {
	for _, w := range s.Watchers {
		if w == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	cp := *s
	cp.Declare = make(map[string]*Action, len(s.Declare))
	for k, a := range s.Declare {
		cp.Declare[k] = a.Clone()
	}
	cp.Watchers = append([]string(nil), s.Watchers...)
	cp.PokemonControl = make(map[string]string, len(s.PokemonControl))
	for k, v := range s.PokemonControl {
		cp.PokemonControl[k] = v
	}
	cp.Teams = copyStringSlices(s.Teams)
	cp.Movesets = copyStringSlices(s.Movesets)
	return &cp
}

func copyStringSlices(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
