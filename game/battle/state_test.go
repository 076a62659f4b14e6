package battle

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestStateCompactJSON(t *testing.T) {
	raw, err := json.Marshal(NewState(KindWild))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"kind":"wild"}` {
		t.Errorf("default state = %s", raw)
	}

	s := NewState(KindPVP)
	s.XP = false
	s.Tier = 3
	s.FourMoves = true
	raw, _ = json.Marshal(s)
	var back State
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back.XP || !back.TXP || back.Tier != 3 || !back.FourMoves || back.Kind != KindPVP {
		t.Errorf("decoded = %+v from %s", back, raw)
	}
}

func TestStateDefaultsOnDecode(t *testing.T) {
	var s State
	if err := json.Unmarshal([]byte(`{"kind":"trainer","watchers":["b"]}`), &s); err != nil {
		t.Fatal(err)
	}
	if !s.XP || !s.TXP || s.Tier != 1 || s.Declare == nil || s.PokemonControl == nil {
		t.Errorf("defaults not applied: %+v", s)
	}
	if s.Kind != KindTrainer || !s.HasWatcher("b") {
		t.Errorf("decoded = %+v", s)
	}
}

func TestStateWatchers(t *testing.T) {
	s := NewState(KindWild)
	for _, id := range []string{"c", "a", "b", "a", ""} {
		s.AddWatcher(id)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(s.Watchers, want) {
		t.Errorf("watchers = %v", s.Watchers)
	}
	if !s.RemoveWatcher("b") || s.RemoveWatcher("b") {
		t.Error("remove should succeed once")
	}
	if s.HasWatcher("b") {
		t.Error("b still watching")
	}
}

func TestStateCloneIsDeep(t *testing.T) {
	s := NewState(KindWild)
	s.Declare["A1"] = NewRunAction("Player")
	s.AddWatcher("w")
	s.PokemonControl["mon-1"] = "w"

	cp := s.Clone()
	cp.Declare["A1"].Actor = "Other"
	cp.Watchers[0] = "x"
	cp.PokemonControl["mon-1"] = "x"
	if s.Declare["A1"].Actor != "Player" || s.Watchers[0] != "w" || s.PokemonControl["mon-1"] != "w" {
		t.Errorf("clone shares state with original: %+v", s)
	}
}
