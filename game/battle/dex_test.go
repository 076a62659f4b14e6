package battle

import (
	"os"
	"path/filepath"
	"testing"
)

func TestToIDAndDisplayName(t *testing.T) {
	cases := map[string]string{
		"Run Away":    "runaway",
		"Will-O-Wisp": "willowisp",
		"Poké Ball":   "pokéball",
		"MIRROR herb": "mirrorherb",
	}
	for in, want := range cases {
		if got := ToID(in); got != want {
			t.Errorf("ToID(%q) = %q, want %q", in, got, want)
		}
	}
	if got := DisplayName("arena-trap"); got != "Arena Trap" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName("lucky_egg"); got != "Lucky Egg" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestNewCreatureFromDex(t *testing.T) {
	c := mon("Pikachu", 50, "Thunder Shock", "Quick Attack", "Tackle", "Swift", "Growl")
	if len(c.Moves) != MaxMoves {
		t.Errorf("moves = %d, want %d", len(c.Moves), MaxMoves)
	}
	if c.Moves[0].Move != "thundershock" || c.Moves[0].PP != 30 {
		t.Errorf("first move = %+v", c.Moves[0])
	}
	if c.HP != c.MaxHP || c.MaxHP != 110 {
		t.Errorf("hp = %d/%d, want 110", c.HP, c.MaxHP)
	}
	if !c.HasType("electric") {
		t.Errorf("types = %v", c.Types)
	}
}

func TestBoostsClamp(t *testing.T) {
	var b Boosts
	if got := b.Add(StatAtk, 4); got != 4 {
		t.Errorf("applied = %d", got)
	}
	if got := b.Add(StatAtk, 4); got != 2 || b.Atk != MaxBoost {
		t.Errorf("applied = %d, atk = %d", got, b.Atk)
	}
	if got := b.Add(StatEvasion, -9); got != MinBoost {
		t.Errorf("applied = %d", got)
	}
	b.Reset()
	if b != (Boosts{}) {
		t.Errorf("reset left %+v", b)
	}
}

func TestMemoryDexLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dex.json")
	data := `{
		"moves": [{"name": "Aqua Jet", "type": "Water", "category": "Physical", "power": 40, "accuracy": 100, "priority": 1, "pp": 20}],
		"species": [{"name": "Marill", "types": ["Water", "Fairy"], "base_stats": {"hp": 70, "atk": 20, "def": 50, "spa": 20, "spd": 50, "spe": 40}, "base_exp": 88}],
		"items": [{"name": "Oran Berry", "heal": 10}]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	d := NewMemoryDex()
	if err := d.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	m, ok := d.Move("aquajet")
	if !ok || m.Priority != 1 || m.Category != CategoryPhysical {
		t.Errorf("move = %+v", m)
	}
	if sp, ok := d.Species("Marill"); !ok || sp.BaseExp != 88 {
		t.Errorf("species = %+v", sp)
	}
	if it, ok := d.Item("oran-berry"); !ok || it.Heal != 10 {
		t.Errorf("item = %+v", it)
	}
	if err := d.LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}
