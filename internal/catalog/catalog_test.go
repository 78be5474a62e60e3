package catalog

import (
	"testing"

	"github.com/bher20/ecoenergy/internal/energy"
)

func TestOptionsPerArea(t *testing.T) {
	want := map[energy.Area]int{
		energy.AreaHomeAppliances: 14,
		energy.AreaEntertainment:  8,
		energy.AreaLighting:       14,
		energy.AreaOther:          8,
	}
	for area, n := range want {
		if got := len(Options(area)); got != n {
			t.Errorf("Options(%q) has %d entries, want %d", area, got, n)
		}
	}
	if Options("Garagem") != nil {
		t.Errorf("expected nil options for unknown area")
	}
}

func TestTypicalWatts(t *testing.T) {
	cases := map[string]float64{
		"Geladeira/Freezer":   150,
		"lâmpada led":         10,
		" Forno elétrico ":    1500,
		"Home theater":        200,
		"Portão Automático":   100,
		"Furadeira Elétrica":  600,
	}
	for name, watts := range cases {
		got, ok := TypicalWatts(name)
		if !ok || got != watts {
			t.Errorf("TypicalWatts(%q) = %v, %v; want %v", name, got, ok, watts)
		}
	}
	if _, ok := TypicalWatts("Teletransportador"); ok {
		t.Errorf("expected unknown appliance to be missing")
	}
}

func TestSnapshot(t *testing.T) {
	c := Snapshot()
	if len(c.Areas) != 4 || len(c.Options) != 4 {
		t.Fatalf("unexpected catalog shape: %d areas, %d option lists", len(c.Areas), len(c.Options))
	}
	if len(c.References) != 44 {
		t.Errorf("expected 44 reference entries, got %d", len(c.References))
	}
	c.Options[energy.AreaOther][0] = "changed"
	if Options(energy.AreaOther)[0] == "changed" {
		t.Fatalf("snapshot shares storage with the catalog")
	}
}
