package rates

import "testing"

func TestParseTableFromText(t *testing.T) {
	sample := `
TARIFAS RESIDENCIAIS B1 - 2024
Pará: R$ 0,975 por kWh
Santa Catarina - 0.61
Rio Grande do Norte: 0.70
Atlantis: 0.10
`
	got, err := ParseTableFromText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 known states, got %+v", got)
	}
	if got[0].State != "Pará" || got[0].RatePerKWh != 0.975 {
		t.Errorf("unexpected first entry: %+v", got[0])
	}
	if got[2].State != "Rio Grande do Norte" || got[2].RatePerKWh != 0.70 {
		t.Errorf("unexpected last entry: %+v", got[2])
	}

	tbl := WithOverrides(got)
	if tbl.Rate("Santa Catarina") != 0.61 {
		t.Errorf("override from parsed text not applied")
	}
}

func TestParseTableFromText_NoMatches(t *testing.T) {
	if _, err := ParseTableFromText("nothing to see"); err == nil {
		t.Fatalf("expected error when no tariffs are found")
	}
}
