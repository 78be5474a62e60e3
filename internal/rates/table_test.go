package rates

import (
	"math"
	"testing"
)

func TestRateForState_KnownStates(t *testing.T) {
	want := map[string]float64{
		"Pará": 0.962, "Mato Grosso": 0.883, "Mato Grosso do Sul": 0.880,
		"Alagoas": 0.866, "Piauí": 0.854, "Rio de Janeiro": 0.840,
		"Amazonas": 0.835, "Acre": 0.828, "Bahia": 0.808,
		"Distrito Federal": 0.766, "Pernambuco": 0.764, "Tocantins": 0.756,
		"Minas Gerais": 0.751, "Ceará": 0.744, "Roraima": 0.735,
		"Maranhão": 0.719, "Rondônia": 0.709, "Goiás": 0.711,
		"Espírito Santo": 0.696, "Rio Grande do Sul": 0.691,
		"Rio Grande do Norte": 0.689, "São Paulo": 0.680, "Sergipe": 0.651,
		"Paraná": 0.639, "Paraíba": 0.602, "Santa Catarina": 0.593,
	}
	if len(States()) != 26 {
		t.Fatalf("expected 26 states, got %d", len(States()))
	}
	for state, rate := range want {
		if got := RateForState(state); got != rate {
			t.Errorf("RateForState(%q) = %v, want %v", state, got, rate)
		}
	}
}

func TestRateForState_Fallback(t *testing.T) {
	for _, s := range []string{"", "Amapá", "sao paulo", "São Paulo ", "Pará́", "🌞", "Texas"} {
		if got := RateForState(s); got != DefaultRate {
			t.Errorf("RateForState(%q) = %v, want default %v", s, got, DefaultRate)
		}
	}
	if DefaultRate != 0.85 {
		t.Errorf("default rate changed: %v", DefaultRate)
	}
}

func TestEstimateBill(t *testing.T) {
	if got := EstimateBill(100, "São Paulo"); math.Abs(got-68) > 1e-9 {
		t.Errorf("unexpected bill: %v", got)
	}
	if got := EstimateBill(100, "nowhere"); math.Abs(got-85) > 1e-9 {
		t.Errorf("unexpected fallback bill: %v", got)
	}

	b := Default().Bill(123.456, "Pará")
	if b.Rounded != "118.76" {
		t.Errorf("unexpected rounded amount: %q (amount %v)", b.Rounded, b.Amount)
	}
	if b.Currency != "BRL" || b.RatePerKWh != 0.962 {
		t.Errorf("unexpected bill: %+v", b)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("ECOENERGY_TARIFFS_JSON", `[{"state":"Pará","rate_per_kwh":1.1},{"state":"Atlantis","rate_per_kwh":9}]`)
	tbl := FromEnv()
	if got := tbl.Rate("Pará"); got != 1.1 {
		t.Errorf("expected override to apply, got %v", got)
	}
	if tbl.Has("Atlantis") {
		t.Errorf("unknown states must not be added by overrides")
	}
	if got := tbl.Rate("Bahia"); got != 0.808 {
		t.Errorf("non-overridden state changed: %v", got)
	}
	if RateForState("Pará") != 0.962 {
		t.Errorf("override leaked into the built-in table")
	}
}

func TestFromEnv_InvalidJSONFallsBack(t *testing.T) {
	t.Setenv("ECOENERGY_TARIFFS_JSON", "{not json")
	if FromEnv() != Default() {
		t.Fatalf("expected fallback to the built-in table")
	}
}

func TestLoad_ReportsSkippedSources(t *testing.T) {
	tbl, err := Load(`[{"state":"Bahia","rate_per_kwh":0.9}]`, "/nonexistent/tarifas.pdf")
	if err == nil {
		t.Fatalf("expected the missing pdf to be reported")
	}
	if tbl.Rate("Bahia") != 0.9 {
		t.Errorf("json override should still apply, got %v", tbl.Rate("Bahia"))
	}

	tbl, err = Load("", "")
	if err != nil || tbl != Default() {
		t.Errorf("no sources should yield the built-in table, got %v", err)
	}
}
