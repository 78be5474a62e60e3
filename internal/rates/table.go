// Package rates holds the per-state electricity tariff table and bill
// estimation.
package rates

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultRate is charged for any state that is not in the table.
const DefaultRate = 0.85

// Currency of every rate in the table.
const Currency = "BRL"

const tariffsEnv = "ECOENERGY_TARIFFS_JSON"

// defaultRates lists the 26 states in display order.
func defaultRates() []StateRate {
	return []StateRate{
		{State: "Pará", RatePerKWh: 0.962},
		{State: "Mato Grosso", RatePerKWh: 0.883},
		{State: "Mato Grosso do Sul", RatePerKWh: 0.880},
		{State: "Alagoas", RatePerKWh: 0.866},
		{State: "Piauí", RatePerKWh: 0.854},
		{State: "Rio de Janeiro", RatePerKWh: 0.840},
		{State: "Amazonas", RatePerKWh: 0.835},
		{State: "Acre", RatePerKWh: 0.828},
		{State: "Bahia", RatePerKWh: 0.808},
		{State: "Distrito Federal", RatePerKWh: 0.766},
		{State: "Pernambuco", RatePerKWh: 0.764},
		{State: "Tocantins", RatePerKWh: 0.756},
		{State: "Minas Gerais", RatePerKWh: 0.751},
		{State: "Ceará", RatePerKWh: 0.744},
		{State: "Roraima", RatePerKWh: 0.735},
		{State: "Maranhão", RatePerKWh: 0.719},
		{State: "Rondônia", RatePerKWh: 0.709},
		{State: "Goiás", RatePerKWh: 0.711},
		{State: "Espírito Santo", RatePerKWh: 0.696},
		{State: "Rio Grande do Sul", RatePerKWh: 0.691},
		{State: "Rio Grande do Norte", RatePerKWh: 0.689},
		{State: "São Paulo", RatePerKWh: 0.680},
		{State: "Sergipe", RatePerKWh: 0.651},
		{State: "Paraná", RatePerKWh: 0.639},
		{State: "Paraíba", RatePerKWh: 0.602},
		{State: "Santa Catarina", RatePerKWh: 0.593},
	}
}

var defaultTable = NewTable(defaultRates())

// Table is an immutable state → rate lookup.
type Table struct {
	order []StateRate
	index map[string]float64
}

// NewTable builds a Table from the given rates. Later duplicates replace
// earlier ones but keep the first position.
func NewTable(list []StateRate) *Table {
	t := &Table{index: make(map[string]float64, len(list))}
	for _, r := range list {
		if _, seen := t.index[r.State]; !seen {
			t.order = append(t.order, r)
		} else {
			for i := range t.order {
				if t.order[i].State == r.State {
					t.order[i].RatePerKWh = r.RatePerKWh
				}
			}
		}
		t.index[r.State] = r.RatePerKWh
	}
	return t
}

// Default returns the built-in 26 state table.
func Default() *Table { return defaultTable }

// Rate returns the tariff for state, or DefaultRate when the state is not
// an exact match.
func (t *Table) Rate(state string) float64 {
	if r, ok := t.index[state]; ok {
		return r
	}
	return DefaultRate
}

// Has reports whether state has an entry in the table.
func (t *Table) Has(state string) bool {
	_, ok := t.index[state]
	return ok
}

// Rates returns a copy of the table in display order.
func (t *Table) Rates() []StateRate {
	out := make([]StateRate, len(t.order))
	copy(out, t.order)
	return out
}

// States returns the state names in display order.
func (t *Table) States() []string {
	out := make([]string, 0, len(t.order))
	for _, r := range t.order {
		out = append(out, r.State)
	}
	return out
}

// Response renders the table for the API.
func (t *Table) Response() TableResponse {
	return TableResponse{Currency: Currency, DefaultRate: DefaultRate, Rates: t.Rates()}
}

// RateForState looks state up in the built-in table.
func RateForState(state string) float64 {
	return defaultTable.Rate(state)
}

// States returns the 26 built-in state names.
func States() []string {
	return defaultTable.States()
}

// FromEnv returns the built-in table with the ECOENERGY_TARIFFS_JSON
// overrides applied. Invalid JSON falls back to the built-in table.
func FromEnv() *Table {
	t, _ := Load(os.Getenv(tariffsEnv), "")
	return t
}

// Load applies overrides from a JSON list and then from a tariff sheet
// PDF, both optional. A source that cannot be read is skipped; the table is
// always usable and the error reports what was skipped.
func Load(jsonOverride, pdfPath string) (*Table, error) {
	var override []StateRate
	var errs []error
	if strings.TrimSpace(jsonOverride) != "" {
		var list []StateRate
		if err := json.Unmarshal([]byte(jsonOverride), &list); err != nil {
			errs = append(errs, fmt.Errorf("tariff json: %w", err))
		} else {
			override = append(override, list...)
		}
	}
	if pdfPath != "" {
		list, err := ParseTableFromPDF(pdfPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("tariff pdf %s: %w", pdfPath, err))
		} else {
			override = append(override, list...)
		}
	}
	if len(override) == 0 {
		return defaultTable, errors.Join(errs...)
	}
	return WithOverrides(override), errors.Join(errs...)
}

// WithOverrides returns the built-in table with the rates of known states
// replaced. Unknown states and negative rates are ignored.
func WithOverrides(override []StateRate) *Table {
	merged := defaultRates()
	for _, o := range override {
		if o.RatePerKWh < 0 {
			continue
		}
		for i := range merged {
			if merged[i].State == o.State {
				merged[i].RatePerKWh = o.RatePerKWh
			}
		}
	}
	return NewTable(merged)
}
