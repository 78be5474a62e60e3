package energy

import "fmt"

// DaysPerMonth is the fixed daily-to-monthly conversion factor. Months are
// not calendar aware.
const DaysPerMonth = 30

// DailyKWh returns the energy used by a per day.
func DailyKWh(a Appliance) float64 {
	return a.PowerWatts * a.HoursPerDay * float64(a.Quantity) / 1000
}

// MonthlyKWh returns the energy used by a over a 30 day month.
func MonthlyKWh(a Appliance) float64 {
	return DailyKWh(a) * DaysPerMonth
}

// EntryConsumption is the monthly consumption of one appliance entry.
type EntryConsumption struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	Area       Area    `json:"area"`
	MonthlyKWh float64 `json:"monthly_kwh"`
}

// ConsumptionResult is the output of Calculate.
type ConsumptionResult struct {
	TotalKWh float64 `json:"total_kwh"`
	// PerAppliance is keyed by appliance name. When two entries share a name
	// the later one wins here, while TotalKWh still counts both.
	PerAppliance map[string]float64 `json:"per_appliance"`
	// Entries keeps every input record in input order.
	Entries []EntryConsumption `json:"entries"`
}

// Calculate sums the monthly consumption of the given appliances. It fails
// with ErrInvalidInput on the first appliance that does not validate.
func Calculate(appliances []Appliance) (ConsumptionResult, error) {
	res := ConsumptionResult{
		PerAppliance: make(map[string]float64, len(appliances)),
		Entries:      make([]EntryConsumption, 0, len(appliances)),
	}
	for i, a := range appliances {
		if err := a.Validate(); err != nil {
			return ConsumptionResult{}, fmt.Errorf("appliance %d: %w", i, err)
		}
		monthly := MonthlyKWh(a)
		res.TotalKWh += monthly
		res.PerAppliance[a.Name] = monthly
		res.Entries = append(res.Entries, EntryConsumption{
			ID:         a.ID,
			Name:       a.Name,
			Area:       a.Area,
			MonthlyKWh: monthly,
		})
	}
	return res, nil
}

// NameTotal is the consumption of every entry sharing one name.
type NameTotal struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	MonthlyKWh float64 `json:"monthly_kwh"`
}

// AggregateByName sums entries by appliance name, in order of first
// appearance. Unlike PerAppliance nothing is dropped.
func (r ConsumptionResult) AggregateByName() []NameTotal {
	idx := make(map[string]int, len(r.Entries))
	var out []NameTotal
	for _, e := range r.Entries {
		i, ok := idx[e.Name]
		if !ok {
			idx[e.Name] = len(out)
			out = append(out, NameTotal{Name: e.Name})
			i = len(out) - 1
		}
		out[i].Count++
		out[i].MonthlyKWh += e.MonthlyKWh
	}
	return out
}

// NamedKWh pairs an appliance name with a monthly consumption.
type NamedKWh struct {
	Name       string  `json:"name"`
	MonthlyKWh float64 `json:"monthly_kwh"`
}

// Breakdown is PerAppliance as an ordered list: names in order of first
// appearance, each with the value of its last entry.
func (r ConsumptionResult) Breakdown() []NamedKWh {
	idx := make(map[string]int, len(r.Entries))
	var out []NamedKWh
	for _, e := range r.Entries {
		if i, ok := idx[e.Name]; ok {
			out[i].MonthlyKWh = e.MonthlyKWh
			continue
		}
		idx[e.Name] = len(out)
		out = append(out, NamedKWh{Name: e.Name, MonthlyKWh: e.MonthlyKWh})
	}
	return out
}
