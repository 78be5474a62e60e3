package rates

import "github.com/shopspring/decimal"

// Bill is an estimated monthly electricity bill.
type Bill struct {
	State      string  `json:"state"`
	TotalKWh   float64 `json:"total_kwh"`
	RatePerKWh float64 `json:"rate_per_kwh"`
	Amount     float64 `json:"amount"`
	// Rounded is Amount rounded half-up to cents, e.g. "123.46".
	Rounded  string `json:"rounded"`
	Currency string `json:"currency"`
}

// EstimateBill multiplies totalKWh by the built-in rate of state.
func EstimateBill(totalKWh float64, state string) float64 {
	return totalKWh * RateForState(state)
}

// Bill estimates the bill for totalKWh at the rate of state.
func (t *Table) Bill(totalKWh float64, state string) Bill {
	rate := t.Rate(state)
	amount := totalKWh * rate
	return Bill{
		State:      state,
		TotalKWh:   totalKWh,
		RatePerKWh: rate,
		Amount:     amount,
		Rounded:    RoundCents(amount),
		Currency:   Currency,
	}
}

// RoundCents formats amount with two decimal places.
func RoundCents(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}
