// Package solar estimates the monthly production, savings and payback time
// of a rooftop solar installation.
package solar

import (
	"errors"
	"fmt"
	"math"

	"github.com/bher20/ecoenergy/internal/energy"
)

// SavingsRatePerKWh is the flat value of one self-produced kWh. It does not
// follow the state tariff table.
const SavingsRatePerKWh = 0.70

var ErrInvalidInput = errors.New("invalid solar input")

// Input describes an installation.
type Input struct {
	Panels           int     `json:"panels"`
	DailyKWhPerPanel float64 `json:"daily_kwh_per_panel"`
	InstallationCost float64 `json:"installation_cost"`
}

// Result is the estimate for an Input. MonthsToRecoup is +Inf when the
// savings are zero.
type Result struct {
	MonthlyProductionKWh float64 `json:"monthly_production_kwh"`
	MonthlySavings       float64 `json:"monthly_savings"`
	MonthsToRecoup       float64 `json:"months_to_recoup"`
}

// Recoups reports whether the installation ever pays for itself.
func (r Result) Recoups() bool { return !math.IsInf(r.MonthsToRecoup, 1) }

// Estimate computes the payback of in. When there are no panels or no
// production it returns ok=false and no result. Negative or non-finite
// numbers fail with ErrInvalidInput.
func Estimate(in Input) (res Result, ok bool, err error) {
	if in.Panels < 0 {
		return Result{}, false, fmt.Errorf("%w: panels %d is negative", ErrInvalidInput, in.Panels)
	}
	if bad(in.DailyKWhPerPanel) {
		return Result{}, false, fmt.Errorf("%w: daily production %v", ErrInvalidInput, in.DailyKWhPerPanel)
	}
	if bad(in.InstallationCost) {
		return Result{}, false, fmt.Errorf("%w: installation cost %v", ErrInvalidInput, in.InstallationCost)
	}
	if in.Panels == 0 || in.DailyKWhPerPanel == 0 {
		return Result{}, false, nil
	}

	monthly := in.DailyKWhPerPanel * float64(in.Panels) * energy.DaysPerMonth
	savings := monthly * SavingsRatePerKWh
	months := math.Inf(1)
	if savings > 0 {
		months = in.InstallationCost / savings
	}
	return Result{MonthlyProductionKWh: monthly, MonthlySavings: savings, MonthsToRecoup: months}, true, nil
}

func bad(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}
