package solar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bher20/ecoenergy/internal/rates"
)

func TestEstimate(t *testing.T) {
	res, ok, err := Estimate(Input{Panels: 10, DailyKWhPerPanel: 1.0, InstallationCost: 3000})
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 300, res.MonthlyProductionKWh, 1e-9)
	require.InDelta(t, 210, res.MonthlySavings, 1e-9)
	require.InDelta(t, 14.2857, res.MonthsToRecoup, 1e-3)
	require.True(t, res.Recoups())
}

func TestEstimate_FreeInstallation(t *testing.T) {
	res, ok, err := Estimate(Input{Panels: 2, DailyKWhPerPanel: 0.5})
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, res.MonthsToRecoup)
}

func TestEstimate_Guarded(t *testing.T) {
	for _, in := range []Input{
		{Panels: 0, DailyKWhPerPanel: 1, InstallationCost: 100},
		{Panels: 5, DailyKWhPerPanel: 0, InstallationCost: 100},
		{},
	} {
		res, ok, err := Estimate(in)
		require.NoError(t, err)
		require.False(t, ok, "input %+v", in)
		require.Equal(t, Result{}, res)
	}
}

func TestEstimate_InvalidInput(t *testing.T) {
	for _, in := range []Input{
		{Panels: -1, DailyKWhPerPanel: 1},
		{Panels: 1, DailyKWhPerPanel: -1},
		{Panels: 1, DailyKWhPerPanel: math.NaN()},
		{Panels: 1, DailyKWhPerPanel: 1, InstallationCost: -5},
		{Panels: 1, DailyKWhPerPanel: 1, InstallationCost: math.Inf(1)},
	} {
		_, _, err := Estimate(in)
		require.ErrorIs(t, err, ErrInvalidInput, "input %+v", in)
	}
}

func TestSavingsRateIgnoresTariffs(t *testing.T) {
	// The savings value is flat, so it differs from what the same energy
	// would cost on a state bill.
	res, ok, err := Estimate(Input{Panels: 1, DailyKWhPerPanel: 10})
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, res.MonthlyProductionKWh*SavingsRatePerKWh, res.MonthlySavings, 1e-9)
	require.NotEqual(t, rates.EstimateBill(res.MonthlyProductionKWh, "Pará"), res.MonthlySavings)
}
